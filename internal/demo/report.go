package demo

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/okian/candirank/internal/adapters/export"
)

// PrintReport writes a ranking as an aligned table.
func PrintReport(w io.Writer, r *export.Report) error {
	p := r.Position
	if _, err := fmt.Fprintf(w, "%s (%s), pay %d, fill by %s\n",
		p.Title, p.ID, p.AllocatedPay, p.RequiredDateOfFilling.Format(time.DateOnly)); err != nil {
		return err
	}
	if len(r.Entries) == 0 {
		_, err := fmt.Fprintln(w, "  no ranked candidates")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tCANDIDATE\tNAME\tSCORE\tSKILLS\tPAY\tAVAIL\tDESC")
	for _, e := range r.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%.2f\t%.3f\t%.3f\t%.3f\t%.3f\n",
			e.Rank, e.CandidateID, r.Names[e.CandidateID], e.Score,
			e.Breakdown.Skills, e.Breakdown.Pay, e.Breakdown.Availability, e.Breakdown.Description)
	}
	return tw.Flush()
}

// PrintStats writes a one-line run summary.
func PrintStats(w io.Writer, s Stats) error {
	_, err := fmt.Fprintf(w, "evaluations: %d submitted, %d accepted, %d duplicate in %s\n",
		s.Submitted, s.Accepted, s.Duplicate, s.Duration.Round(time.Millisecond))
	return err
}
