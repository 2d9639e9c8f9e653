// Package export writes position rankings to spreadsheet reports.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/okian/candirank/internal/adapters/repository"
	"github.com/okian/candirank/internal/domain/model"
)

// Sheet names of a ranking report.
const (
	SummarySheet = "Summary"
	RankingSheet = "Ranking"
)

// RankingHeaders are the column titles of the ranking sheet.
var RankingHeaders = []string{"Rank", "Candidate ID", "Name", "Score", "Skills", "Pay", "Availability", "Description"}

// Report is one position's ranking, ready to be written.
type Report struct {
	Position model.Position
	Entries  []repository.Entry
	// Names maps candidate id to display name; unknown ids are left blank.
	Names       map[string]string
	GeneratedAt time.Time
}

// WriteFile writes the report to path, adding the .xlsx extension if missing.
func WriteFile(path string, r *Report) error {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	f, err := build(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// Write streams the report as an xlsx document.
func Write(w io.Writer, r *Report) error {
	f, err := build(r)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func build(r *Report) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(RankingSheet); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := summarySheet(f, r); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("summary sheet: %w", err)
	}
	if err := rankingSheet(f, r); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("ranking sheet: %w", err)
	}
	return f, nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
}

func summarySheet(f *excelize.File, r *Report) error {
	if err := f.SetColWidth(SummarySheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SummarySheet, "B", "B", 60); err != nil {
		return err
	}
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	label, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	generated := r.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	p := r.Position
	skills := make([]string, len(p.RequiredSkills))
	for i, id := range p.RequiredSkills {
		skills[i] = fmt.Sprintf("%s (%.2f)", id, p.RequiredSkillWeights[i])
	}

	if err := f.SetCellValue(SummarySheet, "A1", "Ranking Report"); err != nil {
		return err
	}
	if err := f.MergeCell(SummarySheet, "A1", "B1"); err != nil {
		return err
	}
	if err := f.SetCellStyle(SummarySheet, "A1", "B1", header); err != nil {
		return err
	}

	rows := [][2]any{
		{"Position ID:", p.ID},
		{"Title:", p.Title},
		{"Allocated Pay:", p.AllocatedPay},
		{"Fill By:", p.RequiredDateOfFilling.Format(time.DateOnly)},
		{"Required Skills:", strings.Join(skills, ", ")},
		{"Ranked Candidates:", len(r.Entries)},
		{"Generated:", generated.Format(time.DateTime)},
	}
	for i, kv := range rows {
		row := i + 3
		a := fmt.Sprintf("A%d", row)
		if err := f.SetCellValue(SummarySheet, a, kv[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(SummarySheet, a, a, label); err != nil {
			return err
		}
		if err := f.SetCellValue(SummarySheet, fmt.Sprintf("B%d", row), kv[1]); err != nil {
			return err
		}
	}
	return nil
}

func rankingSheet(f *excelize.File, r *Report) error {
	header, err := headerStyle(f)
	if err != nil {
		return err
	}
	number, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return err
	}
	if err := f.SetColWidth(RankingSheet, "A", "A", 8); err != nil {
		return err
	}
	if err := f.SetColWidth(RankingSheet, "B", "C", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(RankingSheet, "D", "H", 14); err != nil {
		return err
	}

	for col, h := range RankingHeaders {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(RankingSheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(RankingSheet, cell, cell, header); err != nil {
			return err
		}
	}

	for i, e := range r.Entries {
		row := i + 2
		values := []any{
			e.Rank,
			e.CandidateID,
			r.Names[e.CandidateID],
			e.Score,
			e.Breakdown.Skills,
			e.Breakdown.Pay,
			e.Breakdown.Availability,
			e.Breakdown.Description,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RankingSheet, cell, &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(RankingSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("H%d", row), number); err != nil {
			return err
		}
	}
	if len(r.Entries) > 0 {
		if err := f.SetPanes(RankingSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
			return err
		}
	}
	return nil
}

// WriteRanking writes a position's ranking to path without candidate names.
func WriteRanking(path string, position model.Position, entries []repository.Entry) error { //nolint:gocritic // hugeParam
	return WriteFile(path, &Report{Position: position, Entries: entries})
}
