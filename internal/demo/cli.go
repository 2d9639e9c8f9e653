package demo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/candirank/internal/adapters/export"
	service "github.com/okian/candirank/internal/app"
	"github.com/okian/candirank/internal/config"
	"github.com/okian/candirank/pkg/logger"
)

// Default flag values.
const (
	defaultURL         = "http://localhost:9080"
	defaultLimit       = 10
	defaultTimeout     = 30 * time.Second
	defaultStopTimeout = 10 * time.Second
)

type rootFlags struct {
	logLevel   string
	limit      int
	positionID string
	xlsx       string
	dataFile   string
}

// NewRootCommand builds the demo CLI.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "candirank-demo",
		Short: "Seed a hiring scenario and print the candidate ranking",
		Long: `Seeds skills, positions, candidates and interview evaluations into the
ranking service and prints each position's ranking.

The built-in scenario ranks two frontend developers for one position. Use
--data to seed a JSON dataset with the same shape instead.`,
		Example: `  candirank-demo run
  candirank-demo run --xlsx ranking.xlsx
  candirank-demo seed --url http://localhost:9080 --limit 5`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(flags.logLevel)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	pf.IntVarP(&flags.limit, "limit", "n", defaultLimit, "ranking entries to print per position")
	pf.StringVarP(&flags.positionID, "position", "p", "", "only print this position")
	pf.StringVar(&flags.xlsx, "xlsx", "", "also export the ranking to this .xlsx file")
	pf.StringVar(&flags.dataFile, "data", "", "JSON dataset to seed instead of the built-in one")

	root.AddCommand(newRunCommand(flags), newSeedCommand(flags))
	return root
}

func newRunCommand(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scenario against an in-process service",
		Long: `Starts a ranking service in-process, configured from CANDIRANK_* environment
variables and the optional CANDIRANK_CONFIG file, seeds the dataset and prints
the ranking.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ds, err := loadDataset(flags.dataFile)
			if err != nil {
				return err
			}
			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}
			svc, err := service.NewFromConfig(ctx, cfg, logger.Named("service"))
			if err != nil {
				return err
			}
			if err := svc.Start(ctx); err != nil {
				return err
			}
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultStopTimeout)
				defer cancel()
				if err := svc.Stop(stopCtx); err != nil {
					logger.Get().Warn(stopCtx, "service stop failed", logger.Error(err))
				}
			}()

			res, err := Run(ctx, svc, ds, Options{Limit: flags.limit, PositionID: flags.positionID})
			if err != nil {
				return err
			}
			return output(cmd, flags, res)
		},
	}
}

func newSeedCommand(flags *rootFlags) *cobra.Command {
	var (
		baseURL string
		timeout time.Duration
		workers int
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Run the scenario against a running service over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			ds, err := loadDataset(flags.dataFile)
			if err != nil {
				return err
			}
			client := NewClient(baseURL, timeout)
			if err := client.Health(ctx); err != nil {
				return fmt.Errorf("service health check failed: %w", err)
			}
			res, err := Run(ctx, client, ds, Options{
				Limit:      flags.limit,
				Workers:    workers,
				PositionID: flags.positionID,
			})
			if err != nil {
				return err
			}
			return output(cmd, flags, res)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", defaultURL, "base URL of the ranking service")
	cmd.Flags().DurationVar(&timeout, "timeout", defaultTimeout, "HTTP request timeout")
	cmd.Flags().IntVar(&workers, "workers", runtime.NumCPU()*2, "concurrent evaluation submissions")
	return cmd
}

func loadDataset(path string) (*Dataset, error) {
	if path == "" {
		ds := Default()
		return &ds, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", path, err)
	}
	return &ds, nil
}

func output(cmd *cobra.Command, flags *rootFlags, res *Result) error {
	out := cmd.OutOrStdout()
	for i := range res.Reports {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if err := PrintReport(out, &res.Reports[i]); err != nil {
			return err
		}
	}
	fmt.Fprintln(out)
	if err := PrintStats(out, res.Stats); err != nil {
		return err
	}

	if flags.xlsx == "" {
		return nil
	}
	for i := range res.Reports {
		path := xlsxPath(flags.xlsx, res.Reports[i].Position.ID, len(res.Reports))
		if err := export.WriteFile(path, &res.Reports[i]); err != nil {
			return err
		}
		fmt.Fprintf(out, "ranking exported to %s\n", path)
	}
	return nil
}

// xlsxPath derives one file per position when several are exported.
func xlsxPath(base, positionID string, reports int) string {
	if !strings.HasSuffix(strings.ToLower(base), ".xlsx") {
		base += ".xlsx"
	}
	if reports == 1 {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + positionID + ext
}
