package main

import (
	"github.com/spf13/cobra"

	"github.com/utkarsh5026/streamsim/internal/config"
	"github.com/utkarsh5026/streamsim/internal/report"
	"github.com/utkarsh5026/streamsim/stream"
)

func newCompareCmd(cfg *config.Config) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run the pipeline with each decode strategy and compare throughput",
		Long: `compare runs the same workload once with dedicated polling decode workers ` +
			`and once with the worker pool, one after the other, and prints a summary table.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := newEnv(cmd, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			var results []report.Result
			for _, strategy := range []stream.Strategy{stream.StrategyPolling, stream.StrategyPool} {
				cfg.Pipeline.Strategy = string(strategy)
				sc, err := cfg.Stream()
				if err != nil {
					return err
				}

				res, err := e.runOnce(cmd.Context(), sc, quiet)
				if err != nil {
					return err
				}
				results = append(results, res)

				if cmd.Context().Err() != nil {
					break
				}
			}

			return report.PrintSummary(e.out, "DECODE STRATEGY COMPARISON", results)
		},
	}

	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "no progress bar")
	return cmd
}
