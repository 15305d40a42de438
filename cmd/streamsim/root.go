package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/utkarsh5026/streamsim/internal/config"
	"github.com/utkarsh5026/streamsim/internal/logging"
	"github.com/utkarsh5026/streamsim/internal/report"
	"github.com/utkarsh5026/streamsim/stream"
)

// newRootCmd builds the command tree. Flag defaults come from cfg, which
// holds whatever the environment set.
func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:   "streamsim",
		Short: "Simulate a streaming ingest pipeline with bounded queues and worker pools.",
		Long: `streamsim pushes random frames from simulated network threads through a ` +
			`decodable queue, a decode stage and a decoded queue into a renderer. ` +
			`The decode stage uses either dedicated polling workers or a worker pool.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&cfg.Logging.Level, "log-level", cfg.Logging.Level, "log level (debug, info, warn, error)")
	flags.BoolVar(&cfg.Logging.Development, "log-dev", cfg.Logging.Development, "human-readable console logs")
	addPipelineFlags(flags, &cfg.Pipeline)

	root.AddCommand(newRunCmd(cfg), newCompareCmd(cfg))
	return root
}

func addPipelineFlags(flags *pflag.FlagSet, p *config.PipelineConfig) {
	flags.IntVarP(&p.Producers, "producers", "p", p.Producers, "number of simulated network threads")
	flags.DurationVarP(&p.RunDuration, "duration", "d", p.RunDuration, "how long each producer runs")
	flags.DurationVar(&p.ProduceInterval, "interval", p.ProduceInterval, "pause between frames of one producer")
	flags.IntVar(&p.InputAttempts, "input-attempts", p.InputAttempts, "writes per frame before a producer drops it")
	flags.DurationVar(&p.RetryBackoff, "retry-backoff", p.RetryBackoff, "first pause between producer retries")
	flags.IntVarP(&p.DecodeWorkers, "workers", "w", p.DecodeWorkers, "decode workers")
	flags.DurationVar(&p.DecodeLatency, "decode-latency", p.DecodeLatency, "simulated decode cost per frame")
	flags.IntVar(&p.PoolQueueCapacity, "pool-capacity", p.PoolQueueCapacity, "worker pool internal queue bound (0 = workers)")
	flags.IntVar(&p.WriteAttempts, "write-attempts", p.WriteAttempts, "writes per decoded frame before it is dropped")
	flags.IntVar(&p.QueueCapacity, "queue-capacity", p.QueueCapacity, "capacity of the decodable and decoded queues")
	flags.DurationVar(&p.WaitTimeout, "wait-timeout", p.WaitTimeout, "blocking queue wait (0 = forever)")
	flags.BoolVar(&p.PinThreads, "pin", p.PinThreads, "pin stage threads to CPU cores")
}

// env bundles what every subcommand needs.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer
}

func newEnv(cmd *cobra.Command, cfg *config.Config) (*env, error) {
	logger, err := logging.New(cfg.Logger())
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:    cfg,
		logger: logger,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

// runOnce runs a service to completion, following it with a progress bar
// unless quiet is set. Cancelling ctx truncates input; the pipeline still
// drains before the result is returned.
func (e *env) runOnce(ctx context.Context, sc stream.Config, quiet bool, opts ...stream.ServiceOption) (report.Result, error) {
	opts = append(opts, stream.WithLogger(e.logger))
	svc, err := stream.NewService(sc, opts...)
	if err != nil {
		return report.Result{}, err
	}
	return e.drive(ctx, svc, quiet)
}

func (e *env) drive(ctx context.Context, svc *stream.Service, quiet bool) (report.Result, error) {
	sc := svc.Config()
	if err := svc.Run(ctx); err != nil {
		return report.Result{}, fmt.Errorf("run %s pipeline: %w", sc.Strategy, err)
	}

	if !quiet {
		desc := fmt.Sprintf("%-7s", sc.Strategy)
		report.NewProgress(e.errOut, desc, sc.RunDuration).Follow(ctx, svc.Stats)
		_, _ = fmt.Fprintln(e.errOut)
	}

	svc.Shutdown()
	if errors.Is(ctx.Err(), context.Canceled) {
		e.logger.Warn("run interrupted; input was truncated")
	}

	return report.Result{Strategy: sc.Strategy, Stats: svc.Stats()}, nil
}
