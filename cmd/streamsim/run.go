package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/utkarsh5026/streamsim/internal/config"
	"github.com/utkarsh5026/streamsim/internal/metrics"
	"github.com/utkarsh5026/streamsim/internal/report"
	"github.com/utkarsh5026/streamsim/stream"
)

type runFlags struct {
	strategy string
	print    bool
	quiet    bool
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	f := &runFlags{strategy: cfg.Pipeline.Strategy}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the pipeline once with one decode strategy",
		Example: `  streamsim run --strategy pool -p 8 -d 10s
  streamsim run --print -d 50ms
  STREAMSIM_METRICS_ADDR=:9100 streamsim run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, cfg, f)
		},
	}

	cmd.Flags().StringVarP(&f.strategy, "strategy", "s", f.strategy, "decode strategy: polling or pool")
	cmd.Flags().BoolVar(&f.print, "print", false, "print every rendered frame value to stdout")
	cmd.Flags().BoolVarP(&f.quiet, "quiet", "q", false, "no progress bar")
	cmd.Flags().StringVar(&cfg.Metrics.Addr, "metrics-addr", cfg.Metrics.Addr, "serve Prometheus metrics on this address, e.g. :9100")
	return cmd
}

func runPipeline(cmd *cobra.Command, cfg *config.Config, f *runFlags) error {
	e, err := newEnv(cmd, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = e.logger.Sync() }()

	cfg.Pipeline.Strategy = f.strategy
	sc, err := cfg.Stream()
	if err != nil {
		return err
	}

	var opts []stream.ServiceOption
	if f.print {
		opts = append(opts, stream.WithSink(stream.NewWriterSink(e.out, func(fr stream.Frame) string {
			return fmt.Sprint(fr.Data)
		})))
	}

	var collector *metrics.Collector
	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		collector = metrics.New(reg)
		opts = append(opts, stream.WithObserver(collector))

		srv := serveMetrics(cfg.Metrics.Addr, reg, e.logger)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	opts = append(opts, stream.WithLogger(e.logger))
	svc, err := stream.NewService(sc, opts...)
	if err != nil {
		return err
	}
	collector.TrackService(svc)

	e.logger.Info("started stream service", zap.Stringer("id", svc.ID()))
	res, err := e.drive(cmd.Context(), svc, f.quiet || f.print)
	if err != nil {
		return err
	}
	e.logger.Info("ended stream service", zap.Stringer("id", svc.ID()))

	return report.PrintSummary(e.errOut, "STREAM RUN", []report.Result{res})
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()

	logger.Info("serving metrics", zap.String("addr", addr))
	return srv
}
