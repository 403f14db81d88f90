package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/satobs/core"
	"github.com/signalsfoundry/satobs/internal/config"
	"github.com/signalsfoundry/satobs/internal/logging"
	"github.com/signalsfoundry/satobs/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app holds the dependencies shared by every subcommand. It is populated by
// the root command's PersistentPreRunE.
type app struct {
	configPath string

	cfg      *config.Config
	log      logging.Logger
	registry *prometheus.Registry
	metrics  *observability.ObservationCollector
	shutdown func(context.Context) error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "satobs",
		Short:        "Decode two-line element sets and observe satellites",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd.Context(), cmd.ErrOrStderr())
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			observability.ShutdownWithTimeout(context.Background(), a.shutdown, a.log)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the YAML configuration file")

	root.AddCommand(
		newParseCmd(a),
		newObserveCmd(a),
		newTrackCmd(a),
		newImportCmd(a),
	)
	return root
}

func (a *app) setup(ctx context.Context, stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	lc := cfg.LoggingConfig()
	lc.Output = stderr
	a.log = logging.New(lc)

	if err := cfg.LoadLeapSeconds(); err != nil {
		return err
	}

	tc := cfg.TracingConfig()
	tc.Writer = stderr
	if a.shutdown, err = observability.InitTracing(ctx, tc, a.log); err != nil {
		return err
	}

	a.registry = prometheus.NewRegistry()
	a.metrics, err = observability.NewObservationCollector(a.registry)
	return err
}

// service builds an observation pipeline over SGP4 with the configured
// constant set and mode.
func (a *app) service() (*core.ObservationService, error) {
	gravity, err := core.ParseGravity(a.cfg.Propagator.Gravity)
	if err != nil {
		return nil, err
	}
	mode, err := core.ParseOpsMode(a.cfg.Propagator.Mode)
	if err != nil {
		return nil, err
	}
	return core.NewObservationService(
		core.NewSGP4Propagator(),
		core.WithLogger(a.log),
		core.WithMetrics(a.metrics),
		core.WithTracer(observability.Tracer()),
		core.WithGravity(gravity),
		core.WithOpsMode(mode),
	), nil
}

func serveMetrics(addr string, gatherer prometheus.Gatherer, log logging.Logger) *http.Server {
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.HandlerFor(gatherer))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
