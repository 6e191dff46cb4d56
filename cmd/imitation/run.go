package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/imitation/internal/tracing"
	"github.com/tailored-agentic-units/imitation/observability"
	"github.com/tailored-agentic-units/imitation/runner"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the game until it finishes or is interrupted",
	Long: `Connects to the configured bus, runs the game and prints the final label:
completed_success, completed_error or canceled. Interrupting the process
cancels the game, which lets the robot announce it before exiting.`,
	RunE: runGame,
}

func init() {
	runCmd.Flags().String("bus", "", "Bus transport: memory, nats, redis or amqp (overrides config)")
	runCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :2112")
	runCmd.Flags().String("otlp-endpoint", "", "Export traces to this OTLP/HTTP host:port")
	rootCmd.AddCommand(runCmd)
}

func runGame(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := slog.Default()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	observer := observability.Observer(observability.NewSlogObserver(logger))

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		reg := prometheus.NewRegistry()
		metrics, err := observability.NewPrometheusObserver(reg, "imitation")
		if err != nil {
			return err
		}
		observer = observability.NewMultiObserver(observer, metrics)

		srv := serveMetrics(addr, reg, logger)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	if endpoint, _ := cmd.Flags().GetString("otlp-endpoint"); endpoint != "" {
		tcfg := tracing.DefaultConfig("imitation")
		tcfg.OTLPEndpoint = endpoint

		shutdown, err := tracing.SetupTracing(ctx, tcfg, logger)
		if err != nil {
			return err
		}
		defer tracing.ShutdownTracing(shutdown, logger)
	}

	r, err := runner.New(cfg, runner.WithLogger(logger), runner.WithObserver(observer))
	if err != nil {
		return err
	}
	defer r.Close()

	result, err := r.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Outcome)
	logger.Info("game finished",
		"outcome", result.Outcome,
		"run_id", result.RunID,
		"duration", result.Duration)

	if result.Outcome == runner.OutcomeCompletedError {
		return fmt.Errorf("game finished with %s", result.Outcome)
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()
	return srv
}
