// Command autobot computes and publishes compact weather reports for a
// multi-day hiking route.
//
// In daemon mode it runs the scheduler: a morning and an evening report at
// their configured times and a periodic dynamic change check in between,
// with health and metrics endpoints. With -mode it performs exactly one
// invocation and exits, which suits cron-style deployments. With -samples
// the batch is read from a local JSON file instead of Kafka.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"

	fileadapter "github.com/henemm/weather-email-autobot/internal/adapter/file"
	httpadapter "github.com/henemm/weather-email-autobot/internal/adapter/http"
	kafkaadapter "github.com/henemm/weather-email-autobot/internal/adapter/kafka"
	"github.com/henemm/weather-email-autobot/internal/config"
	"github.com/henemm/weather-email-autobot/internal/observability"
	"github.com/henemm/weather-email-autobot/internal/pipeline"
	"github.com/henemm/weather-email-autobot/internal/report"
	"github.com/henemm/weather-email-autobot/internal/route"
	"github.com/henemm/weather-email-autobot/internal/scheduler"
	"github.com/henemm/weather-email-autobot/internal/state"
)

func main() {
	mode := flag.String("mode", "", "run one invocation (morning, evening, dynamic) and exit; empty runs the daemon")
	samplesFile := flag.String("samples", "", "read the sample batch from this JSON file instead of Kafka")
	flag.Parse()

	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	r, err := route.Load(cfg.RouteFile)
	if err != nil {
		logger.Error("failed to load route", "error", err)
		os.Exit(1)
	}

	store := state.NewStore(cfg.StateRoot, logger)
	detector := state.NewDetector(cfg.Deltas, cfg.MinInterval(), cfg.Limits.MaxDailyDynamic)
	audit := state.NewAudit(cfg.StateRoot, logger)

	var source pipeline.SampleSource
	var reader *kafkaadapter.Reader
	if *samplesFile != "" {
		source = fileadapter.NewSource(*samplesFile, logger)
		logger.Info("reading samples from file", "path", *samplesFile)
	} else {
		reader = kafkaadapter.NewReader(cfg, logger)
		source = reader
	}
	writer := kafkaadapter.NewWriter(cfg, logger)

	p := pipeline.New(source, writer, cfg, r, store, detector, audit, clock, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	if *mode != "" {
		if err := p.Run(ctx, report.Kind(*mode)); err != nil {
			logger.Error("invocation failed", "mode", *mode, "error", err)
			exitCode = 1
		}
	} else {
		exitCode = runDaemon(ctx, cfg, p, clock, logger, metrics)
	}

	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
	os.Exit(exitCode)
}

func runDaemon(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) int {
	sched, err := scheduler.New(p, cfg, clock, logger, metrics)
	if err != nil {
		logger.Error("failed to build scheduler", "error", err)
		return 1
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := sched.Run(ctx); err != nil {
			logger.Error("scheduler error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	return 0
}
