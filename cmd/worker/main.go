package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lai-labs/sales-assistant/internal/bootstrap"
	"github.com/lai-labs/sales-assistant/internal/config"
	"github.com/lai-labs/sales-assistant/internal/observability/logging"
	"github.com/lai-labs/sales-assistant/internal/observability/metrics"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: workerMetrics.Handler(),
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("worker metrics server error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	slog.Info("worker subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		workerMetrics.StartDocument()
		start := time.Now()

		processCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		if doc, err := app.Repo.GetByID(processCtx, documentID); err == nil {
			workerMetrics.ObserveQueueLag("worker", start.Sub(doc.CreatedAt))
		}

		processErr := app.ProcessUC.ProcessByID(processCtx, documentID)
		workerMetrics.FinishDocument("worker", time.Since(start), processErr)

		if processErr == nil {
			if doc, err := app.Repo.GetByID(processCtx, documentID); err == nil {
				workerMetrics.ObserveIndexedChunks("worker", doc.ChunkCount)
			}
		}
		return processErr
	})
	if err != nil {
		slog.Error("worker subscribe error", "error", err)
		os.Exit(1)
	}
}
