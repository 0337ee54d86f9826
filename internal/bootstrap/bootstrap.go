// Package bootstrap wires the infrastructure behind the core ports. The
// api and worker binaries share it so both resolve the exact same stack.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lai-labs/sales-assistant/internal/config"
	"github.com/lai-labs/sales-assistant/internal/core/ports"
	"github.com/lai-labs/sales-assistant/internal/core/usecase"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/chunking"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/embedding/openai"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/extractor/office"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/llm/openrouter"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/queue/nats"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/repository/postgres"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/resilience"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/session"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/storage/localfs"
	"github.com/lai-labs/sales-assistant/internal/infrastructure/vector/local"
)

type App struct {
	Config config.Config

	Queue    ports.MessageQueue
	Repo     ports.DocumentRepository
	Sessions ports.SessionStore

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	ChatUC    ports.Assistant
	Pipeline  *usecase.DirectoryPipeline

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	completer, err := openrouter.New(
		cfg.OpenRouterURL,
		cfg.OpenRouterAPIKey,
		cfg.OpenRouterModel,
		cfg.LLMTemperature,
		openrouter.Options{Executor: executor},
	)
	if err != nil {
		return nil, fmt.Errorf("init llm client: %w", err)
	}

	embedder := openai.New(cfg.EmbeddingURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, openai.Options{
		Executor: executor,
	})

	chunker, err := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("init chunker: %w", err)
	}

	index := local.NewIndex()
	coldStart := false
	if err := index.Load(cfg.IndexDir); err != nil {
		if !local.IsNotExist(err) {
			return nil, fmt.Errorf("load vector index: %w", err)
		}
		coldStart = true
		slog.Info("no persisted vector index, starting empty", "dir", cfg.IndexDir)
	}

	sessions := session.NewManager(
		cfg.MaxContextTurns,
		time.Duration(cfg.SessionTimeoutHrs)*time.Hour,
		session.WithSnapshotDir(cfg.SessionsDir),
	)

	extractor := office.NewExtractor(storage)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, extractor, chunker, embedder, index, cfg.IndexDir)
	retrieveUC := usecase.NewRetrieveUseCase(embedder, index)
	chatUC := usecase.NewChatUseCase(retrieveUC, sessions, completer, usecase.ChatOptions{
		TopK:              cfg.RetrievalTopK,
		ScoreThreshold:    cfg.ScoreThreshold,
		MaxResponseTokens: cfg.MaxResponseTokens,
		ResponseLanguage:  cfg.ResponseLanguage,
	})
	pipeline := usecase.NewDirectoryPipeline(repo, storage, processUC)

	app := &App{
		Config: cfg,

		Queue:    queue,
		Repo:     repo,
		Sessions: sessions,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		ChatUC:    chatUC,
		Pipeline:  pipeline,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}

	if coldStart && cfg.DocumentsDir != "" {
		app.seedKnowledgeBase(ctx)
	}
	return app, nil
}

// seedKnowledgeBase ingests the configured documents directory when the
// index starts empty. Failures are logged per file and never block
// startup.
func (a *App) seedKnowledgeBase(ctx context.Context) {
	report, err := a.Pipeline.ProcessDirectory(ctx, a.Config.DocumentsDir)
	if err != nil {
		slog.Warn("knowledge base seeding aborted", "dir", a.Config.DocumentsDir, "error", err)
		return
	}
	slog.Info("knowledge base seeded",
		"dir", a.Config.DocumentsDir,
		"processed", len(report.Processed),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
