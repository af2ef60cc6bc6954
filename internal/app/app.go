// Package app wires configuration into a ready pipeline for the binaries.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/joseph-ayodele/glr-generator/internal/common"
	"github.com/joseph-ayodele/glr-generator/internal/llm/openrouter"
	"github.com/joseph-ayodele/glr-generator/internal/pdf"
	"github.com/joseph-ayodele/glr-generator/internal/pipeline"
	"github.com/joseph-ayodele/glr-generator/internal/repository"
)

type App struct {
	Config    *common.Config
	Logger    *slog.Logger
	Processor *pipeline.Processor
	Model     *openrouter.Client
	PDF       *pdf.Extractor

	// Set only when RUN_DB_URL is configured.
	DB   *repository.DB
	Runs repository.RunRepository
}

// New builds the collaborators described by cfg. The run journal is opened
// and migrated when a DSN is set.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger}

	a.PDF = pdf.NewExtractor(pdf.Config{
		Method:    cfg.PDF.Method,
		Pdftotext: cfg.PDF.Pdftotext,
		MaxPages:  cfg.PDF.MaxPages,
	}, logger)

	a.Model = openrouter.NewClient(openrouter.Config{
		APIKey:  cfg.LLM.APIKey,
		BaseURL: cfg.LLM.BaseURL,
		Model:   cfg.LLM.Model,
		Timeout: cfg.LLM.Timeout,
	}, logger)
	if cfg.LLM.APIKey == "" {
		logger.Warn("app.config.no_api_key", "hint", "OPENROUTER_API_KEY is empty; model calls will be rejected by the provider")
	}

	if cfg.Journal.DSN != "" {
		db, err := repository.Open(ctx, repository.Config{DSN: cfg.Journal.DSN}, logger)
		if err != nil {
			return nil, fmt.Errorf("open run journal: %w", err)
		}
		if err := repository.Migrate(ctx, db); err != nil {
			repository.Close(db, logger)
			return nil, fmt.Errorf("migrate run journal: %w", err)
		}
		a.DB = db
		a.Runs = repository.NewRunRepository(db, logger)
	}

	a.Processor = pipeline.NewProcessor(pipeline.Config{
		ModelName:      a.Model.Model(),
		MaxUploadBytes: cfg.MaxUploadBytes(),
	}, logger, a.PDF, a.Model, a.Runs)

	logger.Info("app.ready",
		"model", a.Model.Model(),
		"pdf_method", a.PDF.Method(),
		"journal", a.DB != nil,
	)
	return a, nil
}

// Close releases the journal connection, if any.
func (a *App) Close() {
	repository.Close(a.DB, a.Logger)
}
