// Package container provides dependency injection for the application. It
// centralizes the creation and wiring of all dependencies, making them
// explicit and testable.
package container

import (
	"context"
	"fmt"

	"hishab/internal/ai"
	"hishab/internal/categorizer"
	"hishab/internal/config"
	"hishab/internal/extractor"
	"hishab/internal/heuristic"
	"hishab/internal/logging"
	"hishab/internal/normalizer"
	"hishab/internal/pipeline"
	"hishab/internal/store"
	"hishab/internal/vocab"
)

// Container holds all application dependencies. It is immutable after
// creation: fields are private and only reachable through getters, so
// nothing can swap a dependency mid-run.
type Container struct {
	logger       logging.Logger
	config       *config.Config
	aiClient     ai.Client
	orchestrator *pipeline.Orchestrator
	sqliteStore  *store.SQLiteStore
	memCache     *store.MemoryCache
}

// NewContainer creates and wires all application dependencies from the
// configuration. Call Close when done to release the database and any
// background goroutines.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	logging.SetLogger(logger)

	vocabStore := vocab.NewStore(cfg.Data.VocabFile, logger)
	expense, income, err := vocabStore.Load()
	if err != nil {
		return nil, fmt.Errorf("loading vocabulary: %w", err)
	}

	var aiClient ai.Client
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		client, err := ai.NewGeminiClient(ctx, ai.Options{
			APIKey:          cfg.AI.APIKey,
			Model:           cfg.AI.Model,
			Timeout:         cfg.AITimeout(),
			Temperature:     float32(cfg.AI.Temperature),
			MaxOutputTokens: int32(cfg.AI.MaxOutputTokens),
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating AI client: %w", err)
		}
		aiClient = client
		logger.Info("AI parsing enabled")
	} else {
		logger.Info("AI parsing disabled, heuristic only")
	}

	c := &Container{logger: logger, config: cfg, aiClient: aiClient}

	fallback := heuristic.New(
		extractor.New(cfg.Currency.Default),
		categorizer.New(expense, logger),
		categorizer.New(income, logger),
		logger,
	)
	slugs := append(expense.Slugs(), income.Slugs()...)
	norm := normalizer.New(cfg.Currency.Default, slugs, cfg.Thresholds.AutoAccept, logger)

	var (
		audit pipeline.AuditStore
		cache pipeline.ResultCache
	)
	if cfg.Data.Database != "" {
		sqliteStore, err := store.NewSQLiteStore(cfg.Data.Database, cfg.CacheTTL(), logger)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		c.sqliteStore = sqliteStore
		audit = sqliteStore
		cache = sqliteStore.Cache()
	} else {
		c.memCache = store.NewMemoryCache(cfg.CacheTTL())
		audit = store.NewMemoryAuditStore()
		cache = c.memCache
	}

	c.orchestrator = pipeline.New(aiClient, fallback, norm, audit, cache, slugs,
		pipeline.Thresholds{Review: cfg.Thresholds.Review, AutoAccept: cfg.Thresholds.AutoAccept},
		logger,
	)
	return c, nil
}

// Logger returns the application logger.
func (c *Container) Logger() logging.Logger { return c.logger }

// Config returns the application configuration.
func (c *Container) Config() *config.Config { return c.config }

// Orchestrator returns the parsing pipeline.
func (c *Container) Orchestrator() *pipeline.Orchestrator { return c.orchestrator }

// Close releases the container's resources.
func (c *Container) Close() error {
	var firstErr error
	if c.aiClient != nil {
		if err := c.aiClient.Close(); err != nil {
			firstErr = err
		}
	}
	if c.sqliteStore != nil {
		if err := c.sqliteStore.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if c.memCache != nil {
		if err := c.memCache.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
