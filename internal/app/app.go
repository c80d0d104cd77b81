// Package app assembles the configured backends shared by the server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"

	"alcyxob/movement-program/internal/config"
	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/enhance"
	"alcyxob/movement-program/internal/llm"
	"alcyxob/movement-program/internal/logger"
	"alcyxob/movement-program/internal/repository"
	"alcyxob/movement-program/internal/repository/mongo"
	"alcyxob/movement-program/internal/service"
	"alcyxob/movement-program/internal/storage"
)

// Components holds the wired dependencies. Close releases them in reverse order.
type Components struct {
	Source    corpus.Source                 // Cached view of the configured corpus
	Templates repository.TemplateRepository // Set for the mongo corpus
	Store     storage.ObjectStorage         // Set when a bucket is configured
	Enhancer  *enhance.Enhancer             // Passthrough when no provider is configured

	closers []func()
}

// Build connects the backends selected by cfg.
func Build(ctx context.Context, cfg config.Config, log *logger.Logger) (_ *Components, err error) {
	c := &Components{}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if cfg.S3.BucketName != "" {
		c.Store, err = storage.NewS3Storage(ctx, cfg.S3, log)
		if err != nil {
			return nil, fmt.Errorf("init object storage: %w", err)
		}
	}

	primary, err := c.openCorpus(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	var remote corpus.RemoteStore
	if cfg.Redis.Addr != "" {
		rs := corpus.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if pingErr := rs.Ping(ctx); pingErr != nil {
			log.Warn("Redis unreachable, corpus cache is process-local", "addr", cfg.Redis.Addr, "error", pingErr.Error())
			_ = rs.Close()
		} else {
			remote = rs
			c.closers = append(c.closers, func() { _ = rs.Close() })
		}
	}
	c.Source = corpus.NewCachedSource(primary, remote, cfg.Redis.CacheTTL, log)

	c.Enhancer, err = NewEnhancer(ctx, cfg.Enhancement, log)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Components) openCorpus(ctx context.Context, cfg config.Config, log *logger.Logger) (corpus.Source, error) {
	switch cfg.Corpus.Source {
	case config.CorpusStatic:
		return corpus.NewStaticSource()
	case config.CorpusFile:
		return corpus.NewFileSource(cfg.Corpus.Files...)
	case config.CorpusMongo:
		client, err := mongo.ConnectDB(ctx, cfg.Database.URI)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		c.closers = append(c.closers, func() {
			if err := mongo.DisconnectDB(client); err != nil {
				log.Error("Failed to disconnect MongoDB", "error", err.Error())
			}
		})
		db := client.Database(cfg.Database.Name)
		if err := mongo.EnsureTemplateIndexes(ctx, db); err != nil {
			return nil, fmt.Errorf("ensure template indexes: %w", err)
		}
		c.Templates = mongo.NewMongoTemplateRepository(db)
		return c.Templates, nil
	case config.CorpusS3:
		if c.Store == nil {
			return nil, errors.New("s3 corpus requires s3.bucket_name")
		}
		return storage.NewBundleSource(c.Store, cfg.S3.CorpusPrefix), nil
	default:
		return nil, fmt.Errorf("unknown corpus source %q", cfg.Corpus.Source)
	}
}

// NewEnhancer builds the enhancement layer. A missing provider or key yields a
// passthrough enhancer.
func NewEnhancer(ctx context.Context, cfg config.EnhancementConfig, log *logger.Logger) (*enhance.Enhancer, error) {
	client, err := llm.New(ctx, llm.Config{
		Provider: cfg.Provider,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		BaseURL:  cfg.BaseURL,
		Timeout:  cfg.Timeout,
	}, log)
	switch {
	case errors.Is(err, llm.ErrNotConfigured):
		log.Info("Enhancement disabled, serving deterministic programs")
		client = nil
	case err != nil:
		return nil, fmt.Errorf("init llm client: %w", err)
	default:
		log.Info("Enhancement enabled", "provider", client.Provider())
	}
	return enhance.New(client, enhance.Options{Timeout: cfg.Timeout, QuotaPerMinute: cfg.QuotaPerMinute}, log)
}

// ProgramService builds the generation service from cfg. Media URLs are presigned
// only when enabled and a bucket is available.
func (c *Components) ProgramService(cfg config.Config, log *logger.Logger) service.ProgramService {
	var media storage.ObjectStorage
	if cfg.Program.PresignMedia {
		media = c.Store
	}
	return service.NewProgramService(c.Source, c.Enhancer, media, service.ProgramOptions{
		ScoringVersion:         cfg.Corpus.ScoringVersion,
		DefaultBudgetMinutes:   cfg.Program.DefaultBudgetMinutes,
		LowConfidenceThreshold: cfg.Program.LowConfidenceThreshold,
		PresignExpiry:          cfg.S3.PresignExpiry,
	}, log)
}

// Close releases connections opened by Build.
func (c *Components) Close() {
	if c == nil {
		return
	}
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}
