package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"alcyxob/movement-program/internal/config"
	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/logger"
	"alcyxob/movement-program/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseConfig() config.Config {
	return config.Config{
		Corpus:      config.CorpusConfig{Source: config.CorpusStatic, ScoringVersion: "latest"},
		Redis:       config.RedisConfig{CacheTTL: time.Minute},
		Enhancement: config.EnhancementConfig{Timeout: time.Second},
		Program:     config.ProgramConfig{DefaultBudgetMinutes: 20, LowConfidenceThreshold: 40},
	}
}

func TestBuildStaticCorpus(t *testing.T) {
	c, err := Build(context.Background(), baseConfig(), logger.Nop())
	require.NoError(t, err)
	defer c.Close()

	assert.IsType(t, &corpus.CachedSource{}, c.Source)
	assert.Nil(t, c.Templates)
	assert.Nil(t, c.Store)
	assert.False(t, c.Enhancer.Enabled())

	result, err := c.ProgramService(baseConfig(), logger.Nop()).Generate(context.Background(), service.GenerateRequest{
		Profile: domain.UserProgramProfile{Level: 2},
	})
	require.NoError(t, err)
	assert.Len(t, result.Program.Days, domain.DaysPerProgram)
	assert.Empty(t, result.MediaURLs)
}

func TestBuildFileCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "3.0.0.yaml")
	doc := `
scoringVersion: 3.0.0
templates:
  - {id: fb_breath, name: Breathing, level: 1, category: release, durationHintSec: 180, isFallback: true}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cfg := baseConfig()
	cfg.Corpus = config.CorpusConfig{Source: config.CorpusFile, Files: []string{path}}
	c, err := Build(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer c.Close()

	versions, err := c.Source.Versions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"3.0.0"}, versions)
}

func TestBuildUnreachableRedisFallsBackToLocalCache(t *testing.T) {
	cfg := baseConfig()
	cfg.Redis.Addr = "127.0.0.1:1"
	c, err := Build(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer c.Close()

	templates, err := c.Source.LoadCorpus(context.Background(), "1.0.0")
	require.NoError(t, err)
	assert.NotEmpty(t, templates)
}

func TestBuildErrors(t *testing.T) {
	cases := map[string]func(cfg *config.Config){
		"missing corpus file": func(cfg *config.Config) {
			cfg.Corpus = config.CorpusConfig{Source: config.CorpusFile, Files: []string{"/nonexistent/1.0.0.yaml"}}
		},
		"s3 corpus without bucket": func(cfg *config.Config) {
			cfg.Corpus.Source = config.CorpusS3
		},
		"unknown corpus source": func(cfg *config.Config) {
			cfg.Corpus.Source = "ftp"
		},
		"unknown provider": func(cfg *config.Config) {
			cfg.Enhancement.Provider = "cohere"
			cfg.Enhancement.APIKey = "k"
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := baseConfig()
			mutate(&cfg)
			c, err := Build(context.Background(), cfg, logger.Nop())
			assert.Error(t, err)
			assert.Nil(t, c)
		})
	}
}

func TestNewEnhancer(t *testing.T) {
	passthrough, err := NewEnhancer(context.Background(), config.EnhancementConfig{Provider: "openai"}, logger.Nop())
	require.NoError(t, err)
	assert.False(t, passthrough.Enabled())

	enabled, err := NewEnhancer(context.Background(), config.EnhancementConfig{
		Provider:       "openai",
		APIKey:         "sk-test",
		BaseURL:        "http://127.0.0.1:1",
		Timeout:        time.Second,
		QuotaPerMinute: 10,
	}, logger.Nop())
	require.NoError(t, err)
	assert.True(t, enabled.Enabled())
}
