package corpus

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/logger"

	"golang.org/x/sync/singleflight"
)

// ErrCacheMiss is returned by a RemoteStore when a key is absent.
var ErrCacheMiss = errors.New("corpus cache miss")

// RemoteStore is a shared byte cache in front of the primary source (Redis in production).
type RemoteStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

const cacheKeyPrefix = "corpus:v1:"

// DefaultLoadTimeout bounds one shared partition load.
const DefaultLoadTimeout = 30 * time.Second

// CachedSource memoizes corpus partitions. Each version is populated once and never
// mutated afterwards; readers get copies, so concurrent requests cannot race on it.
type CachedSource struct {
	next   Source
	remote RemoteStore // Optional
	ttl    time.Duration
	log    *logger.Logger

	loadTimeout time.Duration

	mu       sync.RWMutex
	snapshot map[string][]domain.ExerciseTemplate
	group    singleflight.Group
}

// NewCachedSource wraps next with an in-process snapshot and an optional remote store.
func NewCachedSource(next Source, remote RemoteStore, ttl time.Duration, log *logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &CachedSource{
		next:        next,
		remote:      remote,
		ttl:         ttl,
		log:         log.With("service", "CorpusCache"),
		loadTimeout: DefaultLoadTimeout,
		snapshot:    make(map[string][]domain.ExerciseTemplate),
	}
}

// LoadCorpus returns the cached partition, populating it on first use.
func (c *CachedSource) LoadCorpus(ctx context.Context, scoringVersion string) ([]domain.ExerciseTemplate, error) {
	templates, err := c.partition(ctx, scoringVersion)
	if err != nil {
		return nil, err
	}
	return append([]domain.ExerciseTemplate(nil), templates...), nil
}

// FallbackTemplates is derived from the cached partition.
func (c *CachedSource) FallbackTemplates(ctx context.Context, scoringVersion string) ([]domain.ExerciseTemplate, error) {
	templates, err := c.partition(ctx, scoringVersion)
	if err != nil {
		return nil, err
	}
	return FallbacksOf(templates), nil
}

// Versions is not cached; version listings are cheap and may change on publish.
func (c *CachedSource) Versions(ctx context.Context) ([]string, error) {
	return c.next.Versions(ctx)
}

func (c *CachedSource) partition(ctx context.Context, version string) ([]domain.ExerciseTemplate, error) {
	c.mu.RLock()
	templates, ok := c.snapshot[version]
	c.mu.RUnlock()
	if ok {
		return templates, nil
	}

	// The shared load outlives any single caller; each caller waits on its own context.
	ch := c.group.DoChan(version, func() (any, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		templates, err := c.populate(loadCtx, version)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.snapshot[version] = templates
		c.mu.Unlock()
		return templates, nil
	})
	select {
	case <-ctx.Done():
		return nil, Unavailable("load %s: %w", version, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.ExerciseTemplate), nil
	}
}

func (c *CachedSource) populate(ctx context.Context, version string) ([]domain.ExerciseTemplate, error) {
	key := cacheKeyPrefix + version
	if c.remote != nil {
		raw, err := c.remote.Get(ctx, key)
		switch {
		case err == nil:
			var templates []domain.ExerciseTemplate
			if uErr := json.Unmarshal(raw, &templates); uErr == nil && len(templates) > 0 {
				return templates, nil
			}
			c.log.Warn("Discarding undecodable corpus cache entry", "key", key)
		case !errors.Is(err, ErrCacheMiss):
			c.log.Warn("Corpus cache read failed", "key", key, "error", err.Error())
		}
	}

	templates, err := c.next.LoadCorpus(ctx, version)
	if err != nil {
		return nil, err
	}

	if c.remote != nil {
		if raw, mErr := json.Marshal(templates); mErr == nil {
			if sErr := c.remote.Set(ctx, key, raw, c.ttl); sErr != nil {
				c.log.Warn("Corpus cache write failed", "key", key, "error", sErr.Error())
			}
		}
	}
	c.log.Info("Corpus partition cached", "scoring_version", version, "templates", len(templates))
	return templates, nil
}
