package storage

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	listErr error
}

func newMemoryStore() *memoryStore { return &memoryStore{objects: make(map[string][]byte)} }

func (m *memoryStore) GetObject(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return raw, nil
}

func (m *memoryStore) PutObject(_ context.Context, key string, body []byte, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *memoryStore) ListKeys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var keys []string
	for k := range m.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *memoryStore) GeneratePresignedDownloadURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://media.example.test/" + key + "?sig=x", nil
}

const bundleV2 = `
scoringVersion: 2.0.0
templates:
  - {id: fb_breath, name: Breathing, level: 1, category: release, durationHintSec: 180, isFallback: true, focusTags: [breathing]}
  - {id: fb_tilt, name: Pelvic tilt, level: 1, category: release, durationHintSec: 180, isFallback: true}
  - {id: hinge, name: Hip hinge, level: 1, category: mobility, durationHintSec: 240, focusTags: [hip_mobility]}
  - {id: lunge, name: Lunge, level: 2, category: strength, durationHintSec: 300, avoidTags: [knee_load]}
`

func TestBundleSourceServesPublishedBundles(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()

	bundle, err := PublishBundle(ctx, store, "corpus/", []byte(bundleV2))
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", bundle.ScoringVersion)
	assert.Contains(t, store.objects, "corpus/2.0.0.yaml")

	store.objects["corpus/README.md"] = []byte("notes")
	store.objects["corpus/drafts/3.0.0.yaml"] = []byte("draft")
	store.objects["corpus/next.yaml"] = []byte("draft")

	src := NewBundleSource(store, "corpus/")
	versions, err := src.Versions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2.0.0"}, versions)

	templates, err := src.LoadCorpus(ctx, "2.0.0")
	require.NoError(t, err)
	assert.Len(t, templates, 4)
	assert.Equal(t, "2.0.0", templates[0].ScoringVersion)

	fallbacks, err := src.FallbackTemplates(ctx, "2.0.0")
	require.NoError(t, err)
	assert.Len(t, fallbacks, 2)

	p, err := engine.GenerateProgram(ctx, domain.UserProgramProfile{Level: 2}, src, engine.Options{})
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", p.ScoringVersion)
}

func TestBundleSourceFailures(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	src := NewBundleSource(store, "corpus/")

	_, err := src.LoadCorpus(ctx, "1.0.0")
	assert.ErrorIs(t, err, corpus.ErrCorpusUnavailable)

	store.objects["corpus/1.0.0.yaml"] = []byte("scoringVersion: [")
	_, err = src.LoadCorpus(ctx, "1.0.0")
	assert.ErrorIs(t, err, corpus.ErrCorpusUnavailable)

	// A bundle copied under the wrong key must not be served.
	store.objects["corpus/1.0.0.yaml"] = []byte(bundleV2)
	_, err = src.LoadCorpus(ctx, "1.0.0")
	assert.ErrorIs(t, err, corpus.ErrCorpusUnavailable)

	store.listErr = errors.New("access denied")
	_, err = src.Versions(ctx)
	assert.ErrorIs(t, err, corpus.ErrCorpusUnavailable)
}

func TestPublishBundleRejectsInvalid(t *testing.T) {
	store := newMemoryStore()
	_, err := PublishBundle(context.Background(), store, "corpus/", []byte("scoringVersion: 1.0.0\ntemplates: []\n"))
	assert.Error(t, err)
	assert.Empty(t, store.objects)
}
