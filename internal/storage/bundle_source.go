package storage

import (
	"context"
	"errors"
	"path"
	"strings"

	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"

	"github.com/Masterminds/semver/v3"
)

const bundleExt = ".yaml"

// BundleSource serves corpus bundles stored as <prefix><version>.yaml objects.
// Each read downloads and validates the bundle; wrap it in corpus.CachedSource.
type BundleSource struct {
	store  ObjectStorage
	prefix string
}

func NewBundleSource(store ObjectStorage, prefix string) *BundleSource {
	return &BundleSource{store: store, prefix: prefix}
}

// BundleKey is the object key of a scoring version's bundle.
func BundleKey(prefix, scoringVersion string) string {
	return prefix + scoringVersion + bundleExt
}

func (b *BundleSource) LoadCorpus(ctx context.Context, scoringVersion string) ([]domain.ExerciseTemplate, error) {
	bundle, err := b.fetch(ctx, scoringVersion)
	if err != nil {
		return nil, err
	}
	return bundle.Templates, nil
}

func (b *BundleSource) FallbackTemplates(ctx context.Context, scoringVersion string) ([]domain.ExerciseTemplate, error) {
	bundle, err := b.fetch(ctx, scoringVersion)
	if err != nil {
		return nil, err
	}
	return corpus.FallbacksOf(bundle.Templates), nil
}

// Versions lists bundle objects whose base name is a semantic version.
func (b *BundleSource) Versions(ctx context.Context) ([]string, error) {
	keys, err := b.store.ListKeys(ctx, b.prefix)
	if err != nil {
		return nil, corpus.Unavailable("list bundles: %w", err)
	}
	var versions []string
	for _, key := range keys {
		name := strings.TrimPrefix(key, b.prefix)
		if strings.Contains(name, "/") || path.Ext(name) != bundleExt {
			continue
		}
		v := strings.TrimSuffix(name, bundleExt)
		if _, err := semver.NewVersion(v); err == nil {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

func (b *BundleSource) fetch(ctx context.Context, scoringVersion string) (*corpus.Bundle, error) {
	key := BundleKey(b.prefix, scoringVersion)
	raw, err := b.store.GetObject(ctx, key)
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return nil, corpus.Unavailable("no bundle for scoring version %q", scoringVersion)
		}
		return nil, corpus.Unavailable("fetch %s: %w", key, err)
	}
	bundle, err := corpus.ParseBundleBytes(raw)
	if err != nil {
		return nil, corpus.Unavailable("%s: %w", key, err)
	}
	if bundle.ScoringVersion != scoringVersion {
		return nil, corpus.Unavailable("%s declares scoring version %s", key, bundle.ScoringVersion)
	}
	return bundle, nil
}

// PublishBundle uploads a validated bundle under its own version key.
func PublishBundle(ctx context.Context, store ObjectStorage, prefix string, raw []byte) (*corpus.Bundle, error) {
	bundle, err := corpus.ParseBundleBytes(raw)
	if err != nil {
		return nil, err
	}
	if err := store.PutObject(ctx, BundleKey(prefix, bundle.ScoringVersion), raw, "application/yaml"); err != nil {
		return nil, err
	}
	return bundle, nil
}
