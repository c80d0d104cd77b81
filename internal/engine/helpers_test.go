package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"

	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

func builtinSource(t *testing.T) *corpus.MemorySource {
	t.Helper()
	src, err := corpus.NewStaticSource()
	require.NoError(t, err)
	return src
}

func tmpl(id string, level int, cat domain.Category, durSec int, focus, avoid []string) domain.ExerciseTemplate {
	return domain.ExerciseTemplate{
		ID:              id,
		Name:            id,
		Level:           level,
		Category:        cat,
		FocusTags:       focus,
		AvoidTags:       avoid,
		DurationHintSec: durSec,
	}
}

func fallback(id string, focus ...string) domain.ExerciseTemplate {
	t := tmpl(id, 1, domain.CategoryRelease, 180, focus, nil)
	t.IsFallback = true
	return t
}

func ids(ts []domain.ExerciseTemplate) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func plannedIDs(exs []domain.PlannedExercise) []string {
	out := make([]string, len(exs))
	for i, ex := range exs {
		out[i] = ex.Template.ID
	}
	return out
}

// failingSource simulates a corpus backend that is down.
type failingSource struct{}

func (failingSource) LoadCorpus(context.Context, string) ([]domain.ExerciseTemplate, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) FallbackTemplates(context.Context, string) ([]domain.ExerciseTemplate, error) {
	return nil, errors.New("connection refused")
}

func (failingSource) Versions(context.Context) ([]string, error) {
	return []string{"1.0.0"}, nil
}
