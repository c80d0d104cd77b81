package repository

import (
	"context"

	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"
)

// Error constants for the repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrInvalidRecord = RepositoryError("invalid record")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TemplateRepository is the persistent, versioned exercise corpus. Reads follow
// corpus.Source; writes are used by the content pipeline (plangen seed).
type TemplateRepository interface {
	corpus.Source

	// UpsertMany inserts or replaces templates keyed by (scoringVersion, id),
	// preserving slice order as corpus order. Returns the number of templates written.
	UpsertMany(ctx context.Context, templates []domain.ExerciseTemplate) (int, error)
	// DeleteVersion removes a whole scoring-version partition.
	DeleteVersion(ctx context.Context, scoringVersion string) (int64, error)
}
