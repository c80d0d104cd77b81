package service

import (
	"context"

	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"
)

// CorpusService exposes the published template partitions read-only.
type CorpusService interface {
	Versions(ctx context.Context) ([]string, error)
	// Templates resolves version ("latest", exact or a constraint) and returns
	// the resolved version with its templates.
	Templates(ctx context.Context, version string) (string, []domain.ExerciseTemplate, error)
}

type corpusService struct {
	source corpus.Source
}

func NewCorpusService(source corpus.Source) CorpusService {
	return &corpusService{source: source}
}

func (s *corpusService) Versions(ctx context.Context) ([]string, error) {
	return s.source.Versions(ctx)
}

func (s *corpusService) Templates(ctx context.Context, version string) (string, []domain.ExerciseTemplate, error) {
	available, err := s.source.Versions(ctx)
	if err != nil {
		return "", nil, err
	}
	resolved, err := corpus.ResolveVersion(available, version)
	if err != nil {
		return "", nil, err
	}
	templates, err := s.source.LoadCorpus(ctx, resolved)
	if err != nil {
		return "", nil, err
	}
	return resolved, templates, nil
}
