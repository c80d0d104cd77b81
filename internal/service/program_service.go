package service

import (
	"context"
	"time"

	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/engine"
	"alcyxob/movement-program/internal/enhance"
	"alcyxob/movement-program/internal/logger"
	"alcyxob/movement-program/internal/storage"

	"github.com/google/uuid"
)

// --- Service Interface ---

type ProgramService interface {
	Generate(ctx context.Context, req GenerateRequest) (*ProgramResult, error)
}

// GenerateRequest carries one user's profile. An empty ScoringVersion uses the
// service default.
type GenerateRequest struct {
	Profile        domain.UserProgramProfile
	ScoringVersion string
}

// ProgramResult is a generated program plus presentation data resolved for it.
type ProgramResult struct {
	Program   *domain.Program
	MediaURLs map[string]string // Template id -> presigned media URL
}

// ProgramOptions are the service-wide generation settings.
type ProgramOptions struct {
	ScoringVersion         string
	DefaultBudgetMinutes   int
	LowConfidenceThreshold int
	PresignExpiry          time.Duration
}

// --- Service Implementation ---

type programService struct {
	source   corpus.Source
	enhancer *enhance.Enhancer     // nil or disabled means passthrough
	media    storage.ObjectStorage // Optional
	opts     ProgramOptions
	log      *logger.Logger
	newID    func() string
}

// NewProgramService wires generation, enhancement and media presigning.
func NewProgramService(source corpus.Source, enhancer *enhance.Enhancer, media storage.ObjectStorage, opts ProgramOptions, log *logger.Logger) ProgramService {
	return &programService{
		source:   source,
		enhancer: enhancer,
		media:    media,
		opts:     opts,
		log:      log.With("service", "ProgramService"),
		newID:    uuid.NewString,
	}
}

// Generate builds the deterministic program, offers it to the enhancer and
// assigns it an id. Only ErrInvalidProfile and ErrCorpusUnavailable are returned.
func (s *programService) Generate(ctx context.Context, req GenerateRequest) (*ProgramResult, error) {
	profile, err := req.Profile.Normalize()
	if err != nil {
		return nil, err
	}

	version := req.ScoringVersion
	if version == "" {
		version = s.opts.ScoringVersion
	}
	planner := engine.NewPlanner()
	if s.opts.LowConfidenceThreshold > 0 {
		planner.LowConfidenceThreshold = s.opts.LowConfidenceThreshold
	}

	program, err := engine.GenerateProgram(ctx, profile, s.source, engine.Options{
		ScoringVersion:       version,
		DefaultBudgetMinutes: s.opts.DefaultBudgetMinutes,
		Planner:              &planner,
	})
	if err != nil {
		s.log.Warn("Program generation failed", "error", err.Error(), "scoring_version", version)
		return nil, err
	}

	program = s.enhancer.Enhance(ctx, program, profile)
	program.ID = s.newID()

	result := &ProgramResult{Program: program, MediaURLs: s.presignMedia(ctx, program)}
	s.log.Info("Program generated",
		"program_id", program.ID,
		"scoring_version", program.ScoringVersion,
		"enhanced", program.Enhanced,
		"fingerprint", program.Fingerprint,
	)
	return result, nil
}

// presignMedia resolves media URLs for every referenced template. Failures are
// logged and leave the URL out; media never fails a request.
func (s *programService) presignMedia(ctx context.Context, p *domain.Program) map[string]string {
	if s.media == nil {
		return nil
	}
	urls := make(map[string]string)
	for id, t := range p.TemplateCatalog() {
		if t.MediaRef == "" {
			continue
		}
		url, err := s.media.GeneratePresignedDownloadURL(ctx, t.MediaRef, s.opts.PresignExpiry)
		if err != nil {
			s.log.Warn("Media presign failed", "template_id", id, "media_ref", t.MediaRef, "error", err.Error())
			continue
		}
		urls[id] = url
	}
	return urls
}
