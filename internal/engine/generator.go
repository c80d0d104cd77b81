package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Options tune a generation call. The zero value is usable.
type Options struct {
	ScoringVersion       string // Exact version, semver constraint, "" or "latest"
	DefaultBudgetMinutes int    // Used when the profile has no budget
	Planner              *Planner
	Now                  func() time.Time
}

func (o Options) planner() Planner {
	if o.Planner != nil {
		return *o.Planner
	}
	return NewPlanner()
}

func (o Options) now() time.Time {
	if o.Now != nil {
		return o.Now().UTC()
	}
	return time.Now().UTC()
}

// GenerateProgram runs the deterministic pipeline: corpus load, per-day filtering,
// ranking, selection and budget trimming. Identical corpus, profile and options
// produce identical days. Only ErrInvalidProfile and ErrCorpusUnavailable can be
// returned.
func GenerateProgram(ctx context.Context, profile domain.UserProgramProfile, source corpus.Source, opts Options) (*domain.Program, error) {
	profile, err := profile.Normalize()
	if err != nil {
		return nil, err
	}
	if source == nil {
		return nil, corpus.Unavailable("no corpus source configured")
	}

	available, err := source.Versions(ctx)
	if err != nil {
		return nil, asUnavailable(err, "list scoring versions")
	}
	version, err := corpus.ResolveVersion(available, opts.ScoringVersion)
	if err != nil {
		return nil, err
	}

	var templates, fallbacks []domain.ExerciseTemplate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		templates, err = source.LoadCorpus(gctx, version)
		return asUnavailable(err, "load corpus")
	})
	g.Go(func() error {
		var err error
		fallbacks, err = source.FallbackTemplates(gctx, version)
		return asUnavailable(err, "load fallback templates")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		return nil, corpus.Unavailable("version %s has no templates", version)
	}
	if err := corpus.CheckFallbacks(version, fallbacks); err != nil {
		return nil, err
	}

	budgetMinutes := profile.DailyTimeBudgetMinutes
	if budgetMinutes == 0 {
		budgetMinutes = opts.DefaultBudgetMinutes
	}
	if budgetMinutes <= 0 {
		budgetMinutes = DefaultBudgetMinutes
	}

	program := &domain.Program{
		ScoringVersion: version,
		GeneratedAt:    opts.now(),
		BudgetMinutes:  budgetMinutes,
		Days:           make([]domain.DayPlan, 0, domain.DaysPerProgram),
	}

	builder := DayBuilder{Corpus: templates, Fallbacks: fallbacks, AvoidTags: profile.AvoidTags}
	used := make(UsedSet)
	for _, slot := range opts.planner().Plan(profile) {
		sel := builder.Build(slot, used)
		day := domain.DayPlan{
			DayNumber:    slot.Index + 1,
			Theme:        slot.Theme,
			FocusThemes:  slot.Tags,
			LevelCeiling: slot.LevelCeiling,
			Exercises:    Allocate(sel.Templates, budgetMinutes*60),
		}
		if day.FocusThemes == nil {
			day.FocusThemes = []string{}
		}
		day.Recount()
		program.Days = append(program.Days, day)
		program.UsedFallback[slot.Index] = sel.UsedFallback
	}

	if program.Fingerprint, err = program.ComputeFingerprint(); err != nil {
		return nil, fmt.Errorf("fingerprint program: %w", err)
	}
	return program, nil
}

func asUnavailable(err error, op string) error {
	if err == nil || errors.Is(err, corpus.ErrCorpusUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", corpus.ErrCorpusUnavailable, op, err)
}
