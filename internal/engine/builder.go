package engine

import "alcyxob/movement-program/internal/domain"

const (
	MaxExercisesPerDay = 3
	maxFallbackInject  = 2
)

// UsedSet tracks template ids already prescribed this week. It belongs to a single
// generation call and is never shared across requests.
type UsedSet map[string]struct{}

func (u UsedSet) Has(id string) bool {
	_, ok := u[id]
	return ok
}

func (u UsedSet) Add(id string) {
	u[id] = struct{}{}
}

// DayBuilder selects the exercises of individual days.
type DayBuilder struct {
	Corpus    []domain.ExerciseTemplate
	Fallbacks []domain.ExerciseTemplate
	AvoidTags []string
}

// DaySelection is the builder's output for one day, before budget trimming.
type DaySelection struct {
	Templates    []domain.ExerciseTemplate
	UsedFallback bool
}

// Build picks 1..3 templates for the day, skipping ids in used, and registers its picks
// in used. When every candidate was already used, up to two fallback templates are
// injected regardless of repetition.
func (b DayBuilder) Build(slot DaySpec, used UsedSet) DaySelection {
	var sel DaySelection

	pool := LevelFilter(SafetyFilter(b.Corpus, b.AvoidTags), slot.LevelCeiling)
	if len(pool) == 0 {
		pool = b.Fallbacks
		sel.UsedFallback = true
	}

	for _, t := range ScoreByFocus(pool, slot.Tags) {
		if len(sel.Templates) == MaxExercisesPerDay {
			break
		}
		if used.Has(t.ID) {
			continue
		}
		sel.Templates = append(sel.Templates, t)
	}

	if len(sel.Templates) == 0 {
		ranked := ScoreByFocus(b.Fallbacks, slot.Tags)
		if len(ranked) > maxFallbackInject {
			ranked = ranked[:maxFallbackInject]
		}
		sel.Templates = ranked
		sel.UsedFallback = true
	}

	for _, t := range sel.Templates {
		used.Add(t.ID)
	}
	return sel
}
