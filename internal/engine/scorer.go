package engine

import (
	"sort"

	"alcyxob/movement-program/internal/domain"
)

type scored struct {
	template domain.ExerciseTemplate
	score    int
}

// ScoreByFocus orders the pool by descending focus-tag overlap. The sort is stable,
// so ties keep input order. Nothing is ever dropped.
func ScoreByFocus(pool []domain.ExerciseTemplate, userFocusTags []string) []domain.ExerciseTemplate {
	if len(userFocusTags) == 0 {
		return append([]domain.ExerciseTemplate(nil), pool...)
	}

	focus := domain.TagSet(userFocusTags)
	ranked := make([]scored, len(pool))
	for i := range pool {
		ranked[i] = scored{template: pool[i], score: pool[i].FocusOverlap(focus)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	out := make([]domain.ExerciseTemplate, len(ranked))
	for i, r := range ranked {
		out[i] = r.template
	}
	return out
}
