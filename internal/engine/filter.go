// Package engine builds deterministic 7-day exercise programs from a template corpus.
package engine

import "alcyxob/movement-program/internal/domain"

// SafetyFilter keeps templates that share no avoid tag with the user. Any single
// shared tag excludes a template. An empty avoid set keeps everything.
func SafetyFilter(pool []domain.ExerciseTemplate, userAvoidTags []string) []domain.ExerciseTemplate {
	if len(userAvoidTags) == 0 {
		return append([]domain.ExerciseTemplate(nil), pool...)
	}
	avoid := domain.TagSet(userAvoidTags)
	out := make([]domain.ExerciseTemplate, 0, len(pool))
	for i := range pool {
		if !pool[i].SharesAny(avoid) {
			out = append(out, pool[i])
		}
	}
	return out
}

// LevelFilter keeps templates at or below the user's level, clamped to 1..3.
func LevelFilter(pool []domain.ExerciseTemplate, userLevel int) []domain.ExerciseTemplate {
	ceiling := domain.ClampLevel(userLevel)
	out := make([]domain.ExerciseTemplate, 0, len(pool))
	for _, t := range pool {
		if t.Level <= ceiling {
			out = append(out, t)
		}
	}
	return out
}
