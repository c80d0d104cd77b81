package engine

import (
	"sort"

	"alcyxob/movement-program/internal/domain"
)

const (
	// MinViableSec is the shortest slot worth shrinking an exercise into.
	MinViableSec = 180
	// DefaultBudgetMinutes applies when the profile carries no time budget.
	DefaultBudgetMinutes = 20
)

// Allocate fits a day's selection into budgetSec. Over budget, exercises are kept
// whole in category priority order while they fit; at most one exercise is shrunk
// into a remaining slot of at least MinViableSec. If nothing fits, the
// highest-priority exercise is kept whole. Kept exercises retain session order.
func Allocate(templates []domain.ExerciseTemplate, budgetSec int) []domain.PlannedExercise {
	planned := make([]domain.PlannedExercise, len(templates))
	total := 0
	for i, t := range templates {
		planned[i] = domain.NewPlannedExercise(t)
		total += planned[i].DurationSec
	}
	if total <= budgetSec || len(planned) == 0 {
		return planned
	}

	order := make([]int, len(planned))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return planned[order[a]].Template.Category.Priority() < planned[order[b]].Template.Category.Priority()
	})

	kept := make(map[int]domain.PlannedExercise, len(planned))
	remaining := budgetSec
	shrunk := false
	for _, idx := range order {
		ex := planned[idx]
		switch {
		case ex.DurationSec <= remaining:
			kept[idx] = ex
			remaining -= ex.DurationSec
		case !shrunk && remaining >= MinViableSec:
			kept[idx] = Shrink(ex, remaining)
			remaining = 0
			shrunk = true
		}
	}

	if len(kept) == 0 {
		kept[order[0]] = planned[order[0]]
	}

	out := make([]domain.PlannedExercise, 0, len(kept))
	for i := range planned {
		if ex, ok := kept[i]; ok {
			out = append(out, ex)
		}
	}
	return out
}

// Shrink scales an exercise's prescription down to slotSec.
func Shrink(ex domain.PlannedExercise, slotSec int) domain.PlannedExercise {
	ratio := float64(slotSec) / float64(ex.DurationSec)
	ex.DurationSec = slotSec
	ex.Shrunk = true
	switch {
	case ex.Sets > 1:
		ex.Sets = scaleDown(ex.Sets, ratio)
	case ex.Reps > 1:
		ex.Reps = scaleDown(ex.Reps, ratio)
	case ex.HoldSec > 1:
		ex.HoldSec = scaleDown(ex.HoldSec, ratio)
	}
	return ex
}

func scaleDown(v int, ratio float64) int {
	n := int(float64(v) * ratio)
	if n < 1 {
		return 1
	}
	return n
}
