package engine

import (
	"errors"
	"fmt"

	"alcyxob/movement-program/internal/domain"
)

// ErrInvariantViolation is wrapped by every CheckInvariants failure.
var ErrInvariantViolation = errors.New("program invariant violated")

// Constraints are the per-request limits a program must respect.
type Constraints struct {
	AvoidTags []string
	BudgetSec int
	Ceilings  [domain.DaysPerProgram]int
}

// ConstraintsOf derives the constraints a generated program was built under.
func ConstraintsOf(p *domain.Program, profile domain.UserProgramProfile) Constraints {
	c := Constraints{AvoidTags: profile.AvoidTags, BudgetSec: p.BudgetMinutes * 60}
	for i := range c.Ceilings {
		if i < len(p.Days) {
			c.Ceilings[i] = p.Days[i].LevelCeiling
		}
	}
	return c
}

// CheckInvariants verifies the six program invariants: seven contiguous days,
// safety, level ceilings, non-empty days of at most three exercises, no repeated
// non-fallback template, and day totals within budget (a single-exercise day may
// exceed it). All violations are reported together.
func CheckInvariants(p *domain.Program, c Constraints) error {
	if p == nil {
		return fmt.Errorf("%w: nil program", ErrInvariantViolation)
	}
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(p.Days) != domain.DaysPerProgram {
		fail("expected %d days, got %d", domain.DaysPerProgram, len(p.Days))
	}

	avoid := domain.TagSet(c.AvoidTags)
	uses := make(map[string]int)
	for i, day := range p.Days {
		if day.DayNumber != i+1 {
			fail("day at position %d has number %d", i+1, day.DayNumber)
		}
		if n := len(day.Exercises); n < 1 || n > MaxExercisesPerDay {
			fail("day %d has %d exercises", day.DayNumber, n)
		}

		ceiling := domain.MaxLevel
		if i < domain.DaysPerProgram && c.Ceilings[i] > 0 {
			ceiling = c.Ceilings[i]
		}

		total := 0
		for _, ex := range day.Exercises {
			t := ex.Template
			switch {
			case t.ID == "":
				fail("day %d has an exercise without a template id", day.DayNumber)
				continue
			case ex.DurationSec <= 0:
				fail("day %d: %s has non-positive duration", day.DayNumber, t.ID)
			case ex.Sets < 0 || ex.Reps < 0 || ex.HoldSec < 0:
				fail("day %d: %s has a negative prescription", day.DayNumber, t.ID)
			}
			if t.SharesAny(avoid) {
				fail("day %d: %s carries an avoided tag", day.DayNumber, t.ID)
			}
			if t.Level < domain.MinLevel || t.Level > ceiling {
				fail("day %d: %s level %d exceeds ceiling %d", day.DayNumber, t.ID, t.Level, ceiling)
			}
			if !t.IsFallback {
				uses[t.ID]++
				if uses[t.ID] == 2 {
					fail("template %s is prescribed more than once", t.ID)
				}
			}
			total += ex.DurationSec
		}

		if day.TotalDurationSec != total || day.TotalDurationMinutes != (total+59)/60 {
			fail("day %d totals do not match its exercises", day.DayNumber)
		}
		if c.BudgetSec > 0 && total > c.BudgetSec && len(day.Exercises) > 1 {
			fail("day %d lasts %ds, over the %ds budget", day.DayNumber, total, c.BudgetSec)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvariantViolation, errors.Join(errs...))
}
