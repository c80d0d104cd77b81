package engine

import (
	"context"
	"testing"

	"alcyxob/movement-program/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generated(t *testing.T, profile domain.UserProgramProfile) *domain.Program {
	t.Helper()
	p, err := GenerateProgram(context.Background(), profile, builtinSource(t), Options{Now: fixedNow})
	require.NoError(t, err)
	return p
}

func TestCheckInvariantsRejects(t *testing.T) {
	profile := domain.UserProgramProfile{Level: 2, AvoidTags: []string{"knee_load"}}
	base := generated(t, profile)
	constraints := ConstraintsOf(base, profile)
	require.NoError(t, CheckInvariants(base, constraints))

	cases := map[string]func(p *domain.Program){
		"missing day": func(p *domain.Program) {
			p.Days = p.Days[:5]
		},
		"renumbered day": func(p *domain.Program) {
			p.Days[3].DayNumber = 9
		},
		"empty day": func(p *domain.Program) {
			p.Days[2].Exercises = nil
			p.Days[2].Recount()
		},
		"avoided tag": func(p *domain.Program) {
			p.Days[1].Exercises[0].Template.AvoidTags = []string{"knee_load"}
		},
		"level over ceiling": func(p *domain.Program) {
			p.Days[0].Exercises[0].Template.Level = 2
		},
		"repeated template": func(p *domain.Program) {
			p.Days[3].Exercises[0] = p.Days[1].Exercises[0]
			p.Days[3].Recount()
		},
		"stale totals": func(p *domain.Program) {
			p.Days[1].TotalDurationSec++
		},
		"over budget": func(p *domain.Program) {
			p.Days[1].Exercises[0].DurationSec = 3600
			p.Days[1].Recount()
		},
		"blank template id": func(p *domain.Program) {
			p.Days[1].Exercises[0].Template.ID = ""
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			p := base.Clone()
			mutate(p)
			assert.ErrorIs(t, CheckInvariants(p, constraints), ErrInvariantViolation)
		})
	}

	assert.NoError(t, CheckInvariants(base, constraints), "clones must not leak into the original")
}

func TestCheckInvariantsAllowsSingleExerciseOverBudget(t *testing.T) {
	profile := domain.UserProgramProfile{Level: 1}
	p := generated(t, profile)
	p.Days[4].Exercises = p.Days[4].Exercises[:1]
	p.Days[4].Exercises[0].DurationSec = 5000
	p.Days[4].Recount()
	assert.NoError(t, CheckInvariants(p, ConstraintsOf(p, profile)))
}

func TestCheckInvariantsFallbacksMayRepeat(t *testing.T) {
	profile := domain.UserProgramProfile{Level: 1, AvoidTags: []string{"knee_load"}}
	p := generated(t, profile)
	// Days 6 and 7 both carry the breathing fallback.
	assert.Equal(t, p.Days[5].Exercises[0].Template.ID, p.Days[6].Exercises[0].Template.ID)
	assert.NoError(t, CheckInvariants(p, ConstraintsOf(p, profile)))
}
