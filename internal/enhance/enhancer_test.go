package enhance

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/engine"
	"alcyxob/movement-program/internal/llm"
	"alcyxob/movement-program/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type stubClient struct {
	respond func(ctx context.Context, user string) ([]byte, error)
	calls   atomic.Int32
}

func (s *stubClient) Provider() string { return "stub" }

func (s *stubClient) GenerateJSON(ctx context.Context, _, user, _ string, schema map[string]any) ([]byte, error) {
	s.calls.Add(1)
	if schema == nil {
		return nil, errors.New("schema required")
	}
	return s.respond(ctx, user)
}

func respondWith(raw []byte) *stubClient {
	return &stubClient{respond: func(context.Context, string) ([]byte, error) { return raw, nil }}
}

var testProfile = domain.UserProgramProfile{Level: 3, FocusTags: []string{"core_stability"}, AvoidTags: []string{"knee_load"}}

func template(id string, level int, cat domain.Category, sec int, focus ...string) domain.ExerciseTemplate {
	return domain.ExerciseTemplate{ID: id, Name: id, Level: level, Category: cat, DurationHintSec: sec, Sets: 3, FocusTags: focus}
}

func testPlan(t *testing.T) *domain.Program {
	t.Helper()
	breath := template("fb_breath", 1, domain.CategoryRelease, 180, "breathing", "release")
	breath.IsFallback = true
	tilt := template("fb_tilt", 1, domain.CategoryRelease, 180, "posture_alignment")
	tilt.IsFallback = true
	lunge := template("lunge", 2, domain.CategoryStrength, 300, "balance")
	lunge.AvoidTags = []string{"knee_load"}

	src, err := corpus.NewMemorySource(&corpus.Bundle{
		ScoringVersion: "1.0.0",
		Templates: []domain.ExerciseTemplate{
			breath, tilt, lunge,
			template("hinge", 1, domain.CategoryMobility, 240, "hip_mobility"),
			template("bridge", 1, domain.CategoryActivation, 240, "glute_activation"),
			template("plank", 2, domain.CategoryStability, 300, "core_stability"),
			template("press", 3, domain.CategoryStrength, 300, "shoulder_stability"),
			template("carry", 2, domain.CategoryIntegration, 300, "core_stability"),
			template("open_book", 1, domain.CategoryMobility, 240, "thoracic_mobility"),
		},
	})
	require.NoError(t, err)

	plan, err := engine.GenerateProgram(context.Background(), testProfile, src, engine.Options{
		Now: func() time.Time { return time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC) },
	})
	require.NoError(t, err)
	return plan
}

// echo mirrors plan back as a model response with coaching text added.
func echo(plan *domain.Program) candidate {
	c := candidate{Summary: "A gentle week building core control."}
	for _, d := range plan.Days {
		cd := candidateDay{DayNumber: d.DayNumber, Note: "Move slowly."}
		for _, ex := range d.Exercises {
			cd.Exercises = append(cd.Exercises, candidateExercise{
				TemplateID:  ex.Template.ID,
				DurationSec: ex.DurationSec,
				Tip:         "Breathe through the " + ex.Template.Name + ".",
			})
		}
		c.Days = append(c.Days, cd)
	}
	return c
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func newEnhancer(t *testing.T, client llm.Client, opts Options) *Enhancer {
	t.Helper()
	e, err := New(client, opts, logger.Nop())
	require.NoError(t, err)
	return e
}

// findLevel returns the position of an exercise above level 1 outside day 1.
func findLevel(t *testing.T, plan *domain.Program) (day, idx int) {
	t.Helper()
	for d := 1; d < len(plan.Days); d++ {
		for i, ex := range plan.Days[d].Exercises {
			if ex.Template.Level > 1 {
				return d, i
			}
		}
	}
	t.Fatal("plan has no exercise above level 1")
	return 0, 0
}

func TestEnhancePassthroughWithoutClient(t *testing.T) {
	plan := testPlan(t)
	e := newEnhancer(t, nil, Options{})
	assert.False(t, e.Enabled())
	assert.Same(t, plan, e.Enhance(context.Background(), plan, testProfile))

	var nilEnhancer *Enhancer
	assert.Same(t, plan, nilEnhancer.Enhance(context.Background(), plan, testProfile))
}

func TestEnhanceAcceptsValidCandidate(t *testing.T) {
	plan := testPlan(t)
	client := respondWith(mustJSON(t, echo(plan)))

	got := newEnhancer(t, client, Options{}).Enhance(context.Background(), plan, testProfile)
	require.NotSame(t, plan, got)
	assert.True(t, got.Enhanced)
	assert.Equal(t, "A gentle week building core control.", got.Summary)
	assert.Equal(t, "Move slowly.", got.Days[0].Note)
	assert.NotEmpty(t, got.Days[0].Exercises[0].Tip)
	assert.NotEqual(t, plan.Fingerprint, got.Fingerprint)
	assert.Equal(t, plan.UsedFallback, got.UsedFallback)
	require.NoError(t, engine.CheckInvariants(got, engine.ConstraintsOf(plan, testProfile)))

	assert.False(t, plan.Enhanced, "original must stay untouched")
	assert.Empty(t, plan.Days[0].Exercises[0].Tip)
	assert.Equal(t, int32(1), client.calls.Load())
}

func TestEnhanceAcceptsReorderAndShortening(t *testing.T) {
	plan := testPlan(t)
	day, idx := findLevel(t, plan)
	cand := echo(plan)

	exs := cand.Days[day].Exercises
	exs[idx].DurationSec = engine.MinViableSec + 20
	exs[0], exs[len(exs)-1] = exs[len(exs)-1], exs[0]
	target := plan.Days[day].Exercises[idx].Template.ID

	got := newEnhancer(t, respondWith(mustJSON(t, cand)), Options{}).Enhance(context.Background(), plan, testProfile)
	require.True(t, got.Enhanced)

	var found bool
	for _, ex := range got.Days[day].Exercises {
		if ex.Template.ID == target {
			found = true
			assert.Equal(t, engine.MinViableSec+20, ex.DurationSec)
			assert.True(t, ex.Shrunk)
			assert.Less(t, ex.Sets, 3)
		}
	}
	assert.True(t, found)
	assert.Equal(t, plan.Days[day].TotalDurationSec-(plan.Days[day].Exercises[idx].DurationSec-engine.MinViableSec-20), got.Days[day].TotalDurationSec)
}

func TestEnhanceDiscardsInvalidCandidates(t *testing.T) {
	plan := testPlan(t)

	cases := map[string]func(c *candidate) []byte{
		"five days": func(c *candidate) []byte {
			c.Days = c.Days[:5]
			return nil
		},
		"excluded template": func(c *candidate) []byte {
			c.Days[1].Exercises[0].TemplateID = "lunge"
			return nil
		},
		"unknown template": func(c *candidate) []byte {
			c.Days[1].Exercises[0].TemplateID = "burpee"
			return nil
		},
		"lengthened exercise": func(c *candidate) []byte {
			c.Days[1].Exercises[0].DurationSec += 60
			return nil
		},
		"shortened below minimum": func(c *candidate) []byte {
			c.Days[1].Exercises[0].DurationSec = 30
			return nil
		},
		"dropped exercise": func(c *candidate) []byte {
			c.Days[1].Exercises = c.Days[1].Exercises[:1]
			return nil
		},
		"empty day": func(c *candidate) []byte {
			c.Days[2].Exercises = []candidateExercise{}
			return nil
		},
		"four exercises": func(c *candidate) []byte {
			c.Days[1].Exercises = append(c.Days[1].Exercises, c.Days[2].Exercises[0])
			c.Days[2].Exercises = c.Days[2].Exercises[1:]
			return nil
		},
		"renumbered days": func(c *candidate) []byte {
			c.Days[0].DayNumber, c.Days[1].DayNumber = c.Days[1].DayNumber, c.Days[0].DayNumber
			return nil
		},
		"level above day ceiling": func(c *candidate) []byte {
			day, idx := findLevel(t, plan)
			c.Days[0].Exercises[0], c.Days[day].Exercises[idx] = c.Days[day].Exercises[idx], c.Days[0].Exercises[0]
			return nil
		},
		"unknown field": func(c *candidate) []byte {
			raw := mustJSON(t, c)
			var doc map[string]any
			require.NoError(t, json.Unmarshal(raw, &doc))
			doc["difficulty"] = "hard"
			return mustJSON(t, doc)
		},
		"missing summary": func(c *candidate) []byte {
			raw := mustJSON(t, c)
			var doc map[string]any
			require.NoError(t, json.Unmarshal(raw, &doc))
			delete(doc, "summary")
			return mustJSON(t, doc)
		},
		"not json": func(*candidate) []byte {
			return []byte("Sure! Here is your plan:")
		},
	}

	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cand := echo(plan)
			raw := mutate(&cand)
			if raw == nil {
				raw = mustJSON(t, cand)
			}
			e := newEnhancer(t, respondWith(raw), Options{})

			got := e.Enhance(context.Background(), plan, testProfile)
			assert.Same(t, plan, got)

			_, err := e.Validate(plan, testProfile, raw)
			assert.Error(t, err)
		})
	}

	t.Run("shrunk repeat restored to full length", func(t *testing.T) {
		repeated := planWithRepeatedFallback(t, plan)
		e := newEnhancer(t, nil, Options{})

		_, err := e.Validate(repeated, testProfile, mustJSON(t, echo(repeated)))
		require.NoError(t, err)

		cand := echo(repeated)
		cand.Days[6].Exercises[0].DurationSec = 300
		_, err = e.Validate(repeated, testProfile, mustJSON(t, cand))
		assert.Error(t, err)

		// Trading lengths between the two copies keeps the prescribed durations.
		swapped := echo(repeated)
		swapped.Days[0].Exercises[0].DurationSec = 200
		swapped.Days[6].Exercises[0].DurationSec = 300
		got, err := e.Validate(repeated, testProfile, mustJSON(t, swapped))
		require.NoError(t, err)
		assert.Equal(t, 300, got.Days[6].Exercises[0].DurationSec)
		assert.False(t, got.Days[6].Exercises[0].Shrunk)
		assert.Equal(t, 200, got.Days[0].Exercises[0].DurationSec)
		assert.True(t, got.Days[0].Exercises[0].Shrunk)
	})
}

// planWithRepeatedFallback puts one fallback on day 1 at 300s and a copy shrunk to
// 200s on day 7.
func planWithRepeatedFallback(t *testing.T, plan *domain.Program) *domain.Program {
	t.Helper()
	fb := template("fb_long_breath", 1, domain.CategoryRelease, 300, "breathing")
	fb.IsFallback = true
	full := domain.NewPlannedExercise(fb)
	require.Equal(t, 300, full.DurationSec)

	p := plan.Clone()
	p.Days[0].Exercises = []domain.PlannedExercise{full}
	p.Days[0].Recount()
	p.Days[6].Exercises = []domain.PlannedExercise{engine.Shrink(full, 200)}
	p.Days[6].Recount()
	require.NoError(t, engine.CheckInvariants(p, engine.ConstraintsOf(p, testProfile)))
	return p
}

func TestEnhanceFallsBackOnClientFailures(t *testing.T) {
	plan := testPlan(t)

	t.Run("provider error", func(t *testing.T) {
		client := &stubClient{respond: func(context.Context, string) ([]byte, error) {
			return nil, errors.New("429 quota exceeded")
		}}
		assert.Same(t, plan, newEnhancer(t, client, Options{}).Enhance(context.Background(), plan, testProfile))
	})

	t.Run("timeout", func(t *testing.T) {
		client := &stubClient{respond: func(ctx context.Context, _ string) ([]byte, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}}
		start := time.Now()
		got := newEnhancer(t, client, Options{Timeout: 20 * time.Millisecond}).Enhance(context.Background(), plan, testProfile)
		assert.Same(t, plan, got)
		assert.Less(t, time.Since(start), 2*time.Second)
	})

	t.Run("late answer after deadline", func(t *testing.T) {
		valid := mustJSON(t, echo(plan))
		client := &stubClient{respond: func(ctx context.Context, _ string) ([]byte, error) {
			<-ctx.Done()
			return valid, nil
		}}
		got := newEnhancer(t, client, Options{Timeout: 10 * time.Millisecond}).Enhance(context.Background(), plan, testProfile)
		assert.Same(t, plan, got)
	})

	t.Run("caller cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		client := &stubClient{respond: func(ctx context.Context, _ string) ([]byte, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		}}
		assert.Same(t, plan, newEnhancer(t, client, Options{}).Enhance(ctx, plan, testProfile))
	})

	t.Run("quota exhausted", func(t *testing.T) {
		client := respondWith(mustJSON(t, echo(plan)))
		e := newEnhancer(t, client, Options{Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)})

		assert.True(t, e.Enhance(context.Background(), plan, testProfile).Enhanced)
		assert.Same(t, plan, e.Enhance(context.Background(), plan, testProfile))
		assert.Equal(t, int32(1), client.calls.Load())
	})
}

func TestPromptCarriesPlanAndProfile(t *testing.T) {
	plan := testPlan(t)
	var prompt string
	client := &stubClient{respond: func(_ context.Context, user string) ([]byte, error) {
		prompt = user
		return nil, errors.New("stop")
	}}
	newEnhancer(t, client, Options{}).Enhance(context.Background(), plan, testProfile)

	assert.Contains(t, prompt, `"templateId": "`+plan.Days[1].Exercises[0].Template.ID+`"`)
	assert.Contains(t, prompt, `"avoidTags": [`)
	assert.Contains(t, prompt, "knee_load")
	assert.NotContains(t, prompt, "mediaRef")
}
