package engine

import (
	"testing"

	"alcyxob/movement-program/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestSafetyFilter(t *testing.T) {
	pool := []domain.ExerciseTemplate{
		tmpl("a", 1, domain.CategoryMobility, 180, nil, []string{"knee_load", "wrist_load"}),
		tmpl("b", 1, domain.CategoryMobility, 180, nil, []string{"overhead_load"}),
		tmpl("c", 1, domain.CategoryMobility, 180, nil, nil),
	}

	t.Run("any shared tag excludes", func(t *testing.T) {
		got := SafetyFilter(pool, []string{"wrist_load"})
		assert.Equal(t, []string{"b", "c"}, ids(got))
	})

	t.Run("empty avoid set is identity", func(t *testing.T) {
		got := SafetyFilter(pool, nil)
		assert.Equal(t, []string{"a", "b", "c"}, ids(got))
	})

	t.Run("does not mutate input", func(t *testing.T) {
		_ = SafetyFilter(pool, []string{"knee_load", "overhead_load"})
		assert.Len(t, pool, 3)
		assert.Equal(t, "a", pool[0].ID)
	})
}

func TestLevelFilter(t *testing.T) {
	pool := []domain.ExerciseTemplate{
		tmpl("l1", 1, domain.CategoryMobility, 180, nil, nil),
		tmpl("l2", 2, domain.CategoryMobility, 180, nil, nil),
		tmpl("l3", 3, domain.CategoryMobility, 180, nil, nil),
	}

	cases := []struct {
		level int
		want  []string
	}{
		{level: -4, want: []string{"l1"}},
		{level: 0, want: []string{"l1"}},
		{level: 2, want: []string{"l1", "l2"}},
		{level: 3, want: []string{"l1", "l2", "l3"}},
		{level: 11, want: []string{"l1", "l2", "l3"}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ids(LevelFilter(pool, tc.level)), "level %d", tc.level)
	}
}

func TestFiltersCommute(t *testing.T) {
	src := builtinSource(t)
	all, err := src.LoadCorpus(t.Context(), "1.0.0")
	assert.NoError(t, err)

	avoid := []string{"knee_load", "lumbar_flexion"}
	a := LevelFilter(SafetyFilter(all, avoid), 2)
	b := SafetyFilter(LevelFilter(all, 2), avoid)
	assert.Equal(t, ids(a), ids(b))
}
