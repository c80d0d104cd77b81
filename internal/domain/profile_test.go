package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	valid := map[string]struct {
		raw  any
		want int
	}{
		"int":               {raw: 2, want: 2},
		"json number":       {raw: float64(3), want: 3},
		"numeric string":    {raw: " 1 ", want: 1},
		"out of range":      {raw: 7, want: 7},
		"negative string":   {raw: "-1", want: -1},
		"leading zero":      {raw: "08", want: 8},
		"decimal not octal": {raw: "010", want: 10},
	}
	for name, tc := range valid {
		t.Run(name, func(t *testing.T) {
			got, err := ParseLevel(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	invalid := map[string]any{
		"nil":       nil,
		"bool":      true,
		"fraction":  2.5,
		"word":      "advanced",
		"blank":     "   ",
		"hex":       "0x2",
		"binary":    "0b1",
		"float str": "2.0",
		"list":      []int{1},
		"object":    map[string]any{"level": 1},
	}
	for name, raw := range invalid {
		t.Run(name, func(t *testing.T) {
			_, err := ParseLevel(raw)
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestClampLevel(t *testing.T) {
	assert.Equal(t, 1, ClampLevel(-4))
	assert.Equal(t, 1, ClampLevel(0))
	assert.Equal(t, 2, ClampLevel(2))
	assert.Equal(t, 3, ClampLevel(99))
}

func TestNormalize(t *testing.T) {
	confidence := 55
	in := UserProgramProfile{
		Level:      0,
		FocusTags:  []string{" Hip_Mobility", "hip_mobility", "BALANCE"},
		AvoidTags:  []string{"knee_load", "Knee_Load "},
		Confidence: &confidence,
	}
	out, err := in.Normalize()
	require.NoError(t, err)

	assert.Equal(t, 1, out.Level)
	assert.Equal(t, []string{"hip_mobility", "balance"}, out.FocusTags)
	assert.Equal(t, []string{"knee_load"}, out.AvoidTags)
	require.NotNil(t, out.Confidence)
	assert.Equal(t, 55, *out.Confidence)

	confidence = 10
	assert.Equal(t, 55, *out.Confidence, "confidence must be copied")
	assert.Equal(t, " Hip_Mobility", in.FocusTags[0], "input must not be modified")
}

func TestNormalizeRejects(t *testing.T) {
	tooSure := 101
	unsure := -1
	cases := map[string]UserProgramProfile{
		"negative budget":  {Level: 1, DailyTimeBudgetMinutes: -5},
		"confidence above": {Level: 1, Confidence: &tooSure},
		"confidence below": {Level: 1, Confidence: &unsure},
		"blank focus tag":  {Level: 1, FocusTags: []string{"balance", " "}},
		"blank avoid tag":  {Level: 1, AvoidTags: []string{""}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.Normalize()
			assert.ErrorIs(t, err, ErrInvalidProfile)
		})
	}
}

func TestNormalizeEmptyTagsStayEmpty(t *testing.T) {
	out, err := UserProgramProfile{Level: 2}.Normalize()
	require.NoError(t, err)
	assert.Empty(t, out.FocusTags)
	assert.Empty(t, out.AvoidTags)
	assert.Nil(t, out.Confidence)
}
