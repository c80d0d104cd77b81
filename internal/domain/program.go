// internal/domain/program.go
package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gowebpki/jcs"
)

// DaysPerProgram is the fixed length of a generated program.
const DaysPerProgram = 7

// PlannedExercise is a template as prescribed for one day, after budget trimming.
type PlannedExercise struct {
	Template    ExerciseTemplate `json:"template"`
	DurationSec int              `json:"durationSec"`
	Sets        int              `json:"sets,omitempty"`
	Reps        int              `json:"reps,omitempty"`
	HoldSec     int              `json:"holdSec,omitempty"`
	Shrunk      bool             `json:"shrunk,omitempty"` // Prescription scaled down to fit the budget
	Tip         string           `json:"tip,omitempty"`    // Set only by enhancement
}

// NewPlannedExercise prescribes a template at its nominal duration and volume.
func NewPlannedExercise(t ExerciseTemplate) PlannedExercise {
	return PlannedExercise{
		Template:    t,
		DurationSec: t.DurationHintSec,
		Sets:        t.Sets,
		Reps:        t.Reps,
		HoldSec:     t.HoldSec,
	}
}

// DayPlan is one day of a program.
type DayPlan struct {
	DayNumber            int               `json:"dayNumber"`
	Theme                string            `json:"theme"`
	FocusThemes          []string          `json:"focusThemes"`
	LevelCeiling         int               `json:"levelCeiling"`
	Exercises            []PlannedExercise `json:"exercises"`
	TotalDurationSec     int               `json:"totalDurationSec"`
	TotalDurationMinutes int               `json:"totalDurationMinutes"`
	Note                 string            `json:"note,omitempty"` // Set only by enhancement
}

// Recount recomputes the day's duration totals from its exercises.
// Minutes are rounded up, so a day within budget in seconds is within budget in minutes.
func (d *DayPlan) Recount() {
	total := 0
	for _, ex := range d.Exercises {
		total += ex.DurationSec
	}
	d.TotalDurationSec = total
	d.TotalDurationMinutes = (total + 59) / 60
}

// Program is the complete 7-day output of the engine. Immutable once returned.
type Program struct {
	ID             string               `json:"id,omitempty"`
	ScoringVersion string               `json:"scoringVersion"`
	GeneratedAt    time.Time            `json:"generatedAt"`
	BudgetMinutes  int                  `json:"budgetMinutes"`
	Days           []DayPlan            `json:"days"`
	UsedFallback   [DaysPerProgram]bool `json:"usedFallback"`
	Enhanced       bool                 `json:"enhanced"`
	Summary        string               `json:"summary,omitempty"` // Set only by enhancement
	Fingerprint    string               `json:"fingerprint"`
}

// Clone returns a deep copy so callers can derive a new program without touching p.
func (p *Program) Clone() *Program {
	if p == nil {
		return nil
	}
	out := *p
	out.Days = make([]DayPlan, len(p.Days))
	for i, d := range p.Days {
		nd := d
		nd.FocusThemes = append([]string(nil), d.FocusThemes...)
		nd.Exercises = append([]PlannedExercise(nil), d.Exercises...)
		out.Days[i] = nd
	}
	return &out
}

// ComputeFingerprint hashes the canonical (RFC 8785) JSON form of the days.
// Two programs with the same prescriptions share a fingerprint regardless of
// generation time or id.
func (p *Program) ComputeFingerprint() (string, error) {
	raw, err := json.Marshal(p.Days)
	if err != nil {
		return "", fmt.Errorf("marshal days: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize days: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// TemplateCatalog indexes every distinct template referenced by the program.
func (p *Program) TemplateCatalog() map[string]ExerciseTemplate {
	catalog := make(map[string]ExerciseTemplate)
	for _, d := range p.Days {
		for _, ex := range d.Exercises {
			catalog[ex.Template.ID] = ex.Template
		}
	}
	return catalog
}
