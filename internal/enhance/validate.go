package enhance

import (
	"bytes"
	"encoding/json"
	"fmt"

	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/engine"
)

type candidate struct {
	Summary string         `json:"summary"`
	Days    []candidateDay `json:"days"`
}

type candidateDay struct {
	DayNumber int                 `json:"dayNumber"`
	Note      string              `json:"note"`
	Exercises []candidateExercise `json:"exercises"`
}

type candidateExercise struct {
	TemplateID  string `json:"templateId"`
	DurationSec int    `json:"durationSec"`
	Tip         string `json:"tip"`
}

// Validate turns a raw model response into a program derived from plan, or reports
// why it cannot be trusted. It is the only path by which model output reaches a
// caller. The candidate must prescribe exactly the exercises plan prescribes
// (possibly moved between days, possibly shorter) and the result must pass
// engine.CheckInvariants under plan's own constraints.
func (e *Enhancer) Validate(plan *domain.Program, profile domain.UserProgramProfile, raw []byte) (*domain.Program, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if err := e.checker.Validate(doc); err != nil {
		return nil, fmt.Errorf("response schema: %w", err)
	}

	var cand candidate
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cand); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out, err := rebuild(plan, cand)
	if err != nil {
		return nil, err
	}

	if normalized, nErr := profile.Normalize(); nErr == nil {
		profile = normalized
	}
	if err := engine.CheckInvariants(out, engine.ConstraintsOf(plan, profile)); err != nil {
		return nil, err
	}
	return out, nil
}

// rebuild maps candidate references back onto plan's own prescriptions. Template
// metadata always comes from plan, never from the model.
func rebuild(plan *domain.Program, cand candidate) (*domain.Program, error) {
	if len(cand.Days) != len(plan.Days) {
		return nil, fmt.Errorf("candidate has %d days, plan has %d", len(cand.Days), len(plan.Days))
	}

	// Every occurrence is a separate prescription; shrunk copies keep their own length.
	prescribed := make(map[string][]domain.PlannedExercise)
	for _, d := range plan.Days {
		for _, ex := range d.Exercises {
			prescribed[ex.Template.ID] = append(prescribed[ex.Template.ID], ex)
		}
	}

	out := plan.Clone()
	for i, cd := range cand.Days {
		src := plan.Days[i]
		day := domain.DayPlan{
			DayNumber:    cd.DayNumber,
			Theme:        src.Theme,
			FocusThemes:  append([]string{}, src.FocusThemes...),
			LevelCeiling: src.LevelCeiling,
			Note:         cd.Note,
		}
		for _, ce := range cd.Exercises {
			occurrences, ok := prescribed[ce.TemplateID]
			if !ok {
				return nil, fmt.Errorf("day %d: unknown template %q", cd.DayNumber, ce.TemplateID)
			}
			if len(occurrences) == 0 {
				return nil, fmt.Errorf("day %d: template %q prescribed more often than planned", cd.DayNumber, ce.TemplateID)
			}
			idx := closestNotShorter(occurrences, ce.DurationSec)
			if idx < 0 {
				return nil, fmt.Errorf("day %d: %s lengthened to %ds", cd.DayNumber, ce.TemplateID, ce.DurationSec)
			}
			base := occurrences[idx]
			prescribed[ce.TemplateID] = append(occurrences[:idx:idx], occurrences[idx+1:]...)

			ex, err := adjustDuration(base, ce.DurationSec)
			if err != nil {
				return nil, fmt.Errorf("day %d: %w", cd.DayNumber, err)
			}
			ex.Tip = ce.Tip
			day.Exercises = append(day.Exercises, ex)
		}
		day.Recount()
		out.Days[i] = day
	}

	for id, left := range prescribed {
		if len(left) > 0 {
			return nil, fmt.Errorf("template %q was dropped", id)
		}
	}

	out.Summary = cand.Summary
	out.Enhanced = true
	fp, err := out.ComputeFingerprint()
	if err != nil {
		return nil, err
	}
	out.Fingerprint = fp
	return out, nil
}

// closestNotShorter returns the index of the shortest prescription that is at
// least durationSec long, or -1 when every prescription is shorter.
func closestNotShorter(occurrences []domain.PlannedExercise, durationSec int) int {
	best := -1
	for i, ex := range occurrences {
		if ex.DurationSec < durationSec {
			continue
		}
		if best < 0 || ex.DurationSec < occurrences[best].DurationSec {
			best = i
		}
	}
	return best
}

// adjustDuration accepts an equal or shorter duration. Shortening below the
// minimum viable slot is only allowed when the prescription was already shorter.
func adjustDuration(base domain.PlannedExercise, durationSec int) (domain.PlannedExercise, error) {
	switch {
	case durationSec == base.DurationSec:
		return base, nil
	case durationSec > base.DurationSec:
		return base, fmt.Errorf("%s lengthened from %ds to %ds", base.Template.ID, base.DurationSec, durationSec)
	case durationSec < min(engine.MinViableSec, base.DurationSec):
		return base, fmt.Errorf("%s shortened to %ds", base.Template.ID, durationSec)
	}
	return engine.Shrink(base, durationSec), nil
}
