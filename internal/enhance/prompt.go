package enhance

import (
	"encoding/json"
	"fmt"

	"alcyxob/movement-program/internal/domain"
)

const systemPrompt = `You personalize a 7-day movement program for one user.
You receive the user's profile and a plan built by a rule engine. Return the same plan with
coaching text added. Rules:
- Use only templateId values that appear in the plan. Do not invent exercises.
- Keep every prescribed exercise. You may reorder exercises within a day or move one to
  another day, but keep at most 3 exercises per day and at least 1.
- Never increase durationSec. You may lower it to fit the user's time budget.
- Respect the level ceiling of each day and never move an exercise onto a day whose
  ceiling is below the exercise level.
- Write a short tip per exercise, a short note per day and a two-sentence summary.`

type promptExercise struct {
	TemplateID  string   `json:"templateId"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Level       int      `json:"level"`
	DurationSec int      `json:"durationSec"`
	FocusTags   []string `json:"focusTags,omitempty"`
}

type promptDay struct {
	DayNumber    int              `json:"dayNumber"`
	Theme        string           `json:"theme"`
	FocusThemes  []string         `json:"focusThemes"`
	LevelCeiling int              `json:"levelCeiling"`
	Exercises    []promptExercise `json:"exercises"`
}

type promptInput struct {
	Profile struct {
		Level                  int      `json:"level"`
		FocusTags              []string `json:"focusTags"`
		AvoidTags              []string `json:"avoidTags"`
		DailyTimeBudgetMinutes int      `json:"dailyTimeBudgetMinutes"`
	} `json:"profile"`
	Days []promptDay `json:"days"`
}

// buildUserPrompt serializes the plan and profile. Only selection-relevant fields are
// sent; the model never sees media references or equipment lists.
func buildUserPrompt(plan *domain.Program, profile domain.UserProgramProfile) (string, error) {
	var in promptInput
	in.Profile.Level = profile.Level
	in.Profile.FocusTags = nonNil(profile.FocusTags)
	in.Profile.AvoidTags = nonNil(profile.AvoidTags)
	in.Profile.DailyTimeBudgetMinutes = plan.BudgetMinutes

	for _, d := range plan.Days {
		pd := promptDay{
			DayNumber:    d.DayNumber,
			Theme:        d.Theme,
			FocusThemes:  nonNil(d.FocusThemes),
			LevelCeiling: d.LevelCeiling,
		}
		for _, ex := range d.Exercises {
			pd.Exercises = append(pd.Exercises, promptExercise{
				TemplateID:  ex.Template.ID,
				Name:        ex.Template.Name,
				Category:    string(ex.Template.Category),
				Level:       ex.Template.Level,
				DurationSec: ex.DurationSec,
				FocusTags:   ex.Template.FocusTags,
			})
		}
		in.Days = append(in.Days, pd)
	}

	raw, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal prompt: %w", err)
	}
	return "Profile and plan:\n" + string(raw), nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
