package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// ErrInvalidProfile is returned when a profile fails basic shape checks.
var ErrInvalidProfile = errors.New("invalid program profile")

// UserProgramProfile is the engine's input, produced by the assessment scorer.
type UserProgramProfile struct {
	Level     int      `json:"level"`
	FocusTags []string `json:"focusTags,omitempty"`
	AvoidTags []string `json:"avoidTags,omitempty"`

	// Optional fields. Zero budget means "use the default".
	DailyTimeBudgetMinutes int  `json:"dailyTimeBudgetMinutes,omitempty"`
	Confidence             *int `json:"confidence,omitempty"` // 0..100
}

// ClampLevel bounds an ability level to the supported 1..3 range.
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}

// ParseLevel coerces a raw level value (number or numeric string) into an int.
// The result is not clamped; clamping is the engine's job.
func ParseLevel(raw any) (int, error) {
	if raw == nil {
		return 0, fmt.Errorf("%w: level is required", ErrInvalidProfile)
	}
	switch v := raw.(type) {
	case string:
		// Decimal digits only.
		level, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: level %q is not an integer", ErrInvalidProfile, v)
		}
		return level, nil
	case bool:
		return 0, fmt.Errorf("%w: level %v is not an integer", ErrInvalidProfile, v)
	}
	if f, ok := raw.(float64); ok && f != float64(int(f)) {
		return 0, fmt.Errorf("%w: level %v is not a whole number", ErrInvalidProfile, f)
	}
	level, err := cast.ToIntE(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: level %v is not an integer", ErrInvalidProfile, raw)
	}
	return level, nil
}

// Normalize validates the profile and returns a copy with tags trimmed, lowercased
// and de-duplicated (first occurrence wins). The level is clamped.
func (p UserProgramProfile) Normalize() (UserProgramProfile, error) {
	if p.DailyTimeBudgetMinutes < 0 {
		return p, fmt.Errorf("%w: daily time budget cannot be negative", ErrInvalidProfile)
	}
	if p.Confidence != nil && (*p.Confidence < 0 || *p.Confidence > 100) {
		return p, fmt.Errorf("%w: confidence %d outside 0..100", ErrInvalidProfile, *p.Confidence)
	}
	focus, err := normalizeTags(p.FocusTags, "focus")
	if err != nil {
		return p, err
	}
	avoid, err := normalizeTags(p.AvoidTags, "avoid")
	if err != nil {
		return p, err
	}

	out := p
	out.Level = ClampLevel(p.Level)
	out.FocusTags = focus
	out.AvoidTags = avoid
	if p.Confidence != nil {
		c := *p.Confidence
		out.Confidence = &c
	}
	return out, nil
}

func normalizeTags(tags []string, kind string) ([]string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, raw := range tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			return nil, fmt.Errorf("%w: blank %s tag", ErrInvalidProfile, kind)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out, nil
}
