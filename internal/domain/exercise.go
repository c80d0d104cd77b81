// internal/domain/exercise.go
package domain

import "time"

// Category groups templates by the part of a session they belong to.
// The allocator keeps higher-priority categories first when a day is over budget.
type Category string

const (
	CategoryIntegration Category = "integration" // Whole-body patterns, last block of a session
	CategoryStrength    Category = "strength"
	CategoryStability   Category = "stability"
	CategoryActivation  Category = "activation"
	CategoryMobility    Category = "mobility"
	CategoryRelease     Category = "release" // Breathing, soft-tissue release
)

// categoryPriority is the keep order used under a time budget, most integrative first.
var categoryPriority = map[Category]int{
	CategoryIntegration: 0,
	CategoryStrength:    1,
	CategoryStability:   2,
	CategoryActivation:  3,
	CategoryMobility:    4,
	CategoryRelease:     5,
}

// Priority returns the keep rank of a category (lower is kept first).
// Unknown categories rank after every known one.
func (c Category) Priority() int {
	if p, ok := categoryPriority[c]; ok {
		return p
	}
	return len(categoryPriority)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	_, ok := categoryPriority[c]
	return ok
}

const (
	MinLevel = 1
	MaxLevel = 3
)

// ExerciseTemplate is an immutable catalog entry of the exercise corpus.
// Templates are published by the content pipeline and are read-only to the engine.
type ExerciseTemplate struct {
	ID             string   `bson:"templateId" json:"id" yaml:"id"`
	ScoringVersion string   `bson:"scoringVersion" json:"scoringVersion,omitempty" yaml:"-"`
	Name           string   `bson:"name" json:"name" yaml:"name"`
	Level          int      `bson:"level" json:"level" yaml:"level"`
	Category       Category `bson:"category" json:"category" yaml:"category"`
	FocusTags      []string `bson:"focusTags,omitempty" json:"focusTags,omitempty" yaml:"focusTags,omitempty"`
	AvoidTags      []string `bson:"avoidTags,omitempty" json:"avoidTags,omitempty" yaml:"avoidTags,omitempty"`
	IsFallback     bool     `bson:"isFallback" json:"isFallback" yaml:"isFallback,omitempty"`

	// Presentation and scheduling metadata, opaque to selection.
	MediaRef        string   `bson:"mediaRef,omitempty" json:"mediaRef,omitempty" yaml:"mediaRef,omitempty"` // Object key in the media bucket
	Equipment       []string `bson:"equipment,omitempty" json:"equipment,omitempty" yaml:"equipment,omitempty"`
	DurationHintSec int      `bson:"durationHintSec" json:"durationHintSec" yaml:"durationHintSec"`
	Sets            int      `bson:"sets,omitempty" json:"sets,omitempty" yaml:"sets,omitempty"`
	Reps            int      `bson:"reps,omitempty" json:"reps,omitempty" yaml:"reps,omitempty"`
	HoldSec         int      `bson:"holdSec,omitempty" json:"holdSec,omitempty" yaml:"holdSec,omitempty"`

	UpdatedAt time.Time `bson:"updatedAt,omitempty" json:"-" yaml:"-"`
}

// SharesAny reports whether the template carries any of the given avoid tags.
func (t *ExerciseTemplate) SharesAny(avoid map[string]struct{}) bool {
	for _, tag := range t.AvoidTags {
		if _, ok := avoid[tag]; ok {
			return true
		}
	}
	return false
}

// FocusOverlap counts how many of the template's focus tags are in focus.
func (t *ExerciseTemplate) FocusOverlap(focus map[string]struct{}) int {
	n := 0
	for _, tag := range t.FocusTags {
		if _, ok := focus[tag]; ok {
			n++
		}
	}
	return n
}

// UniversallySafe reports whether the template satisfies the fallback contract:
// lowest level and no contraindications.
func (t *ExerciseTemplate) UniversallySafe() bool {
	return t.Level == MinLevel && len(t.AvoidTags) == 0
}

// TagSet builds a lookup set from a tag slice.
func TagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}
