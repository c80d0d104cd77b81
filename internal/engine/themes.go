package engine

import "alcyxob/movement-program/internal/domain"

// TagSelector says where a day's ranking tags come from.
type TagSelector struct {
	forced []string
	user   bool
}

// Forced pins the day to a fixed tag set regardless of the user's focus.
func Forced(tags ...string) TagSelector {
	return TagSelector{forced: append([]string(nil), tags...)}
}

// UseUserFocus takes the user's focus tags verbatim. With no user focus the day is
// themeless and candidates keep corpus order.
func UseUserFocus() TagSelector {
	return TagSelector{user: true}
}

// UsesUserFocus reports which variant the selector is.
func (s TagSelector) UsesUserFocus() bool { return s.user }

// Resolve returns the tag set for a given user focus.
func (s TagSelector) Resolve(userFocus []string) []string {
	if s.user {
		return append([]string(nil), userFocus...)
	}
	return append([]string(nil), s.forced...)
}

// DayTheme is one entry of the weekly skeleton.
type DayTheme struct {
	Name    string
	Tags    TagSelector
	Ceiling int // 0 means no day-specific ceiling
}

// WeeklySkeleton bookends the week with low-risk level-1 sessions and alternates
// structural days with personalized ones.
var WeeklySkeleton = [domain.DaysPerProgram]DayTheme{
	{Name: "reset", Tags: Forced("breathing", "release", "posture_alignment"), Ceiling: 1},
	{Name: "focus", Tags: UseUserFocus()},
	{Name: "stability", Tags: Forced("core_stability", "balance", "shoulder_stability")},
	{Name: "focus", Tags: UseUserFocus()},
	{Name: "mobility", Tags: Forced("hip_mobility", "thoracic_mobility", "ankle_mobility")},
	{Name: "integration", Tags: UseUserFocus()},
	{Name: "recovery", Tags: Forced("breathing", "release", "hamstring_flexibility"), Ceiling: 1},
}

// DefaultLowConfidenceThreshold is the confidence below which the user's ceiling
// drops by one level.
const DefaultLowConfidenceThreshold = 40

// DaySpec is the planner's per-day output.
type DaySpec struct {
	Index        int // 0..6
	Theme        string
	Tags         []string
	LevelCeiling int
}

// Planner resolves the weekly skeleton against a profile. It performs no selection.
type Planner struct {
	Skeleton               [domain.DaysPerProgram]DayTheme
	LowConfidenceThreshold int
}

// NewPlanner returns a planner over the standard skeleton.
func NewPlanner() Planner {
	return Planner{Skeleton: WeeklySkeleton, LowConfidenceThreshold: DefaultLowConfidenceThreshold}
}

// UserCeiling is the clamped user level, lowered by one when confidence is low.
func (p Planner) UserCeiling(profile domain.UserProgramProfile) int {
	ceiling := domain.ClampLevel(profile.Level)
	if profile.Confidence != nil && *profile.Confidence < p.LowConfidenceThreshold {
		ceiling = domain.ClampLevel(ceiling - 1)
	}
	return ceiling
}

// Plan returns (tags, ceiling) for each of the seven days.
func (p Planner) Plan(profile domain.UserProgramProfile) [domain.DaysPerProgram]DaySpec {
	userCeiling := p.UserCeiling(profile)
	var specs [domain.DaysPerProgram]DaySpec
	for i, theme := range p.Skeleton {
		ceiling := userCeiling
		if theme.Ceiling > 0 && theme.Ceiling < ceiling {
			ceiling = theme.Ceiling
		}
		specs[i] = DaySpec{
			Index:        i,
			Theme:        theme.Name,
			Tags:         theme.Tags.Resolve(profile.FocusTags),
			LevelCeiling: ceiling,
		}
	}
	return specs
}
