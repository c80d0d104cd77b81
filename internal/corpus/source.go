// Package corpus provides read access to the versioned exercise template corpus.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"alcyxob/movement-program/internal/domain"

	"github.com/Masterminds/semver/v3"
)

// ErrCorpusUnavailable is returned when no usable corpus can be read.
// It is fatal to a generation request.
var ErrCorpusUnavailable = errors.New("exercise corpus unavailable")

// LatestVersion selects the highest published scoring version.
const LatestVersion = "latest"

// Source is a read-only view of the template corpus, partitioned by scoring version.
type Source interface {
	// LoadCorpus returns the full active template set for a scoring version.
	LoadCorpus(ctx context.Context, scoringVersion string) ([]domain.ExerciseTemplate, error)
	// FallbackTemplates returns the fallback-marked subset for a scoring version.
	FallbackTemplates(ctx context.Context, scoringVersion string) ([]domain.ExerciseTemplate, error)
	// Versions lists the scoring versions the source can serve.
	Versions(ctx context.Context) ([]string, error)
}

// Unavailable wraps a load failure so callers can match ErrCorpusUnavailable.
func Unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorpusUnavailable}, args...)...)
}

// ResolveVersion picks a concrete scoring version out of the available ones.
// An empty request or "latest" selects the highest version; an exact version must
// be present; anything else is treated as a semver constraint such as "^1.0".
func ResolveVersion(available []string, requested string) (string, error) {
	requested = strings.TrimSpace(requested)

	versions := make([]*semver.Version, 0, len(available))
	raw := make(map[*semver.Version]string, len(available))
	for _, a := range available {
		v, err := semver.NewVersion(a)
		if err != nil {
			continue // Non-semver partitions are never selected implicitly
		}
		versions = append(versions, v)
		raw[v] = a
	}
	sort.Sort(sort.Reverse(semver.Collection(versions)))

	if requested == "" || strings.EqualFold(requested, LatestVersion) {
		if len(versions) == 0 {
			return "", Unavailable("no published scoring versions")
		}
		return raw[versions[0]], nil
	}

	for _, a := range available {
		if a == requested {
			return a, nil
		}
	}

	constraint, err := semver.NewConstraint(requested)
	if err != nil {
		return "", Unavailable("unknown scoring version %q", requested)
	}
	for _, v := range versions {
		if constraint.Check(v) {
			return raw[v], nil
		}
	}
	return "", Unavailable("no scoring version satisfies %q", requested)
}

// CheckFallbacks enforces the fallback contract on a loaded fallback set.
// A broken fallback set makes the "never an empty day" guarantee impossible,
// so it is reported as an unavailable corpus.
func CheckFallbacks(version string, fallbacks []domain.ExerciseTemplate) error {
	if len(fallbacks) == 0 {
		return Unavailable("version %s has no fallback templates", version)
	}
	for _, t := range fallbacks {
		if !t.IsFallback || !t.UniversallySafe() {
			return Unavailable("version %s: template %q does not satisfy the fallback contract", version, t.ID)
		}
	}
	return nil
}

// FallbacksOf filters a corpus down to its fallback-marked templates.
func FallbacksOf(templates []domain.ExerciseTemplate) []domain.ExerciseTemplate {
	out := make([]domain.ExerciseTemplate, 0, 4)
	for _, t := range templates {
		if t.IsFallback {
			out = append(out, t)
		}
	}
	return out
}
