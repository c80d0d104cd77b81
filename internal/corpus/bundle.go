package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"alcyxob/movement-program/internal/domain"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Bundle is the on-disk/object-store form of one corpus partition.
type Bundle struct {
	ScoringVersion string                    `yaml:"scoringVersion"`
	Templates      []domain.ExerciseTemplate `yaml:"templates"`
}

// ParseBundle decodes a YAML bundle and validates every template in it.
func ParseBundle(r io.Reader) (*Bundle, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var b Bundle
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty corpus bundle")
		}
		return nil, fmt.Errorf("decode corpus bundle: %w", err)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	for i := range b.Templates {
		b.Templates[i].ScoringVersion = b.ScoringVersion
	}
	return &b, nil
}

// ParseBundleBytes is ParseBundle over an in-memory document.
func ParseBundleBytes(raw []byte) (*Bundle, error) {
	return ParseBundle(bytes.NewReader(raw))
}

// Validate checks the structural rules of a bundle: a semver version, unique ids,
// levels in range, known categories, positive durations.
func (b *Bundle) Validate() error {
	if _, err := semver.NewVersion(b.ScoringVersion); err != nil {
		return fmt.Errorf("bundle scoring version %q: %w", b.ScoringVersion, err)
	}
	if len(b.Templates) == 0 {
		return fmt.Errorf("bundle %s has no templates", b.ScoringVersion)
	}
	seen := make(map[string]struct{}, len(b.Templates))
	for _, t := range b.Templates {
		if t.ID == "" {
			return fmt.Errorf("bundle %s: template without id", b.ScoringVersion)
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("bundle %s: duplicate template id %q", b.ScoringVersion, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.Level < domain.MinLevel || t.Level > domain.MaxLevel {
			return fmt.Errorf("template %q: level %d outside %d..%d", t.ID, t.Level, domain.MinLevel, domain.MaxLevel)
		}
		if !t.Category.Valid() {
			return fmt.Errorf("template %q: unknown category %q", t.ID, t.Category)
		}
		if t.DurationHintSec <= 0 {
			return fmt.Errorf("template %q: duration hint must be positive", t.ID)
		}
		if t.IsFallback && !t.UniversallySafe() {
			return fmt.Errorf("template %q: fallback templates must be level 1 with no avoid tags", t.ID)
		}
	}
	return nil
}
