package corpus

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"

	"alcyxob/movement-program/internal/domain"
)

//go:embed data/*.yaml
var builtinFS embed.FS

// MemorySource serves bundles held in memory. It is immutable after construction
// and safe for concurrent use.
type MemorySource struct {
	bundles map[string][]domain.ExerciseTemplate
}

// NewMemorySource builds a source from already-parsed bundles.
func NewMemorySource(bundles ...*Bundle) (*MemorySource, error) {
	s := &MemorySource{bundles: make(map[string][]domain.ExerciseTemplate, len(bundles))}
	for _, b := range bundles {
		if _, dup := s.bundles[b.ScoringVersion]; dup {
			return nil, fmt.Errorf("duplicate corpus bundle for version %s", b.ScoringVersion)
		}
		s.bundles[b.ScoringVersion] = append([]domain.ExerciseTemplate(nil), b.Templates...)
	}
	return s, nil
}

// NewStaticSource serves the corpus bundles compiled into the binary.
func NewStaticSource() (*MemorySource, error) {
	return newFSSource(builtinFS, "data")
}

// NewFileSource serves YAML bundles read from the given files.
func NewFileSource(paths ...string) (*MemorySource, error) {
	bundles := make([]*Bundle, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, Unavailable("open %s: %w", p, err)
		}
		b, err := ParseBundle(f)
		_ = f.Close()
		if err != nil {
			return nil, Unavailable("%s: %w", p, err)
		}
		bundles = append(bundles, b)
	}
	return NewMemorySource(bundles...)
}

func newFSSource(fsys fs.FS, dir string) (*MemorySource, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	bundles := make([]*Bundle, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".yaml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		b, err := ParseBundleBytes(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		bundles = append(bundles, b)
	}
	return NewMemorySource(bundles...)
}

// LoadCorpus returns a copy of the templates published for scoringVersion.
func (s *MemorySource) LoadCorpus(ctx context.Context, scoringVersion string) ([]domain.ExerciseTemplate, error) {
	if err := ctx.Err(); err != nil {
		return nil, Unavailable("%w", err)
	}
	templates, ok := s.bundles[scoringVersion]
	if !ok {
		return nil, Unavailable("no templates for scoring version %q", scoringVersion)
	}
	return append([]domain.ExerciseTemplate(nil), templates...), nil
}

// FallbackTemplates returns the fallback-marked templates for scoringVersion.
func (s *MemorySource) FallbackTemplates(ctx context.Context, scoringVersion string) ([]domain.ExerciseTemplate, error) {
	templates, err := s.LoadCorpus(ctx, scoringVersion)
	if err != nil {
		return nil, err
	}
	return FallbacksOf(templates), nil
}

// Versions lists the loaded scoring versions in ascending lexical order.
func (s *MemorySource) Versions(_ context.Context) ([]string, error) {
	out := make([]string, 0, len(s.bundles))
	for v := range s.bundles {
		out = append(out, v)
	}
	sort.Strings(out)
	return out, nil
}
