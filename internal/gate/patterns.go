// Package gate implements request admission control: route classification,
// crawler detection, and the access gate that decides whether a request may
// proceed, must redirect to sign-in, or passes through as a crawler.
package gate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Classification is the result of matching a path against the pattern set.
type Classification struct {
	Protected bool
	Public    bool
}

// patternFile is the on-disk YAML shape for route patterns.
type patternFile struct {
	Protected []string `yaml:"protected"`
	Public    []string `yaml:"public"`
}

// pattern is one compiled route pattern. Segments are matched literally
// except ":name" segments, which match any single non-empty segment. A
// trailing "*" segment matches the prefix itself and any deeper path.
type pattern struct {
	raw      string
	segments []string
	subtree  bool
}

// PatternSet holds the compiled protected and public route patterns. It is
// built once at startup and safe for unsynchronized concurrent reads.
type PatternSet struct {
	protected []pattern
	public    []pattern
}

// NewPatternSet compiles the given protected and public pattern lists.
func NewPatternSet(protected, public []string) (*PatternSet, error) {
	ps := &PatternSet{}
	for _, raw := range protected {
		p, err := compilePattern(raw)
		if err != nil {
			return nil, fmt.Errorf("protected pattern %q: %w", raw, err)
		}
		ps.protected = append(ps.protected, p)
	}
	for _, raw := range public {
		p, err := compilePattern(raw)
		if err != nil {
			return nil, fmt.Errorf("public pattern %q: %w", raw, err)
		}
		ps.public = append(ps.public, p)
	}
	return ps, nil
}

// LoadPatternSet reads a YAML pattern file and compiles it.
func LoadPatternSet(path string) (*PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pattern file: %w", err)
	}
	var pf patternFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parse pattern file: %w", err)
	}
	return NewPatternSet(pf.Protected, pf.Public)
}

// DefaultPatternSet returns the compiled-in route patterns for the API.
func DefaultPatternSet() *PatternSet {
	ps, err := NewPatternSet(
		[]string{
			"/api/riddles/mine",
			"/api/users/*",
			"/api/teams/:slug/join",
			"/api/admin/*",
			"/api/ws/*",
			"/riddles/create",
			"/teams/:slug/manage",
			"/profile/*",
		},
		[]string{
			"/",
			"/login",
			"/signup",
			"/riddles",
			"/riddles/:id",
			"/teams",
			"/teams/:slug",
			"/api",
			"/api/auth/*",
			"/api/riddles",
			"/api/riddles/:id",
			"/api/teams",
			"/api/teams/:slug",
			"/api/metrics",
		},
	)
	if err != nil {
		// Compiled-in patterns are validated by tests; a failure here is a
		// programming error.
		panic(err)
	}
	return ps
}

func compilePattern(raw string) (pattern, error) {
	if raw == "" || !strings.HasPrefix(raw, "/") {
		return pattern{}, fmt.Errorf("pattern must start with '/'")
	}
	p := pattern{raw: raw}
	segs := splitPath(raw)
	if n := len(segs); n > 0 && segs[n-1] == "*" {
		p.subtree = true
		segs = segs[:n-1]
	}
	for _, s := range segs {
		if s == "*" {
			return pattern{}, fmt.Errorf("'*' is only allowed as the trailing segment")
		}
	}
	p.segments = segs
	return p, nil
}

// match reports whether the normalized path segments satisfy the pattern.
func (p pattern) match(segs []string) bool {
	if p.subtree {
		if len(segs) < len(p.segments) {
			return false
		}
	} else if len(segs) != len(p.segments) {
		return false
	}
	for i, ps := range p.segments {
		if strings.HasPrefix(ps, ":") {
			if segs[i] == "" {
				return false
			}
			continue
		}
		if ps != segs[i] {
			return false
		}
	}
	return true
}

// Classify matches the path against both pattern sets independently. It is
// pure, total, and case-sensitive; unmatched paths return both flags false.
func (ps *PatternSet) Classify(path string) Classification {
	segs := splitPath(normalizePath(path))
	var c Classification
	for _, p := range ps.protected {
		if p.match(segs) {
			c.Protected = true
			break
		}
	}
	for _, p := range ps.public {
		if p.match(segs) {
			c.Public = true
			break
		}
	}
	return c
}

// normalizePath strips the query string and guarantees a leading slash.
func normalizePath(path string) string {
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}

// splitPath splits a normalized path into segments. The root path has no
// segments.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
