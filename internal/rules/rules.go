// Package rules decides which files qualify for processing.
//
// A Matcher combines an extension allow-list (case-insensitive) with an
// optional regular expression applied to the filename without its extension.
// Matching is a pure predicate: it never touches the filesystem and never
// panics; anything it cannot interpret is excluded (fail closed).
package rules

import (
	"path/filepath"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	sweeperr "github.com/Aman-CERP/filesweep/internal/errors"
)

// decisionCacheSize is the maximum number of cached match decisions.
// Bounded to keep memory flat in long-running watch sessions.
const decisionCacheSize = 4096

// Matcher filters paths by extension and filename pattern.
type Matcher struct {
	// extensions holds normalized (lowercase, dot-prefixed) extensions.
	// Empty means all extensions are allowed.
	extensions map[string]struct{}

	// pattern, when non-nil, must match the entire filename stem.
	pattern *regexp.Regexp

	// decisions caches match results by base name. The predicate only
	// looks at the base name, so the cache key is the base name too.
	decisions *lru.Cache[string, bool]
}

// New creates a Matcher from an extension list and an optional pattern.
// Extensions may be given with or without the leading dot and in any case.
// An empty pattern string means no pattern filtering.
func New(extensions []string, pattern string) (*Matcher, error) {
	m := &Matcher{
		extensions: make(map[string]struct{}, len(extensions)),
	}

	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m.extensions[ext] = struct{}{}
	}

	if pattern != "" {
		re, err := regexp.Compile(anchor(pattern))
		if err != nil {
			return nil, sweeperr.New(sweeperr.ErrCodePatternInvalid,
				"invalid filename pattern "+pattern, err)
		}
		m.pattern = re
	}

	cache, err := lru.New[string, bool](decisionCacheSize)
	if err != nil {
		return nil, sweeperr.New(sweeperr.ErrCodeInternal,
			"failed to create decision cache", err)
	}
	m.decisions = cache

	return m, nil
}

// anchor wraps the pattern so it must match the whole stem.
func anchor(pattern string) string {
	if !strings.HasPrefix(pattern, "^") {
		pattern = "^" + pattern
	}
	if !strings.HasSuffix(pattern, "$") {
		pattern = pattern + "$"
	}
	return pattern
}

// MatchesAll reports whether the matcher accepts every path
// (no extensions and no pattern configured).
func (m *Matcher) MatchesAll() bool {
	return len(m.extensions) == 0 && m.pattern == nil
}

// Match reports whether the path qualifies for processing.
// The extension compare is case-insensitive; the pattern applies to the
// filename stem only. An empty or unusable path never matches.
func (m *Matcher) Match(path string) bool {
	if m.MatchesAll() {
		return true
	}

	name := filepath.Base(path)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return false
	}

	if cached, ok := m.decisions.Get(name); ok {
		return cached
	}

	result := m.match(name)
	m.decisions.Add(name, result)
	return result
}

// match evaluates the predicate against a base name.
func (m *Matcher) match(name string) bool {
	ext := filepath.Ext(name)

	if len(m.extensions) > 0 {
		if _, ok := m.extensions[strings.ToLower(ext)]; !ok {
			return false
		}
	}

	if m.pattern != nil {
		stem := strings.TrimSuffix(name, ext)
		if !m.pattern.MatchString(stem) {
			return false
		}
	}

	return true
}

// Extensions returns the normalized extension allow-list.
func (m *Matcher) Extensions() []string {
	out := make([]string, 0, len(m.extensions))
	for ext := range m.extensions {
		out = append(out, ext)
	}
	return out
}

// Pattern returns the configured pattern source, or the empty string.
func (m *Matcher) Pattern() string {
	if m.pattern == nil {
		return ""
	}
	return m.pattern.String()
}
