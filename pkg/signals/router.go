// Package signals routes decoded signal names through user wildcard
// patterns and accumulates the values of routed signals into series.
package signals

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// CatchAll is the pattern used when no pattern is given.
	CatchAll = "*"

	sepSignal    = `\.`
	wildcardMany = `\*`
	wildcardOne  = `\?`
)

// Router decides whether a fully qualified signal name ("Message.Signal")
// is tracked. A Router is not safe for concurrent use.
type Router struct {
	patterns []string
	compiled []*regexp.Regexp
	cache    map[string]bool
}

// Compile builds a Router from wildcard patterns. "*" matches any run of
// characters, "?" exactly one character. A pattern without a "." matches
// that signal in any message. An empty list behaves like CatchAll.
func Compile(patterns []string) (*Router, error) {
	if len(patterns) == 0 {
		patterns = []string{CatchAll}
	}

	r := &Router{
		patterns: make([]string, 0, len(patterns)),
		compiled: make([]*regexp.Regexp, 0, len(patterns)),
		cache:    make(map[string]bool),
	}

	for _, p := range patterns {
		re, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("signal pattern %q: %w", p, err)
		}
		r.patterns = append(r.patterns, p)
		r.compiled = append(r.compiled, re)
	}

	return r, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(patterns ...string) *Router {
	r, err := Compile(patterns)
	if err != nil {
		panic(err)
	}
	return r
}

func compilePattern(pattern string) (*regexp.Regexp, error) {
	expr := regexp.QuoteMeta(pattern)
	if !strings.Contains(expr, sepSignal) {
		expr = wildcardMany + sepSignal + expr
	}
	expr = strings.ReplaceAll(expr, wildcardMany, ".*")
	expr = strings.ReplaceAll(expr, wildcardOne, ".")
	return regexp.Compile("^" + expr + "$")
}

// Match reports whether name matches at least one pattern.
func (r *Router) Match(name string) bool {
	if hit, ok := r.cache[name]; ok {
		return hit
	}

	hit := false
	for _, re := range r.compiled {
		if re.MatchString(name) {
			hit = true
			break
		}
	}
	r.cache[name] = hit
	return hit
}

// Patterns returns the effective source patterns.
func (r *Router) Patterns() []string {
	out := make([]string, len(r.patterns))
	copy(out, r.patterns)
	return out
}
