// Package glob compiles suppression-style glob patterns.
//
// Two wildcards are recognised: '*' matches any (possibly empty) substring and
// '?' matches exactly one character. Every other character, including '[' and
// ']' which appear in frames such as "fun:operator new[](unsigned long)", is
// literal. A pattern must match the whole input.
package glob

import (
	"fmt"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// MatchTimeout bounds a single glob evaluation.
const MatchTimeout = time.Second

// Pattern is a compiled glob. It is immutable and safe for concurrent use.
type Pattern struct {
	raw     string
	literal bool
	re      *regexp2.Regexp // nil for literal patterns
}

// Compile compiles a glob pattern. Patterns without wildcards are compared
// with plain string equality.
func Compile(pattern string) (*Pattern, error) {
	p := &Pattern{raw: pattern}
	if !HasWildcard(pattern) {
		p.literal = true
		return p, nil
	}

	re, err := regexp2.Compile(toRegex(pattern), regexp2.Singleline)
	if err != nil {
		return nil, fmt.Errorf("compiling glob %q: %w", pattern, err)
	}
	re.MatchTimeout = MatchTimeout
	p.re = re
	return p, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(pattern string) *Pattern {
	p, err := Compile(pattern)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether s matches the whole pattern. A regexp timeout counts
// as a mismatch.
func (p *Pattern) Match(s string) bool {
	if p.literal {
		return s == p.raw
	}
	ok, err := p.re.MatchString(s)
	if err != nil {
		return false
	}
	return ok
}

// String returns the source pattern.
func (p *Pattern) String() string {
	return p.raw
}

// IsLiteral reports whether the pattern contains no wildcards.
func (p *Pattern) IsLiteral() bool {
	return p.literal
}

// Literals returns the non-empty literal runs between wildcards, in order.
func (p *Pattern) Literals() []string {
	if p.literal {
		if p.raw == "" {
			return nil
		}
		return []string{p.raw}
	}
	parts := strings.FieldsFunc(p.raw, func(r rune) bool {
		return r == '*' || r == '?'
	})
	return parts
}

// HasWildcard reports whether s contains '*' or '?'.
func HasWildcard(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// toRegex translates a glob into an anchored regexp2 expression.
func toRegex(pattern string) string {
	var b strings.Builder
	b.WriteString(`\A(?:`)
	var lit strings.Builder
	flush := func() {
		if lit.Len() > 0 {
			b.WriteString(regexp2.Escape(lit.String()))
			lit.Reset()
		}
	}
	for _, r := range pattern {
		switch r {
		case '*':
			flush()
			b.WriteString(`.*`)
		case '?':
			flush()
			b.WriteString(`.`)
		default:
			lit.WriteRune(r)
		}
	}
	flush()
	b.WriteString(`)\z`)
	return b.String()
}
