package suppression

import (
	"fmt"
	"sort"
	"strings"

	"github.com/praetorian-inc/suppcheck/pkg/glob"
	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// DefaultKnownTypes lists the error kinds each tool emits.
var DefaultKnownTypes = map[string][]string{
	"Memcheck": {
		"Addr1", "Addr2", "Addr4", "Addr8", "Addr16",
		"Cond", "Free", "Jump", "Leak", "Overlap", "Param",
		"Value1", "Value2", "Value4", "Value8", "Value16",
	},
	"ThreadSanitizer": {"Race", "UnlockNonLocked", "InvalidLock"},
	"Heapcheck":       {"Leak"},
}

// framePrefixes are the frame forms the tools generate.
var framePrefixes = []string{"fun:", "obj:", "src:"}

// LintConfig controls Lint.
type LintConfig struct {
	// KnownTypes maps tool name to permitted kinds. Nil uses DefaultKnownTypes.
	KnownTypes map[string][]string
}

// Issue is one problem found by Lint.
type Issue struct {
	Suppression *types.Suppression
	Message     string
}

func (i Issue) String() string {
	return fmt.Sprintf("%s: %s: %s", i.Suppression.ID(), i.Suppression.Name, i.Message)
}

// Lint checks suppressions beyond what parsing requires: tool-qualified error
// types, frame prefixes and exact duplicates. It returns every issue found.
func Lint(supps []*types.Suppression, config LintConfig) []Issue {
	known := config.KnownTypes
	if known == nil {
		known = DefaultKnownTypes
	}

	var issues []Issue
	seen := make(map[string]*types.Suppression)

	for _, s := range supps {
		if msg := lintErrorType(s.ErrorType, known); msg != "" {
			issues = append(issues, Issue{Suppression: s, Message: msg})
		}

		for i, f := range s.Frames {
			if f.IsEllipsis() || hasFramePrefix(f.String()) {
				continue
			}
			if i == 0 && s.ErrorType == "Memcheck:Param" {
				// syscall parameter description, e.g. "write(buf)"
				continue
			}
			issues = append(issues, Issue{
				Suppression: s,
				Message:     fmt.Sprintf(`frame %d %q: expected "fun:", "obj:" or "..."`, i+1, f.String()),
			})
		}

		if len(s.Frames) == 0 {
			issues = append(issues, Issue{Suppression: s, Message: "no frames; suppression never matches"})
		}

		key := signature(s)
		if prev, ok := seen[key]; ok {
			issues = append(issues, Issue{Suppression: s, Message: "duplicate of " + prev.ID()})
		} else {
			seen[key] = s
		}
	}

	return issues
}

// =============================================================================
// HELPERS
// =============================================================================

func lintErrorType(errorType string, known map[string][]string) string {
	if errorType == types.AnyErrorType {
		return ""
	}
	et, ok := types.ParseErrorType(errorType)
	if !ok {
		return fmt.Sprintf("error type %q: expected TOOL:KIND", errorType)
	}
	kinds, ok := known[et.Tool]
	if !ok {
		tools := make([]string, 0, len(known))
		for t := range known {
			tools = append(tools, t)
		}
		sort.Strings(tools)
		return fmt.Sprintf("error type %q: unknown tool %q (known: %s)", errorType, et.Tool, strings.Join(tools, ", "))
	}
	kindGlob, err := glob.Compile(et.Kind)
	if err != nil {
		return fmt.Sprintf("error type %q: %v", errorType, err)
	}
	for _, k := range kinds {
		if kindGlob.Match(k) {
			return ""
		}
	}
	return fmt.Sprintf("error type %q: unknown %s kind %q", errorType, et.Tool, et.Kind)
}

func hasFramePrefix(frame string) bool {
	for _, p := range framePrefixes {
		if strings.HasPrefix(frame, p) {
			return true
		}
	}
	return false
}

func signature(s *types.Suppression) string {
	var b strings.Builder
	b.WriteString(s.ErrorType)
	for _, f := range s.Frames {
		b.WriteByte('\n')
		b.WriteString(f.String())
	}
	return b.String()
}
