package matcher

import (
	"strings"
	"testing"

	"github.com/praetorian-inc/suppcheck/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// HELPERS
// =============================================================================

func supp(t *testing.T, errorType string, frames ...string) *types.Suppression {
	t.Helper()
	s, err := types.NewSuppression("test", errorType, frames)
	require.NoError(t, err)
	return s
}

func report(errorType string, frames ...string) *types.Report {
	return types.NewReport("", strings.Join(append([]string{errorType}, frames...), "\n"))
}

// =============================================================================
// MATCHES
// =============================================================================

func TestMatches_EllipsisConsumesMiddleFrames(t *testing.T) {
	s := supp(t, "*", "frameA", "...", "frameZ")
	assert.True(t, Matches(s, report("TypeX", "frameA", "frameM", "frameZ")))
}

func TestMatches_TrailingFrameBreaksExactEnd(t *testing.T) {
	s := supp(t, "TypeX", "frameA")
	assert.False(t, Matches(s, report("TypeX", "frameA", "frameB")))
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name      string
		errorType string
		pattern   []string
		reportTyp string
		frames    []string
		want      bool
	}{
		{"exact literal stack", "Memcheck:Leak", []string{"fun:malloc", "fun:Foo"}, "Memcheck:Leak", []string{"fun:malloc", "fun:Foo"}, true},
		{"error type mismatch", "Memcheck:Leak", []string{"fun:malloc"}, "Memcheck:Cond", []string{"fun:malloc"}, false},
		{"error type glob", "Memcheck:Addr*", []string{"fun:memcpy"}, "Memcheck:Addr8", []string{"fun:memcpy"}, true},
		{"wildcard error type", "*", []string{"fun:a"}, "ThreadSanitizer:Race", []string{"fun:a"}, true},
		{"frame glob", "*", []string{"fun:_ZN4base*Lock*"}, "T", []string{"fun:_ZN4base8internal8LockImpl4LockEv"}, true},
		{"question mark", "*", []string{"obj:/lib/libc-2.1?.so"}, "T", []string{"obj:/lib/libc-2.15.so"}, true},
		{"pattern longer than stack", "*", []string{"a", "b", "c"}, "T", []string{"a", "b"}, false},
		{"trailing ellipsis allows callers", "*", []string{"a", "..."}, "T", []string{"a", "b", "c"}, true},
		{"trailing ellipsis allows nothing after", "*", []string{"a", "..."}, "T", []string{"a"}, true},
		{"leading ellipsis", "*", []string{"...", "c"}, "T", []string{"a", "b", "c"}, true},
		{"leading ellipsis needs exact end", "*", []string{"...", "b"}, "T", []string{"a", "b", "c"}, false},
		{"ellipsis consumes zero frames", "*", []string{"a", "...", "b"}, "T", []string{"a", "b"}, true},
		{"ellipsis target missing", "*", []string{"a", "...", "z"}, "T", []string{"a", "b", "c"}, false},
		{"two ellipses", "*", []string{"...", "b", "...", "d", "..."}, "T", []string{"a", "b", "c", "d", "e"}, true},
		{"literal before ellipsis anchors", "*", []string{"b", "..."}, "T", []string{"a", "b"}, false},
		{"first forward position wins", "*", []string{"...", "x", "y"}, "T", []string{"x", "x", "y"}, false},
		{"empty pattern never matches", "*", nil, "T", []string{"a"}, false},
		{"ellipsis only on empty stack", "*", []string{"..."}, "T", nil, true},
		{"literal on empty stack", "*", []string{"a"}, "T", nil, false},
		{"zero-frame pattern on header-only report", "*", nil, "Memcheck:Leak", nil, false},
		{"zero-frame pattern with exact type on header-only report", "Memcheck:Leak", nil, "Memcheck:Leak", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := supp(t, tt.errorType, tt.pattern...)
			assert.Equal(t, tt.want, Matches(s, report(tt.reportTyp, tt.frames...)))
		})
	}
}

func TestMatches_BlockFormReport(t *testing.T) {
	s := supp(t, "Memcheck:Leak", "fun:malloc", "...")
	r := types.NewReport("0123456789ABCDEF", "{\n   <insert_a_suppression_name_here>\n   Memcheck:Leak\n   fun:malloc\n   fun:main\n}")
	assert.True(t, Matches(s, r))
}

func TestMatches_HeaderOnlyBlockNeedsFrames(t *testing.T) {
	r := types.NewReport("", "{\n   <insert_a_suppression_name_here>\n   Memcheck:Leak\n}")
	require.Empty(t, r.Frames)

	assert.False(t, Matches(supp(t, "Memcheck:Leak"), r))
	assert.True(t, Matches(supp(t, "Memcheck:Leak", "..."), r))
}

func TestMatches_Nil(t *testing.T) {
	assert.False(t, Matches(nil, report("T", "a")))
	assert.False(t, Matches(supp(t, "*", "..."), nil))
}

// =============================================================================
// PROPERTIES
// =============================================================================

func TestMatches_LiteralPatternOfSameLengthMatches(t *testing.T) {
	stacks := [][]string{
		{"a"},
		{"fun:malloc", "fun:calloc", "obj:/usr/lib/libfoo.so"},
		{"x", "x", "x", "x"},
	}
	for _, stack := range stacks {
		s := supp(t, "*", stack...)
		assert.True(t, Matches(s, report("T", stack...)), "%v", stack)
	}
}

func TestMatches_EllipsisOnlyMatchesEveryStack(t *testing.T) {
	s := supp(t, "*", "...")
	for _, stack := range [][]string{{"a"}, {"a", "b"}, {"fun:x", "fun:y", "fun:z"}} {
		assert.True(t, Matches(s, report("Any:Kind", stack...)), "%v", stack)
	}
}

func TestMatches_UnmatchedLiteralNeverMatches(t *testing.T) {
	stack := []string{"a", "b", "c", "d"}
	patterns := [][]string{
		{"missing"},
		{"...", "missing"},
		{"missing", "..."},
		{"...", "missing", "..."},
		{"a", "...", "missing", "..."},
		{"...", "b", "...", "missing"},
	}
	for _, p := range patterns {
		assert.False(t, Matches(supp(t, "*", p...), report("T", stack...)), "%v", p)
	}
}

// =============================================================================
// FIRST MATCH
// =============================================================================

func TestFirstMatch_FileOrderWins(t *testing.T) {
	first, err := types.NewSuppression("first", "*", []string{"..."})
	require.NoError(t, err)
	second, err := types.NewSuppression("second", "*", []string{"a"})
	require.NoError(t, err)

	got := FirstMatch([]*types.Suppression{first, second}, report("T", "a"))
	require.NotNil(t, got)
	assert.Equal(t, "first", got.Name)

	got = FirstMatch([]*types.Suppression{second, first}, report("T", "a"))
	require.NotNil(t, got)
	assert.Equal(t, "second", got.Name)
}

func TestFirstMatch_None(t *testing.T) {
	assert.Nil(t, FirstMatch([]*types.Suppression{supp(t, "*", "b")}, report("T", "a")))
	assert.Nil(t, FirstMatch(nil, report("T", "a")))
}
