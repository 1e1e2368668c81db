package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSuppression_CollapsesEllipses(t *testing.T) {
	s, err := NewSuppression("bug_1", "Memcheck:Leak", []string{
		"fun:malloc", "...", "...", "...", "fun:Foo", "...",
	})
	require.NoError(t, err)

	require.Len(t, s.Frames, 4)
	assert.Equal(t, FrameGlob, s.Frames[0].Kind)
	assert.Equal(t, FrameEllipsis, s.Frames[1].Kind)
	assert.Equal(t, FrameGlob, s.Frames[2].Kind)
	assert.Equal(t, FrameEllipsis, s.Frames[3].Kind)
	assert.True(t, s.EndsWithEllipsis())
}

func TestNewSuppression_NoConsecutiveEllipses(t *testing.T) {
	inputs := [][]string{
		{"...", "..."},
		{"...", "fun:a", "...", "...", "fun:b"},
		{"fun:a", "...", "...", "...", "..."},
	}
	for _, lines := range inputs {
		s, err := NewSuppression("n", "*", lines)
		require.NoError(t, err)
		require.NotEmpty(t, s.Frames)
		for i := 1; i < len(s.Frames); i++ {
			assert.False(t, s.Frames[i-1].IsEllipsis() && s.Frames[i].IsEllipsis(),
				"consecutive ellipses in %v", lines)
		}
	}
}

func TestNewSuppression_EmptyFrames(t *testing.T) {
	s, err := NewSuppression("n", "Memcheck:Leak", nil)
	require.NoError(t, err)
	assert.Empty(t, s.Frames)
	assert.False(t, s.EndsWithEllipsis())
}

func TestSuppression_MatchesErrorType(t *testing.T) {
	wildcard, err := NewSuppression("n", AnyErrorType, nil)
	require.NoError(t, err)
	assert.True(t, wildcard.MatchesErrorType("Memcheck:Leak"))
	assert.True(t, wildcard.MatchesErrorType(""))

	exact, err := NewSuppression("n", "Memcheck:Leak", nil)
	require.NoError(t, err)
	assert.True(t, exact.MatchesErrorType("Memcheck:Leak"))
	assert.False(t, exact.MatchesErrorType("Memcheck:Cond"))

	globbed, err := NewSuppression("n", "Memcheck:Addr*", nil)
	require.NoError(t, err)
	assert.True(t, globbed.MatchesErrorType("Memcheck:Addr4"))
	assert.False(t, globbed.MatchesErrorType("Memcheck:Value4"))
}

func TestSuppression_ID(t *testing.T) {
	s := &Suppression{Name: "bug_1"}
	assert.Equal(t, "bug_1", s.ID())

	s.Source = "memcheck/suppressions.txt"
	assert.Equal(t, "memcheck/suppressions.txt", s.ID())

	s.Line = 42
	assert.Equal(t, "memcheck/suppressions.txt:42", s.ID())
}

func TestSuppression_String(t *testing.T) {
	s, err := NewSuppression("bug_1", "Memcheck:Leak", []string{"fun:malloc", "...", "..."})
	require.NoError(t, err)

	want := "{\n   bug_1\n   Memcheck:Leak\n   fun:malloc\n   ...\n}"
	assert.Equal(t, want, s.String())
}

func TestFramePattern(t *testing.T) {
	e, err := NewFramePattern("...")
	require.NoError(t, err)
	assert.True(t, e.IsEllipsis())
	assert.True(t, e.Match("anything"))
	assert.Equal(t, "ellipsis", e.Kind.String())

	g, err := NewFramePattern("fun:Foo*")
	require.NoError(t, err)
	assert.False(t, g.IsEllipsis())
	assert.True(t, g.Match("fun:FooBar"))
	assert.False(t, g.Match("fun:Bar"))
	assert.Equal(t, "fun:Foo*", g.String())
	assert.Equal(t, "glob", g.Kind.String())
}
