package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReport_PlainForm(t *testing.T) {
	r := NewReport("0123456789ABCDEF", "Memcheck:Leak\nfun:malloc\nfun:Foo\n")

	assert.Equal(t, "0123456789ABCDEF", r.Hash)
	assert.Equal(t, "Memcheck:Leak", r.ErrorType)
	assert.Equal(t, []string{"fun:malloc", "fun:Foo"}, r.Frames)
}

func TestNewReport_BlockForm(t *testing.T) {
	text := "{\n   <insert_a_suppression_name_here>\n   Memcheck:Leak\n   fun:malloc\n   fun:Foo\n}"
	r := NewReport("h", text)

	assert.Equal(t, text, r.Text)
	assert.Equal(t, "Memcheck:Leak", r.ErrorType)
	assert.Equal(t, []string{"fun:malloc", "fun:Foo"}, r.Frames)
}

func TestNewReport_TrimsAndSkipsBlankLines(t *testing.T) {
	r := NewReport("", "  ThreadSanitizer:Race  \r\n\n   fun:A\r\n\n  fun:B  ")

	assert.Equal(t, "ThreadSanitizer:Race", r.ErrorType)
	assert.Equal(t, []string{"fun:A", "fun:B"}, r.Frames)
}

func TestNewReport_Empty(t *testing.T) {
	r := NewReport("", "")
	assert.Empty(t, r.ErrorType)
	assert.Empty(t, r.Frames)

	r = NewReport("", "{\n}")
	assert.Empty(t, r.ErrorType)
	assert.Empty(t, r.Frames)
}

func TestNewReport_HeaderOnly(t *testing.T) {
	r := NewReport("", "Memcheck:Leak")
	assert.Equal(t, "Memcheck:Leak", r.ErrorType)
	assert.Empty(t, r.Frames)
}

func TestReport_AddOrigin(t *testing.T) {
	r := NewReport("", "Memcheck:Leak\nfun:malloc")
	r.AddOrigin("http://build/Linux/1")
	r.AddOrigin("http://build/Mac/2")
	r.AddOrigin("http://build/Linux/1")

	assert.Equal(t, []string{"http://build/Linux/1", "http://build/Mac/2"}, r.Origins)
}

func TestParseErrorType(t *testing.T) {
	et, ok := ParseErrorType("Memcheck:Leak")
	assert.True(t, ok)
	assert.Equal(t, "Memcheck", et.Tool)
	assert.Equal(t, "Leak", et.Kind)
	assert.Equal(t, "Memcheck:Leak", et.String())

	_, ok = ParseErrorType("Leak")
	assert.False(t, ok)
}

func TestVerdict_Suppressed(t *testing.T) {
	assert.False(t, Verdict{}.Suppressed())
	assert.True(t, Verdict{Suppression: &Suppression{}}.Suppressed())
}
