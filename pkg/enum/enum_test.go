package enum

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect_StableOrder(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"c.log", "a.log", "b.log"} {
		writeFile(t, filepath.Join(tmpDir, "dir", name), []byte(name))
	}
	single := filepath.Join(tmpDir, "z-first.log")
	writeFile(t, single, []byte("z"))

	e := NewFilesystemEnumerator(Config{Roots: []string{single, filepath.Join(tmpDir, "dir")}, Workers: 4})
	inputs, err := Collect(context.Background(), e)
	require.NoError(t, err)

	var got []string
	for _, in := range inputs {
		got = append(got, filepath.Base(in.Source.Path))
	}
	assert.Equal(t, []string{"z-first.log", "a.log", "b.log", "c.log"}, got)
}

func TestCombinedEnumerator_DedupesAndKeepsGroupOrder(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a.log")
	writeFile(t, a, []byte("same content"))
	writeFile(t, filepath.Join(tmpDir, "b.log"), []byte("other content"))

	combined := NewCombinedEnumerator(
		NewReaderEnumerator(strings.NewReader("from stdin"), "<stdin>"),
		NewFilesystemEnumerator(Config{Roots: []string{tmpDir}}),
		NewFilesystemEnumerator(Config{Roots: []string{a}}),
	)
	inputs, err := Collect(context.Background(), combined)
	require.NoError(t, err)

	require.Len(t, inputs, 3)
	assert.Equal(t, "<stdin>", inputs[0].Source.Path)
	assert.Equal(t, filepath.Join(tmpDir, "a.log"), inputs[1].Source.Path)
	assert.Equal(t, filepath.Join(tmpDir, "b.log"), inputs[2].Source.Path)
}

func TestCombinedEnumerator_KeepsEqualContentFromDistinctSources(t *testing.T) {
	tmpDir := t.TempDir()
	a := filepath.Join(tmpDir, "a.log")
	writeFile(t, a, []byte("same content"))

	combined := NewCombinedEnumerator(
		NewReaderEnumerator(strings.NewReader("same content"), "<stdin>"),
		NewFilesystemEnumerator(Config{Roots: []string{a}}),
	)
	inputs, err := Collect(context.Background(), combined)
	require.NoError(t, err)

	require.Len(t, inputs, 2)
	assert.Equal(t, "<stdin>", inputs[0].Source.Path)
	assert.Equal(t, a, inputs[1].Source.Path)
	assert.Equal(t, inputs[0].Content, inputs[1].Content)
}

func TestReaderEnumerator(t *testing.T) {
	var got []string
	err := NewReaderEnumerator(strings.NewReader("hello"), "-").Enumerate(context.Background(), func(content []byte, src Source) error {
		got = append(got, src.String()+"="+string(content))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"-=hello"}, got)
}

func TestSource_String(t *testing.T) {
	assert.Equal(t, "a.zip!x/y.log", Source{Path: "a.zip", Member: "x/y.log"}.String())
	assert.Equal(t, "plain.log", Source{Path: "plain.log"}.String())
}
