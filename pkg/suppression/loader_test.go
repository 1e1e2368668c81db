package suppression

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_LoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suppressions.txt")
	require.NoError(t, os.WriteFile(path, []byte(sampleSuppressions), 0o644))

	supps, err := NewLoader().LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, supps, 3)
	assert.Equal(t, path, supps[0].Source)
}

func TestLoader_LoadFile_Missing(t *testing.T) {
	_, err := NewLoader().LoadFile(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.False(t, IsMalformed(err))
}

func TestLoader_LoadFiles_ConcatenatesInOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"memcheck/suppressions.txt": {Data: []byte("{\n a\n Memcheck:Leak\n fun:a\n}\n")},
		"tsan/suppressions.txt":     {Data: []byte("{\n b\n ThreadSanitizer:Race\n fun:b\n}\n{\n c\n *\n ...\n}\n")},
	}

	supps, err := NewLoaderWithFS(fsys).LoadFiles("tsan/suppressions.txt", "memcheck/suppressions.txt")
	require.NoError(t, err)
	require.Len(t, supps, 3)
	assert.Equal(t, "b", supps[0].Name)
	assert.Equal(t, "c", supps[1].Name)
	assert.Equal(t, "a", supps[2].Name)
}

func TestLoader_LoadFiles_MalformedIsFatal(t *testing.T) {
	fsys := fstest.MapFS{
		"good.txt": {Data: []byte("{\n a\n *\n fun:a\n}\n")},
		"bad.txt":  {Data: []byte("{\n a\n *\n fun:a\n")},
	}

	supps, err := NewLoaderWithFS(fsys).LoadFiles("good.txt", "bad.txt")
	require.Error(t, err)
	assert.Nil(t, supps)
	assert.True(t, errors.Is(err, ErrMalformedSuppression))
	assert.Contains(t, err.Error(), "bad.txt:1")
}

func TestLoader_LoadFS(t *testing.T) {
	fsys := fstest.MapFS{
		"supps/b.txt":   {Data: []byte("{\n b\n *\n fun:b\n}\n")},
		"supps/a.txt":   {Data: []byte("{\n a\n *\n fun:a\n}\n")},
		"supps/c.yml":   {Data: []byte("suppressions:\n  - name: c\n    type: '*'\n    frames: [fun:c]\n")},
		"other/skip.md": {Data: []byte("not a suppression")},
	}

	supps, err := NewLoaderWithFS(fsys).LoadFS("supps/*")
	require.NoError(t, err)
	require.Len(t, supps, 3)
	assert.Equal(t, "a", supps[0].Name)
	assert.Equal(t, "b", supps[1].Name)
	assert.Equal(t, "c", supps[2].Name)
}

func TestLoader_LoadFS_NoFilesystem(t *testing.T) {
	_, err := NewLoader().LoadFS("*.txt")
	assert.Error(t, err)
}

func TestLoader_LoadYAML(t *testing.T) {
	data := `suppressions:
  - name: bug_1234
    type: Memcheck:Leak
    frames:
      - fun:malloc
      - "..."
      - "..."
      - fun:Foo*
  - name: any_race
    type: ThreadSanitizer:Race
    frames: ["..."]
`
	supps, err := NewLoader().LoadYAML([]byte(data), "supps.yml")
	require.NoError(t, err)
	require.Len(t, supps, 2)

	s := supps[0]
	assert.Equal(t, "bug_1234", s.Name)
	assert.Equal(t, "Memcheck:Leak", s.ErrorType)
	assert.Equal(t, 2, s.Line)
	require.Len(t, s.Frames, 3)
	assert.True(t, s.Frames[1].IsEllipsis())

	assert.Equal(t, 9, supps[1].Line)
}

func TestLoader_LoadYAML_Malformed(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing type", "suppressions:\n  - name: a\n    frames: [fun:a]\n"},
		{"missing name", "suppressions:\n  - type: '*'\n    frames: [fun:a]\n"},
		{"empty entry", "suppressions:\n  - {}\n"},
		{"wrong shape", "suppressions:\n  - name: [1, 2]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().LoadYAML([]byte(tt.data), "bad.yml")
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedSuppression))
		})
	}
}

func TestLoader_LoadYAML_InvalidYAML(t *testing.T) {
	_, err := NewLoader().LoadYAML([]byte("this is not valid yaml: [[["), "bad.yml")
	require.Error(t, err)
	assert.False(t, IsMalformed(err))
}
