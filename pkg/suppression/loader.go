package suppression

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/praetorian-inc/suppcheck/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader reads suppression files. Files ending in .yml or .yaml use the YAML
// format; everything else uses the brace-delimited text format.
type Loader struct {
	fs fs.FS // nil reads from the OS filesystem
}

// NewLoader creates a loader that reads from the OS filesystem.
func NewLoader() *Loader {
	return &Loader{}
}

// NewLoaderWithFS creates a loader with a custom filesystem.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{
		fs: fsys,
	}
}

// LoadFile loads every suppression defined in one file.
func (l *Loader) LoadFile(path string) ([]*types.Suppression, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	if isYAML(path) {
		return l.LoadYAML(data, path)
	}
	return Parse(data, path)
}

// LoadFiles loads files in order and concatenates their suppressions.
// The first error aborts loading.
func (l *Loader) LoadFiles(paths ...string) ([]*types.Suppression, error) {
	var all []*types.Suppression
	for _, path := range paths {
		supps, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, supps...)
	}
	return all, nil
}

// LoadFS loads every file in the loader's filesystem matching pattern, in
// lexical order.
func (l *Loader) LoadFS(pattern string) ([]*types.Suppression, error) {
	if l.fs == nil {
		return nil, fmt.Errorf("loader has no filesystem")
	}
	paths, err := fs.Glob(l.fs, pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	sort.Strings(paths)
	return l.LoadFiles(paths...)
}

// LoadYAML parses the YAML suppression format:
//
//	suppressions:
//	  - name: bug_1234
//	    type: Memcheck:Leak
//	    frames: ["fun:malloc", "...", "fun:Foo*"]
func (l *Loader) LoadYAML(data []byte, source string) ([]*types.Suppression, error) {
	var file yamlSuppressionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML %s: %w", source, err)
	}

	supps := make([]*types.Suppression, 0, len(file.Suppressions))
	for i := range file.Suppressions {
		node := &file.Suppressions[i]
		var ys yamlSuppression
		if err := node.Decode(&ys); err != nil {
			return nil, &MalformedSuppressionError{Source: source, Line: node.Line, Reason: "invalid entry", Err: err}
		}

		lines := []string{strings.TrimSpace(ys.Name), strings.TrimSpace(ys.Type)}
		for _, f := range ys.Frames {
			if f = strings.TrimSpace(f); f != "" {
				lines = append(lines, f)
			}
		}
		switch {
		case lines[0] == "" && lines[1] == "" && len(ys.Frames) == 0:
			return nil, malformed(source, node.Line, "empty block")
		case lines[0] == "":
			return nil, malformed(source, node.Line, "suppression has no name")
		case lines[1] == "":
			return nil, malformed(source, node.Line, fmt.Sprintf("suppression %q has no error type", lines[0]))
		}

		s, err := ParseBlock(Block{Source: source, Line: node.Line, Lines: lines})
		if err != nil {
			return nil, err
		}
		supps = append(supps, s)
	}
	return supps, nil
}

func (l *Loader) readFile(path string) ([]byte, error) {
	if l.fs != nil {
		return fs.ReadFile(l.fs, path)
	}
	return os.ReadFile(path)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}
