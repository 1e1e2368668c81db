package enum

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"golang.org/x/sync/errgroup"
)

// FilesystemEnumerator enumerates log files from paths on disk.
type FilesystemEnumerator struct {
	config Config
}

// NewFilesystemEnumerator creates a new filesystem enumerator.
func NewFilesystemEnumerator(config Config) *FilesystemEnumerator {
	if config.IgnoreFile == "" {
		config.IgnoreFile = DefaultIgnoreFile
	}
	return &FilesystemEnumerator{config: config}
}

// fileEntry holds metadata collected during the walk phase.
type fileEntry struct {
	path  string
	index int
}

// Enumerate walks every root and yields log files.
// Phase 1: Walk roots and collect eligible file paths (fast, sequential).
// Phase 2: Read files and invoke callback in parallel.
func (e *FilesystemEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	// Phase 1: Walk and collect eligible file paths
	var files []fileEntry
	for _, root := range e.config.Roots {
		info, err := os.Stat(root)
		if err != nil {
			return fmt.Errorf("failed to stat %s: %w", root, err)
		}
		if !info.IsDir() {
			// Explicit files are always read, hidden or not.
			files = append(files, fileEntry{path: root, index: len(files)})
			continue
		}
		walked, err := e.walk(ctx, root)
		if err != nil {
			return err
		}
		for _, path := range walked {
			files = append(files, fileEntry{path: path, index: len(files)})
		}
	}

	// Phase 2: Read and process files in parallel
	numReaders := e.config.Workers
	if numReaders < 1 {
		numReaders = runtime.NumCPU()
	}
	if numReaders < 1 {
		numReaders = 1
	}

	origCtx := ctx
	g, ctx := errgroup.WithContext(ctx)
	pathsCh := make(chan fileEntry, numReaders*2)

	// Feed paths to readers
	g.Go(func() error {
		defer close(pathsCh)
		for _, f := range files {
			select {
			case pathsCh <- f:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Parallel readers
	for i := 0; i < numReaders; i++ {
		g.Go(func() error {
			for f := range pathsCh {
				if err := e.processFile(ctx, f, callback); err != nil {
					return err
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// If the caller's context was cancelled but all goroutines finished
	// before noticing, propagate the cancellation.
	if origCtx.Err() != nil {
		return origCtx.Err()
	}
	return nil
}

// walk collects eligible files under root in lexical order.
func (e *FilesystemEnumerator) walk(ctx context.Context, root string) ([]string, error) {
	// Load ignore patterns if present
	var ignore *gitignore.GitIgnore
	ignorePath := filepath.Join(root, e.config.IgnoreFile)
	if _, err := os.Stat(ignorePath); err == nil {
		ignore, err = gitignore.CompileIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", ignorePath, err)
		}
	}

	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if path != root && !e.config.IncludeHidden && isHidden(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 && !e.config.FollowSymlinks {
			return nil
		}

		if !e.config.IncludeHidden && isHidden(info.Name()) {
			return nil
		}

		if e.config.MaxFileSize > 0 && info.Size() > e.config.MaxFileSize && !isArchive(path) {
			return nil
		}

		if ignore != nil {
			relPath, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if ignore.MatchesPath(relPath) {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// processFile reads a single file and invokes the callback.
func (e *FilesystemEnumerator) processFile(ctx context.Context, f fileEntry, callback Callback) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	content, err := os.ReadFile(f.path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", f.path, err)
	}

	if e.config.ExtractArchives && isArchive(f.path) {
		extracted, err := ExtractLogs(f.path, content, e.config.MaxFileSize)
		if err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.path, err)
		}
		for i, ec := range extracted {
			src := Source{
				Path:        f.path,
				Member:      ec.Name,
				index:       f.index,
				memberIndex: i,
			}
			if err := callback(ec.Content, src); err != nil {
				return err
			}
		}
		return nil
	}

	if isBinary(content) {
		return nil
	}

	return callback(content, Source{Path: f.path, index: f.index})
}

// isHidden checks if a filename is hidden (starts with .).
// The special entries "." and ".." are NOT considered hidden.
func isHidden(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// isBinary detects if content is binary by checking first 8KB for null bytes.
func isBinary(content []byte) bool {
	checkSize := len(content)
	if checkSize > 8192 {
		checkSize = 8192
	}
	return bytes.IndexByte(content[:checkSize], 0) != -1
}
