package enum

import (
	"context"
	"sort"
	"sync"
)

// DefaultIgnoreFile is read from the top of every walked directory.
const DefaultIgnoreFile = ".suppcheckignore"

// Source identifies where a log came from.
type Source struct {
	Path   string // file on disk
	Member string // path inside an archive, empty for plain files

	group       int // enumerator position inside a CombinedEnumerator
	index       int // walk order of Path
	memberIndex int // order of Member inside the archive
}

// String returns "path" or "path!member".
func (s Source) String() string {
	if s.Member == "" {
		return s.Path
	}
	return s.Path + "!" + s.Member
}

// Callback receives one log. It may be called concurrently.
type Callback func(content []byte, src Source) error

// Enumerator discovers report logs.
type Enumerator interface {
	// Enumerate yields every log from the configured inputs.
	Enumerate(ctx context.Context, callback Callback) error
}

// Config for enumeration.
type Config struct {
	// Roots are files, directories or archives, in command-line order.
	Roots []string

	// IncludeHidden includes hidden files/directories (starting with .).
	IncludeHidden bool

	// MaxFileSize is the maximum file or archive member size to process (0 = no limit).
	MaxFileSize int64

	// FollowSymlinks follows symbolic links.
	FollowSymlinks bool

	// ExtractArchives reads logs out of .zip, .7z and .gz files instead of
	// skipping them as binary.
	ExtractArchives bool

	// IgnoreFile names the gitignore-style file honoured at the top of each
	// walked directory. Defaults to DefaultIgnoreFile.
	IgnoreFile string

	// Workers bounds parallel file reads (0 = runtime.NumCPU()).
	Workers int
}

// Input is a log read into memory.
type Input struct {
	Source  Source
	Content []byte
}

// Collect runs e and returns every log in a stable order: roots in the order
// given, directory entries in lexical order, archive members in archive order.
func Collect(ctx context.Context, e Enumerator) ([]Input, error) {
	var (
		mu     sync.Mutex
		inputs []Input
	)
	err := e.Enumerate(ctx, func(content []byte, src Source) error {
		mu.Lock()
		inputs = append(inputs, Input{Source: src, Content: content})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(inputs, func(i, j int) bool {
		a, b := inputs[i].Source, inputs[j].Source
		if a.group != b.group {
			return a.group < b.group
		}
		if a.index != b.index {
			return a.index < b.index
		}
		return a.memberIndex < b.memberIndex
	})
	return inputs, nil
}
