package enum

import (
	"context"
	"fmt"
	"io"
)

// ReaderEnumerator yields a single log read from r, typically stdin.
type ReaderEnumerator struct {
	r    io.Reader
	name string
}

// NewReaderEnumerator creates an enumerator reporting r under name.
func NewReaderEnumerator(r io.Reader, name string) *ReaderEnumerator {
	return &ReaderEnumerator{r: r, name: name}
}

// Enumerate reads r to EOF and invokes callback once.
func (e *ReaderEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	content, err := io.ReadAll(e.r)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", e.name, err)
	}
	return callback(content, Source{Path: e.name})
}
