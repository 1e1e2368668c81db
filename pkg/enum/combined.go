package enum

import (
	"context"
	"crypto/sha256"
	"sync"
)

// CombinedEnumerator runs multiple enumerators sequentially. A log yielded
// twice under the same source with the same content is passed on once; equal
// content under different sources is kept so every origin is recorded.
type CombinedEnumerator struct {
	enumerators []Enumerator
}

// NewCombinedEnumerator creates a CombinedEnumerator that wraps the provided
// enumerators. They are run in order and Collect keeps that order.
func NewCombinedEnumerator(enumerators ...Enumerator) *CombinedEnumerator {
	return &CombinedEnumerator{enumerators: enumerators}
}

// Enumerate runs each child enumerator in sequence, passing unique logs to
// callback.
func (c *CombinedEnumerator) Enumerate(ctx context.Context, callback Callback) error {
	type key struct {
		digest [sha256.Size]byte
		source string
	}
	var mu sync.Mutex
	seen := make(map[key]bool)

	for i, e := range c.enumerators {
		group := i
		err := e.Enumerate(ctx, func(content []byte, src Source) error {
			k := key{digest: sha256.Sum256(content), source: src.String()}
			mu.Lock()
			if seen[k] {
				mu.Unlock()
				return nil
			}
			seen[k] = true
			mu.Unlock()

			src.group = group
			return callback(content, src)
		})
		if err != nil {
			return err
		}
	}
	return nil
}
