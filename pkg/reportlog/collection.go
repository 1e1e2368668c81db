package reportlog

import (
	"sync"

	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// Collection deduplicates reports by exact text across logs, keeping the
// union of their origins. It is safe for concurrent use.
type Collection struct {
	mu      sync.Mutex
	reports []*types.Report
	byText  map[string]*types.Report
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		byText: make(map[string]*types.Report),
	}
}

// Add records one observation of text at origin and returns the
// deduplicated report. A later non-empty hash replaces an earlier one.
func (c *Collection) Add(hash, text, origin string) *types.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.byText[text]
	if !ok {
		r = types.NewReport(hash, text)
		c.byText[text] = r
		c.reports = append(c.reports, r)
	} else if hash != "" {
		r.Hash = hash
	}
	if origin != "" {
		r.AddOrigin(origin)
	}
	return r
}

// AddLog records every entry of a parsed log.
func (c *Collection) AddLog(l *Log) {
	for _, e := range l.Entries {
		c.Add(e.Hash, e.Text, l.Origin)
	}
}

// Reports returns the distinct reports in first-seen order.
func (c *Collection) Reports() []*types.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]*types.Report, len(c.reports))
	copy(out, c.reports)
	return out
}

// Len returns the number of distinct reports.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reports)
}
