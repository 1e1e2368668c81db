package matcher

import (
	"sync"

	"github.com/praetorian-inc/suppcheck/pkg/prefilter"
	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// Config for matcher initialization.
type Config struct {
	// Suppressions to try, in priority order
	Suppressions []*types.Suppression

	// Prefilter narrows candidates with an Aho-Corasick keyword scan before
	// frame alignment. Results are identical with or without it.
	Prefilter bool
}

// Hit counts how many reports a suppression matched.
type Hit struct {
	Suppression *types.Suppression
	Count       int
}

// Matcher finds the first suppression covering a report and keeps
// per-suppression hit counts. It is safe for concurrent use.
type Matcher struct {
	supps []*types.Suppression
	pf    *prefilter.Prefilter

	mu   sync.Mutex
	hits map[*types.Suppression]int
}

// New creates a Matcher over cfg.Suppressions.
func New(cfg Config) *Matcher {
	m := &Matcher{
		supps: cfg.Suppressions,
		hits:  make(map[*types.Suppression]int),
	}
	if cfg.Prefilter && len(cfg.Suppressions) > 0 {
		m.pf = prefilter.New(cfg.Suppressions)
	}
	return m
}

// Match returns the first suppression covering r, or nil.
func (m *Matcher) Match(r *types.Report) *types.Suppression {
	candidates := m.supps
	if m.pf != nil {
		candidates = m.pf.Filter([]byte(r.Text))
	}

	s := FirstMatch(candidates, r)
	if s != nil {
		m.mu.Lock()
		m.hits[s]++
		m.mu.Unlock()
	}
	return s
}

// Suppressions returns the candidate list the matcher was built with.
func (m *Matcher) Suppressions() []*types.Suppression {
	return m.supps
}

// Hits returns hit counts for every suppression in candidate order,
// including those that matched nothing.
func (m *Matcher) Hits() []Hit {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Hit, 0, len(m.supps))
	for _, s := range m.supps {
		out = append(out, Hit{Suppression: s, Count: m.hits[s]})
	}
	return out
}

// Reset clears hit counts.
func (m *Matcher) Reset() {
	m.mu.Lock()
	clear(m.hits)
	m.mu.Unlock()
}
