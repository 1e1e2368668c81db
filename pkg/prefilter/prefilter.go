package prefilter

import (
	"sync"

	"github.com/cloudflare/ahocorasick"
	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// Prefilter uses Aho-Corasick to skip suppressions that cannot match a report.
//
// Each suppression contributes one keyword: the longest literal run found in
// its glob frames. A suppression can only match when every glob frame matches
// some frame of the report, so its keyword must then occur in the report
// text. Suppressions made only of ellipses have no keyword and are always
// kept.
type Prefilter struct {
	mu             sync.Mutex // ahocorasick.Matcher.Match mutates internal state
	matcher        *ahocorasick.Matcher
	supps          []*types.Suppression
	keywords       []string // keyword at each index
	keywordSupps   [][]int  // keyword index -> suppression indexes needing it
	noKeywordSupps []int    // suppression indexes without keywords (always checked)
}

// New creates a prefilter over supps. Filter preserves their order.
func New(supps []*types.Suppression) *Prefilter {
	pf := &Prefilter{
		supps: supps,
	}

	keywordIndex := make(map[string]int)
	for i, s := range supps {
		keyword := Keyword(s)
		if keyword == "" {
			pf.noKeywordSupps = append(pf.noKeywordSupps, i)
			continue
		}
		k, ok := keywordIndex[keyword]
		if !ok {
			k = len(pf.keywords)
			keywordIndex[keyword] = k
			pf.keywords = append(pf.keywords, keyword)
			pf.keywordSupps = append(pf.keywordSupps, nil)
		}
		pf.keywordSupps[k] = append(pf.keywordSupps[k], i)
	}

	// Build Aho-Corasick matcher if we have keywords
	if len(pf.keywords) > 0 {
		pf.matcher = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// Filter returns the suppressions that might match content, in their
// original order.
func (pf *Prefilter) Filter(content []byte) []*types.Suppression {
	if pf.matcher == nil {
		return pf.collect(nil)
	}

	pf.mu.Lock()
	hits := pf.matcher.Match(content)
	pf.mu.Unlock()

	return pf.collect(hits)
}

// Keywords returns the distinct keywords in first-seen order.
func (pf *Prefilter) Keywords() []string {
	out := make([]string, len(pf.keywords))
	copy(out, pf.keywords)
	return out
}

func (pf *Prefilter) collect(hits []int) []*types.Suppression {
	keep := make([]bool, len(pf.supps))
	for _, i := range pf.noKeywordSupps {
		keep[i] = true
	}
	for _, hit := range hits {
		for _, i := range pf.keywordSupps[hit] {
			keep[i] = true
		}
	}

	result := make([]*types.Suppression, 0, len(pf.supps))
	for i, s := range pf.supps {
		if keep[i] {
			result = append(result, s)
		}
	}
	return result
}

// Keyword returns the longest literal run across the suppression's glob
// frames, or "" when it has none.
func Keyword(s *types.Suppression) string {
	best := ""
	for _, f := range s.Frames {
		if f.IsEllipsis() {
			continue
		}
		for _, lit := range f.Glob.Literals() {
			if len(lit) > len(best) {
				best = lit
			}
		}
	}
	return best
}
