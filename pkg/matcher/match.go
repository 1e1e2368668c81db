package matcher

import "github.com/praetorian-inc/suppcheck/pkg/types"

// Matches reports whether suppression s covers report r.
//
// The error type is checked first. Frames are then aligned left to right:
// a glob element must match the frame under the cursor, and an ellipsis
// skips forward to the first frame matching the element after it. The stack
// must be fully consumed unless the pattern ends in an ellipsis.
func Matches(s *types.Suppression, r *types.Report) bool {
	if s == nil || r == nil {
		return false
	}
	if !s.MatchesErrorType(r.ErrorType) {
		return false
	}
	return MatchFrames(s.Frames, r.Frames)
}

// MatchFrames aligns pattern against frames. An empty pattern never matches.
func MatchFrames(pattern []types.FramePattern, frames []string) bool {
	if len(pattern) == 0 {
		return false
	}

	f := 0
	for p := 0; p < len(pattern); p++ {
		elem := pattern[p]

		if elem.IsEllipsis() {
			if p == len(pattern)-1 {
				return true
			}
			next := pattern[p+1]
			for f < len(frames) && !next.Match(frames[f]) {
				f++
			}
			if f == len(frames) {
				return false
			}
			continue
		}

		if f >= len(frames) || !elem.Match(frames[f]) {
			return false
		}
		f++
	}

	return f == len(frames)
}

// FirstMatch returns the first candidate that covers r, or nil.
func FirstMatch(candidates []*types.Suppression, r *types.Report) *types.Suppression {
	for _, s := range candidates {
		if Matches(s, r) {
			return s
		}
	}
	return nil
}
