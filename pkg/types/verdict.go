package types

// Verdict is the outcome of checking one report.
type Verdict struct {
	Report      *Report
	Suppression *Suppression // first matching suppression, nil if unmatched
	Route       string       // candidate list the report was checked against
}

// Suppressed reports whether a suppression matched.
func (v Verdict) Suppressed() bool {
	return v.Suppression != nil
}

// ErrorType splits a tool-qualified error type such as "Memcheck:Leak".
type ErrorType struct {
	Tool string // "Memcheck", "ThreadSanitizer", "Heapcheck"
	Kind string // "Leak", "Race", ...
}

// ParseErrorType splits s at the first ':'. ok is false when s has no tool
// prefix.
func ParseErrorType(s string) (ErrorType, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return ErrorType{Tool: s[:i], Kind: s[i+1:]}, true
		}
	}
	return ErrorType{}, false
}

// String joins tool and kind.
func (e ErrorType) String() string {
	return e.Tool + ":" + e.Kind
}
