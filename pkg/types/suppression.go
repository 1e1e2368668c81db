package types

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/suppcheck/pkg/glob"
)

// Ellipsis is the frame token that matches zero or more frames.
const Ellipsis = "..."

// AnyErrorType is the error-type token that matches every report.
const AnyErrorType = "*"

// FrameKind distinguishes glob frames from ellipsis markers.
type FrameKind int

const (
	FrameGlob     FrameKind = iota // matches exactly one frame
	FrameEllipsis                  // matches zero or more frames
)

// String returns the string representation of FrameKind
func (k FrameKind) String() string {
	switch k {
	case FrameGlob:
		return "glob"
	case FrameEllipsis:
		return "ellipsis"
	default:
		return "unknown"
	}
}

// FramePattern is one element of a suppression stack.
type FramePattern struct {
	Kind FrameKind
	Glob *glob.Pattern // nil for FrameEllipsis
}

// NewFramePattern compiles a frame line. The line "..." yields an ellipsis.
func NewFramePattern(line string) (FramePattern, error) {
	if line == Ellipsis {
		return FramePattern{Kind: FrameEllipsis}, nil
	}
	g, err := glob.Compile(line)
	if err != nil {
		return FramePattern{}, err
	}
	return FramePattern{Kind: FrameGlob, Glob: g}, nil
}

// IsEllipsis reports whether the element is an ellipsis marker.
func (f FramePattern) IsEllipsis() bool {
	return f.Kind == FrameEllipsis
}

// Match reports whether a single frame satisfies a glob element.
// Ellipsis markers match any frame.
func (f FramePattern) Match(frame string) bool {
	if f.Kind == FrameEllipsis {
		return true
	}
	return f.Glob.Match(frame)
}

// String returns the frame line as written in a suppression file.
func (f FramePattern) String() string {
	if f.Kind == FrameEllipsis {
		return Ellipsis
	}
	return f.Glob.String()
}

// Suppression is a parsed suppression rule. It is immutable after
// construction and safe to share between goroutines.
type Suppression struct {
	Name      string         // free-text label
	ErrorType string         // e.g. "Memcheck:Leak", or AnyErrorType
	Frames    []FramePattern // never two consecutive ellipses
	Source    string         // file or descriptor the rule was read from
	Line      int            // line of the opening '{' (1-based, 0 if unknown)

	errorType *glob.Pattern // nil when ErrorType is AnyErrorType
}

// NewSuppression builds a suppression, compiling every glob and collapsing
// runs of consecutive ellipsis lines into one marker.
func NewSuppression(name, errorType string, frameLines []string) (*Suppression, error) {
	s := &Suppression{
		Name:      name,
		ErrorType: errorType,
	}

	if errorType != AnyErrorType {
		g, err := glob.Compile(errorType)
		if err != nil {
			return nil, fmt.Errorf("error type: %w", err)
		}
		s.errorType = g
	}

	s.Frames = make([]FramePattern, 0, len(frameLines))
	for _, line := range frameLines {
		fp, err := NewFramePattern(line)
		if err != nil {
			return nil, fmt.Errorf("frame %q: %w", line, err)
		}
		if fp.IsEllipsis() && len(s.Frames) > 0 && s.Frames[len(s.Frames)-1].IsEllipsis() {
			continue
		}
		s.Frames = append(s.Frames, fp)
	}

	return s, nil
}

// MatchesErrorType reports whether the suppression covers reports with the
// given error-type header.
func (s *Suppression) MatchesErrorType(errorType string) bool {
	if s.errorType == nil {
		return true
	}
	return s.errorType.Match(errorType)
}

// ID identifies the suppression by where it was defined, falling back to its
// name when the location is unknown.
func (s *Suppression) ID() string {
	if s.Source == "" {
		return s.Name
	}
	if s.Line == 0 {
		return s.Source
	}
	return fmt.Sprintf("%s:%d", s.Source, s.Line)
}

// EndsWithEllipsis reports whether trailing frames are allowed.
func (s *Suppression) EndsWithEllipsis() bool {
	return len(s.Frames) > 0 && s.Frames[len(s.Frames)-1].IsEllipsis()
}

// String renders the suppression in suppression-file block form.
func (s *Suppression) String() string {
	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "   %s\n", s.Name)
	fmt.Fprintf(&b, "   %s\n", s.ErrorType)
	for _, f := range s.Frames {
		fmt.Fprintf(&b, "   %s\n", f.String())
	}
	b.WriteString("}")
	return b.String()
}
