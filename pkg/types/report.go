package types

import "strings"

// Report is one error report observed in analysis-tool output.
type Report struct {
	Hash      string   // report-hash token, display only
	Text      string   // report body exactly as observed, the deduplication key
	ErrorType string   // error-type header, e.g. "Memcheck:Leak"
	Frames    []string // trimmed stack frames, innermost first
	Origins   []string // build URLs or paths where Text was observed, first-seen order
}

// NewReport parses text into a report. Text may be the plain form (header
// line followed by frame lines) or the block form the tools emit:
//
//	{
//	   <insert_a_suppression_name_here>
//	   Memcheck:Leak
//	   fun:malloc
//	}
//
// Blank lines are ignored and every line is trimmed.
func NewReport(hash, text string) *Report {
	r := &Report{Hash: hash, Text: text}
	r.ErrorType, r.Frames = splitReport(text)
	return r
}

// AddOrigin records an origin unless it is already present.
func (r *Report) AddOrigin(origin string) {
	for _, o := range r.Origins {
		if o == origin {
			return
		}
	}
	r.Origins = append(r.Origins, origin)
}

func splitReport(text string) (string, []string) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) > 0 && lines[0] == "{" {
		lines = lines[1:]
		if len(lines) > 0 && lines[len(lines)-1] == "}" {
			lines = lines[:len(lines)-1]
		}
		// placeholder name line
		if len(lines) > 0 {
			lines = lines[1:]
		}
	}

	if len(lines) == 0 {
		return "", nil
	}
	return lines[0], lines[1:]
}
