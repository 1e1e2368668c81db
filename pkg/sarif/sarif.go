package sarif

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// SARIF 2.1.0 constants
const (
	SchemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	Version   = "2.1.0"
	ToolName  = "suppcheck"

	// UnusedRuleID identifies results for suppressions that matched nothing.
	UnusedRuleID = "suppcheck/unused-suppression"
)

// ToolVersion is reported in the driver block; the CLI overrides it.
var ToolVersion = "0.1.0"

// Report is the top-level SARIF report structure
type Report struct {
	Schema  string `json:"$schema"`
	Version string `json:"version"`
	Runs    []Run  `json:"runs"`
}

// Run represents a single invocation of the tool
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool describes the analysis tool
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver contains tool metadata
type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule is one error type, e.g. Memcheck:Leak
type Rule struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	ShortDescription ShortDescription `json:"shortDescription"`
}

// ShortDescription contains rule description text
type ShortDescription struct {
	Text string `json:"text"`
}

// Result represents a single unmatched report or unused suppression
type Result struct {
	RuleID              string            `json:"ruleId"`
	Level               string            `json:"level"`
	Message             Message           `json:"message"`
	Locations           []Location        `json:"locations"`
	PartialFingerprints map[string]string `json:"partialFingerprints,omitempty"`
}

// Message contains the result message
type Message struct {
	Text string `json:"text"`
}

// Location describes where a result was observed
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation specifies file location
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           *Region          `json:"region,omitempty"`
}

// ArtifactLocation identifies the log or suppression file
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region specifies the line range
type Region struct {
	StartLine int      `json:"startLine"`
	Snippet   *Snippet `json:"snippet,omitempty"`
}

// Snippet contains the report or suppression text
type Snippet struct {
	Text string `json:"text"`
}

// NewReport creates a new SARIF report with initialized structure
func NewReport() *Report {
	return &Report{
		Schema:  SchemaURI,
		Version: Version,
		Runs: []Run{
			{
				Tool: Tool{
					Driver: Driver{
						Name:    ToolName,
						Version: ToolVersion,
						Rules:   []Rule{},
					},
				},
				Results: []Result{},
			},
		},
	}
}

// AddRule adds a rule unless one with the same ID exists.
func (r *Report) AddRule(id, description string) {
	driver := &r.Runs[0].Tool.Driver
	for _, existing := range driver.Rules {
		if existing.ID == id {
			return
		}
	}
	driver.Rules = append(driver.Rules, Rule{
		ID:               id,
		Name:             id,
		ShortDescription: ShortDescription{Text: description},
	})
}

// AddUnmatched adds an error-level result for a report no suppression
// covered, located at each origin it was observed at.
func (r *Report) AddUnmatched(report *types.Report) {
	ruleID := report.ErrorType
	if ruleID == "" {
		ruleID = "unknown"
	}
	r.AddRule(ruleID, fmt.Sprintf("Unsuppressed %s report", ruleID))

	locations := make([]Location, 0, len(report.Origins))
	for i, origin := range report.Origins {
		loc := Location{
			PhysicalLocation: PhysicalLocation{
				ArtifactLocation: ArtifactLocation{URI: formatFileURI(origin)},
			},
		}
		// Attach the report text once.
		if i == 0 {
			loc.PhysicalLocation.Region = &Region{StartLine: 1, Snippet: &Snippet{Text: report.Text}}
		}
		locations = append(locations, loc)
	}

	result := Result{
		RuleID: ruleID,
		Level:  "error",
		Message: Message{
			Text: fmt.Sprintf("Report (error hash=#%s#) didn't match any suppressions:\n%s", report.Hash, report.Text),
		},
		Locations: locations,
	}
	if report.Hash != "" {
		result.PartialFingerprints = map[string]string{"reportHash": report.Hash}
	}

	r.Runs[0].Results = append(r.Runs[0].Results, result)
}

// AddUnused adds a note-level result for a suppression that matched nothing.
func (r *Report) AddUnused(s *types.Suppression) {
	r.AddRule(UnusedRuleID, "Suppression matched no report")

	loc := PhysicalLocation{
		ArtifactLocation: ArtifactLocation{URI: formatFileURI(s.Source)},
	}
	if s.Line > 0 {
		loc.Region = &Region{StartLine: s.Line, Snippet: &Snippet{Text: s.String()}}
	}

	r.Runs[0].Results = append(r.Runs[0].Results, Result{
		RuleID:    UnusedRuleID,
		Level:     "note",
		Message:   Message{Text: fmt.Sprintf("Suppression %s matched no report", s.Name)},
		Locations: []Location{{PhysicalLocation: loc}},
	})
}

// ToJSON serializes the report to JSON bytes
func (r *Report) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// formatFileURI converts a file path to SARIF URI format
// URLs pass through, absolute paths get file:// prefix, relative paths stay as-is
func formatFileURI(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	if filepath.IsAbs(path) {
		// Normalize path separators for URI format
		path = filepath.ToSlash(path)
		// Ensure path starts with /
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return "file://" + path
	}
	// Relative paths stay as-is
	return filepath.ToSlash(path)
}
