package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/praetorian-inc/suppcheck/pkg/checker"
	"github.com/praetorian-inc/suppcheck/pkg/sarif"
	"github.com/praetorian-inc/suppcheck/pkg/types"
)

const separator = "==================================="

// styles holds color formatters for human output
type styles struct {
	separator *color.Color
	heading   *color.Color
	origin    *color.Color
	hash      *color.Color
	failure   *color.Color
	success   *color.Color
}

// newStyles creates color formatters for report output
// enabled=false respects --color=never and the NO_COLOR env var
func newStyles(enabled bool) *styles {
	s := &styles{
		separator: color.New(color.FgHiBlack),
		heading:   color.New(color.Bold),
		origin:    color.New(color.FgHiBlue),
		hash:      color.New(color.FgHiGreen),
		failure:   color.New(color.Bold, color.FgRed),
		success:   color.New(color.Bold, color.FgGreen),
	}

	if !enabled {
		s.separator.DisableColor()
		s.heading.DisableColor()
		s.origin.DisableColor()
		s.hash.DisableColor()
		s.failure.DisableColor()
		s.success.DisableColor()
	}

	return s
}

// colorEnabled resolves --color against the terminal and NO_COLOR.
func colorEnabled(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	default: // "auto"
		return term.IsTerminal(int(os.Stdout.Fd())) && os.Getenv("NO_COLOR") == ""
	}
}

// outputCheckHuman prints every unmatched report with the origins it was
// observed at, followed by a summary line.
func outputCheckHuman(cmd *cobra.Command, result *checker.Result) error {
	out := cmd.OutOrStdout()
	enabled := colorEnabled(checkColor)
	color.NoColor = !enabled
	s := newStyles(enabled)

	for _, r := range result.Unmatched {
		s.separator.Fprintln(out, separator)
		s.heading.Fprintln(out, "This report observed at")
		for _, origin := range r.Origins {
			s.origin.Fprintf(out, "  %s\n", origin)
		}
		s.heading.Fprintln(out, "didn't match any suppressions:")
		fmt.Fprint(out, "Suppression (error hash=#")
		s.hash.Fprint(out, r.Hash)
		fmt.Fprintln(out, "#):")
		fmt.Fprintln(out, r.Text)
		s.separator.Fprintln(out, separator)
	}

	if checkShowUnused && len(result.Unused) > 0 {
		s.heading.Fprintf(out, "%d suppressions matched no report:\n", len(result.Unused))
		for _, supp := range result.Unused {
			fmt.Fprintf(out, "  %s  %s\n", supp.ID(), supp.Name)
		}
	}

	if len(result.Unmatched) > 0 {
		s.failure.Fprintf(out, "%d unique reports don't match any of the suppressions\n", len(result.Unmatched))
	} else {
		s.success.Fprintln(out, "Congratulations! All reports are suppressed!")
	}
	return nil
}

// jsonVerdict is the JSON form of one checked report
type jsonVerdict struct {
	Hash          string   `json:"hash"`
	ErrorType     string   `json:"error_type"`
	Text          string   `json:"text"`
	Origins       []string `json:"origins"`
	Route         string   `json:"route"`
	Suppressed    bool     `json:"suppressed"`
	Suppression   string   `json:"suppression,omitempty"`
	SuppressionID string   `json:"suppression_id,omitempty"`
}

// jsonSuppression identifies a suppression in JSON output
type jsonSuppression struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ErrorType string `json:"error_type"`
}

// jsonCheckResult is the JSON document written by check --format json
type jsonCheckResult struct {
	Reports   []jsonVerdict     `json:"reports"`
	Unmatched int               `json:"unmatched"`
	Unused    []jsonSuppression `json:"unused,omitempty"`
}

func outputCheckJSON(cmd *cobra.Command, result *checker.Result) error {
	doc := jsonCheckResult{
		Reports:   make([]jsonVerdict, 0, len(result.Verdicts)),
		Unmatched: len(result.Unmatched),
	}
	for _, v := range result.Verdicts {
		jv := jsonVerdict{
			Hash:       v.Report.Hash,
			ErrorType:  v.Report.ErrorType,
			Text:       v.Report.Text,
			Origins:    v.Report.Origins,
			Route:      v.Route,
			Suppressed: v.Suppressed(),
		}
		if v.Suppression != nil {
			jv.Suppression = v.Suppression.Name
			jv.SuppressionID = v.Suppression.ID()
		}
		doc.Reports = append(doc.Reports, jv)
	}
	if checkShowUnused {
		for _, s := range result.Unused {
			doc.Unused = append(doc.Unused, toJSONSuppression(s))
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(doc)
}

// outputCheckSARIF outputs unmatched reports, and with --show-unused the
// unused suppressions, in SARIF 2.1.0 format
func outputCheckSARIF(cmd *cobra.Command, result *checker.Result) error {
	report := sarif.NewReport()
	for _, r := range result.Unmatched {
		report.AddUnmatched(r)
	}
	if checkShowUnused {
		for _, s := range result.Unused {
			report.AddUnused(s)
		}
	}

	jsonBytes, err := report.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing SARIF: %w", err)
	}
	if _, err := cmd.OutOrStdout().Write(jsonBytes); err != nil {
		return fmt.Errorf("writing SARIF output: %w", err)
	}
	return nil
}

func toJSONSuppression(s *types.Suppression) jsonSuppression {
	return jsonSuppression{ID: s.ID(), Name: s.Name, ErrorType: s.ErrorType}
}
