package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/praetorian-inc/suppcheck/pkg/suppression"
	"github.com/praetorian-inc/suppcheck/pkg/types"
)

var listFormat string

var suppressionsCmd = &cobra.Command{
	Use:   "suppressions",
	Short: "Inspect suppression files",
	Long:  "Commands for listing and linting suppression files",
}

var suppressionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List loaded suppressions",
	Long:  "Display every suppression of every configured set with its location and error type",
	RunE:  runSuppressionsList,
}

var suppressionsLintCmd = &cobra.Command{
	Use:   "lint",
	Short: "Lint suppression files",
	Long: `Check suppression files beyond what parsing requires: unknown error types,
frames without a fun:/obj: prefix and duplicate suppressions.`,
	RunE: runSuppressionsLint,
}

func init() {
	suppressionsCmd.AddCommand(suppressionsListCmd)
	suppressionsCmd.AddCommand(suppressionsLintCmd)
	addSuppressionFlags(suppressionsListCmd)
	addSuppressionFlags(suppressionsLintCmd)
	suppressionsListCmd.Flags().StringVar(&listFormat, "format", "table", "Output format: table, json")
}

// setEntry is one suppression tagged with the set it was loaded into
type setEntry struct {
	Set         string
	Suppression *types.Suppression
}

func runSuppressionsList(cmd *cobra.Command, args []string) error {
	entries, err := loadEntries()
	if err != nil {
		return err
	}

	switch listFormat {
	case "json":
		return outputSuppressionsJSON(cmd, entries)
	case "table":
		return outputSuppressionsTable(cmd, entries)
	default:
		return fmt.Errorf("unknown output format: %s", listFormat)
	}
}

func runSuppressionsLint(cmd *cobra.Command, args []string) error {
	entries, err := loadEntries()
	if err != nil {
		return err
	}

	supps := make([]*types.Suppression, 0, len(entries))
	for _, e := range entries {
		supps = append(supps, e.Suppression)
	}

	issues := suppression.Lint(supps, suppression.LintConfig{})
	out := cmd.OutOrStdout()
	for _, issue := range issues {
		fmt.Fprintln(out, issue.String())
	}
	if len(issues) > 0 {
		return fmt.Errorf("%d lint issues in %d suppressions", len(issues), len(supps))
	}
	fmt.Fprintf(out, "%d suppressions OK\n", len(supps))
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// loadEntries loads every set, ordered by set name then file order.
func loadEntries() ([]setEntry, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	sets, err := cfg.LoadSets(suppression.NewLoader())
	if err != nil {
		return nil, fmt.Errorf("loading suppressions: %w", err)
	}

	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)

	var entries []setEntry
	for _, name := range names {
		for _, s := range sets[name] {
			entries = append(entries, setEntry{Set: name, Suppression: s})
		}
	}
	return entries, nil
}

// jsonSetSuppression is the JSON form of a listed suppression
type jsonSetSuppression struct {
	jsonSuppression
	Set    string   `json:"set"`
	Frames []string `json:"frames"`
}

func outputSuppressionsJSON(cmd *cobra.Command, entries []setEntry) error {
	out := make([]jsonSetSuppression, 0, len(entries))
	for _, e := range entries {
		frames := make([]string, 0, len(e.Suppression.Frames))
		for _, f := range e.Suppression.Frames {
			frames = append(frames, f.String())
		}
		out = append(out, jsonSetSuppression{
			jsonSuppression: toJSONSuppression(e.Suppression),
			Set:             e.Set,
			Frames:          frames,
		})
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}

func outputSuppressionsTable(cmd *cobra.Command, entries []setEntry) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Set\tID\tName\tType\tFrames\n")
	fmt.Fprintf(w, "---\t--\t----\t----\t------\n")

	for _, e := range entries {
		s := e.Suppression
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n", e.Set, s.ID(), s.Name, s.ErrorType, len(s.Frames))
	}

	return nil
}
