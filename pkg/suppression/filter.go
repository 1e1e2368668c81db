package suppression

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// FilterConfig specifies include and exclude patterns for suppression names.
type FilterConfig struct {
	Include []string // Regex patterns - only matching suppressions included
	Exclude []string // Regex patterns - matching suppressions excluded
}

// ParsePatterns splits a comma-separated string into individual patterns.
// Patterns are trimmed of whitespace.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include and exclude patterns to suppression names, keeping
// file order. Include is applied first, then exclude. Empty include means
// "include all". Returns error if any pattern is invalid regex.
func Filter(supps []*types.Suppression, config FilterConfig) ([]*types.Suppression, error) {
	if len(supps) == 0 {
		return supps, nil
	}

	includeRegexes, err := compileAll(config.Include)
	if err != nil {
		return nil, err
	}
	excludeRegexes, err := compileAll(config.Exclude)
	if err != nil {
		return nil, err
	}

	result := make([]*types.Suppression, 0, len(supps))
	for _, s := range supps {
		if len(includeRegexes) > 0 && !matchesAny(s.Name, includeRegexes) {
			continue
		}
		if matchesAny(s.Name, excludeRegexes) {
			continue
		}
		result = append(result, s)
	}
	return result, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func compileAll(patterns []string) ([]*regexp.Regexp, error) {
	regexes := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern %q: %w", pattern, err)
		}
		regexes = append(regexes, re)
	}
	return regexes, nil
}

func matchesAny(name string, regexes []*regexp.Regexp) bool {
	for _, re := range regexes {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}
