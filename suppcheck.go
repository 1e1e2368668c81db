// Package suppcheck checks analysis-tool reports against suppression rules.
//
// Memcheck, ThreadSanitizer and Heapcheck emit each error as a block naming
// an error type and a stack of frames. A suppression pairs an error-type glob
// with frame globs and "..." gaps; a report is suppressed when any candidate
// suppression matches it.
//
// # Basic Usage
//
// Check reports against a suppression file:
//
//	c, err := suppcheck.NewChecker(suppcheck.WithSuppressionFiles("memcheck/suppressions.txt"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := c.CheckLogs(ctx, "logs/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, r := range result.Unmatched {
//	    fmt.Printf("unsuppressed #%s#:\n%s\n", r.Hash, r.Text)
//	}
//
// # Platform Suppressions
//
// Reports observed only on Mac builders are also checked against the Mac
// suppressions, reports observed only on Heapcheck builders against the
// Heapcheck suppressions:
//
//	c, err := suppcheck.NewChecker(
//	    suppcheck.WithSuppressions(common...),
//	    suppcheck.WithMacSuppressions(mac...),
//	)
package suppcheck

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/praetorian-inc/suppcheck/pkg/candidate"
	"github.com/praetorian-inc/suppcheck/pkg/checker"
	"github.com/praetorian-inc/suppcheck/pkg/config"
	"github.com/praetorian-inc/suppcheck/pkg/enum"
	"github.com/praetorian-inc/suppcheck/pkg/matcher"
	"github.com/praetorian-inc/suppcheck/pkg/metrics"
	"github.com/praetorian-inc/suppcheck/pkg/suppression"
	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// Re-export commonly used types for convenience.
// Users can import just "github.com/praetorian-inc/suppcheck" without subpackages.
type (
	// Suppression is a parsed suppression rule.
	Suppression = types.Suppression

	// Report is one distinct error report and the origins it was seen at.
	Report = types.Report

	// Verdict is the outcome of checking one report.
	Verdict = types.Verdict

	// Result summarizes a batch of checked reports.
	Result = checker.Result

	// Hit counts the reports one suppression matched.
	Hit = matcher.Hit
)

// Re-export sentinel errors.
var (
	// ErrMalformedSuppression matches every suppression parse error.
	ErrMalformedSuppression = suppression.ErrMalformedSuppression

	// ErrUnsuppressedReports signals that a check left reports unmatched.
	ErrUnsuppressedReports = checker.ErrUnsuppressedReports
)

// Checker checks reports against suppressions. It is safe for concurrent use.
type Checker struct {
	checker *checker.Checker
	router  *candidate.Router
	config  *checkerConfig
}

// checkerConfig holds checker configuration.
type checkerConfig struct {
	sets       candidate.Sets
	configFile string
	files      []string
	workers    int
	prefilter  bool
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// Option configures a Checker.
type Option func(*checkerConfig)

// WithSuppressions adds suppressions every report is checked against.
func WithSuppressions(supps ...*Suppression) Option {
	return func(c *checkerConfig) {
		c.sets[config.CommonSet] = append(c.sets[config.CommonSet], supps...)
	}
}

// WithMacSuppressions adds suppressions for reports seen only on Mac builders.
func WithMacSuppressions(supps ...*Suppression) Option {
	return func(c *checkerConfig) {
		c.sets[config.MacSet] = append(c.sets[config.MacSet], supps...)
	}
}

// WithHeapcheckSuppressions adds suppressions for reports seen only on
// Heapcheck builders.
func WithHeapcheckSuppressions(supps ...*Suppression) Option {
	return func(c *checkerConfig) {
		c.sets[config.HeapcheckSet] = append(c.sets[config.HeapcheckSet], supps...)
	}
}

// WithSuppressionFiles loads suppression files into the common set. Files
// ending in .yml or .yaml use the YAML format.
func WithSuppressionFiles(paths ...string) Option {
	return func(c *checkerConfig) {
		c.files = append(c.files, paths...)
	}
}

// WithConfigFile takes sets and routes from a suppcheck YAML configuration.
// Suppressions passed through other options are added to its sets.
func WithConfigFile(path string) Option {
	return func(c *checkerConfig) {
		c.configFile = path
	}
}

// WithWorkers bounds parallel matching. Default is GOMAXPROCS.
func WithWorkers(workers int) Option {
	return func(c *checkerConfig) {
		c.workers = workers
	}
}

// WithoutPrefilter disables the literal-keyword candidate prefilter.
func WithoutPrefilter() Option {
	return func(c *checkerConfig) {
		c.prefilter = false
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *checkerConfig) {
		c.logger = logger
	}
}

// WithMetrics records Prometheus metrics for every check.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *checkerConfig) {
		c.metrics = m
	}
}

// NewChecker creates a new Checker with the given options.
//
// By default, the checker:
//   - Has empty common, Mac and Heapcheck sets
//   - Routes reports by origin the way the build waterfall names builders
//   - Narrows candidates with the keyword prefilter
func NewChecker(opts ...Option) (*Checker, error) {
	cc := &checkerConfig{
		sets:      make(candidate.Sets),
		prefilter: true,
	}
	for _, opt := range opts {
		opt(cc)
	}

	cfg := config.Default()
	if cc.configFile != "" {
		loaded, err := config.Load(cc.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.AddFiles(cfg.CommonSet, cc.files...)

	sets, err := cfg.LoadSets(suppression.NewLoader())
	if err != nil {
		return nil, fmt.Errorf("loading suppressions: %w", err)
	}
	for name, supps := range cc.sets {
		if name == config.CommonSet {
			name = cfg.CommonSet
		}
		sets[name] = append(sets[name], supps...)
	}

	routes, err := cfg.CandidateRoutes()
	if err != nil {
		return nil, err
	}
	router, err := candidate.NewRouter(sets, cfg.CommonSet, routes)
	if err != nil {
		return nil, fmt.Errorf("building router: %w", err)
	}

	workers := cc.workers
	if workers <= 0 {
		workers = cfg.Workers
	}
	c, err := checker.New(checker.Config{
		Router:    router,
		Workers:   workers,
		Prefilter: cc.prefilter && !cfg.DisablePrefilter,
		Logger:    cc.logger,
		Metrics:   cc.metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("creating checker: %w", err)
	}

	return &Checker{checker: c, router: router, config: cc}, nil
}

// Check matches every report. Verdicts keep input order.
func (c *Checker) Check(ctx context.Context, reports []*Report) (*Result, error) {
	return c.checker.Check(ctx, reports)
}

// CheckReport matches a single report.
func (c *Checker) CheckReport(r *Report) Verdict {
	return c.checker.CheckReport(r)
}

// CheckLogs reads reports from log files, directories of logs and archives,
// deduplicates them and checks every distinct report.
func (c *Checker) CheckLogs(ctx context.Context, paths ...string) (*Result, error) {
	e := enum.NewFilesystemEnumerator(enum.Config{
		Roots:           paths,
		ExtractArchives: true,
	})
	reports, err := checker.ReadReports(ctx, e, c.config.logger, c.config.metrics)
	if err != nil {
		return nil, err
	}
	return c.checker.Check(ctx, reports)
}

// Suppressions returns every suppression the checker can select, common
// set first.
func (c *Checker) Suppressions() []*Suppression {
	return c.router.All()
}

// Hits returns per-suppression match counts accumulated over every check.
func (c *Checker) Hits() []Hit {
	return c.checker.TotalHits()
}

// ParseSuppressions parses suppression text. source names the text in errors
// and suppression IDs.
func ParseSuppressions(data []byte, source string) ([]*Suppression, error) {
	return suppression.Parse(data, source)
}

// LoadSuppressionFiles loads suppression files in order.
func LoadSuppressionFiles(paths ...string) ([]*Suppression, error) {
	return suppression.NewLoader().LoadFiles(paths...)
}

// NewReport parses report text as emitted by the tools.
func NewReport(hash, text string) *Report {
	return types.NewReport(hash, text)
}

// Match reports whether s matches r, ignoring routing.
func Match(s *Suppression, r *Report) bool {
	return matcher.Matches(s, r)
}
