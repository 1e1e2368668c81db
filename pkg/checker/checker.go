// Package checker runs the reporting loop: every distinct report is routed
// to its candidate suppressions and matched, first match wins.
package checker

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/praetorian-inc/suppcheck/pkg/candidate"
	"github.com/praetorian-inc/suppcheck/pkg/matcher"
	"github.com/praetorian-inc/suppcheck/pkg/metrics"
	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// Config for a Checker.
type Config struct {
	// Router selects candidate suppressions per report (required)
	Router *candidate.Router

	// Workers bounds parallel matching (0 = GOMAXPROCS)
	Workers int

	// Prefilter enables the Aho-Corasick candidate prefilter
	Prefilter bool

	// Logger defaults to slog.Default()
	Logger *slog.Logger

	// Metrics is optional
	Metrics *metrics.Metrics
}

// Result of checking a batch of reports.
type Result struct {
	// Verdicts holds one verdict per report, in input order
	Verdicts []types.Verdict

	// Unmatched lists reports no candidate suppression covered, in input order
	Unmatched []*types.Report

	// Hits counts matched reports per suppression for every suppression the
	// router can select, in router order
	Hits []matcher.Hit

	// Unused lists suppressions that matched no report in this batch
	Unused []*types.Suppression
}

// AllSuppressed reports whether every report was covered.
func (r *Result) AllSuppressed() bool {
	return len(r.Unmatched) == 0
}

// Checker matches reports against routed candidate lists. It is safe for
// concurrent use; suppressions are shared read-only.
type Checker struct {
	router   *candidate.Router
	matchers map[string]*matcher.Matcher
	workers  int
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// New creates a Checker.
func New(cfg Config) (*Checker, error) {
	if cfg.Router == nil {
		return nil, errors.New("checker: router is required")
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Checker{
		router:   cfg.Router,
		matchers: make(map[string]*matcher.Matcher),
		workers:  workers,
		logger:   logger,
		metrics:  cfg.Metrics,
	}
	for route, list := range cfg.Router.Lists() {
		c.matchers[route] = matcher.New(matcher.Config{
			Suppressions: list,
			Prefilter:    cfg.Prefilter,
		})
	}
	return c, nil
}

// Check matches every report. Reports are evaluated in parallel but the
// result keeps input order.
func (c *Checker) Check(ctx context.Context, reports []*types.Report) (*Result, error) {
	start := time.Now()
	verdicts := make([]types.Verdict, len(reports))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, r := range reports {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			verdicts[i] = c.checkOne(r)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := c.summarize(verdicts)
	c.record(result, time.Since(start))

	c.logger.Debug("checked reports",
		"reports", len(reports),
		"unmatched", len(result.Unmatched),
		"unused_suppressions", len(result.Unused),
		"duration", time.Since(start))
	return result, nil
}

// CheckReport matches a single report.
func (c *Checker) CheckReport(r *types.Report) types.Verdict {
	return c.checkOne(r)
}

func (c *Checker) checkOne(r *types.Report) types.Verdict {
	sel := c.router.Select(r.Origins)
	s := c.matchers[sel.Route].Match(r)
	if s == nil {
		c.logger.Debug("report unmatched", "hash", r.Hash, "route", sel.Route, "error_type", r.ErrorType)
	}
	return types.Verdict{Report: r, Suppression: s, Route: sel.Route}
}

func (c *Checker) summarize(verdicts []types.Verdict) *Result {
	counts := make(map[*types.Suppression]int)
	result := &Result{Verdicts: verdicts}

	for _, v := range verdicts {
		if v.Suppressed() {
			counts[v.Suppression]++
		} else {
			result.Unmatched = append(result.Unmatched, v.Report)
		}
	}

	for _, s := range c.router.All() {
		n := counts[s]
		result.Hits = append(result.Hits, matcher.Hit{Suppression: s, Count: n})
		if n == 0 {
			result.Unused = append(result.Unused, s)
		}
	}
	return result
}

func (c *Checker) record(result *Result, d time.Duration) {
	if c.metrics == nil {
		return
	}
	m := c.metrics
	m.ReportsDistinct.Add(float64(len(result.Verdicts)))
	for _, v := range result.Verdicts {
		if v.Suppressed() {
			m.ReportsSuppressed.WithLabelValues(v.Route).Inc()
		} else {
			m.ReportsUnmatched.WithLabelValues(v.Route).Inc()
		}
	}
	for _, h := range result.Hits {
		if h.Count > 0 {
			m.SuppressionHits.WithLabelValues(h.Suppression.ID(), h.Suppression.Name).Add(float64(h.Count))
		}
	}
	m.SuppressionsUnused.Set(float64(len(result.Unused)))
	m.ObserveCheck(d)
}

// TotalHits returns hit counts accumulated over every Check since the
// Checker was created, in router order.
func (c *Checker) TotalHits() []matcher.Hit {
	counts := make(map[*types.Suppression]int)
	for _, m := range c.matchers {
		for _, h := range m.Hits() {
			counts[h.Suppression] += h.Count
		}
	}
	all := c.router.All()
	out := make([]matcher.Hit, 0, len(all))
	for _, s := range all {
		out = append(out, matcher.Hit{Suppression: s, Count: counts[s]})
	}
	return out
}
