package checker

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/suppcheck/pkg/candidate"
	"github.com/praetorian-inc/suppcheck/pkg/enum"
	"github.com/praetorian-inc/suppcheck/pkg/logging"
	"github.com/praetorian-inc/suppcheck/pkg/metrics"
	"github.com/praetorian-inc/suppcheck/pkg/suppression"
	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// =============================================================================
// HELPERS
// =============================================================================

const (
	macOrigin   = "http://ci/builders/Chromium%20Mac%2010.6/builds/1/steps/memory%20test/logs/stdio"
	linuxOrigin = "http://ci/builders/Linux%20Tests%20(valgrind)/builds/2/steps/memory%20test/logs/stdio"
)

const commonSupps = `{
   leak_in_foo
   Memcheck:Leak
   fun:malloc
   ...
   fun:Foo*
}
{
   never_hit
   Memcheck:Cond
   fun:strlen_never
}
`

const macSupps = `{
   mac_only_race
   ThreadSanitizer:Race
   ...
   fun:CFRunLoop*
}
`

func parse(t *testing.T, text, source string) []*types.Suppression {
	t.Helper()
	supps, err := suppression.Parse([]byte(text), source)
	require.NoError(t, err)
	return supps
}

func newChecker(t *testing.T, m *metrics.Metrics) *Checker {
	t.Helper()
	sets := candidate.Sets{
		"common":    parse(t, commonSupps, "common.txt"),
		"mac":       parse(t, macSupps, "mac.txt"),
		"heapcheck": nil,
	}
	router, err := candidate.NewRouter(sets, "common", candidate.DefaultRoutes())
	require.NoError(t, err)

	c, err := New(Config{
		Router:    router,
		Workers:   4,
		Prefilter: true,
		Logger:    logging.Discard(),
		Metrics:   m,
	})
	require.NoError(t, err)
	return c
}

func report(text string, origins ...string) *types.Report {
	r := types.NewReport("0123456789ABCDEF", text)
	for _, o := range origins {
		r.AddOrigin(o)
	}
	return r
}

const (
	fooLeak = "{\n   <insert>\n   Memcheck:Leak\n   fun:malloc\n   fun:operator new\n   fun:FooCreate\n}"
	macRace = "{\n   <insert>\n   ThreadSanitizer:Race\n   fun:worker\n   fun:CFRunLoopRun\n}"
	newBug  = "{\n   <insert>\n   Memcheck:Addr4\n   fun:Bar\n}"
)

// =============================================================================
// CHECK
// =============================================================================

func TestCheck(t *testing.T) {
	c := newChecker(t, nil)

	reports := []*types.Report{
		report(fooLeak, linuxOrigin),
		report(macRace, macOrigin),
		report(newBug, linuxOrigin),
	}
	result, err := c.Check(context.Background(), reports)
	require.NoError(t, err)

	require.Len(t, result.Verdicts, 3)
	assert.Equal(t, "leak_in_foo", result.Verdicts[0].Suppression.Name)
	assert.Equal(t, candidate.CommonRoute, result.Verdicts[0].Route)
	assert.Equal(t, "mac_only_race", result.Verdicts[1].Suppression.Name)
	assert.Equal(t, "mac", result.Verdicts[1].Route)
	assert.False(t, result.Verdicts[2].Suppressed())

	require.Len(t, result.Unmatched, 1)
	assert.Same(t, reports[2], result.Unmatched[0])
	assert.False(t, result.AllSuppressed())

	require.Len(t, result.Unused, 1)
	assert.Equal(t, "never_hit", result.Unused[0].Name)

	require.Len(t, result.Hits, 3)
	assert.Equal(t, 1, result.Hits[0].Count)
	assert.Equal(t, 0, result.Hits[1].Count)
	assert.Equal(t, 1, result.Hits[2].Count)
}

func TestCheck_MixedOriginsUseCommonList(t *testing.T) {
	c := newChecker(t, nil)

	// The same report seen on Mac and Linux is not Mac-only, so the Mac
	// suppression that would cover it is not a candidate.
	r := report(macRace, macOrigin, linuxOrigin)
	result, err := c.Check(context.Background(), []*types.Report{r})
	require.NoError(t, err)

	assert.Equal(t, candidate.CommonRoute, result.Verdicts[0].Route)
	assert.False(t, result.Verdicts[0].Suppressed())
}

func TestCheck_OrderIsDeterministic(t *testing.T) {
	c := newChecker(t, nil)

	var reports []*types.Report
	for i := 0; i < 200; i++ {
		text := newBug
		if i%2 == 0 {
			text = fooLeak
		}
		reports = append(reports, report(text+strings.Repeat(" ", i), linuxOrigin))
	}

	result, err := c.Check(context.Background(), reports)
	require.NoError(t, err)
	for i, v := range result.Verdicts {
		assert.Same(t, reports[i], v.Report)
		assert.Equal(t, i%2 == 0, v.Suppressed(), "report %d", i)
	}
	assert.Len(t, result.Unmatched, 100)
}

func TestCheck_Empty(t *testing.T) {
	result, err := newChecker(t, nil).Check(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, result.AllSuppressed())
	assert.Len(t, result.Unused, 3)
}

func TestCheck_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newChecker(t, nil).Check(ctx, []*types.Report{report(fooLeak)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheck_Metrics(t *testing.T) {
	m := metrics.New()
	c := newChecker(t, m)

	_, err := c.Check(context.Background(), []*types.Report{
		report(fooLeak, linuxOrigin),
		report(macRace, macOrigin),
		report(newBug, linuxOrigin),
	})
	require.NoError(t, err)

	assert.Equal(t, float64(3), testutil.ToFloat64(m.ReportsDistinct))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReportsSuppressed.WithLabelValues("mac")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ReportsUnmatched.WithLabelValues("common")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SuppressionsUnused))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SuppressionHits.WithLabelValues("common.txt:1", "leak_in_foo")))
}

func TestCheckReport_AndTotalHits(t *testing.T) {
	c := newChecker(t, nil)

	v := c.CheckReport(report(fooLeak))
	require.True(t, v.Suppressed())
	c.CheckReport(report(fooLeak, linuxOrigin))
	c.CheckReport(report(macRace, macOrigin))

	hits := c.TotalHits()
	require.Len(t, hits, 3)
	assert.Equal(t, 2, hits[0].Count)
	assert.Equal(t, 1, hits[2].Count)
}

func TestNew_RequiresRouter(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

// =============================================================================
// LOGS
// =============================================================================

func TestReadReports_DedupesAcrossLogs(t *testing.T) {
	dir := t.TempDir()
	macLog := "Suppression (error hash=#AAAAAAAAAAAAAAAA#):\n" + fooLeak + "\n" + macOrigin + "\n"
	linuxLog := "Suppression (error hash=#BBBBBBBBBBBBBBBB#):\n" + fooLeak + "\n{\n  x\n  Memcheck:Addr4\n  fun:Bar\n}\n" + linuxOrigin + "\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1-mac.log"), []byte(macLog), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2-linux.log"), []byte(linuxLog), 0o644))

	m := metrics.New()
	e := enum.NewFilesystemEnumerator(enum.Config{Roots: []string{dir}})
	reports, err := ReadReports(context.Background(), e, logging.Discard(), m)
	require.NoError(t, err)

	require.Len(t, reports, 2)
	assert.Equal(t, []string{macOrigin, linuxOrigin}, reports[0].Origins)
	assert.Equal(t, "BBBBBBBBBBBBBBBB", reports[0].Hash)
	assert.Equal(t, []string{linuxOrigin}, reports[1].Origins)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.LogsRead))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.ReportsObserved))

	result, err := newChecker(t, nil).Check(context.Background(), reports)
	require.NoError(t, err)
	assert.True(t, result.Verdicts[0].Suppressed())
	assert.Equal(t, candidate.CommonRoute, result.Verdicts[0].Route)
	assert.False(t, result.Verdicts[1].Suppressed())
}

func TestReadReports_EnumerationError(t *testing.T) {
	e := enum.NewFilesystemEnumerator(enum.Config{Roots: []string{filepath.Join(t.TempDir(), "missing")}})
	_, err := ReadReports(context.Background(), e, nil, nil)
	assert.Error(t, err)
}
