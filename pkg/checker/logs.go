package checker

import (
	"context"
	"log/slog"

	"github.com/praetorian-inc/suppcheck/pkg/enum"
	"github.com/praetorian-inc/suppcheck/pkg/metrics"
	"github.com/praetorian-inc/suppcheck/pkg/reportlog"
	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// ReadReports reads every log e yields and returns the distinct reports in
// first-seen order. Logs are folded in a stable order, so repeated runs over
// the same inputs give the same report order. m may be nil.
func ReadReports(ctx context.Context, e enum.Enumerator, logger *slog.Logger, m *metrics.Metrics) ([]*types.Report, error) {
	if logger == nil {
		logger = slog.Default()
	}

	inputs, err := enum.Collect(ctx, e)
	if err != nil {
		return nil, err
	}

	collection := reportlog.NewCollection()
	for _, in := range inputs {
		log, err := reportlog.ParseBytes(in.Content, in.Source.String())
		if err != nil {
			return nil, err
		}
		if log.Unterminated {
			logger.Warn("log ends inside a report block; block ignored", "log", in.Source.String())
		}
		logger.Debug("read log",
			"log", in.Source.String(),
			"origin", log.Origin,
			"reports", len(log.Entries))

		collection.AddLog(log)
		if m != nil {
			m.LogsRead.Inc()
			m.ReportsObserved.Add(float64(len(log.Entries)))
		}
	}

	return collection.Reports(), nil
}
