package signalfeed

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// ExportTimeLayout is the minute precision format of exported signal times.
const ExportTimeLayout = "2006-01-02 15:04"

// Export holds the two comma-joined strings of a feed.
// Both always have the same number of elements as the feed.
type Export struct {
	Times   string `json:"times"`
	Signals string `json:"signals"`
}

// Normalizer parses uploads into signal feeds.
type Normalizer struct {
	logger *logger.Logger
}

// NewNormalizer creates a new normalizer.
func NewNormalizer(log *logger.Logger) *Normalizer {
	return &Normalizer{logger: log.Named("signalfeed")}
}

// Normalize reads every row of the source and parses its timestamp.
// The first unparseable timestamp, or a signal token containing a comma, aborts the
// whole upload; no partial feed is returned.
// Rows keep file order and signal tokens are kept verbatim.
func (n *Normalizer) Normalize(ctx context.Context, source Source) (types.SignalFeed, error) {
	rows, err := source.Rows(ctx)
	if err != nil {
		metrics.SignalUploadsTotal.WithLabelValues("failed").Inc()

		return nil, err
	}

	feed := make(types.SignalFeed, 0, len(rows))

	for i, row := range rows {
		ts, ok := ParseTimestamp(row.Timestamp)
		if !ok {
			return nil, n.reject(errors.NewParseError(i+1, row.Timestamp, "invalid timestamp"))
		}

		// a comma would split into two export elements
		if strings.Contains(row.Signal, ",") {
			return nil, n.reject(errors.NewParseError(i+1, row.Signal, "signal contains a comma"))
		}

		feed = append(feed, types.SignalRecord{
			Timestamp: ts,
			Direction: row.Signal,
		})
	}

	metrics.SignalUploadsTotal.WithLabelValues("ok").Inc()
	metrics.SignalRowsTotal.Add(float64(len(feed)))
	n.logger.Debug("Normalized signal feed", zap.Int("rows", len(feed)))

	return feed, nil
}

func (n *Normalizer) reject(parseErr *errors.ParseError) error {
	n.logger.Warn("Rejected signal upload",
		zap.Int("row", parseErr.Row),
		zap.String("value", parseErr.Value),
		zap.String("reason", parseErr.Reason))
	metrics.SignalUploadsTotal.WithLabelValues("failed").Inc()

	return errors.Wrap(errors.ErrCodeSignalParseFailed, "failed to parse signal feed", parseErr)
}

// ExportFeed renders the feed into the two comma-joined strings.
func ExportFeed(feed types.SignalFeed) Export {
	times := make([]string, len(feed))
	signals := make([]string, len(feed))

	for i, record := range feed {
		times[i] = record.Timestamp.UTC().Format(ExportTimeLayout)
		signals[i] = record.Direction
	}

	return Export{
		Times:   strings.Join(times, ","),
		Signals: strings.Join(signals, ","),
	}
}

// PineSnippet renders the export as the two labelled blocks pasted into a Pine Script.
func PineSnippet(export Export) string {
	return fmt.Sprintf("Signal Times:\n%q\n\nSignal Directions:\n%q\n", export.Times, export.Signals)
}
