package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"pricewatch_backend/internal/feature/prices/domain/entity"
	"pricewatch_backend/internal/feature/prices/domain/metrics"
)

// DefaultAlarmThreshold is the threshold used when a query does not name one.
const DefaultAlarmThreshold = 700.0

// AlarmReport lists the products whose latest price is at or below the threshold.
type AlarmReport struct {
	Category  string
	Threshold float64
	Matches   entity.Series
	Lines     []string
}

// AlarmUsecase evaluates price alarms and hands them to a Notifier.
type AlarmUsecase struct {
	series   *SeriesUsecase
	notifier Notifier
}

// NewAlarmUsecase creates an AlarmUsecase. A nil notifier disables Notify.
func NewAlarmUsecase(series *SeriesUsecase, notifier Notifier) *AlarmUsecase {
	return &AlarmUsecase{series: series, notifier: notifier}
}

// Check evaluates threshold against the latest observation of every product.
func (au *AlarmUsecase) Check(ctx context.Context, category string, threshold float64) (AlarmReport, error) {
	if !(threshold > 0) {
		return AlarmReport{}, fmt.Errorf("%w: %v", ErrInvalidThreshold, threshold)
	}
	latest, err := au.series.Latest(ctx, category)
	if err != nil {
		return AlarmReport{}, err
	}
	matches := metrics.AlarmMatches(latest, threshold)
	matches.Sort()
	return AlarmReport{
		Category:  category,
		Threshold: threshold,
		Matches:   matches,
		Lines:     AlarmLines(matches),
	}, nil
}

// Notify checks the alarm and sends the text lines when anything matched.
// It reports whether a notification was sent.
func (au *AlarmUsecase) Notify(ctx context.Context, category string, threshold float64) (AlarmReport, bool, error) {
	report, err := au.Check(ctx, category, threshold)
	if err != nil || len(report.Matches) == 0 || au.notifier == nil {
		return report, false, err
	}
	subject := fmt.Sprintf("Price alarm %s", category)
	if err := au.notifier.Notify(ctx, subject, report.Lines); err != nil {
		return report, false, fmt.Errorf("notify: %w", err)
	}
	return report, true, nil
}

// AlarmLines formats matches as "- <product> (<price> € am <dd.mm.yyyy>)".
func AlarmLines(matches entity.Series) []string {
	lines := make([]string, 0, len(matches))
	for _, o := range matches {
		lines = append(lines, fmt.Sprintf("- %s (%.2f € am %s)", o.Product, o.Price, o.Timestamp.Format("02.01.2006")))
	}
	return lines
}

// LogNotifier writes alarms to the structured log instead of an outbound channel.
type LogNotifier struct{}

var _ Notifier = LogNotifier{}

// Notify logs subject and lines.
func (LogNotifier) Notify(ctx context.Context, subject string, lines []string) error {
	slog.InfoContext(ctx, "price alarm", "subject", subject, "body", strings.Join(lines, "\n"))
	return nil
}
