package usecase

import (
	"context"
	"fmt"
	"time"

	"NewsAlpha/internal/domain/models"
	domrepo "NewsAlpha/internal/domain/repository"
	"NewsAlpha/internal/services/eventstudy"
	applogger "NewsAlpha/pkg/logger"
)

// Backtester runs event studies over adjusted price history.
type Backtester struct {
	prices  domrepo.PriceProvider
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewBacktester(prices domrepo.PriceProvider, metrics domrepo.Metrics, l *applogger.Logger) *Backtester {
	return &Backtester{prices: prices, metrics: metrics, l: l}
}

// Run resolves the symbol's adjusted series and measures forward returns
// around the given event dates (YYYY-MM-DD). Empty windows selects the
// default horizon set.
func (b *Backtester) Run(ctx context.Context, symbol string, eventDates []string, windows []int) (*models.StudyResult, error) {
	start := time.Now()

	events := make([]time.Time, 0, len(eventDates))
	for _, d := range eventDates {
		ev, err := time.ParseInLocation("2006-01-02", d, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse event date %q: %w", d, err)
		}
		events = append(events, ev)
	}

	series, err := b.prices.AdjustedSeries(ctx, symbol)
	if err != nil {
		b.metrics.RecordError("backtest_prices")
		return nil, err
	}

	result := eventstudy.Run(symbol, series.Bars, events, windows)
	b.metrics.RecordLatency("backtest", time.Since(start).Seconds())
	if b.l != nil {
		b.l.Info("event study complete",
			applogger.String("symbol", symbol),
			applogger.Int("events", len(events)),
			applogger.Int("samples", len(result.Samples)),
		)
	}
	return &result, nil
}
