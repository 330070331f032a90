package usecase

import (
	"context"
	"errors"
	"time"

	"NewsAlpha/internal/domain/models"
	domrepo "NewsAlpha/internal/domain/repository"
	applogger "NewsAlpha/pkg/logger"
	"NewsAlpha/pkg/util"
)

// Labeler assigns each unlabeled trading signal its realized 1-day forward
// return and a binary beat-benchmark label. Selection is predicate based
// (y_beat IS NULL), so a crashed run resumes on the remaining rows.
type Labeler struct {
	signals   domrepo.SignalRepository
	prices    domrepo.PriceProvider
	pub       domrepo.SignalPublisher
	metrics   domrepo.Metrics
	benchmark string
	l         *applogger.Logger
}

func NewLabeler(
	signals domrepo.SignalRepository,
	prices domrepo.PriceProvider,
	pub domrepo.SignalPublisher,
	metrics domrepo.Metrics,
	benchmark string,
	l *applogger.Logger,
) *Labeler {
	return &Labeler{
		signals:   signals,
		prices:    prices,
		pub:       pub,
		metrics:   metrics,
		benchmark: benchmark,
		l:         l,
	}
}

// forwardCloses resolves the entry and exit closes for a 1-day window.
// Each day maps to the first bar at or after it; when both days land on
// the same bar (signal timestamped on a non-trading day) the exit moves
// to the following session so the window never collapses to zero width.
func forwardCloses(s *models.PriceSeries, day0, day1 time.Time) (entry, exit float64, ok bool) {
	i0, ok0 := s.BarAt(day0)
	if !ok0 {
		return 0, 0, false
	}
	i1, ok1 := s.BarAt(day1)
	if !ok1 || i1 == i0 {
		i1 = i0 + 1
		if i1 >= len(s.Bars) {
			return 0, 0, false
		}
	}
	return s.Bars[i0].AdjClose, s.Bars[i1].AdjClose, true
}

// Run labels every pending signal it can and reports how many were labeled
// and skipped. Missing price data skips the one row and continues; a
// malformed series is remembered and reported after the batch completes.
func (lb *Labeler) Run(ctx context.Context) (labeled, skipped int, err error) {
	start := time.Now()
	rows, err := lb.signals.Unlabeled(ctx)
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}

	seriesBySymbol := make(map[string]*models.PriceSeries)
	badSeries := make(map[string]error)
	var integrityErrs []error

	lookup := func(symbol string) *models.PriceSeries {
		if s, ok := seriesBySymbol[symbol]; ok {
			return s
		}
		if _, ok := badSeries[symbol]; ok {
			return nil
		}
		s, serr := lb.prices.AdjustedSeries(ctx, symbol)
		if serr != nil {
			badSeries[symbol] = serr
			if errors.Is(serr, models.ErrIntegrity) {
				integrityErrs = append(integrityErrs, serr)
				lb.metrics.RecordError("price_integrity")
			}
			if lb.l != nil {
				lb.l.Warn("price series unavailable",
					applogger.String("symbol", symbol),
					applogger.Error(serr),
				)
			}
			return nil
		}
		seriesBySymbol[symbol] = s
		return s
	}

	bench := lookup(lb.benchmark)

	for i := range rows {
		sig := &rows[i]

		stock := lookup(sig.Symbol)
		if stock == nil || bench == nil {
			skipped++
			lb.metrics.RecordLabelSkipped("series_unavailable")
			continue
		}

		day0 := util.UTCDay(time.UnixMilli(sig.T))
		day1 := day0.AddDate(0, 0, 1)

		p0, p1, okStock := forwardCloses(stock, day0, day1)
		b0, b1, okBench := forwardCloses(bench, day0, day1)
		if !okStock || !okBench || p0 == 0 || b0 == 0 {
			skipped++
			lb.metrics.RecordLabelSkipped("price_missing")
			if lb.l != nil {
				lb.l.Warn("signal skipped: price unavailable for window",
					applogger.Int64("signal_id", sig.ID),
					applogger.String("symbol", sig.Symbol),
					applogger.String("day", day0.Format("2006-01-02")),
				)
			}
			continue
		}

		stockRet := p1/p0 - 1
		indexRet := b1/b0 - 1
		beat := 0
		if stockRet > indexRet {
			beat = 1
		}

		if err := lb.signals.SaveLabel(ctx, sig.ID, stockRet, beat); err != nil {
			return labeled, skipped, err
		}
		labeled++
		lb.metrics.RecordSignalLabeled(sig.Symbol)

		if lb.pub != nil {
			sig.YRet1d = &stockRet
			sig.YBeat = &beat
			if perr := lb.pub.PublishLabeled(ctx, sig); perr != nil {
				lb.metrics.RecordError("publish")
				if lb.l != nil {
					lb.l.Warn("labeled-signal publish failed",
						applogger.Int64("signal_id", sig.ID),
						applogger.Error(perr),
					)
				}
			}
		}
	}

	lb.metrics.RecordLatency("label_run", time.Since(start).Seconds())
	if lb.l != nil {
		lb.l.Info("labeling run complete",
			applogger.Int("labeled", labeled),
			applogger.Int("skipped", skipped),
			applogger.Int("pending", len(rows)-labeled-skipped),
		)
	}
	return labeled, skipped, errors.Join(integrityErrs...)
}
