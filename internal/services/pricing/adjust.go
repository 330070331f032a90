package pricing

import (
	"fmt"

	"NewsAlpha/internal/domain/models"
	applogger "NewsAlpha/pkg/logger"
)

// Engine rebuilds total-return-adjusted closes from raw closes plus
// per-bar dividend and split events.
type Engine struct {
	l *applogger.Logger
}

func NewEngine(l *applogger.Logger) *Engine {
	return &Engine{l: l}
}

// AdjustSeries returns a copy of bars with AdjClose populated for every bar,
// reflecting all dividends and splits that occur after that bar.
//
// The sweep runs in reverse chronological order carrying a single cumulative
// factor F, initialized to 1.0 at the most recent bar. Each bar's adjusted
// close is close*F; the events on the bar then compound into F for the next
// (older) bar: a dividend d contributes (prevClose-d)/prevClose against the
// raw close of the immediately older bar, a split with coefficient s
// contributes 1/s. Dividend factor composes before the split factor, so the
// dividend is measured against the pre-split price.
func (e *Engine) AdjustSeries(bars []models.PriceBar) ([]models.PriceBar, error) {
	if len(bars) == 0 {
		return nil, nil
	}

	out := make([]models.PriceBar, len(bars))
	copy(out, bars)

	for i := 1; i < len(out); i++ {
		if !out[i].Date.After(out[i-1].Date) {
			return nil, fmt.Errorf("%w: dates not strictly increasing at %s",
				models.ErrIntegrity, out[i].Date.Format("2006-01-02"))
		}
	}
	for i := range out {
		if out[i].Close < 0 {
			return nil, fmt.Errorf("%w: negative close at %s",
				models.ErrIntegrity, out[i].Date.Format("2006-01-02"))
		}
	}

	f := 1.0
	for i := len(out) - 1; i >= 0; i-- {
		out[i].AdjClose = out[i].Close * f

		if i == 0 {
			// A dividend or split on the oldest bar has no preceding
			// bar to adjust; insufficient history, nothing to compound.
			break
		}

		if d := out[i].Dividend; d > 0 {
			prev := out[i-1].Close
			if prev <= 0 {
				if e.l != nil {
					e.l.Warn("dividend factor skipped: previous close missing",
						applogger.String("date", out[i].Date.Format("2006-01-02")),
					)
				}
			} else {
				f *= (prev - d) / prev
			}
		}
		if s := out[i].SplitCoeff; s > 0 && s != 1 {
			f /= s
		}
	}

	return out, nil
}
