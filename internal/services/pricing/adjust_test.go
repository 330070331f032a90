package pricing

import (
	"errors"
	"math"
	"testing"
	"time"

	"NewsAlpha/internal/domain/models"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func bar(n int, close float64) models.PriceBar {
	return models.PriceBar{Date: day(n), Close: close}
}

func TestAdjustSeriesNoEvents(t *testing.T) {
	bars := []models.PriceBar{bar(0, 100), bar(1, 101), bar(2, 99.5), bar(3, 102)}
	out, err := NewEngine(nil).AdjustSeries(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range out {
		if out[i].AdjClose != out[i].Close {
			t.Fatalf("bar %d: adj %v != close %v", i, out[i].AdjClose, out[i].Close)
		}
	}
}

func TestAdjustSeriesSplit(t *testing.T) {
	bars := []models.PriceBar{bar(0, 100), bar(1, 102), bar(2, 51), bar(3, 52)}
	bars[2].SplitCoeff = 2 // 2:1 split effective on bar 2

	out, err := NewEngine(nil).AdjustSeries(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Bars before the split halve; the split bar and later stay raw.
	if math.Abs(out[0].AdjClose-50) > 1e-9 || math.Abs(out[1].AdjClose-51) > 1e-9 {
		t.Fatalf("pre-split bars not halved: %v %v", out[0].AdjClose, out[1].AdjClose)
	}
	if out[2].AdjClose != 51 || out[3].AdjClose != 52 {
		t.Fatalf("post-split bars changed: %v %v", out[2].AdjClose, out[3].AdjClose)
	}
}

func TestAdjustSeriesDividend(t *testing.T) {
	bars := []models.PriceBar{bar(0, 100), bar(1, 100), bar(2, 99)}
	bars[2].Dividend = 1 // $1 ex-dividend on bar 2, prev close 100

	out, err := NewEngine(nil).AdjustSeries(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	factor := out[0].AdjClose / out[0].Close
	if factor <= 0.98 || factor >= 1.0 {
		t.Fatalf("dividend factor out of range: %v", factor)
	}
	if out[1].AdjClose/out[1].Close != factor {
		t.Fatalf("factor differs across pre-event bars")
	}
	if out[2].AdjClose != out[2].Close {
		t.Fatalf("event bar must keep raw close, got %v", out[2].AdjClose)
	}
}

func TestAdjustSeriesDividendBeforeSplitSameBar(t *testing.T) {
	bars := []models.PriceBar{bar(0, 100), bar(1, 49)}
	bars[1].Dividend = 1
	bars[1].SplitCoeff = 2

	out, err := NewEngine(nil).AdjustSeries(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Dividend against pre-split close 100: (100-1)/100, then 1/2.
	want := 100 * (99.0 / 100.0) * 0.5
	if math.Abs(out[0].AdjClose-want) > 1e-9 {
		t.Fatalf("got %v want %v", out[0].AdjClose, want)
	}
}

func TestAdjustSeriesDividendOnOldestBarIgnored(t *testing.T) {
	bars := []models.PriceBar{bar(0, 100), bar(1, 101)}
	bars[0].Dividend = 5

	out, err := NewEngine(nil).AdjustSeries(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].AdjClose != 100 || out[1].AdjClose != 101 {
		t.Fatalf("oldest-bar dividend must be ignored: %v %v", out[0].AdjClose, out[1].AdjClose)
	}
}

func TestAdjustSeriesZeroPrevCloseSkipsFactor(t *testing.T) {
	bars := []models.PriceBar{bar(0, 100), bar(1, 0), bar(2, 99)}
	bars[2].Dividend = 1 // previous close is 0: factor contribution skipped

	out, err := NewEngine(nil).AdjustSeries(bars)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out[0].AdjClose != 100 {
		t.Fatalf("factor should be untouched, got %v", out[0].AdjClose)
	}
}

func TestAdjustSeriesNonMonotonicDates(t *testing.T) {
	bars := []models.PriceBar{bar(2, 100), bar(1, 101)}
	_, err := NewEngine(nil).AdjustSeries(bars)
	if !errors.Is(err, models.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
}
