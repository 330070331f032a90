package eventstudy

import (
	"math"
	"testing"
	"time"

	"NewsAlpha/internal/domain/models"
)

// series returns consecutive trading days starting 2024-01-01 (a Monday)
// with the given adjusted closes.
func series(closes ...float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Date:     time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Close:    c,
			AdjClose: c,
		}
	}
	return bars
}

func TestRunForwardReturns(t *testing.T) {
	bars := series(100, 101, 102, 103, 104, 105, 106)
	events := []time.Time{bars[0].Date}

	res := Run("TEST", bars, events, []int{1, 3, 5})
	if len(res.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(res.Samples))
	}
	got := res.Samples[0].Returns
	if got[1] != 1.00 || got[3] != 3.00 || got[5] != 5.00 {
		t.Fatalf("unexpected returns: %v", got)
	}
}

func TestRunResolvesNonTradingDay(t *testing.T) {
	bars := series(100, 101, 102, 103)
	// Event 12 hours before the second bar: base must be bar 1's close.
	ev := bars[1].Date.Add(-12 * time.Hour)

	res := Run("TEST", bars, []time.Time{ev}, []int{1})
	if len(res.Samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(res.Samples))
	}
	if !res.Samples[0].EventDate.Equal(bars[1].Date) {
		t.Fatalf("event not resolved to next trading day: %v", res.Samples[0].EventDate)
	}
	want := math.Round((102.0/101.0-1)*100*100) / 100
	if res.Samples[0].Returns[1] != want {
		t.Fatalf("got %v want %v", res.Samples[0].Returns[1], want)
	}
}

func TestRunEventPastSeriesSkipped(t *testing.T) {
	bars := series(100, 101)
	ev := bars[1].Date.AddDate(0, 0, 10)

	res := Run("TEST", bars, []time.Time{ev}, []int{1})
	if len(res.Samples) != 0 {
		t.Fatalf("expected event to be skipped, got %d samples", len(res.Samples))
	}
}

func TestRunInsufficientFutureOmitsWindow(t *testing.T) {
	bars := series(100, 101, 102)
	res := Run("TEST", bars, []time.Time{bars[0].Date}, []int{1, 5})

	rets := res.Samples[0].Returns
	if _, ok := rets[1]; !ok {
		t.Fatalf("window 1 should be present")
	}
	if _, ok := rets[5]; ok {
		t.Fatalf("window 5 must be omitted, not zero")
	}
	if res.Stats[5].Count != 0 {
		t.Fatalf("window 5 count should be 0, got %d", res.Stats[5].Count)
	}
	if res.Stats[5].Mean != nil || res.Stats[5].WinRate != nil {
		t.Fatalf("zero-sample window stats must be nil")
	}
}

func TestRunAggregates(t *testing.T) {
	bars := series(100, 102, 100, 99, 104, 103)
	events := []time.Time{bars[0].Date, bars[2].Date, bars[3].Date}

	res := Run("TEST", bars, events, []int{1})
	st := res.Stats[1]
	if st.Count != 3 {
		t.Fatalf("count = %d", st.Count)
	}
	// Returns: +2.00, -1.00, +5.05
	if math.Abs(*st.WinRate-2.0/3.0*100) > 1e-9 {
		t.Fatalf("win rate = %v", *st.WinRate)
	}
	if math.Abs(*st.Median-2.00) > 1e-9 {
		t.Fatalf("median = %v", *st.Median)
	}
	if math.Abs(*st.AvgUp-(2.00+5.05)/2) > 1e-9 {
		t.Fatalf("avg up = %v", *st.AvgUp)
	}
	if math.Abs(*st.AvgDown-(-1.00)) > 1e-9 {
		t.Fatalf("avg down = %v", *st.AvgDown)
	}
}

func TestRunDefaultWindows(t *testing.T) {
	bars := series(100, 101, 102, 103, 104, 105)
	res := Run("TEST", bars, []time.Time{bars[0].Date}, nil)
	if len(res.Windows) != 3 || res.Windows[0] != 1 || res.Windows[2] != 5 {
		t.Fatalf("default windows not applied: %v", res.Windows)
	}
}
