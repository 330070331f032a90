package eventstudy

import (
	"math"
	"sort"
	"time"

	"NewsAlpha/internal/domain/models"
)

// DefaultWindows are the forward-return lookback windows in trading days.
var DefaultWindows = []int{1, 3, 5}

// Run computes forward percentage returns around each event date against an
// adjusted price series and aggregates statistics per window.
//
// An event date that is not a trading day resolves to the next available
// trading day at or after it; events past the end of the series are skipped.
// A window whose target bar does not exist is omitted for that event rather
// than reported as zero.
func Run(symbol string, bars []models.PriceBar, events []time.Time, windows []int) models.StudyResult {
	if len(windows) == 0 {
		windows = DefaultWindows
	}

	res := models.StudyResult{
		Symbol:  symbol,
		Windows: windows,
		Samples: make([]models.EventSample, 0, len(events)),
		Stats:   make(map[int]models.WindowStats, len(windows)),
	}

	for _, ev := range events {
		pos := sort.Search(len(bars), func(i int) bool {
			return !bars[i].Date.Before(ev)
		})
		if pos >= len(bars) {
			continue
		}
		base := bars[pos].AdjClose
		if base == 0 {
			continue
		}

		sample := models.EventSample{
			EventDate: bars[pos].Date,
			Returns:   make(map[int]float64, len(windows)),
		}
		for _, w := range windows {
			target := pos + w
			if target >= len(bars) {
				continue
			}
			sample.Returns[w] = round2((bars[target].AdjClose/base - 1) * 100)
		}
		res.Samples = append(res.Samples, sample)
	}

	for _, w := range windows {
		res.Stats[w] = aggregate(res.Samples, w)
	}
	return res
}

// aggregate computes count, mean, median, win rate and up/down averages for
// one window. Zero samples yield count 0 and nil statistics.
func aggregate(samples []models.EventSample, window int) models.WindowStats {
	rets := make([]float64, 0, len(samples))
	for _, s := range samples {
		if r, ok := s.Returns[window]; ok {
			rets = append(rets, r)
		}
	}
	if len(rets) == 0 {
		return models.WindowStats{Count: 0}
	}

	var sum, upSum, downSum float64
	var wins, downs int
	for _, r := range rets {
		sum += r
		if r > 0 {
			wins++
			upSum += r
		} else {
			downs++
			downSum += r
		}
	}

	n := float64(len(rets))
	stats := models.WindowStats{Count: len(rets)}
	stats.Mean = ptr(sum / n)
	stats.Median = ptr(median(rets))
	stats.WinRate = ptr(float64(wins) / n * 100)
	if wins > 0 {
		stats.AvgUp = ptr(upSum / float64(wins))
	}
	if downs > 0 {
		stats.AvgDown = ptr(downSum / float64(downs))
	}
	return stats
}

func median(xs []float64) float64 {
	s := make([]float64, len(xs))
	copy(s, xs)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 0 {
		return (s[mid-1] + s[mid]) / 2
	}
	return s[mid]
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func ptr(v float64) *float64 { return &v }
