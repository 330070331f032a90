package models

import "time"

// PriceBar is one daily bar of a symbol's price series as supplied by the
// price collaborator, augmented with the total-return adjusted close.
// Bars are ordered ascending by date, one bar per trading day.
type PriceBar struct {
	Date       time.Time `json:"date"`
	Close      float64   `json:"close"`
	Dividend   float64   `json:"dividend"`
	SplitCoeff float64   `json:"split_coeff"`
	AdjClose   float64   `json:"adj_close"`
}

// PriceSeries is an ascending-by-date run of bars for a single symbol.
type PriceSeries struct {
	Symbol string     `json:"symbol"`
	Bars   []PriceBar `json:"bars"`
}

// BarAt returns the index of the first bar dated at or after day.
// The second return is false when no such bar exists.
func (s *PriceSeries) BarAt(day time.Time) (int, bool) {
	for i := range s.Bars {
		if !s.Bars[i].Date.Before(day) {
			return i, true
		}
	}
	return 0, false
}
