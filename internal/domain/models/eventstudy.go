package models

import "time"

// EventSample is one event row of an event study: the resolved trading day
// and the forward returns that could be computed. Windows with insufficient
// future data are absent from Returns, never zero.
type EventSample struct {
	EventDate time.Time       `json:"event_date"`
	Returns   map[int]float64 `json:"returns"`
}

// WindowStats aggregates forward returns for one lookback window. All
// statistic fields are nil when Count is zero.
type WindowStats struct {
	Count   int      `json:"count"`
	Mean    *float64 `json:"mean"`
	Median  *float64 `json:"median"`
	WinRate *float64 `json:"win_rate"`
	AvgUp   *float64 `json:"avg_up"`
	AvgDown *float64 `json:"avg_down"`
}

// StudyResult is the full outcome of an event study over one price series.
type StudyResult struct {
	Symbol  string              `json:"symbol"`
	Windows []int               `json:"windows"`
	Samples []EventSample       `json:"samples"`
	Stats   map[int]WindowStats `json:"stats"`
}
