package models

// TradingSignal is an article-derived trading signal awaiting or carrying
// its realized outcome. A row transitions unlabeled -> labeled exactly once
// and is never mutated afterward.
type TradingSignal struct {
	ID         int64              `json:"id"`
	Symbol     string             `json:"symbol"`
	T          int64              `json:"t"` // event timestamp, epoch milliseconds
	Features   map[string]float64 `json:"features"`
	YRet1d     *float64           `json:"y_ret_1d,omitempty"`
	YBeat      *int               `json:"y_beat,omitempty"`
	Confidence *float64           `json:"confidence,omitempty"`
}

// Labeled reports whether the signal already carries its outcome.
func (s *TradingSignal) Labeled() bool {
	return s.YBeat != nil
}
