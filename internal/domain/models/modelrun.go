package models

import "time"

// TrainMetrics are basic health metrics of a batch training run, computed
// on the training set itself.
type TrainMetrics struct {
	NRows    int     `json:"n_rows"`
	Accuracy float64 `json:"accuracy"`
	PosRate  float64 `json:"pos_rate"` // share of y_beat == 1 rows
}

// ModelRun is a versioned batch-training artifact. Immutable once created,
// except that re-training on the same day replaces the same version.
type ModelRun struct {
	Version   string             `json:"version"`
	Weights   map[string]float64 `json:"weights"`
	Metrics   TrainMetrics       `json:"metrics"`
	CreatedAt time.Time          `json:"created_at"`
}
