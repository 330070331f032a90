package ml

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	applogger "NewsAlpha/pkg/logger"
)

// BiasKey is the reserved weight-map key for the intercept term. None of
// the model feature columns uses this name.
const BiasKey = "bias"

// loglossDecay is the EWMA factor of the rolling online log-loss estimate.
const loglossDecay = 0.98

// OnlineMetrics reports the online learner's health, separate from the
// batch trainer's metrics.
type OnlineMetrics struct {
	Samples int64   `json:"samples"`
	LogLoss float64 `json:"log_loss"`
}

// OnlineModel serves probabilities from the currently active weight vector
// and applies single-example gradient updates from human feedback.
//
// Readers take a copy-on-write snapshot and never wait on persistence I/O;
// writers serialize behind mu around the full read-modify-persist sequence,
// and the weights file on disk is the authoritative state after every
// update.
type OnlineModel struct {
	mu       sync.Mutex
	snapshot atomic.Value // map[string]float64, never mutated in place
	path     string
	lr       float64
	l        *applogger.Logger

	samples int64
	logloss float64
}

// NewOnlineModel loads the latest persisted weights from path, or starts
// from an all-zero vector when the file does not exist.
func NewOnlineModel(path string, lr float64, l *applogger.Logger) (*OnlineModel, error) {
	if lr <= 0 {
		lr = 0.05
	}
	m := &OnlineModel{path: path, lr: lr, l: l}

	weights := map[string]float64{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &weights); err != nil {
			return nil, fmt.Errorf("parse weights file: %w", err)
		}
	case os.IsNotExist(err):
		if l != nil {
			l.Info("weights file absent, starting from zero vector",
				applogger.String("path", path))
		}
	default:
		return nil, fmt.Errorf("read weights file: %w", err)
	}

	m.snapshot.Store(weights)
	return m, nil
}

// Weights returns the active weight vector snapshot. Callers must not
// mutate the returned map.
func (m *OnlineModel) Weights() map[string]float64 {
	return m.snapshot.Load().(map[string]float64)
}

// PredictProba applies the current weights to an already-featurized mapping.
// Features absent from the weight vector contribute zero.
func (m *OnlineModel) PredictProba(features map[string]float64) float64 {
	w := m.Weights()
	z := w[BiasKey]
	for name, x := range features {
		z += w[name] * x
	}
	return Sigmoid(z)
}

// LearnAndSave performs one logistic gradient step toward the given binary
// label, persists the updated vector, then swaps in the new snapshot. The
// persisted file is written before the in-memory swap so a crash can only
// lose the swap, never the update.
func (m *OnlineModel) LearnAndSave(features map[string]float64, label int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old := m.Weights()
	next := make(map[string]float64, len(old)+len(features)+1)
	for k, v := range old {
		next[k] = v
	}

	p := m.PredictProba(features)
	g := float64(label) - p
	next[BiasKey] += m.lr * g
	for name, x := range features {
		next[name] += m.lr * g * x
	}

	if err := writeWeightsAtomic(m.path, next); err != nil {
		return fmt.Errorf("persist weights: %w", err)
	}
	m.snapshot.Store(next)

	ll := sampleLogLoss(p, label)
	if m.samples == 0 {
		m.logloss = ll
	} else {
		m.logloss = loglossDecay*m.logloss + (1-loglossDecay)*ll
	}
	m.samples++
	return nil
}

// ReplaceAll swaps the entire weight vector, persisting first. The batch
// trainer publishes its artifact through this so the single-writer
// discipline covers both update paths.
func (m *OnlineModel) ReplaceAll(weights map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := make(map[string]float64, len(weights))
	for k, v := range weights {
		next[k] = v
	}
	if err := writeWeightsAtomic(m.path, next); err != nil {
		return fmt.Errorf("persist weights: %w", err)
	}
	m.snapshot.Store(next)
	return nil
}

// Metrics reports the online sample count and rolling log-loss.
func (m *OnlineModel) Metrics() OnlineMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return OnlineMetrics{Samples: m.samples, LogLoss: m.logloss}
}

// ConfidenceBucket maps a probability to the coarse serving bucket.
func ConfidenceBucket(p float64) string {
	switch {
	case p >= 0.70:
		return "High"
	case p >= 0.55:
		return "Moderate"
	case p >= 0.45:
		return "Neutral"
	case p >= 0.30:
		return "Low"
	default:
		return "Very Low"
	}
}

func sampleLogLoss(p float64, label int) float64 {
	const eps = 1e-12
	p = math.Min(math.Max(p, eps), 1-eps)
	if label == 1 {
		return -math.Log(p)
	}
	return -math.Log(1 - p)
}

// writeWeightsAtomic writes the flat weight mapping with temp-file rename
// semantics so consumers never observe a partial file.
func writeWeightsAtomic(path string, weights map[string]float64) error {
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure weights dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".weights-*.json")
	if err != nil {
		return fmt.Errorf("create temp weights: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp weights: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp weights: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename weights: %w", err)
	}
	return nil
}
