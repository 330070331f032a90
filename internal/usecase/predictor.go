package usecase

import (
	"context"
	"errors"
	"time"

	domrepo "NewsAlpha/internal/domain/repository"
	"NewsAlpha/internal/services/features"
	"NewsAlpha/internal/services/ml"
	applogger "NewsAlpha/pkg/logger"
)

// ErrInsufficientFeatures is returned when an analysis payload does not
// featurize into a usable vector. Handlers map it to a client error.
var ErrInsufficientFeatures = errors.New("insufficient features for prediction")

// Prediction is the serving result for one analysis payload.
type Prediction struct {
	Probability float64 `json:"probability"`
	Confidence  string  `json:"confidence"`
	ModelAge    int64   `json:"model_samples"`
}

// Predictor serves win probabilities from the online model and feeds
// human feedback back into it.
type Predictor struct {
	online  *ml.OnlineModel
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewPredictor(online *ml.OnlineModel, metrics domrepo.Metrics, l *applogger.Logger) *Predictor {
	return &Predictor{online: online, metrics: metrics, l: l}
}

// Predict featurizes the payload and scores it against the active weights.
func (p *Predictor) Predict(ctx context.Context, payload map[string]any) (*Prediction, error) {
	start := time.Now()
	v := features.Featurize(payload)
	if !v.Valid() {
		return nil, ErrInsufficientFeatures
	}

	prob := p.online.PredictProba(v.Numeric())
	bucket := ml.ConfidenceBucket(prob)
	p.metrics.RecordPrediction(bucket)
	p.metrics.RecordLatency("predict", time.Since(start).Seconds())

	return &Prediction{
		Probability: prob,
		Confidence:  bucket,
		ModelAge:    p.online.Metrics().Samples,
	}, nil
}

// Feedback applies a single labeled example to the online model. label is
// 1 when the signal beat the benchmark, 0 otherwise.
func (p *Predictor) Feedback(ctx context.Context, payload map[string]any, label int) (*Prediction, error) {
	v := features.Featurize(payload)
	if !v.Valid() {
		return nil, ErrInsufficientFeatures
	}

	feats := v.Numeric()
	if err := p.online.LearnAndSave(feats, label); err != nil {
		p.metrics.RecordError("online_update")
		return nil, err
	}
	p.metrics.RecordOnlineUpdate()
	if p.l != nil {
		p.l.Debug("online model updated",
			applogger.Int("label", label),
			applogger.Int("features", len(feats)),
		)
	}

	prob := p.online.PredictProba(feats)
	return &Prediction{
		Probability: prob,
		Confidence:  ml.ConfidenceBucket(prob),
		ModelAge:    p.online.Metrics().Samples,
	}, nil
}

// ModelHealth exposes the online learner's rolling metrics.
func (p *Predictor) ModelHealth() ml.OnlineMetrics {
	return p.online.Metrics()
}
