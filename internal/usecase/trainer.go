package usecase

import (
	"context"
	"time"

	"NewsAlpha/internal/domain/models"
	domrepo "NewsAlpha/internal/domain/repository"
	"NewsAlpha/internal/services/ml"
	applogger "NewsAlpha/pkg/logger"
)

// Trainer runs the batch retraining job: pull every labeled signal, fit a
// logistic model, persist the versioned artifact, and publish the weights
// to the online learner.
type Trainer struct {
	signals domrepo.SignalRepository
	runs    domrepo.ModelRunRepository
	online  *ml.OnlineModel
	metrics domrepo.Metrics
	l       *applogger.Logger
}

func NewTrainer(
	signals domrepo.SignalRepository,
	runs domrepo.ModelRunRepository,
	online *ml.OnlineModel,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *Trainer {
	return &Trainer{signals: signals, runs: runs, online: online, metrics: metrics, l: l}
}

// Train fits on all labeled rows and returns the persisted run, or (nil, nil)
// when fewer than minSamples rows are available. Retraining on the same UTC
// day replaces that day's version instead of creating a new one.
func (tr *Trainer) Train(ctx context.Context, minSamples int) (*models.ModelRun, error) {
	start := time.Now()
	rows, err := tr.signals.Labeled(ctx)
	if err != nil {
		tr.metrics.RecordTrainingRun("error")
		return nil, err
	}
	if len(rows) < minSamples {
		tr.metrics.RecordTrainingRun("skipped")
		if tr.l != nil {
			tr.l.Info("training skipped: not enough labeled signals",
				applogger.Int("have", len(rows)),
				applogger.Int("need", minSamples),
			)
		}
		return nil, nil
	}

	x := make([][]float64, len(rows))
	y := make([]int, len(rows))
	positives := 0
	for i, sig := range rows {
		row := make([]float64, len(models.FeatureColumns))
		for j, col := range models.FeatureColumns {
			// absent feature contributes zero, same convention as serving
			row[j] = sig.Features[col]
		}
		x[i] = row
		if sig.YBeat != nil {
			y[i] = *sig.YBeat
		}
		if y[i] == 1 {
			positives++
		}
	}

	means, stds, scaled := ml.Standardize(x)
	model := ml.FitLogistic(scaled, y, ml.DefaultEpochs, ml.DefaultLearningRate)

	// Fold the standardization back into raw-space weights so the online
	// model scores unscaled feature values with the same probabilities.
	weights := make(map[string]float64, len(models.FeatureColumns)+1)
	bias := model.Intercept
	for j, col := range models.FeatureColumns {
		weights[col] = model.Coef[j] / stds[j]
		bias -= model.Coef[j] * means[j] / stds[j]
	}
	weights[ml.BiasKey] = bias

	run := &models.ModelRun{
		Version: "v" + time.Now().UTC().Format("20060102"),
		Weights: weights,
		Metrics: models.TrainMetrics{
			NRows:    len(rows),
			Accuracy: model.Accuracy(scaled, y),
			PosRate:  float64(positives) / float64(len(rows)),
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := tr.runs.UpsertByVersion(ctx, run); err != nil {
		tr.metrics.RecordTrainingRun("error")
		return nil, err
	}
	if err := tr.online.ReplaceAll(weights); err != nil {
		tr.metrics.RecordTrainingRun("error")
		return nil, err
	}

	tr.metrics.RecordTrainingRun("trained")
	tr.metrics.RecordLatency("train", time.Since(start).Seconds())
	if tr.l != nil {
		tr.l.Info("model trained",
			applogger.String("version", run.Version),
			applogger.Int("n_rows", run.Metrics.NRows),
			applogger.Float64("accuracy", run.Metrics.Accuracy),
			applogger.Float64("pos_rate", run.Metrics.PosRate),
		)
	}
	return run, nil
}
