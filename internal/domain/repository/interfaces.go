package repository

import (
	"context"
	"time"

	"NewsAlpha/internal/domain/models"
)

// SignalRepository persists trading signals. Labeling selects rows by
// predicate (y_beat IS NULL), so an interrupted batch resumes naturally.
type SignalRepository interface {
	Insert(ctx context.Context, s *models.TradingSignal) error
	Unlabeled(ctx context.Context) ([]models.TradingSignal, error)
	Labeled(ctx context.Context) ([]models.TradingSignal, error)
	// SaveLabel writes the outcome once; a row already labeled is left untouched.
	SaveLabel(ctx context.Context, id int64, ret1d float64, beat int) error
}

// SnapshotRepository persists publish-time feature snapshots keyed by article id.
type SnapshotRepository interface {
	// Upsert replaces the whole row for the article id, never a partial merge.
	Upsert(ctx context.Context, snap *models.FeatureSnapshot) error
	// Get returns nil without error when no snapshot exists.
	Get(ctx context.Context, articleID string) (*models.FeatureSnapshot, error)
}

// ModelRunRepository persists versioned batch-training artifacts.
type ModelRunRepository interface {
	UpsertByVersion(ctx context.Context, run *models.ModelRun) error
	Latest(ctx context.Context) (*models.ModelRun, error)
}

// PriceStore is the time-series archive of raw daily bars.
type PriceStore interface {
	GetSeries(ctx context.Context, symbol string) ([]models.PriceBar, error)
	StoreBars(ctx context.Context, symbol string, bars []models.PriceBar) error
	Health(ctx context.Context) error
}

// PriceFeed is the remote price collaborator. Implementations apply bounded
// retry with backoff; core algorithms never see transient transport errors.
type PriceFeed interface {
	FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error)
}

// PriceProvider serves corporate-action-adjusted series, caching per symbol.
type PriceProvider interface {
	AdjustedSeries(ctx context.Context, symbol string) (*models.PriceSeries, error)
}

// SignalPublisher emits labeled-signal events for downstream consumers.
// Publishing is best effort; labeling never fails on a publish error.
type SignalPublisher interface {
	PublishLabeled(ctx context.Context, s *models.TradingSignal) error
	Close() error
}

// Metrics records research pipeline counters and latencies.
type Metrics interface {
	RecordSignalLabeled(symbol string)
	RecordLabelSkipped(reason string)
	RecordPrediction(bucket string)
	RecordOnlineUpdate()
	RecordTrainingRun(result string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
