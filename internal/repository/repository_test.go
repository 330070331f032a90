package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"NewsAlpha/internal/domain/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestSignalInsertAndPredicates(t *testing.T) {
	db := setupDB(t)
	repo := NewSignalRepository(db)
	ctx := context.Background()

	sig := &models.TradingSignal{
		Symbol:   "AAPL",
		T:        time.Date(2024, 3, 4, 15, 0, 0, 0, time.UTC).UnixMilli(),
		Features: map[string]float64{"rsi14": 61.2, "gap_pct": 0.8},
	}
	require.NoError(t, repo.Insert(ctx, sig))
	assert.NotZero(t, sig.ID)

	pending, err := repo.Unlabeled(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 61.2, pending[0].Features["rsi14"])

	labeled, err := repo.Labeled(ctx)
	require.NoError(t, err)
	assert.Empty(t, labeled)
}

func TestSignalSaveLabelWritesOnce(t *testing.T) {
	db := setupDB(t)
	repo := NewSignalRepository(db)
	ctx := context.Background()

	sig := &models.TradingSignal{Symbol: "MSFT", T: 1709564400000}
	require.NoError(t, repo.Insert(ctx, sig))

	require.NoError(t, repo.SaveLabel(ctx, sig.ID, 0.021, 1))

	// A second write must not overwrite the recorded outcome.
	require.NoError(t, repo.SaveLabel(ctx, sig.ID, -0.5, 0))

	labeled, err := repo.Labeled(ctx)
	require.NoError(t, err)
	require.Len(t, labeled, 1)
	assert.Equal(t, 1, *labeled[0].YBeat)
	assert.InDelta(t, 0.021, *labeled[0].YRet1d, 1e-12)

	pending, err := repo.Unlabeled(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestSignalUnlabeledOrdersByTime(t *testing.T) {
	db := setupDB(t)
	repo := NewSignalRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, &models.TradingSignal{Symbol: "B", T: 200}))
	require.NoError(t, repo.Insert(ctx, &models.TradingSignal{Symbol: "A", T: 100}))

	pending, err := repo.Unlabeled(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "A", pending[0].Symbol)
	assert.Equal(t, "B", pending[1].Symbol)
}

func TestSnapshotUpsertReplacesRow(t *testing.T) {
	db := setupDB(t)
	repo := NewSnapshotRepository(db)
	ctx := context.Background()

	first := &models.FeatureSnapshot{
		ArticleID:   "art-1",
		Symbol:      "AAPL",
		PublishedAt: time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC),
		Features:    map[string]any{"rsi14": 60.0, "sector": "tech"},
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &models.FeatureSnapshot{
		ArticleID:   "art-1",
		Symbol:      "AAPL",
		PublishedAt: first.PublishedAt,
		Features:    map[string]any{"gap_pct": 1.5, "stance": "bullish"},
		CreatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Upsert(ctx, second))

	got, err := repo.Get(ctx, "art-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1.5, got.Features["gap_pct"])
	assert.NotContains(t, got.Features, "rsi14")
}

func TestSnapshotGetMissingReturnsNil(t *testing.T) {
	db := setupDB(t)
	repo := NewSnapshotRepository(db)

	got, err := repo.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestModelRunUpsertByVersion(t *testing.T) {
	db := setupDB(t)
	repo := NewModelRunRepository(db)
	ctx := context.Background()

	run := &models.ModelRun{
		Version:   "v20240304",
		Weights:   map[string]float64{"rsi14": 0.4, "bias": -0.1},
		Metrics:   models.TrainMetrics{NRows: 80, Accuracy: 0.7, PosRate: 0.45},
		CreatedAt: time.Date(2024, 3, 4, 18, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.UpsertByVersion(ctx, run))

	// Same-day retrain replaces the artifact under the same version.
	run.Weights["rsi14"] = 0.6
	run.Metrics.NRows = 90
	require.NoError(t, repo.UpsertByVersion(ctx, run))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "v20240304", latest.Version)
	assert.Equal(t, 0.6, latest.Weights["rsi14"])
	assert.Equal(t, 90, latest.Metrics.NRows)

	var count int64
	require.NoError(t, db.Model(&ModelRunModel{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestModelRunLatestPicksNewest(t *testing.T) {
	db := setupDB(t)
	repo := NewModelRunRepository(db)
	ctx := context.Background()

	old := &models.ModelRun{Version: "v20240301", CreatedAt: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)}
	newer := &models.ModelRun{Version: "v20240304", CreatedAt: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, repo.UpsertByVersion(ctx, old))
	require.NoError(t, repo.UpsertByVersion(ctx, newer))

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "v20240304", latest.Version)
}

func TestModelRunLatestEmpty(t *testing.T) {
	db := setupDB(t)
	repo := NewModelRunRepository(db)

	latest, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}
