package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"NewsAlpha/internal/domain/models"
	domrepo "NewsAlpha/internal/domain/repository"
)

// ModelRunModel is the relational row behind a versioned training artifact.
type ModelRunModel struct {
	Version   string `gorm:"primaryKey;size:16"`
	Weights   string `gorm:"type:text"`
	NRows     int
	Accuracy  float64
	PosRate   float64
	CreatedAt time.Time
}

func (ModelRunModel) TableName() string { return "model_runs" }

type modelRunRepository struct {
	db *gorm.DB
}

func NewModelRunRepository(db *gorm.DB) domrepo.ModelRunRepository {
	return &modelRunRepository{db: db}
}

// UpsertByVersion inserts the run or, when the version already exists,
// replaces it. Retraining within the same day overwrites that day's artifact.
func (r *modelRunRepository) UpsertByVersion(ctx context.Context, run *models.ModelRun) error {
	weights, err := json.Marshal(run.Weights)
	if err != nil {
		return fmt.Errorf("marshal weights: %w", err)
	}
	row := &ModelRunModel{
		Version:   run.Version,
		Weights:   string(weights),
		NRows:     run.Metrics.NRows,
		Accuracy:  run.Metrics.Accuracy,
		PosRate:   run.Metrics.PosRate,
		CreatedAt: run.CreatedAt,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "version"}},
		DoUpdates: clause.AssignmentColumns([]string{"weights", "n_rows", "accuracy", "pos_rate", "created_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("upsert model run: %w", err)
	}
	return nil
}

func (r *modelRunRepository) Latest(ctx context.Context) (*models.ModelRun, error) {
	var row ModelRunModel
	err := r.db.WithContext(ctx).Order("created_at DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest model run: %w", err)
	}

	weights := map[string]float64{}
	if row.Weights != "" {
		if err := json.Unmarshal([]byte(row.Weights), &weights); err != nil {
			return nil, fmt.Errorf("parse weights of run %s: %w", row.Version, err)
		}
	}
	return &models.ModelRun{
		Version: row.Version,
		Weights: weights,
		Metrics: models.TrainMetrics{
			NRows:    row.NRows,
			Accuracy: row.Accuracy,
			PosRate:  row.PosRate,
		},
		CreatedAt: row.CreatedAt,
	}, nil
}

// AutoMigrate creates or updates the relational tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&SignalModel{}, &SnapshotModel{}, &ModelRunModel{})
}
