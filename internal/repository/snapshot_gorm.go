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

// SnapshotModel is the relational row behind a publish-time feature snapshot.
type SnapshotModel struct {
	ArticleID   string    `gorm:"primaryKey;size:64"`
	Symbol      string    `gorm:"size:16;index;not null"`
	PublishedAt time.Time `gorm:"not null"`
	Features    string    `gorm:"type:text"`
	CreatedAt   time.Time
}

func (SnapshotModel) TableName() string { return "feature_snapshots" }

type snapshotRepository struct {
	db *gorm.DB
}

func NewSnapshotRepository(db *gorm.DB) domrepo.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// Upsert replaces the whole snapshot row for the article id. Re-analysis of
// an article overwrites the previous snapshot, never merges into it.
func (r *snapshotRepository) Upsert(ctx context.Context, snap *models.FeatureSnapshot) error {
	feats, err := json.Marshal(snap.Features)
	if err != nil {
		return fmt.Errorf("marshal snapshot features: %w", err)
	}
	row := &SnapshotModel{
		ArticleID:   snap.ArticleID,
		Symbol:      snap.Symbol,
		PublishedAt: snap.PublishedAt,
		Features:    string(feats),
		CreatedAt:   snap.CreatedAt,
	}
	err = r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "article_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"symbol", "published_at", "features", "created_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

func (r *snapshotRepository) Get(ctx context.Context, articleID string) (*models.FeatureSnapshot, error) {
	var row SnapshotModel
	err := r.db.WithContext(ctx).First(&row, "article_id = ?", articleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	feats := map[string]any{}
	if row.Features != "" {
		if err := json.Unmarshal([]byte(row.Features), &feats); err != nil {
			return nil, fmt.Errorf("parse snapshot features: %w", err)
		}
	}
	return &models.FeatureSnapshot{
		ArticleID:   row.ArticleID,
		Symbol:      row.Symbol,
		PublishedAt: row.PublishedAt,
		Features:    feats,
		CreatedAt:   row.CreatedAt,
	}, nil
}
