package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"

	"NewsAlpha/internal/domain/models"
	domrepo "NewsAlpha/internal/domain/repository"
)

// SignalModel is the relational row behind a trading signal. Features are
// stored as a JSON text column so new feature keys never need a migration.
type SignalModel struct {
	ID         int64    `gorm:"primaryKey;autoIncrement"`
	Symbol     string   `gorm:"size:16;index;not null"`
	T          int64    `gorm:"not null"`
	Features   string   `gorm:"type:text"`
	YRet1d     *float64 `gorm:"column:y_ret_1d"`
	YBeat      *int     `gorm:"column:y_beat;index"`
	Confidence *float64
}

func (SignalModel) TableName() string { return "trading_signals" }

type signalRepository struct {
	db *gorm.DB
}

func NewSignalRepository(db *gorm.DB) domrepo.SignalRepository {
	return &signalRepository{db: db}
}

func (r *signalRepository) Insert(ctx context.Context, s *models.TradingSignal) error {
	row, err := toSignalModel(s)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("insert signal: %w", err)
	}
	s.ID = row.ID
	return nil
}

func (r *signalRepository) Unlabeled(ctx context.Context) ([]models.TradingSignal, error) {
	var rows []SignalModel
	err := r.db.WithContext(ctx).
		Where("y_beat IS NULL").
		Order("t ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query unlabeled signals: %w", err)
	}
	return toSignals(rows)
}

func (r *signalRepository) Labeled(ctx context.Context) ([]models.TradingSignal, error) {
	var rows []SignalModel
	err := r.db.WithContext(ctx).
		Where("y_beat IS NOT NULL").
		Order("t ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("query labeled signals: %w", err)
	}
	return toSignals(rows)
}

// SaveLabel writes the outcome for a still-unlabeled row. A row that was
// labeled by a concurrent run matches nothing and is silently left alone,
// which makes retries of a crashed batch idempotent.
func (r *signalRepository) SaveLabel(ctx context.Context, id int64, ret1d float64, beat int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&SignalModel{}).
			Where("id = ? AND y_beat IS NULL", id).
			Updates(map[string]interface{}{
				"y_ret_1d": ret1d,
				"y_beat":   beat,
			})
		if res.Error != nil {
			return fmt.Errorf("save label: %w", res.Error)
		}
		return nil
	})
}

func toSignalModel(s *models.TradingSignal) (*SignalModel, error) {
	feats, err := json.Marshal(s.Features)
	if err != nil {
		return nil, fmt.Errorf("marshal features: %w", err)
	}
	return &SignalModel{
		ID:         s.ID,
		Symbol:     s.Symbol,
		T:          s.T,
		Features:   string(feats),
		YRet1d:     s.YRet1d,
		YBeat:      s.YBeat,
		Confidence: s.Confidence,
	}, nil
}

func toSignals(rows []SignalModel) ([]models.TradingSignal, error) {
	out := make([]models.TradingSignal, 0, len(rows))
	for _, row := range rows {
		feats := map[string]float64{}
		if row.Features != "" {
			if err := json.Unmarshal([]byte(row.Features), &feats); err != nil {
				return nil, fmt.Errorf("parse features of signal %d: %w", row.ID, err)
			}
		}
		out = append(out, models.TradingSignal{
			ID:         row.ID,
			Symbol:     row.Symbol,
			T:          row.T,
			Features:   feats,
			YRet1d:     row.YRet1d,
			YBeat:      row.YBeat,
			Confidence: row.Confidence,
		})
	}
	return out, nil
}
