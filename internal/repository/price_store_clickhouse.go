package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"NewsAlpha/internal/domain/models"
	domrepo "NewsAlpha/internal/domain/repository"
	"NewsAlpha/pkg/clickhouse"
)

// PriceBarSchema creates the daily-bar archive table.
var PriceBarSchema = []string{
	`CREATE TABLE IF NOT EXISTS daily_bars (
		symbol      LowCardinality(String),
		date        Date,
		close       Float64,
		dividend    Float64,
		split_coeff Float64
	) ENGINE = ReplacingMergeTree()
	ORDER BY (symbol, date)`,
}

// priceStore archives raw daily bars in ClickHouse. Adjusted closes are
// recomputed on read, never stored; a late split or dividend would
// invalidate every stored value before it.
type priceStore struct {
	client *clickhouse.Client
}

func NewPriceStore(client *clickhouse.Client) domrepo.PriceStore {
	return &priceStore{client: client}
}

func (s *priceStore) GetSeries(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	rows, err := s.client.DB().QueryContext(ctx, `
		SELECT date, close, dividend, split_coeff
		FROM daily_bars FINAL
		WHERE symbol = ?
		ORDER BY date ASC`, symbol)
	if err != nil {
		return nil, fmt.Errorf("query daily bars: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		var d time.Time
		if err := rows.Scan(&d, &b.Close, &b.Dividend, &b.SplitCoeff); err != nil {
			return nil, fmt.Errorf("scan daily bar: %w", err)
		}
		b.Date = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate daily bars: %w", err)
	}
	return bars, nil
}

func (s *priceStore) StoreBars(ctx context.Context, symbol string, bars []models.PriceBar) error {
	if len(bars) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO daily_bars (symbol, date, close, dividend, split_coeff) VALUES ")
	args := make([]interface{}, 0, len(bars)*5)
	for i, b := range bars {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, symbol, b.Date, b.Close, b.Dividend, b.SplitCoeff)
	}

	if _, err := s.client.DB().ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert daily bars: %w", err)
	}
	return nil
}

func (s *priceStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}
