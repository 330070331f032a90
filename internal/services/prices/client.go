package prices

import (
	"context"
	"fmt"
	"sort"
	"time"

	"NewsAlpha/internal/domain/models"
	"NewsAlpha/internal/services/ratelimit"
	apphttp "NewsAlpha/pkg/http"
	applogger "NewsAlpha/pkg/logger"
)

const (
	maxAttempts    = 3
	initialBackoff = 500 * time.Millisecond
	limiterKey     = "price_feed"
)

// ClientConfig configures the remote daily-bar collaborator.
type ClientConfig struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	RateCapacity float64 // burst tokens
	RatePerSec   float64 // sustained requests per second
}

// Client fetches daily bars from the price collaborator with bounded retry
// and a local token bucket, so quota errors stay out of the core pipeline.
type Client struct {
	http    *apphttp.Client
	limiter *ratelimit.Limiter
	cfg     ClientConfig
	l       *applogger.Logger
}

func NewClient(cfg ClientConfig, limiter *ratelimit.Limiter, l *applogger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RateCapacity <= 0 {
		cfg.RateCapacity = 5
	}
	if cfg.RatePerSec <= 0 {
		cfg.RatePerSec = 1
	}
	return &Client{
		http:    apphttp.NewClient(apphttp.WithTimeout(cfg.Timeout)),
		limiter: limiter,
		cfg:     cfg,
		l:       l,
	}
}

type dailyBarDTO struct {
	Date       string  `json:"date"`
	Close      float64 `json:"close"`
	Dividend   float64 `json:"dividend"`
	SplitCoeff float64 `json:"split_coeff"`
}

type dailyBarsResponse struct {
	Symbol string        `json:"symbol"`
	Bars   []dailyBarDTO `json:"bars"`
}

// FetchDaily returns the symbol's daily bars in [from, to], ascending by date.
func (c *Client) FetchDaily(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	if !c.limiter.Allow(limiterKey, c.cfg.RateCapacity, c.cfg.RatePerSec) {
		return nil, fmt.Errorf("%w: price feed rate limited", models.ErrDataUnavailable)
	}

	opts := &apphttp.RequestOptions{
		Method: apphttp.MethodGet,
		URL:    c.cfg.BaseURL + "/v1/daily",
		QueryParams: map[string][]string{
			"symbol": {symbol},
			"from":   {from.Format("2006-01-02")},
			"to":     {to.Format("2006-01-02")},
			"apikey": {c.cfg.APIKey},
		},
	}

	var resp dailyBarsResponse
	var lastErr error
	backoff := initialBackoff
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = c.http.SendAndParse(ctx, opts, &resp)
		if lastErr == nil {
			break
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if c.l != nil {
			c.l.Warn("price feed request failed",
				applogger.String("symbol", symbol),
				applogger.Int("attempt", attempt),
				applogger.Error(lastErr),
			)
		}
		if attempt < maxAttempts {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDataUnavailable, lastErr)
	}

	bars := make([]models.PriceBar, 0, len(resp.Bars))
	for _, dto := range resp.Bars {
		d, err := time.ParseInLocation("2006-01-02", dto.Date, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("parse bar date %q: %w", dto.Date, err)
		}
		split := dto.SplitCoeff
		if split == 0 {
			split = 1
		}
		bars = append(bars, models.PriceBar{
			Date:       d,
			Close:      dto.Close,
			Dividend:   dto.Dividend,
			SplitCoeff: split,
		})
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })
	return bars, nil
}
