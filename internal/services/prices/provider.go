package prices

import (
	"context"
	"errors"
	"fmt"
	"time"

	"NewsAlpha/internal/domain/models"
	domrepo "NewsAlpha/internal/domain/repository"
	"NewsAlpha/internal/services/pricing"
	"NewsAlpha/pkg/cache"
	applogger "NewsAlpha/pkg/logger"
)

const defaultHistoryYears = 5

// ProviderConfig tunes the adjusted-series provider.
type ProviderConfig struct {
	CacheTTL     time.Duration
	HistoryYears int
}

// Provider serves adjusted price series through a cache, the bar archive,
// and finally the remote feed. The raw bars are the durable record;
// adjusted closes are always recomputed from them on a cache miss.
type Provider struct {
	store  domrepo.PriceStore
	feed   domrepo.PriceFeed
	engine *pricing.Engine
	cache  cache.Service
	cfg    ProviderConfig
	l      *applogger.Logger
}

func NewProvider(
	store domrepo.PriceStore,
	feed domrepo.PriceFeed,
	engine *pricing.Engine,
	c cache.Service,
	cfg ProviderConfig,
	l *applogger.Logger,
) *Provider {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 15 * time.Minute
	}
	if cfg.HistoryYears <= 0 {
		cfg.HistoryYears = defaultHistoryYears
	}
	return &Provider{store: store, feed: feed, engine: engine, cache: c, cfg: cfg, l: l}
}

func seriesCacheKey(symbol string) string {
	return cache.GenerateKey("prices:adjusted", symbol)
}

// AdjustedSeries returns the symbol's full adjusted series.
func (p *Provider) AdjustedSeries(ctx context.Context, symbol string) (*models.PriceSeries, error) {
	if p.cache != nil {
		var cached models.PriceSeries
		err := p.cache.Get(ctx, seriesCacheKey(symbol), &cached)
		if err == nil && len(cached.Bars) > 0 {
			return &cached, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) && p.l != nil {
			p.l.Warn("price cache read failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}

	bars, err := p.rawBars(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no price history for %s", models.ErrDataUnavailable, symbol)
	}

	adjusted, err := p.engine.AdjustSeries(bars)
	if err != nil {
		return nil, fmt.Errorf("adjust %s: %w", symbol, err)
	}
	series := &models.PriceSeries{Symbol: symbol, Bars: adjusted}

	if p.cache != nil {
		if err := p.cache.Set(ctx, seriesCacheKey(symbol), series, p.cfg.CacheTTL); err != nil && p.l != nil {
			p.l.Warn("price cache write failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
	}
	return series, nil
}

// rawBars reads the archive and tops it up from the remote feed when the
// newest archived bar is behind the previous UTC day.
func (p *Provider) rawBars(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	bars, err := p.store.GetSeries(ctx, symbol)
	if err != nil {
		if p.l != nil {
			p.l.Warn("bar archive read failed, falling back to feed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		bars = nil
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var from time.Time
	switch {
	case len(bars) == 0:
		from = today.AddDate(-p.cfg.HistoryYears, 0, 0)
	case bars[len(bars)-1].Date.Before(today.AddDate(0, 0, -1)):
		from = bars[len(bars)-1].Date.AddDate(0, 0, 1)
	default:
		return bars, nil
	}

	fresh, err := p.feed.FetchDaily(ctx, symbol, from, today)
	if err != nil {
		if len(bars) > 0 {
			// Serve the archive as-is; the labeler skips rows whose
			// window the stale history cannot cover.
			if p.l != nil {
				p.l.Warn("feed refresh failed, serving archived bars",
					applogger.String("symbol", symbol),
					applogger.Error(err),
				)
			}
			return bars, nil
		}
		return nil, err
	}

	if len(fresh) > 0 {
		if err := p.store.StoreBars(ctx, symbol, fresh); err != nil && p.l != nil {
			p.l.Warn("bar archive write failed",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		bars = append(bars, fresh...)
	}
	return bars, nil
}
