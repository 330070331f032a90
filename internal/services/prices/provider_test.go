package prices

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAlpha/internal/domain/models"
	"NewsAlpha/internal/services/pricing"
	"NewsAlpha/pkg/cache"
)

type fakeStore struct {
	bars     map[string][]models.PriceBar
	stored   int
	readErr  error
	writeErr error
}

func (f *fakeStore) GetSeries(_ context.Context, symbol string) ([]models.PriceBar, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.bars[symbol], nil
}

func (f *fakeStore) StoreBars(_ context.Context, symbol string, bars []models.PriceBar) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.bars[symbol] = append(f.bars[symbol], bars...)
	f.stored += len(bars)
	return nil
}

func (f *fakeStore) Health(context.Context) error { return nil }

type fakeFeed struct {
	bars  []models.PriceBar
	err   error
	calls int
	from  time.Time
}

func (f *fakeFeed) FetchDaily(_ context.Context, _ string, from, _ time.Time) ([]models.PriceBar, error) {
	f.calls++
	f.from = from
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

// jsonCache round-trips values through JSON the way the redis backend does.
type jsonCache struct {
	data map[string][]byte
}

func newJSONCache() *jsonCache { return &jsonCache{data: map[string][]byte{}} }

func (c *jsonCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *jsonCache) Get(_ context.Context, key string, dest interface{}) error {
	b, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(b, dest)
}

func (c *jsonCache) Delete(context.Context, ...string) error          { return nil }
func (c *jsonCache) DeleteByPattern(context.Context, string) error    { return nil }
func (c *jsonCache) Exists(context.Context, ...string) (bool, error)  { return false, nil }
func (c *jsonCache) Increment(context.Context, string) (int64, error) { return 0, nil }

func (c *jsonCache) Expire(context.Context, string, time.Duration) (bool, error) {
	return false, nil
}
func (c *jsonCache) MSet(context.Context, map[string]interface{}, time.Duration) error { return nil }
func (c *jsonCache) MGet(context.Context, ...string) (map[string]string, error) {
	return nil, nil
}
func (c *jsonCache) TryLock(context.Context, string, time.Duration) (bool, error) { return true, nil }
func (c *jsonCache) Unlock(context.Context, string) error                         { return nil }

func dayBars(start string, closes ...float64) []models.PriceBar {
	d, err := time.ParseInLocation("2006-01-02", start, time.UTC)
	if err != nil {
		panic(err)
	}
	out := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		out[i] = models.PriceBar{Date: d.AddDate(0, 0, i), Close: c, SplitCoeff: 1}
	}
	return out
}

func recentBars(n int, base float64) []models.PriceBar {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := make([]models.PriceBar, n)
	for i := 0; i < n; i++ {
		out[i] = models.PriceBar{
			Date:       today.AddDate(0, 0, i-n+1),
			Close:      base + float64(i),
			SplitCoeff: 1,
		}
	}
	return out
}

func newProvider(store *fakeStore, feed *fakeFeed, c cache.Service) *Provider {
	return NewProvider(store, feed, pricing.NewEngine(nil), c, ProviderConfig{
		CacheTTL:     time.Minute,
		HistoryYears: 5,
	}, nil)
}

func TestProviderServesFreshArchiveWithoutFeed(t *testing.T) {
	store := &fakeStore{bars: map[string][]models.PriceBar{"AAPL": recentBars(4, 100)}}
	feed := &fakeFeed{}
	p := newProvider(store, feed, nil)

	series, err := p.AdjustedSeries(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, series.Bars, 4)
	assert.Zero(t, feed.calls, "up-to-date archive must not hit the feed")
	assert.Equal(t, series.Bars[3].Close, series.Bars[3].AdjClose)
}

func TestProviderFetchesFullHistoryWhenArchiveEmpty(t *testing.T) {
	store := &fakeStore{bars: map[string][]models.PriceBar{}}
	feed := &fakeFeed{bars: recentBars(3, 50)}
	p := newProvider(store, feed, nil)

	series, err := p.AdjustedSeries(context.Background(), "TSLA")
	require.NoError(t, err)
	assert.Len(t, series.Bars, 3)
	assert.Equal(t, 1, feed.calls)
	assert.Equal(t, 3, store.stored, "fetched bars must be archived")
}

func TestProviderTopsUpStaleArchive(t *testing.T) {
	old := dayBars("2024-03-04", 100, 101)
	store := &fakeStore{bars: map[string][]models.PriceBar{"AAPL": old}}
	feed := &fakeFeed{bars: recentBars(2, 102)}
	p := newProvider(store, feed, nil)

	series, err := p.AdjustedSeries(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 1, feed.calls)
	assert.Equal(t, time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC), feed.from,
		"refresh starts the day after the newest archived bar")
	assert.Len(t, series.Bars, 4)
}

func TestProviderServesStaleArchiveWhenFeedDown(t *testing.T) {
	store := &fakeStore{bars: map[string][]models.PriceBar{"AAPL": dayBars("2024-03-04", 100, 101)}}
	feed := &fakeFeed{err: models.ErrDataUnavailable}
	p := newProvider(store, feed, nil)

	series, err := p.AdjustedSeries(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, series.Bars, 2)
}

func TestProviderErrsWhenNothingAvailable(t *testing.T) {
	store := &fakeStore{bars: map[string][]models.PriceBar{}}
	feed := &fakeFeed{err: models.ErrDataUnavailable}
	p := newProvider(store, feed, nil)

	_, err := p.AdjustedSeries(context.Background(), "AAPL")
	assert.ErrorIs(t, err, models.ErrDataUnavailable)
}

func TestProviderCachesAdjustedSeries(t *testing.T) {
	store := &fakeStore{bars: map[string][]models.PriceBar{"AAPL": recentBars(3, 100)}}
	feed := &fakeFeed{}
	c := newJSONCache()
	p := newProvider(store, feed, c)
	ctx := context.Background()

	first, err := p.AdjustedSeries(ctx, "AAPL")
	require.NoError(t, err)

	// Break the backends; the second read must come from cache.
	store.readErr = models.ErrDataUnavailable
	feed.err = models.ErrDataUnavailable

	second, err := p.AdjustedSeries(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, len(first.Bars), len(second.Bars))
	assert.Equal(t, first.Bars[0].AdjClose, second.Bars[0].AdjClose)
}

func TestProviderPropagatesIntegrityErrors(t *testing.T) {
	bad := recentBars(2, 100)
	bad[1].Date = bad[0].Date // duplicate date
	store := &fakeStore{bars: map[string][]models.PriceBar{"AAPL": bad}}
	p := newProvider(store, &fakeFeed{}, nil)

	_, err := p.AdjustedSeries(context.Background(), "AAPL")
	assert.ErrorIs(t, err, models.ErrIntegrity)
}
