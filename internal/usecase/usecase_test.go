package usecase

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsAlpha/internal/domain/models"
	"NewsAlpha/internal/services/ml"
)

// --- in-memory fakes ---

type fakeSignalRepo struct {
	rows []models.TradingSignal
}

func (f *fakeSignalRepo) Insert(_ context.Context, s *models.TradingSignal) error {
	s.ID = int64(len(f.rows) + 1)
	f.rows = append(f.rows, *s)
	return nil
}

func (f *fakeSignalRepo) Unlabeled(_ context.Context) ([]models.TradingSignal, error) {
	var out []models.TradingSignal
	for _, r := range f.rows {
		if r.YBeat == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSignalRepo) Labeled(_ context.Context) ([]models.TradingSignal, error) {
	var out []models.TradingSignal
	for _, r := range f.rows {
		if r.YBeat != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSignalRepo) SaveLabel(_ context.Context, id int64, ret1d float64, beat int) error {
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].YBeat == nil {
			f.rows[i].YRet1d = &ret1d
			f.rows[i].YBeat = &beat
		}
	}
	return nil
}

type fakeSnapshotRepo struct {
	byID map[string]*models.FeatureSnapshot
}

func (f *fakeSnapshotRepo) Upsert(_ context.Context, snap *models.FeatureSnapshot) error {
	if f.byID == nil {
		f.byID = map[string]*models.FeatureSnapshot{}
	}
	f.byID[snap.ArticleID] = snap
	return nil
}

func (f *fakeSnapshotRepo) Get(_ context.Context, articleID string) (*models.FeatureSnapshot, error) {
	return f.byID[articleID], nil
}

type fakeModelRunRepo struct {
	runs map[string]*models.ModelRun
}

func (f *fakeModelRunRepo) UpsertByVersion(_ context.Context, run *models.ModelRun) error {
	if f.runs == nil {
		f.runs = map[string]*models.ModelRun{}
	}
	f.runs[run.Version] = run
	return nil
}

func (f *fakeModelRunRepo) Latest(_ context.Context) (*models.ModelRun, error) {
	var latest *models.ModelRun
	for _, r := range f.runs {
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest, nil
}

type fakeProvider struct {
	series map[string]*models.PriceSeries
	err    map[string]error
}

func (f *fakeProvider) AdjustedSeries(_ context.Context, symbol string) (*models.PriceSeries, error) {
	if err := f.err[symbol]; err != nil {
		return nil, err
	}
	s, ok := f.series[symbol]
	if !ok {
		return nil, models.ErrDataUnavailable
	}
	return s, nil
}

type fakePublisher struct {
	published []models.TradingSignal
	fail      bool
}

func (f *fakePublisher) PublishLabeled(_ context.Context, s *models.TradingSignal) error {
	if f.fail {
		return assert.AnError
	}
	f.published = append(f.published, *s)
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type noopMetrics struct {
	skipped map[string]int
	labeled int
}

func (m *noopMetrics) RecordSignalLabeled(string) { m.labeled++ }
func (m *noopMetrics) RecordLabelSkipped(reason string) {
	if m.skipped == nil {
		m.skipped = map[string]int{}
	}
	m.skipped[reason]++
}
func (m *noopMetrics) RecordPrediction(string)       {}
func (m *noopMetrics) RecordOnlineUpdate()           {}
func (m *noopMetrics) RecordTrainingRun(string)      {}
func (m *noopMetrics) RecordError(string)            {}
func (m *noopMetrics) RecordLatency(string, float64) {}

// --- helpers ---

func day(s string) time.Time {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func flatSeries(symbol string, start string, closes ...float64) *models.PriceSeries {
	bars := make([]models.PriceBar, len(closes))
	d := day(start)
	for i, c := range closes {
		bars[i] = models.PriceBar{Date: d.AddDate(0, 0, i), Close: c, SplitCoeff: 1, AdjClose: c}
	}
	return &models.PriceSeries{Symbol: symbol, Bars: bars}
}

func bar(d string, c float64) models.PriceBar {
	return models.PriceBar{Date: day(d), Close: c, SplitCoeff: 1, AdjClose: c}
}

func newOnline(t *testing.T) *ml.OnlineModel {
	t.Helper()
	m, err := ml.NewOnlineModel(filepath.Join(t.TempDir(), "weights.json"), 0.1, nil)
	require.NoError(t, err)
	return m
}

// --- FeatureStore ---

func TestFeatureStoreRejectsThinPayload(t *testing.T) {
	fs := NewFeatureStore(&fakeSnapshotRepo{}, nil)

	ok, err := fs.StoreFeatures(context.Background(), "a1", "AAPL", time.Now(), map[string]any{"rsi14": 60.0})
	require.NoError(t, err)
	assert.False(t, ok, "numeric-only payload must be rejected")

	got, err := fs.GetFeatures(context.Background(), "a1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestFeatureStoreUpsertReplacesWholeSnapshot(t *testing.T) {
	repo := &fakeSnapshotRepo{}
	fs := NewFeatureStore(repo, nil)
	ctx := context.Background()

	ok, err := fs.StoreFeatures(ctx, "a1", "AAPL", time.Now(), map[string]any{
		"rsi14": 60.0, "atr14": 2.0, "sector": "tech",
	})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = fs.StoreFeatures(ctx, "a1", "AAPL", time.Now(), map[string]any{
		"gap_pct": 1.5, "stance": "bullish",
	})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := fs.GetFeatures(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, 1.5, got["gap_pct"])
	assert.NotContains(t, got, "rsi14", "upsert must replace, not merge")
}

// --- Labeler ---

func labelerFixture(t *testing.T) (*fakeSignalRepo, *fakeProvider, *fakePublisher, *noopMetrics, *Labeler) {
	t.Helper()
	signals := &fakeSignalRepo{}
	provider := &fakeProvider{
		series: map[string]*models.PriceSeries{
			"AAPL": flatSeries("AAPL", "2024-03-04", 100, 102, 103, 104),
			"SPY":  flatSeries("SPY", "2024-03-04", 500, 505, 506, 507),
		},
		err: map[string]error{},
	}
	pub := &fakePublisher{}
	metrics := &noopMetrics{}
	lb := NewLabeler(signals, provider, pub, metrics, "SPY", nil)
	return signals, provider, pub, metrics, lb
}

func TestLabelerLabelsAgainstBenchmark(t *testing.T) {
	signals, _, pub, _, lb := labelerFixture(t)
	ctx := context.Background()

	// AAPL +2% vs SPY +1% on 2024-03-04: beat.
	require.NoError(t, signals.Insert(ctx, &models.TradingSignal{
		Symbol: "AAPL", T: day("2024-03-04").Add(15 * time.Hour).UnixMilli(),
	}))

	labeled, skipped, err := lb.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, labeled)
	assert.Zero(t, skipped)

	rows, err := signals.Labeled(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, *rows[0].YBeat)
	assert.InDelta(t, 0.02, *rows[0].YRet1d, 1e-9)

	require.Len(t, pub.published, 1)
	assert.Equal(t, 1, *pub.published[0].YBeat)
}

func TestLabelerSkipsMissingPrices(t *testing.T) {
	signals, _, _, metrics, lb := labelerFixture(t)
	ctx := context.Background()

	// Last day of the series has no next-day close.
	require.NoError(t, signals.Insert(ctx, &models.TradingSignal{
		Symbol: "AAPL", T: day("2024-03-07").UnixMilli(),
	}))

	labeled, skipped, err := lb.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, labeled)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, metrics.skipped["price_missing"])

	rows, err := signals.Unlabeled(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "skipped row stays pending for the next run")
}

func TestLabelerWeekendSignalUsesNextSessionWindow(t *testing.T) {
	signals, provider, _, _, lb := labelerFixture(t)
	ctx := context.Background()

	// Friday, Monday, Tuesday sessions with a weekend gap.
	provider.series["AAPL"] = &models.PriceSeries{Symbol: "AAPL", Bars: []models.PriceBar{
		bar("2024-03-01", 100), bar("2024-03-04", 110), bar("2024-03-05", 111),
	}}
	provider.series["SPY"] = &models.PriceSeries{Symbol: "SPY", Bars: []models.PriceBar{
		bar("2024-03-01", 400), bar("2024-03-04", 410), bar("2024-03-05", 410),
	}}

	// Saturday signal: both calendar days resolve to Monday, so the
	// window must run Monday to Tuesday rather than collapse to zero.
	require.NoError(t, signals.Insert(ctx, &models.TradingSignal{
		Symbol: "AAPL", T: day("2024-03-02").Add(10 * time.Hour).UnixMilli(),
	}))

	labeled, skipped, err := lb.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, labeled)
	assert.Zero(t, skipped)

	rows, err := signals.Labeled(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 111.0/110.0-1, *rows[0].YRet1d, 1e-9)
	assert.Equal(t, 1, *rows[0].YBeat, "AAPL up vs flat SPY over Mon-Tue")
}

func TestLabelerWeekendSignalWithoutNextSessionStaysPending(t *testing.T) {
	signals, provider, _, metrics, lb := labelerFixture(t)
	ctx := context.Background()

	// No session after Monday yet: the weekend window cannot be formed.
	provider.series["AAPL"] = &models.PriceSeries{Symbol: "AAPL", Bars: []models.PriceBar{
		bar("2024-03-01", 100), bar("2024-03-04", 110),
	}}
	provider.series["SPY"] = &models.PriceSeries{Symbol: "SPY", Bars: []models.PriceBar{
		bar("2024-03-01", 400), bar("2024-03-04", 410),
	}}

	require.NoError(t, signals.Insert(ctx, &models.TradingSignal{
		Symbol: "AAPL", T: day("2024-03-02").UnixMilli(),
	}))

	labeled, skipped, err := lb.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, labeled, "zero-width window must never label")
	assert.Equal(t, 1, skipped)
	assert.Equal(t, 1, metrics.skipped["price_missing"])

	rows, err := signals.Unlabeled(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestLabelerReportsIntegrityAfterBatch(t *testing.T) {
	signals, provider, _, _, lb := labelerFixture(t)
	ctx := context.Background()
	provider.err["BAD"] = models.ErrIntegrity

	require.NoError(t, signals.Insert(ctx, &models.TradingSignal{
		Symbol: "BAD", T: day("2024-03-04").UnixMilli(),
	}))
	require.NoError(t, signals.Insert(ctx, &models.TradingSignal{
		Symbol: "AAPL", T: day("2024-03-04").UnixMilli(),
	}))

	labeled, skipped, err := lb.Run(ctx)
	assert.ErrorIs(t, err, models.ErrIntegrity)
	assert.Equal(t, 1, labeled, "good symbol still labeled")
	assert.Equal(t, 1, skipped)
}

func TestLabelerPublishFailureDoesNotFailRun(t *testing.T) {
	signals, _, pub, _, lb := labelerFixture(t)
	ctx := context.Background()
	pub.fail = true

	require.NoError(t, signals.Insert(ctx, &models.TradingSignal{
		Symbol: "AAPL", T: day("2024-03-04").UnixMilli(),
	}))

	labeled, _, err := lb.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, labeled)
}

func TestLabelerSecondRunFindsNothing(t *testing.T) {
	signals, _, _, _, lb := labelerFixture(t)
	ctx := context.Background()

	require.NoError(t, signals.Insert(ctx, &models.TradingSignal{
		Symbol: "AAPL", T: day("2024-03-04").UnixMilli(),
	}))

	_, _, err := lb.Run(ctx)
	require.NoError(t, err)

	labeled, skipped, err := lb.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, labeled)
	assert.Zero(t, skipped)
}

// --- Trainer ---

func TestTrainerSkipsBelowMinimum(t *testing.T) {
	tr := NewTrainer(&fakeSignalRepo{}, &fakeModelRunRepo{}, newOnline(t), &noopMetrics{}, nil)

	run, err := tr.Train(context.Background(), 50)
	require.NoError(t, err)
	assert.Nil(t, run)
}

func TestTrainerFitsAndPublishesWeights(t *testing.T) {
	signals := &fakeSignalRepo{}
	runs := &fakeModelRunRepo{}
	online := newOnline(t)
	ctx := context.Background()

	// Separable on rsi14: high rsi beats, low rsi does not.
	for i := 0; i < 30; i++ {
		beat, miss := 1, 0
		signals.rows = append(signals.rows,
			models.TradingSignal{ID: int64(2*i + 1), Symbol: "AAPL",
				Features: map[string]float64{"rsi14": 70 + float64(i%5)}, YBeat: &beat},
			models.TradingSignal{ID: int64(2*i + 2), Symbol: "AAPL",
				Features: map[string]float64{"rsi14": 30 - float64(i%5)}, YBeat: &miss},
		)
	}

	tr := NewTrainer(signals, runs, online, &noopMetrics{}, nil)
	run, err := tr.Train(ctx, 50)
	require.NoError(t, err)
	require.NotNil(t, run)

	assert.Equal(t, 60, run.Metrics.NRows)
	assert.Equal(t, 1.0, run.Metrics.Accuracy)
	assert.InDelta(t, 0.5, run.Metrics.PosRate, 1e-9)
	assert.Equal(t, "v"+time.Now().UTC().Format("20060102"), run.Version)
	assert.Positive(t, run.Weights["rsi14"])
	assert.Contains(t, run.Weights, ml.BiasKey)

	// The online model now serves the batch weights.
	high := online.PredictProba(map[string]float64{"rsi14": 72})
	low := online.PredictProba(map[string]float64{"rsi14": 28})
	assert.Greater(t, high, low)

	// Same-day retrain replaces the version rather than stacking runs.
	_, err = tr.Train(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, runs.runs, 1)
}

// --- Backtester ---

func TestBacktesterRunsStudy(t *testing.T) {
	provider := &fakeProvider{
		series: map[string]*models.PriceSeries{
			"AAPL": flatSeries("AAPL", "2024-03-04", 100, 101, 102, 103, 104, 105),
		},
	}
	b := NewBacktester(provider, &noopMetrics{}, nil)

	res, err := b.Run(context.Background(), "AAPL", []string{"2024-03-04"}, nil)
	require.NoError(t, err)
	require.Len(t, res.Samples, 1)
	assert.Equal(t, []int{1, 3, 5}, res.Windows)
	assert.Equal(t, 1.0, res.Samples[0].Returns[1])
}

func TestBacktesterRejectsBadDate(t *testing.T) {
	b := NewBacktester(&fakeProvider{}, &noopMetrics{}, nil)

	_, err := b.Run(context.Background(), "AAPL", []string{"03/04/2024"}, nil)
	assert.Error(t, err)
}

// --- Predictor ---

func TestPredictorRejectsThinPayload(t *testing.T) {
	p := NewPredictor(newOnline(t), &noopMetrics{}, nil)

	_, err := p.Predict(context.Background(), map[string]any{"rsi14": 60.0})
	assert.ErrorIs(t, err, ErrInsufficientFeatures)
}

func TestPredictorFeedbackShiftsServing(t *testing.T) {
	p := NewPredictor(newOnline(t), &noopMetrics{}, nil)
	ctx := context.Background()
	payload := map[string]any{"rsi14": 1.2, "gap_pct": 0.5, "stance": "bullish"}

	before, err := p.Predict(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 0.5, before.Probability)
	assert.Equal(t, "Neutral", before.Confidence)

	fb, err := p.Feedback(ctx, payload, 1)
	require.NoError(t, err)
	assert.Greater(t, fb.Probability, before.Probability)
	assert.Equal(t, int64(1), fb.ModelAge)

	after, err := p.Predict(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, fb.Probability, after.Probability)
}
