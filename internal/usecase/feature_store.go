package usecase

import (
	"context"
	"time"

	"NewsAlpha/internal/domain/models"
	domrepo "NewsAlpha/internal/domain/repository"
	"NewsAlpha/internal/services/features"
	applogger "NewsAlpha/pkg/logger"
)

// FeatureStore freezes per-article feature snapshots at publish time so
// model training never sees information that postdates the article.
type FeatureStore struct {
	snaps domrepo.SnapshotRepository
	l     *applogger.Logger
}

func NewFeatureStore(snaps domrepo.SnapshotRepository, l *applogger.Logger) *FeatureStore {
	return &FeatureStore{snaps: snaps, l: l}
}

// StoreFeatures featurizes the analysis payload and upserts the snapshot
// keyed by article id. Returns false without error when the payload yields
// too few features; thin articles are a normal outcome, not a failure.
func (fs *FeatureStore) StoreFeatures(ctx context.Context, articleID, symbol string, publishedAt time.Time, payload map[string]any) (bool, error) {
	v := features.Featurize(payload)
	if !v.Valid() {
		if fs.l != nil {
			fs.l.Debug("snapshot rejected: insufficient features",
				applogger.String("article_id", articleID),
				applogger.Int("numeric", v.NumericCount()),
			)
		}
		return false, nil
	}

	snap := &models.FeatureSnapshot{
		ArticleID:   articleID,
		Symbol:      symbol,
		PublishedAt: publishedAt,
		Features:    v.AsMap(),
		CreatedAt:   time.Now().UTC(),
	}
	if err := fs.snaps.Upsert(ctx, snap); err != nil {
		return false, err
	}
	return true, nil
}

// GetFeatures returns the frozen mapping for the article, or an empty map
// when no snapshot exists. Callers treat empty as "no prediction possible",
// never as a zero-valued feature vector.
func (fs *FeatureStore) GetFeatures(ctx context.Context, articleID string) (map[string]any, error) {
	snap, err := fs.snaps.Get(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return map[string]any{}, nil
	}
	return snap.Features, nil
}
