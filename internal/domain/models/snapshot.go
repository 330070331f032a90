package models

import "time"

// FeatureSnapshot freezes an article's feature vector at publish time.
// Write-once per article id: a later write with the same id replaces the
// whole row, never a partial merge, so no information recorded after
// publish can leak into the stored features.
type FeatureSnapshot struct {
	ArticleID   string         `json:"article_id"`
	Symbol      string         `json:"symbol"`
	PublishedAt time.Time      `json:"published_at"`
	Features    map[string]any `json:"features"`
	CreatedAt   time.Time      `json:"created_at"`
}
