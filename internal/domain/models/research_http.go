package models

// Requests for research HTTP endpoints. Defined in domain for consistency and reuse.

type PredictRequest struct {
	Symbol  string         `json:"symbol" validate:"required"`
	Payload map[string]any `json:"payload" validate:"required"`
}

type FeedbackRequest struct {
	Payload map[string]any `json:"payload" validate:"required"`
	Label   *int           `json:"label" validate:"required,oneof=0 1"`
}

type StoreFeaturesRequest struct {
	ArticleID   string         `json:"article_id" validate:"required"`
	Symbol      string         `json:"symbol" validate:"required"`
	PublishedAt string         `json:"published_at" validate:"required"`
	Payload     map[string]any `json:"payload" validate:"required"`
}

type StoreFeaturesResponse struct {
	Stored bool `json:"stored"`
}

type BacktestRequest struct {
	Symbol     string   `json:"symbol" validate:"required"`
	EventDates []string `json:"event_dates" validate:"required,min=1,dive,required"`
	Windows    []int    `json:"windows" validate:"omitempty,dive,gte=1,lte=60"`
}

type TrainRequest struct {
	MinSamples int `json:"min_samples" default:"50" validate:"gte=1"`
}
