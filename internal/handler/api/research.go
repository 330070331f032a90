package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"NewsAlpha/internal/domain/models"
	"NewsAlpha/internal/usecase"
	apphttp "NewsAlpha/pkg/http"
	applogger "NewsAlpha/pkg/logger"
)

// ResearchHandler exposes the signal research pipeline over HTTP.
type ResearchHandler struct {
	predictor  *usecase.Predictor
	features   *usecase.FeatureStore
	backtester *usecase.Backtester
	labeler    *usecase.Labeler
	trainer    *usecase.Trainer
	l          *applogger.Logger
}

func NewResearchHandler(
	predictor *usecase.Predictor,
	features *usecase.FeatureStore,
	backtester *usecase.Backtester,
	labeler *usecase.Labeler,
	trainer *usecase.Trainer,
	l *applogger.Logger,
) *ResearchHandler {
	return &ResearchHandler{
		predictor:  predictor,
		features:   features,
		backtester: backtester,
		labeler:    labeler,
		trainer:    trainer,
		l:          l,
	}
}

// RegisterRoutes registers research endpoints on the Echo instance.
func (h *ResearchHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")

	g.POST("/predict", h.Predict)
	g.POST("/feedback", h.Feedback)
	g.POST("/features", h.StoreFeatures)
	g.GET("/features/:article_id", h.GetFeatures)
	g.POST("/backtest", h.Backtest)
	g.POST("/train", h.Train)
	g.POST("/labels/run", h.RunLabels)
	g.GET("/model/metrics", h.ModelHealth)
}

// Predict scores an analysis payload against the active model.
func (h *ResearchHandler) Predict(c echo.Context) error {
	req := new(models.PredictRequest)
	if errs := apphttp.ReadAndValidateRequest(c, req); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	pred, err := h.predictor.Predict(c.Request().Context(), req.Payload)
	if errors.Is(err, usecase.ErrInsufficientFeatures) {
		return apphttp.AppErrorResponse(c, apphttp.BadRequestError("payload does not contain enough features"))
	}
	if err != nil {
		h.l.Error("predict failed",
			applogger.String("symbol", req.Symbol),
			applogger.Error(err),
		)
		return apphttp.InternalServerErrorResponse(c)
	}
	h.l.Debug("signal scored",
		applogger.String("symbol", req.Symbol),
		applogger.Float64("probability", pred.Probability),
		applogger.String("confidence", pred.Confidence),
	)
	return apphttp.SuccessResponse(c, pred)
}

// Feedback applies one human-labeled outcome to the online model.
func (h *ResearchHandler) Feedback(c echo.Context) error {
	req := new(models.FeedbackRequest)
	if errs := apphttp.ReadAndValidateRequest(c, req); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	pred, err := h.predictor.Feedback(c.Request().Context(), req.Payload, *req.Label)
	if errors.Is(err, usecase.ErrInsufficientFeatures) {
		return apphttp.AppErrorResponse(c, apphttp.BadRequestError("payload does not contain enough features"))
	}
	if err != nil {
		h.l.Error("feedback failed", applogger.Error(err))
		return apphttp.InternalServerErrorResponse(c)
	}
	return apphttp.SuccessResponse(c, pred)
}

// StoreFeatures freezes a publish-time feature snapshot for an article.
func (h *ResearchHandler) StoreFeatures(c echo.Context) error {
	req := new(models.StoreFeaturesRequest)
	if errs := apphttp.ReadAndValidateRequest(c, req); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	publishedAt, ok := apphttp.ParseTime(req.PublishedAt)
	if !ok {
		return apphttp.AppErrorResponse(c, apphttp.BadRequestError("published_at must be RFC3339 or unix seconds"))
	}

	stored, err := h.features.StoreFeatures(c.Request().Context(), req.ArticleID, req.Symbol, publishedAt, req.Payload)
	if err != nil {
		h.l.Error("store features failed",
			applogger.String("article_id", req.ArticleID),
			applogger.Error(err),
		)
		return apphttp.InternalServerErrorResponse(c)
	}
	if !stored {
		return apphttp.SuccessResponse(c, models.StoreFeaturesResponse{Stored: false})
	}
	return apphttp.CreatedResponse(c, models.StoreFeaturesResponse{Stored: true})
}

// GetFeatures returns the frozen feature snapshot for an article.
func (h *ResearchHandler) GetFeatures(c echo.Context) error {
	articleID := c.Param("article_id")
	if articleID == "" {
		return apphttp.AppErrorResponse(c, apphttp.BadRequestError("article_id is required"))
	}

	feats, err := h.features.GetFeatures(c.Request().Context(), articleID)
	if err != nil {
		h.l.Error("get features failed",
			applogger.String("article_id", articleID),
			applogger.Error(err),
		)
		return apphttp.InternalServerErrorResponse(c)
	}
	return apphttp.SuccessResponse(c, feats)
}

// Backtest runs an event study over the symbol's adjusted history.
func (h *ResearchHandler) Backtest(c echo.Context) error {
	req := new(models.BacktestRequest)
	if errs := apphttp.ReadAndValidateRequest(c, req); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	res, err := h.backtester.Run(c.Request().Context(), req.Symbol, req.EventDates, req.Windows)
	if err != nil {
		if errors.Is(err, models.ErrDataUnavailable) {
			return apphttp.AppErrorResponse(c,
				apphttp.NotFoundErrorf("no price history for %s", req.Symbol))
		}
		if errors.Is(err, models.ErrIntegrity) {
			h.l.Error("backtest integrity failure",
				applogger.String("symbol", req.Symbol),
				applogger.Error(err),
			)
			return apphttp.InternalServerErrorResponse(c)
		}
		return apphttp.AppErrorResponse(c, apphttp.BadRequestError(err.Error()))
	}
	return apphttp.SuccessResponse(c, res)
}

// Train triggers a batch training run.
func (h *ResearchHandler) Train(c echo.Context) error {
	req := new(models.TrainRequest)
	if errs := apphttp.ReadAndValidateRequest(c, req); errs != nil {
		return apphttp.BadRequestResponse(c, errs)
	}

	run, err := h.trainer.Train(c.Request().Context(), req.MinSamples)
	if err != nil {
		h.l.Error("training failed", applogger.Error(err))
		return apphttp.InternalServerErrorResponse(c)
	}
	if run == nil {
		return apphttp.DataResponse(c, http.StatusAccepted, echo.Map{
			"trained": false,
			"reason":  "not enough labeled signals",
		})
	}
	return apphttp.SuccessResponse(c, run)
}

// RunLabels triggers a labeling pass over pending signals.
func (h *ResearchHandler) RunLabels(c echo.Context) error {
	labeled, skipped, err := h.labeler.Run(c.Request().Context())
	if err != nil && labeled == 0 && skipped == 0 {
		h.l.Error("labeling run failed", applogger.Error(err))
		return apphttp.InternalServerErrorResponse(c)
	}

	resp := echo.Map{"labeled": labeled, "skipped": skipped}
	if err != nil {
		// partial success: some symbols had malformed price history
		resp["warning"] = err.Error()
	}
	return apphttp.SuccessResponse(c, resp)
}

// ModelHealth reports the online learner's rolling metrics.
func (h *ResearchHandler) ModelHealth(c echo.Context) error {
	return apphttp.SuccessResponse(c, h.predictor.ModelHealth())
}
