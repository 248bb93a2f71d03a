package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papertrader/internal/earnings"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/logger"
	"papertrader/internal/services"
)

// PipelineHandler accepts settlement and valuation events from the trade
// pipeline.
type PipelineHandler struct {
	earningsService services.EarningsServicer
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(earningsService services.EarningsServicer) *PipelineHandler {
	return &PipelineHandler{earningsService: earningsService}
}

// Settlement is one realized profit (positive) or loss (negative).
type Settlement struct {
	TradeID string   `json:"trade_id" binding:"max=64"`
	UserID  string   `json:"user_id" binding:"required,uuid"`
	Amount  *float64 `json:"amount" binding:"required,finite"`
}

// SettlementsRequest is a batch of settlements.
type SettlementsRequest struct {
	Settlements []Settlement `json:"settlements" binding:"required,min=1,max=500,dive"`
}

// Valuation is a mark-to-market portfolio value.
type Valuation struct {
	UserID         string   `json:"user_id" binding:"required,uuid"`
	PortfolioValue *float64 `json:"portfolio_value" binding:"required,finite,gte=0"`
}

// ValuationsRequest is a batch of valuations.
type ValuationsRequest struct {
	Valuations []Valuation `json:"valuations" binding:"required,min=1,max=500,dive"`
}

// ItemResult reports the outcome of one batch item. Items are applied
// independently; one failure does not affect the others.
type ItemResult struct {
	UserID  string           `json:"user_id"`
	TradeID string           `json:"trade_id,omitempty"`
	Record  *earnings.Record `json:"record,omitempty"`
	Error   *ErrorDetail     `json:"error,omitempty"`
}

// BatchResponse summarizes a pipeline batch.
type BatchResponse struct {
	Applied int          `json:"applied"`
	Failed  int          `json:"failed"`
	Results []ItemResult `json:"results"`
}

// ApplySettlements records realized P&L
// @Summary     Apply settlements
// @Description Apply realized profit/loss deltas to traders' day, month and overall earnings.
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body SettlementsRequest true "Settlement batch"
// @Success     200 {object} BatchResponse "Per-item results"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /pipeline/settlements [post]
func (h *PipelineHandler) ApplySettlements(c *gin.Context) {
	var req SettlementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp := BatchResponse{Results: make([]ItemResult, 0, len(req.Settlements))}
	for _, s := range req.Settlements {
		item := ItemResult{UserID: s.UserID, TradeID: s.TradeID}
		rec, err := h.earningsService.ApplySettlement(c.Request.Context(), s.UserID, *s.Amount)
		if err != nil {
			logger.Get().Warnw("settlement rejected", "user_id", s.UserID, "trade_id", s.TradeID, "error", err)
			item.Error = errorDetail(err)
			resp.Failed++
		} else {
			item.Record = rec
			resp.Applied++
		}
		resp.Results = append(resp.Results, item)
	}

	c.JSON(http.StatusOK, resp)
}

// ApplyValuations records portfolio values
// @Summary     Apply valuations
// @Description Record mark-to-market portfolio values; the previous value is kept as last_portfolio_value.
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body ValuationsRequest true "Valuation batch"
// @Success     200 {object} BatchResponse "Per-item results"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /pipeline/valuations [post]
func (h *PipelineHandler) ApplyValuations(c *gin.Context) {
	var req ValuationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp := BatchResponse{Results: make([]ItemResult, 0, len(req.Valuations))}
	for _, v := range req.Valuations {
		item := ItemResult{UserID: v.UserID}
		rec, err := h.earningsService.UpdatePortfolioValue(c.Request.Context(), v.UserID, *v.PortfolioValue)
		if err != nil {
			item.Error = errorDetail(err)
			resp.Failed++
		} else {
			item.Record = rec
			resp.Applied++
		}
		resp.Results = append(resp.Results, item)
	}

	c.JSON(http.StatusOK, resp)
}
