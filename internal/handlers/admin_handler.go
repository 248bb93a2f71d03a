package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papertrader/internal/services"
)

// AdminHandler serves operator endpoints for the earnings cache.
type AdminHandler struct {
	earningsService services.EarningsServicer
	auditService    services.AuditServicer
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(earningsService services.EarningsServicer, auditService services.AuditServicer) *AdminHandler {
	return &AdminHandler{earningsService: earningsService, auditService: auditService}
}

// FlushResponse summarizes a forced flush.
type FlushResponse struct {
	Attempted  int   `json:"attempted"`
	Written    int   `json:"written"`
	Failed     int   `json:"failed"`
	Skipped    int   `json:"skipped"`
	DurationMS int64 `json:"duration_ms"`
}

// ForceFlush writes every pending earnings change now
// @Summary     Force leaderboard sync
// @Description Flush all dirty earnings records to the leaderboard store and wait for the result.
// @Tags        admin
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} FlushResponse "All records written"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     503 {object} ErrorResponse "Some records could not be written"
// @Router      /admin/earnings/flush [post]
func (h *AdminHandler) ForceFlush(c *gin.Context) {
	res, err := h.earningsService.Flush(c.Request.Context())

	h.auditService.Log(actorID(c), "FORCE_FLUSH", "leaderboard", "", c.ClientIP(), map[string]interface{}{
		"attempted": res.Attempted,
		"written":   res.Written,
		"failed":    res.Failed,
		"skipped":   res.Skipped,
	})

	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, FlushResponse{
		Attempted:  res.Attempted,
		Written:    res.Written,
		Failed:     res.Failed,
		Skipped:    res.Skipped,
		DurationMS: res.Duration.Milliseconds(),
	})
}

// GetStats reports earnings cache health
// @Summary     Earnings cache stats
// @Tags        admin
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} earnings.Stats "Cache stats"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /admin/earnings/stats [get]
func (h *AdminHandler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.earningsService.Stats())
}

// GetUserEarnings returns any trader's live earnings
// @Summary     Get a trader's earnings
// @Tags        admin
// @Produce     json
// @Security    ApiKeyAuth
// @Param       user_id path string true "User ID"
// @Success     200 {object} earnings.Record "Live earnings"
// @Failure     400 {object} ErrorResponse "Invalid user id"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /admin/earnings/users/{user_id} [get]
func (h *AdminHandler) GetUserEarnings(c *gin.Context) {
	userID, err := parsePathUserID(c, "user_id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rec, err := h.earningsService.GetUserEarnings(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

