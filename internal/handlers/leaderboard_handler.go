package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/pagination"
	"papertrader/internal/services"
)

// LeaderboardHandler serves ranked earnings.
type LeaderboardHandler struct {
	leaderboardService services.LeaderboardServicer
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(leaderboardService services.LeaderboardServicer) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// LeaderboardQuery holds the leaderboard query string.
type LeaderboardQuery struct {
	pagination.PageRequest
	Period string `form:"period" binding:"leaderboard_period"`
}

// GetLeaderboard lists traders by earnings
// @Summary     Leaderboard
// @Description Traders ranked by earnings for the current IST day, month, or all time. Ranks reflect the last sync and may trail live earnings by one flush interval.
// @Tags        leaderboard
// @Produce     json
// @Param       period    query string false "day, month or overall" default(overall)
// @Param       page      query int    false "Page number" default(1)
// @Param       page_size query int    false "Page size" default(20)
// @Success     200 {object} pagination.PageResponse[store.Standing] "Ranked traders"
// @Failure     400 {object} ErrorResponse "Invalid query"
// @Router      /leaderboard [get]
func (h *LeaderboardHandler) GetLeaderboard(c *gin.Context) {
	var q LeaderboardQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	resp, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), q.Period, q.PageRequest)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
