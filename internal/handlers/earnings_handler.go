package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papertrader/internal/services"
)

// EarningsHandler serves a trader's own live earnings.
type EarningsHandler struct {
	earningsService services.EarningsServicer
}

// NewEarningsHandler creates a new EarningsHandler.
func NewEarningsHandler(earningsService services.EarningsServicer) *EarningsHandler {
	return &EarningsHandler{earningsService: earningsService}
}

// GetMyEarnings returns the caller's earnings
// @Summary     Get my earnings
// @Description Live day, month and all-time earnings for the authenticated trader. Day and month windows reset at IST midnight.
// @Tags        earnings
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} earnings.Record "Live earnings"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "User not found"
// @Router      /earnings/me [get]
func (h *EarningsHandler) GetMyEarnings(c *gin.Context) {
	userID, err := getUserID(c)
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
