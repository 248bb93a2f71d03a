package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "papertrader/internal/errors"
	"papertrader/internal/pagination"
	"papertrader/internal/store"
)

type mockLeaderboardService struct {
	getLeaderboardFn func(ctx context.Context, period string, page pagination.PageRequest) (*pagination.PageResponse[store.Standing], error)
}

func (m *mockLeaderboardService) GetLeaderboard(ctx context.Context, period string, page pagination.PageRequest) (*pagination.PageResponse[store.Standing], error) {
	if m.getLeaderboardFn != nil {
		return m.getLeaderboardFn(ctx, period, page)
	}
	resp := pagination.NewPageResponse[store.Standing](nil, 1, 20, 0)
	return &resp, nil
}

func setupLeaderboardRouter(svc *mockLeaderboardService) *gin.Engine {
	r := gin.New()
	r.GET("/leaderboard", NewLeaderboardHandler(svc).GetLeaderboard)
	return r
}

func TestLeaderboardHandler_GetLeaderboard(t *testing.T) {
	t.Run("passes query through", func(t *testing.T) {
		var gotPeriod string
		var gotPage pagination.PageRequest
		svc := &mockLeaderboardService{
			getLeaderboardFn: func(_ context.Context, period string, page pagination.PageRequest) (*pagination.PageResponse[store.Standing], error) {
				gotPeriod, gotPage = period, page
				resp := pagination.NewPageResponse([]store.Standing{
					{Rank: 3, UserID: testUserID, UserName: "alice", Earning: 950},
				}, page.Page, page.PageSize, 3)
				return &resp, nil
			},
		}

		rec := doRequest(setupLeaderboardRouter(svc), http.MethodGet, "/leaderboard?period=day&page=3&page_size=1", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotPeriod != "day" || gotPage.Page != 3 || gotPage.PageSize != 1 {
			t.Errorf("unexpected service args period=%q page=%+v", gotPeriod, gotPage)
		}
		body := parseJSON(t, rec)
		data, _ := body["data"].([]interface{})
		if len(data) != 1 {
			t.Fatalf("expected 1 standing, got %v", body)
		}
		first, _ := data[0].(map[string]interface{})
		if first["rank"] != 3.0 || first["earning"] != 950.0 {
			t.Errorf("unexpected standing %v", first)
		}
	})

	t.Run("returns 400 on unknown period", func(t *testing.T) {
		rec := doRequest(setupLeaderboardRouter(&mockLeaderboardService{}), http.MethodGet, "/leaderboard?period=week", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on oversized page", func(t *testing.T) {
		rec := doRequest(setupLeaderboardRouter(&mockLeaderboardService{}), http.MethodGet, "/leaderboard?page_size=1000", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 503 when store is down", func(t *testing.T) {
		svc := &mockLeaderboardService{
			getLeaderboardFn: func(_ context.Context, _ string, _ pagination.PageRequest) (*pagination.PageResponse[store.Standing], error) {
				return nil, apperrors.ErrPersistenceFailure
			},
		}

		rec := doRequest(setupLeaderboardRouter(svc), http.MethodGet, "/leaderboard", "")

		if rec.Code != http.StatusServiceUnavailable {
			t.Fatalf("expected 503, got %d", rec.Code)
		}
	})
}
