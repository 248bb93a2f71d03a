package services

import (
	"context"

	"papertrader/internal/clock"
	"papertrader/internal/pagination"
	"papertrader/internal/store"
)

// leaderboardService ranks users from the durable leaderboard store. Ranks
// trail live earnings by at most one flush interval.
type leaderboardService struct {
	ranker store.Ranker
	clock  clock.Clock
}

// NewLeaderboardService creates a new LeaderboardServicer.
func NewLeaderboardService(ranker store.Ranker, clk clock.Clock) LeaderboardServicer {
	return &leaderboardService{ranker: ranker, clock: clk}
}

// GetLeaderboard returns one page of users ranked by earnings in period.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, period string, page pagination.PageRequest) (*pagination.PageResponse[store.Standing], error) {
	p, err := store.ParsePeriod(period)
	if err != nil {
		return nil, err
	}
	page.Defaults()

	resp, err := s.ranker.Rank(ctx, p, s.clock.Now(), page)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}
