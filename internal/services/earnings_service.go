package services

import (
	"context"
	"errors"

	"papertrader/internal/earnings"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/models"
)

// UserLookup resolves a user by id.
type UserLookup interface {
	GetUserByID(id string) (*models.User, error)
}

// earningsService fronts the live earnings cache. Writes for users the cache
// has not seen yet are accepted only for registered users.
type earningsService struct {
	cache EarningsCache
	users UserLookup
}

// NewEarningsService creates a new EarningsServicer.
func NewEarningsService(cache EarningsCache, users UserLookup) EarningsServicer {
	return &earningsService{cache: cache, users: users}
}

// ApplySettlement adds a realized profit or loss to the user's earnings.
func (s *earningsService) ApplySettlement(_ context.Context, userID string, amount float64) (*earnings.Record, error) {
	if err := s.ensureTracked(userID); err != nil {
		return nil, err
	}
	rec, err := s.cache.UpdateEarnings(userID, amount)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// UpdatePortfolioValue records a new mark-to-market valuation.
func (s *earningsService) UpdatePortfolioValue(_ context.Context, userID string, value float64) (*earnings.Record, error) {
	if err := s.ensureTracked(userID); err != nil {
		return nil, err
	}
	rec, err := s.cache.SetPortfolioValue(userID, value)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetUserEarnings returns the user's live earnings. A registered user with
// no record yet gets a zeroed one.
func (s *earningsService) GetUserEarnings(_ context.Context, userID string) (*earnings.Record, error) {
	if err := s.ensureTracked(userID); err != nil {
		return nil, err
	}
	rec, err := s.cache.GetEarnings(userID)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Flush forces every pending earnings change to the leaderboard store. The
// result is returned even when err is non-nil.
func (s *earningsService) Flush(ctx context.Context) (*earnings.FlushResult, error) {
	res, err := s.cache.ForceUpdateDatabase(ctx)
	return &res, err
}

// Stats reports cache health.
func (s *earningsService) Stats() earnings.Stats {
	return s.cache.Stats()
}

func (s *earningsService) ensureTracked(userID string) error {
	if userID == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "user id is required")
	}

	_, err := s.cache.GetEarnings(userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, apperrors.ErrEarningsNotFound) {
		return err
	}

	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	s.cache.AddUser(user.ID, user.UserName)
	return nil
}
