package services

import (
	"context"

	"papertrader/internal/earnings"
	"papertrader/internal/models"
	"papertrader/internal/pagination"
	"papertrader/internal/store"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, userName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
}

// EarningsServicer defines the contract for live earnings reads and writes.
type EarningsServicer interface {
	ApplySettlement(ctx context.Context, userID string, amount float64) (*earnings.Record, error)
	UpdatePortfolioValue(ctx context.Context, userID string, value float64) (*earnings.Record, error)
	GetUserEarnings(ctx context.Context, userID string) (*earnings.Record, error)
	Flush(ctx context.Context) (*earnings.FlushResult, error)
	Stats() earnings.Stats
}

// LeaderboardServicer defines the contract for ranked leaderboard reads.
type LeaderboardServicer interface {
	GetLeaderboard(ctx context.Context, period string, page pagination.PageRequest) (*pagination.PageResponse[store.Standing], error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(actorID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

// EarningsCache is the subset of *earnings.Cache the services depend on.
type EarningsCache interface {
	AddUser(userID, userName string) bool
	UpdateEarnings(userID string, amount float64) (earnings.Record, error)
	GetEarnings(userID string) (earnings.Record, error)
	SetPortfolioValue(userID string, value float64) (earnings.Record, error)
	ForceUpdateDatabase(ctx context.Context) (earnings.FlushResult, error)
	Stats() earnings.Stats
}

// Registrar is notified when a user account is created.
type Registrar interface {
	AddUser(userID, userName string) bool
}
