package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"papertrader/internal/clock"
	"papertrader/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	n := nextID()
	return CreateTestUserWithEmail(t, db, fmt.Sprintf("user%d@test.com", n))
}

// CreateTestUserWithEmail creates a user with the given email. The password is
// always "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		UserName: fmt.Sprintf("trader%d", nextID()),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// LeaderboardEntryOpts overrides fields of a test leaderboard entry. Zero
// windows default to the IST day and month containing At.
type LeaderboardEntryOpts struct {
	At             time.Time
	DayEarning     float64
	MonthEarning   float64
	OverallEarning float64
}

// CreateTestLeaderboardEntry persists a leaderboard row for user.
func CreateTestLeaderboardEntry(t *testing.T, db *gorm.DB, user *models.User, opts LeaderboardEntryOpts) *models.LeaderboardEntry {
	t.Helper()

	at := opts.At
	if at.IsZero() {
		at = time.Now()
	}

	entry := &models.LeaderboardEntry{
		UserID:                user.ID,
		UserName:              user.UserName,
		DayEarning:            opts.DayEarning,
		MonthEarning:          opts.MonthEarning,
		OverallEarning:        opts.OverallEarning,
		LastDayReset:          clock.StartOfDay(at).UTC(),
		LastMonthReset:        clock.StartOfMonth(at).UTC(),
		CurrentPortfolioValue: 100000,
		LastPortfolioValue:    100000,
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create test leaderboard entry: %v", err)
	}
	return entry
}
