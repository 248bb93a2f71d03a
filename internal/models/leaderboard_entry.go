package models

import "time"

// LeaderboardEntry is the persisted copy of a user's earnings record.
// It is written only by the earnings write-behind syncer and read by the
// ranking endpoints.
type LeaderboardEntry struct {
	UserID                string    `gorm:"type:uuid;primaryKey" json:"user_id"`
	UserName              string    `gorm:"not null" json:"user_name"`
	DayEarning            float64   `gorm:"not null;default:0;index" json:"day_earning"`
	MonthEarning          float64   `gorm:"not null;default:0;index" json:"month_earning"`
	OverallEarning        float64   `gorm:"not null;default:0;index" json:"overall_earning"`
	LastDayEarning        float64   `gorm:"not null;default:0" json:"last_day_earning"`
	LastMonthEarning      float64   `gorm:"not null;default:0" json:"last_month_earning"`
	LastDayReset          time.Time `gorm:"not null" json:"last_day_reset"`
	LastMonthReset        time.Time `gorm:"not null" json:"last_month_reset"`
	CurrentPortfolioValue float64   `gorm:"not null;default:0" json:"current_portfolio_value"`
	LastPortfolioValue    float64   `gorm:"not null;default:0" json:"last_portfolio_value"`
	UpdatedAt             time.Time `json:"updated_at"`
}
