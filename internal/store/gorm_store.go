package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"papertrader/internal/clock"
	"papertrader/internal/earnings"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/models"
	"papertrader/internal/pagination"
)

// GormStore keeps leaderboard entries in the leaderboard_entries table.
type GormStore struct {
	db *gorm.DB
}

var (
	_ earnings.BatchStore = (*GormStore)(nil)
	_ Ranker              = (*GormStore)(nil)
)

// NewGormStore creates a store over db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

var upsertClause = clause.OnConflict{
	Columns:   []clause.Column{{Name: "user_id"}},
	UpdateAll: true,
}

// Upsert inserts or replaces one user's entry.
func (s *GormStore) Upsert(ctx context.Context, rec earnings.Record) error {
	entry := toEntry(rec)
	if err := s.db.WithContext(ctx).Clauses(upsertClause).Create(&entry).Error; err != nil {
		return fmt.Errorf("upsert leaderboard entry %s: %w", rec.UserID, err)
	}
	return nil
}

// UpsertBatch writes recs in a single transaction; either all rows land or
// none do.
func (s *GormStore) UpsertBatch(ctx context.Context, recs []earnings.Record) error {
	if len(recs) == 0 {
		return nil
	}
	entries := make([]models.LeaderboardEntry, len(recs))
	for i, rec := range recs {
		entries[i] = toEntry(rec)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(upsertClause).Create(&entries).Error; err != nil {
			return fmt.Errorf("upsert %d leaderboard entries: %w", len(entries), err)
		}
		return nil
	})
}

// FetchAll returns every persisted entry.
func (s *GormStore) FetchAll(ctx context.Context) ([]earnings.Record, error) {
	var entries []models.LeaderboardEntry
	if err := s.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("fetch leaderboard entries: %w", err)
	}

	recs := make([]earnings.Record, len(entries))
	for i, e := range entries {
		recs[i] = fromEntry(e)
	}
	return recs, nil
}

type rankRow struct {
	UserID                string
	UserName              string
	Earning               float64
	CurrentPortfolioValue float64
}

// Rank implements Ranker. Ties are broken by user id.
func (s *GormStore) Rank(ctx context.Context, period Period, now time.Time, req pagination.PageRequest) (pagination.PageResponse[Standing], error) {
	req.Defaults()

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.LeaderboardEntry{}).Count(&total).Error; err != nil {
		return pagination.PageResponse[Standing]{}, apperrors.Wrap(apperrors.ErrPersistenceFailure, err)
	}

	query := s.db.WithContext(ctx).Model(&models.LeaderboardEntry{})
	switch period {
	case PeriodDay:
		query = query.Select("user_id, user_name, current_portfolio_value, "+
			"CASE WHEN last_day_reset >= ? THEN day_earning ELSE 0 END AS earning", windowStart(period, now).UTC())
	case PeriodMonth:
		query = query.Select("user_id, user_name, current_portfolio_value, "+
			"CASE WHEN last_month_reset >= ? THEN month_earning ELSE 0 END AS earning", windowStart(period, now).UTC())
	case PeriodOverall:
		query = query.Select("user_id, user_name, current_portfolio_value, overall_earning AS earning")
	default:
		return pagination.PageResponse[Standing]{}, apperrors.ErrInvalidPeriod
	}

	var rows []rankRow
	err := query.
		Order("earning DESC").
		Order("user_id ASC").
		Scopes(pagination.Paginate(req)).
		Scan(&rows).Error
	if err != nil {
		return pagination.PageResponse[Standing]{}, apperrors.Wrap(apperrors.ErrPersistenceFailure, err)
	}

	standings := make([]Standing, len(rows))
	for i, r := range rows {
		standings[i] = Standing{
			Rank:                  int64(req.Offset() + i + 1),
			UserID:                r.UserID,
			UserName:              r.UserName,
			Earning:               r.Earning,
			CurrentPortfolioValue: r.CurrentPortfolioValue,
		}
	}
	return pagination.NewPageResponse(standings, req.Page, req.PageSize, total), nil
}

// Window starts are stored in UTC so they compare correctly as text on
// drivers without a native timestamp type.
func toEntry(rec earnings.Record) models.LeaderboardEntry {
	return models.LeaderboardEntry{
		UserID:                rec.UserID,
		UserName:              rec.UserName,
		DayEarning:            rec.DayEarning,
		MonthEarning:          rec.MonthEarning,
		OverallEarning:        rec.OverallEarning,
		LastDayEarning:        rec.LastDayEarning,
		LastMonthEarning:      rec.LastMonthEarning,
		LastDayReset:          rec.LastDayReset.UTC(),
		LastMonthReset:        rec.LastMonthReset.UTC(),
		CurrentPortfolioValue: rec.CurrentPortfolioValue,
		LastPortfolioValue:    rec.LastPortfolioValue,
	}
}

func fromEntry(e models.LeaderboardEntry) earnings.Record {
	return earnings.Record{
		UserID:                e.UserID,
		UserName:              e.UserName,
		DayEarning:            e.DayEarning,
		MonthEarning:          e.MonthEarning,
		OverallEarning:        e.OverallEarning,
		LastDayEarning:        e.LastDayEarning,
		LastMonthEarning:      e.LastMonthEarning,
		LastDayReset:          e.LastDayReset.In(clock.IST),
		LastMonthReset:        e.LastMonthReset.In(clock.IST),
		CurrentPortfolioValue: e.CurrentPortfolioValue,
		LastPortfolioValue:    e.LastPortfolioValue,
	}
}
