package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"papertrader/internal/clock"
	"papertrader/internal/earnings"
	apperrors "papertrader/internal/errors"
	"papertrader/internal/pagination"
	"papertrader/internal/uuid"
)

const (
	defaultKeyPrefix = "leaderboard"

	// Window sets outlive their window so the previous day or month can
	// still be inspected after rollover.
	dayWindowTTL   = 48 * time.Hour
	monthWindowTTL = 62 * 24 * time.Hour
)

// RedisStore keeps each record as a msgpack blob in one hash and ranks users
// with sorted sets: one for all-time earnings and one per IST day and month.
//
// Keys, with the default prefix:
//
//	leaderboard:records            hash   user id -> msgpack record
//	leaderboard:overall            zset   user id -> overall earning
//	leaderboard:day:2024-03-10     zset   user id -> day earning
//	leaderboard:month:2024-03      zset   user id -> month earning
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
}

var (
	_ earnings.BatchStore = (*RedisStore)(nil)
	_ Ranker              = (*RedisStore)(nil)
)

// NewRedisStore creates a store over rdb. An empty prefix uses "leaderboard".
func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

// redisRecord is the msgpack layout of a stored record.
type redisRecord struct {
	UserID                string    `msgpack:"uid"`
	UserName              string    `msgpack:"name"`
	DayEarning            float64   `msgpack:"day"`
	MonthEarning          float64   `msgpack:"month"`
	OverallEarning        float64   `msgpack:"overall"`
	LastDayEarning        float64   `msgpack:"last_day"`
	LastMonthEarning      float64   `msgpack:"last_month"`
	LastDayReset          time.Time `msgpack:"day_reset"`
	LastMonthReset        time.Time `msgpack:"month_reset"`
	CurrentPortfolioValue float64   `msgpack:"pv"`
	LastPortfolioValue    float64   `msgpack:"last_pv"`
}

func (s *RedisStore) recordsKey() string { return s.prefix + ":records" }
func (s *RedisStore) overallKey() string { return s.prefix + ":overall" }

func (s *RedisStore) dayKey(t time.Time) string {
	return s.prefix + ":day:" + t.In(clock.IST).Format("2006-01-02")
}

func (s *RedisStore) monthKey(t time.Time) string {
	return s.prefix + ":month:" + t.In(clock.IST).Format("2006-01")
}

// Upsert implements earnings.Store.
func (s *RedisStore) Upsert(ctx context.Context, rec earnings.Record) error {
	return s.UpsertBatch(ctx, []earnings.Record{rec})
}

// UpsertBatch writes recs in one MULTI/EXEC transaction.
func (s *RedisStore) UpsertBatch(ctx context.Context, recs []earnings.Record) error {
	if len(recs) == 0 {
		return nil
	}

	blobs := make([][]byte, len(recs))
	for i, rec := range recs {
		b, err := msgpack.Marshal(toRedisRecord(rec))
		if err != nil {
			return fmt.Errorf("encode leaderboard record %s: %w", rec.UserID, err)
		}
		blobs[i] = b
	}

	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, rec := range recs {
			pipe.HSet(ctx, s.recordsKey(), rec.UserID, blobs[i])
			pipe.ZAdd(ctx, s.overallKey(), redis.Z{Score: rec.OverallEarning, Member: rec.UserID})

			dk := s.dayKey(rec.LastDayReset)
			pipe.ZAdd(ctx, dk, redis.Z{Score: rec.DayEarning, Member: rec.UserID})
			pipe.Expire(ctx, dk, dayWindowTTL)

			mk := s.monthKey(rec.LastMonthReset)
			pipe.ZAdd(ctx, mk, redis.Z{Score: rec.MonthEarning, Member: rec.UserID})
			pipe.Expire(ctx, mk, monthWindowTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write %d leaderboard records: %w", len(recs), err)
	}
	return nil
}

// FetchAll implements earnings.Store.
func (s *RedisStore) FetchAll(ctx context.Context) ([]earnings.Record, error) {
	raw, err := s.rdb.HGetAll(ctx, s.recordsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch leaderboard records: %w", err)
	}

	recs := make([]earnings.Record, 0, len(raw))
	for id, blob := range raw {
		var rr redisRecord
		if err := msgpack.Unmarshal([]byte(blob), &rr); err != nil {
			return nil, fmt.Errorf("decode leaderboard record %s: %w", id, err)
		}
		recs = append(recs, fromRedisRecord(rr))
	}
	return recs, nil
}

// Rank implements Ranker. Every user in the overall set is ranked; users
// absent from the current day or month set score 0 there.
func (s *RedisStore) Rank(ctx context.Context, period Period, now time.Time, req pagination.PageRequest) (pagination.PageResponse[Standing], error) {
	req.Defaults()
	start, stop := req.Bounds()

	var windowKey string
	switch period {
	case PeriodDay:
		windowKey = s.dayKey(now)
	case PeriodMonth:
		windowKey = s.monthKey(now)
	case PeriodOverall:
	default:
		return pagination.PageResponse[Standing]{}, apperrors.ErrInvalidPeriod
	}

	var (
		totalCmd *redis.IntCmd
		rangeCmd *redis.ZSliceCmd
	)
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		totalCmd = pipe.ZCard(ctx, s.overallKey())
		if windowKey == "" {
			rangeCmd = pipe.ZRevRangeWithScores(ctx, s.overallKey(), start, stop)
			return nil
		}
		tmp := s.prefix + ":rank:" + uuid.New()
		pipe.ZUnionStore(ctx, tmp, &redis.ZStore{
			Keys:      []string{s.overallKey(), windowKey},
			Weights:   []float64{0, 1},
			Aggregate: "SUM",
		})
		rangeCmd = pipe.ZRevRangeWithScores(ctx, tmp, start, stop)
		pipe.Del(ctx, tmp)
		return nil
	})
	if err != nil {
		return pagination.PageResponse[Standing]{}, apperrors.Wrap(apperrors.ErrPersistenceFailure, err)
	}

	zs := rangeCmd.Val()
	standings := make([]Standing, len(zs))
	ids := make([]string, len(zs))
	for i, z := range zs {
		id, _ := z.Member.(string)
		score := z.Score
		if score == 0 {
			// Normalize -0 produced by the zero weight.
			score = 0
		}
		ids[i] = id
		standings[i] = Standing{Rank: start + int64(i) + 1, UserID: id, Earning: score}
	}

	if len(ids) > 0 {
		blobs, err := s.rdb.HMGet(ctx, s.recordsKey(), ids...).Result()
		if err != nil {
			return pagination.PageResponse[Standing]{}, apperrors.Wrap(apperrors.ErrPersistenceFailure, err)
		}
		for i, b := range blobs {
			str, ok := b.(string)
			if !ok {
				continue
			}
			var rr redisRecord
			if err := msgpack.Unmarshal([]byte(str), &rr); err != nil {
				continue
			}
			standings[i].UserName = rr.UserName
			standings[i].CurrentPortfolioValue = rr.CurrentPortfolioValue
		}
	}

	return pagination.NewPageResponse(standings, req.Page, req.PageSize, totalCmd.Val()), nil
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func toRedisRecord(rec earnings.Record) redisRecord {
	return redisRecord{
		UserID:                rec.UserID,
		UserName:              rec.UserName,
		DayEarning:            rec.DayEarning,
		MonthEarning:          rec.MonthEarning,
		OverallEarning:        rec.OverallEarning,
		LastDayEarning:        rec.LastDayEarning,
		LastMonthEarning:      rec.LastMonthEarning,
		LastDayReset:          rec.LastDayReset,
		LastMonthReset:        rec.LastMonthReset,
		CurrentPortfolioValue: rec.CurrentPortfolioValue,
		LastPortfolioValue:    rec.LastPortfolioValue,
	}
}

func fromRedisRecord(rr redisRecord) earnings.Record {
	return earnings.Record{
		UserID:                rr.UserID,
		UserName:              rr.UserName,
		DayEarning:            rr.DayEarning,
		MonthEarning:          rr.MonthEarning,
		OverallEarning:        rr.OverallEarning,
		LastDayEarning:        rr.LastDayEarning,
		LastMonthEarning:      rr.LastMonthEarning,
		LastDayReset:          rr.LastDayReset.In(clock.IST),
		LastMonthReset:        rr.LastMonthReset.In(clock.IST),
		CurrentPortfolioValue: rr.CurrentPortfolioValue,
		LastPortfolioValue:    rr.LastPortfolioValue,
	}
}
