package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papertrader/internal/pagination"
)

func TestRedisStore_WindowKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	s := NewRedisStore(rdb, "lb")

	rec := record("alice", now, 15, 40, 900)
	require.NoError(t, s.Upsert(context.Background(), rec))

	assert.True(t, mr.Exists("lb:records"))
	score, err := mr.ZScore("lb:day:2024-03-10", rec.UserID)
	require.NoError(t, err)
	assert.Equal(t, 15.0, score)

	score, err = mr.ZScore("lb:month:2024-03", rec.UserID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, score)

	assert.Equal(t, dayWindowTTL, mr.TTL("lb:day:2024-03-10"))
	assert.Equal(t, monthWindowTTL, mr.TTL("lb:month:2024-03"))
}

func TestRedisStore_DayKeyUsesIST(t *testing.T) {
	s := NewRedisStore(nil, "")
	// 20:00 UTC on the 9th is 01:30 IST on the 10th.
	at := time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "leaderboard:day:2024-03-10", s.dayKey(at))
	assert.Equal(t, "leaderboard:month:2024-03", s.monthKey(at))
}

func TestRedisStore_RankLeavesNoTemporaryKeys(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	s := NewRedisStore(rdb, "")

	require.NoError(t, s.Upsert(context.Background(), record("alice", now, 1, 1, 1)))
	before := len(mr.Keys())

	_, err := s.Rank(context.Background(), PeriodDay, now, pagination.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, mr.Keys(), before)
}

func TestRedisStore_Unavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer rdb.Close()
	s := NewRedisStore(rdb, "")
	mr.Close()

	ctx := context.Background()
	require.Error(t, s.Upsert(ctx, record("alice", now, 1, 1, 1)))
	require.Error(t, s.Ping(ctx))

	_, err := s.FetchAll(ctx)
	require.Error(t, err)
}
