package watcher

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// CursorStore persists the last processed block height. The cursor is
// allowed to reset to the current chain height after downtime: events missed
// while the watcher was down are not backfilled by design.
type CursorStore interface {
	Load(ctx context.Context) (height uint64, ok bool, err error)
	Save(ctx context.Context, height uint64) error
}

const redisCursorKey = "chain-watcher:cursor"

// RedisCursorStore keeps the cursor in Redis so a clean restart resumes
// where it left off.
type RedisCursorStore struct {
	rdb *redis.Client
}

func NewRedisCursorStore(rdb *redis.Client) *RedisCursorStore {
	return &RedisCursorStore{rdb: rdb}
}

func (s *RedisCursorStore) Load(ctx context.Context) (uint64, bool, error) {
	val, err := s.rdb.Get(ctx, redisCursorKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	height, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		// Corrupt value: treat as absent, the watcher re-inits at current height.
		return 0, false, nil
	}
	return height, true, nil
}

func (s *RedisCursorStore) Save(ctx context.Context, height uint64) error {
	return s.rdb.Set(ctx, redisCursorKey, strconv.FormatUint(height, 10), 0).Err()
}
