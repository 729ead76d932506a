package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// lockTTL bounds how long an abandoned in-flight revision can block a project
// if a process dies without releasing its lock.
const lockTTL = 5 * time.Minute

// Store wraps the redis client used for cross-process revision locks.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func lockKey(projectID string) string {
	return fmt.Sprintf("revision:lock:%s", projectID)
}

// TryLock implements revision.Locker via SETNX with a TTL.
func (s *Store) TryLock(ctx context.Context, projectID string) (bool, error) {
	return s.rdb.SetNX(ctx, lockKey(projectID), 1, lockTTL).Result()
}

func (s *Store) Unlock(ctx context.Context, projectID string) error {
	return s.rdb.Del(ctx, lockKey(projectID)).Err()
}
