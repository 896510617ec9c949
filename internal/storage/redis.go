package storage

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/hyeonnnnn/MBTIMatchplay/internal/config"
	"github.com/hyeonnnnn/MBTIMatchplay/internal/models"
)

// endingKeyPrefix + type code is a hash of ending kind -> count
const endingKeyPrefix = "matchplay:endings:"

// EndingStats is the aggregate outcome count of one personality type
type EndingStats struct {
	Success int64 `json:"success"`
	Failure int64 `json:"failure"`
}

// Total is the number of finished games
func (s EndingStats) Total() int64 {
	return s.Success + s.Failure
}

// RedisStore keeps aggregate ending statistics. Nothing about individual
// players or sessions is written.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr(), err)
	}

	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks the connection
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// RecordEnding increments the counter of kind for p
func (s *RedisStore) RecordEnding(ctx context.Context, p models.PersonalityType, kind models.EndingKind) error {
	if !p.Valid() {
		return fmt.Errorf("record ending: invalid personality type %q", p)
	}
	if kind != models.EndingSuccess && kind != models.EndingFailure {
		return fmt.Errorf("record ending: unknown ending kind %q", kind)
	}

	if err := s.client.HIncrBy(ctx, endingKeyPrefix+p.String(), string(kind), 1).Err(); err != nil {
		return fmt.Errorf("record ending: %w", err)
	}
	return nil
}

// EndingStats returns the counters of every personality type, zero when none were recorded
func (s *RedisStore) EndingStats(ctx context.Context) (map[models.PersonalityType]EndingStats, error) {
	pipe := s.client.Pipeline()
	cmds := make(map[models.PersonalityType]*redis.StringStringMapCmd, len(models.AllPersonalityTypes))
	for _, p := range models.AllPersonalityTypes {
		cmds[p] = pipe.HGetAll(ctx, endingKeyPrefix+p.String())
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("ending stats: %w", err)
	}

	stats := make(map[models.PersonalityType]EndingStats, len(cmds))
	for p, cmd := range cmds {
		fields := cmd.Val()
		stats[p] = EndingStats{
			Success: parseCount(fields[string(models.EndingSuccess)]),
			Failure: parseCount(fields[string(models.EndingFailure)]),
		}
	}
	return stats, nil
}

func parseCount(v string) int64 {
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
