package redisadapter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"meridian/internal/matching/ports"
)

// Counter keys live for two days so a sweep of yesterday's keys is never
// needed; the day boundary is UTC.
const capacityKeyTTL = 48 * time.Hour

func Connect(_ context.Context, redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") {
		opt, parseErr := redis.ParseURL(redisURL)
		if parseErr != nil {
			return nil, fmt.Errorf("parse redis url: %w", parseErr)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// CapacityStore enforces per-company daily distribution caps with an atomic
// INCR. Reserving past the limit compensates with a DECR, so the cap holds
// under concurrent distribution of multiple applications to one company.
type CapacityStore struct {
	client *redis.Client
	logger *slog.Logger
}

func NewCapacityStore(client *redis.Client, logger *slog.Logger) *CapacityStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &CapacityStore{
		client: client,
		logger: logger,
	}
}

func (s *CapacityStore) Reserve(ctx context.Context, companyID string, day time.Time, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	key := capacityKey(companyID, day)
	count, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := s.client.Expire(ctx, key, capacityKeyTTL).Err(); err != nil {
			s.logger.Warn("capacity key ttl set failed",
				"event", "capacity_reserve_ttl_failed",
				"module", "matching-engine",
				"layer", "adapter",
				"company_id", companyID,
				"error", err.Error(),
			)
		}
	}
	if count > int64(limit) {
		if err := s.client.Decr(ctx, key).Err(); err != nil {
			s.logger.Warn("capacity overshoot compensation failed",
				"event", "capacity_reserve_compensate_failed",
				"module", "matching-engine",
				"layer", "adapter",
				"company_id", companyID,
				"error", err.Error(),
			)
		}
		return false, nil
	}
	return true, nil
}

func (s *CapacityStore) Release(ctx context.Context, companyID string, day time.Time) error {
	return s.client.Decr(ctx, capacityKey(companyID, day)).Err()
}

func capacityKey(companyID string, day time.Time) string {
	return "matching:capacity:" + strings.TrimSpace(companyID) + ":" + day.UTC().Format("2006-01-02")
}

var _ ports.CapacityStore = (*CapacityStore)(nil)
