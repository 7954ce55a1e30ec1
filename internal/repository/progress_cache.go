package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LiezGoo/scheduling-system-sub000/internal/models"
)

const progressKeyPrefix = "timetable:progress:"

// ProgressCache mirrors generation progress snapshots into Redis so
// pollers do not hammer the database mid-run. All operations are
// best-effort; callers treat errors as cache misses.
type ProgressCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProgressCache builds a cache wrapper. TTL bounds how long stale
// snapshots survive after a run ends.
func NewProgressCache(client *redis.Client, ttl time.Duration) *ProgressCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ProgressCache{client: client, ttl: ttl}
}

// Set stores the snapshot for a schedule.
func (c *ProgressCache) Set(ctx context.Context, scheduleID string, progress models.GenerationProgress) error {
	if c == nil || c.client == nil {
		return nil
	}
	payload, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("encode progress snapshot: %w", err)
	}
	if err := c.client.Set(ctx, progressKeyPrefix+scheduleID, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache progress snapshot: %w", err)
	}
	return nil
}

// Get loads the snapshot for a schedule; the second return is false on a
// miss or any cache error.
func (c *ProgressCache) Get(ctx context.Context, scheduleID string) (models.GenerationProgress, bool) {
	var progress models.GenerationProgress
	if c == nil || c.client == nil {
		return progress, false
	}
	payload, err := c.client.Get(ctx, progressKeyPrefix+scheduleID).Bytes()
	if err != nil {
		return progress, false
	}
	if err := json.Unmarshal(payload, &progress); err != nil {
		return progress, false
	}
	return progress, true
}
