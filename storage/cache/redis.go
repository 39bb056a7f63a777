package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/attendance"
)

const percentageTTL = 15 * time.Minute

// percentageCache stores computed attendance percentages in redis so the hot
// dashboard reads skip the count query. Misses and redis failures both fall
// back to the database; the cache never fails a caller.
type percentageCache struct {
	client *redis.Client
	logger core.Logger
}

var _ attendance.PercentageCache = (*percentageCache)(nil) // interface compliance check

func NewPercentageCache(client *redis.Client, logger core.Logger) attendance.PercentageCache {
	return &percentageCache{client: client, logger: logger}
}

func percentageKey(studentID, courseID string) string {
	return fmt.Sprintf("attendance:pct:%s:%s", studentID, courseID)
}

func (c *percentageCache) Get(ctx context.Context, studentID, courseID string) (float64, bool) {
	val, err := c.client.Get(ctx, percentageKey(studentID, courseID)).Result()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn(fmt.Sprintf("percentage cache read failed: %v", err))
		}
		return 0, false
	}
	pct, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return pct, true
}

func (c *percentageCache) Set(ctx context.Context, studentID, courseID string, pct float64) {
	val := strconv.FormatFloat(pct, 'f', 2, 64)
	if err := c.client.Set(ctx, percentageKey(studentID, courseID), val, percentageTTL).Err(); err != nil {
		c.logger.Warn(fmt.Sprintf("percentage cache write failed: %v", err))
	}
}

func (c *percentageCache) Invalidate(ctx context.Context, studentID, courseID string) {
	if err := c.client.Del(ctx, percentageKey(studentID, courseID)).Err(); err != nil {
		c.logger.Warn(fmt.Sprintf("percentage cache invalidation failed: %v", err))
	}
}
