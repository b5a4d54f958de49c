package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/assessiq/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

// ResultCache handles Redis reads and writes for scored results and
// per-assessment analytics. Get methods return nil, nil on a miss.
type ResultCache interface {
	GetResult(ctx context.Context, id string) (*models.StoredResult, error)
	SetResult(ctx context.Context, result *models.StoredResult) error

	GetAnalytics(ctx context.Context, assessmentType string) (*models.AssessmentAnalytics, error)
	SetAnalytics(ctx context.Context, analytics *models.AssessmentAnalytics) error
	InvalidateAnalytics(ctx context.Context, assessmentType string) error
}

type resultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewResultCache creates a redis-backed cache.
func NewResultCache(client *redis.Client, ttl time.Duration) ResultCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &resultCache{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Key helpers
func ResultKey(id string) string {
	return fmt.Sprintf("result:%s", id)
}

func AnalyticsKey(assessmentType string) string {
	return fmt.Sprintf("analytics:%s", assessmentType)
}

func (c *resultCache) GetResult(ctx context.Context, id string) (*models.StoredResult, error) {
	var result models.StoredResult
	ok, err := c.getJSON(ctx, ResultKey(id), &result)
	if err != nil || !ok {
		return nil, err
	}
	return &result, nil
}

func (c *resultCache) SetResult(ctx context.Context, result *models.StoredResult) error {
	return c.setJSON(ctx, ResultKey(result.ID), result)
}

func (c *resultCache) GetAnalytics(ctx context.Context, assessmentType string) (*models.AssessmentAnalytics, error) {
	var analytics models.AssessmentAnalytics
	ok, err := c.getJSON(ctx, AnalyticsKey(assessmentType), &analytics)
	if err != nil || !ok {
		return nil, err
	}
	return &analytics, nil
}

func (c *resultCache) SetAnalytics(ctx context.Context, analytics *models.AssessmentAnalytics) error {
	return c.setJSON(ctx, AnalyticsKey(analytics.AssessmentType), analytics)
}

func (c *resultCache) InvalidateAnalytics(ctx context.Context, assessmentType string) error {
	return c.client.Del(ctx, AnalyticsKey(assessmentType)).Err()
}

func (c *resultCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *resultCache) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, c.ttl).Err()
}

// ── No-op ──────────────────────────────────────────────

// Noop is used when no REDIS_URL is configured. Every read misses.
type Noop struct{}

func (Noop) GetResult(context.Context, string) (*models.StoredResult, error) { return nil, nil }
func (Noop) SetResult(context.Context, *models.StoredResult) error { return nil }
func (Noop) GetAnalytics(context.Context, string) (*models.AssessmentAnalytics, error) {
	return nil, nil
}
func (Noop) SetAnalytics(context.Context, *models.AssessmentAnalytics) error { return nil }
func (Noop) InvalidateAnalytics(context.Context, string) error { return nil }
