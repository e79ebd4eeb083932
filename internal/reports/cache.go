package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dashboardKey  = "reports:dashboard" // cached dashboard tiles JSON
	executiveKey  = "reports:executive" // cached executive report JSON
	eventsChannel = "reports:events"    // pub/sub channel for refresh notifications

	dashboardTTL = 5 * time.Minute
	executiveTTL = 15 * time.Minute

	// ScopeExecutive keys the persisted snapshots.
	ScopeExecutive = "executive"
)

var ErrCacheMiss = errors.New("report not cached")

// Cache keeps the built reports warm between rebuilds.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) GetDashboard(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := c.getJSON(ctx, dashboardKey, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Cache) SetDashboard(ctx context.Context, stats *DashboardStats) error {
	return c.setJSON(ctx, dashboardKey, stats, dashboardTTL)
}

func (c *Cache) GetExecutive(ctx context.Context) (*ExecutiveReport, error) {
	var report ExecutiveReport
	if err := c.getJSON(ctx, executiveKey, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

func (c *Cache) SetExecutive(ctx context.Context, report *ExecutiveReport) error {
	return c.setJSON(ctx, executiveKey, report, executiveTTL)
}

// Invalidate drops both cached reports in one round trip.
func (c *Cache) Invalidate(ctx context.Context) error {
	pipe := c.client.Pipeline()
	pipe.Del(ctx, dashboardKey)
	pipe.Del(ctx, executiveKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to invalidate report cache: %w", err)
	}
	return nil
}

type refreshEvent struct {
	Type        string    `json:"type"`
	GeneratedAt time.Time `json:"generated_at"`
}

// PublishRefreshed tells subscribed dashboards a fresh executive
// report is available.
func (c *Cache) PublishRefreshed(ctx context.Context, report *ExecutiveReport) error {
	data, err := json.Marshal(refreshEvent{Type: "executive_refreshed", GeneratedAt: report.GeneratedAt})
	if err != nil {
		return fmt.Errorf("failed to marshal refresh event: %w", err)
	}
	if err := c.client.Publish(ctx, eventsChannel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish refresh event: %w", err)
	}
	return nil
}

func (c *Cache) getJSON(ctx context.Context, key string, dst any) error {
	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (c *Cache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
