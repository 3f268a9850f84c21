package repository

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/servicedesk-analytics/internal/kpi"
)

// kpiSnapshotKey holds the latest published KPI set.
const kpiSnapshotKey = "servicedesk:kpis:latest"

// KPISnapshot is the dashboard-facing KPI set published after a run.
type KPISnapshot struct {
	RunID       string
	GeneratedAt time.Time
	Summary     kpi.Summary
}

// Fields flattens the snapshot into the hash stored in Redis.
func (s KPISnapshot) Fields() map[string]any {
	return map[string]any{
		"run_id":                 s.RunID,
		"generated_at":           s.GeneratedAt.UTC().Format(time.RFC3339),
		"total_tickets":          s.Summary.TotalTickets,
		"avg_resolution_hours":   s.Summary.AvgResolutionHours,
		"sla_compliance_percent": s.Summary.SLACompliancePercent,
		"breached_tickets":       s.Summary.BreachedTickets,
	}
}

// KPISnapshotRepository encapsulates KPI snapshot persistence.
type KPISnapshotRepository interface {
	Publish(ctx context.Context, snapshot KPISnapshot) error
	Latest(ctx context.Context) (map[string]string, error)
}

type kpiSnapshotRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewKPISnapshotRepository instantiates repository; ttl 0 keeps
// snapshots forever.
func NewKPISnapshotRepository(client *redis.Client, ttl time.Duration) KPISnapshotRepository {
	return &kpiSnapshotRepository{client: client, ttl: ttl}
}

// Publish overwrites the latest snapshot hash and refreshes its expiry.
func (r *kpiSnapshotRepository) Publish(ctx context.Context, snapshot KPISnapshot) error {
	if r.client == nil {
		return errors.New("redis client not configured")
	}
	if err := r.client.HSet(ctx, kpiSnapshotKey, snapshot.Fields()).Err(); err != nil {
		return err
	}
	if r.ttl > 0 {
		return r.client.Expire(ctx, kpiSnapshotKey, r.ttl).Err()
	}
	return nil
}

// Latest returns the stored snapshot hash, empty when none was published.
func (r *kpiSnapshotRepository) Latest(ctx context.Context) (map[string]string, error) {
	if r.client == nil {
		return nil, errors.New("redis client not configured")
	}
	return r.client.HGetAll(ctx, kpiSnapshotKey).Result()
}
