package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/powerbi"
)

// warehouseTable is the reporting table fed to the BI dashboards.
const warehouseTable = "powerbi_service_tickets"

const warehouseSchema = `
CREATE TABLE IF NOT EXISTS powerbi_service_tickets (
    ticket_id        TEXT PRIMARY KEY,
    created_date     TIMESTAMP NOT NULL,
    resolved_date    TIMESTAMP NOT NULL,
    priority         TEXT NOT NULL,
    category         TEXT NOT NULL,
    assigned_team    TEXT NOT NULL,
    sla_target_hours DOUBLE PRECISION NOT NULL,
    resolution_hours DOUBLE PRECISION NOT NULL,
    resolution_days  DOUBLE PRECISION NOT NULL,
    sla_breached     BOOLEAN NOT NULL,
    breach_flag      INTEGER NOT NULL,
    is_high_priority BOOLEAN NOT NULL,
    day_of_week      TEXT NOT NULL,
    month            TEXT NOT NULL,
    week             INTEGER NOT NULL,
    year             INTEGER NOT NULL,
    ticket_age_hours DOUBLE PRECISION NOT NULL
)`

var warehouseColumns = []string{
	"ticket_id", "created_date", "resolved_date", "priority", "category",
	"assigned_team", "sla_target_hours", "resolution_hours", "resolution_days",
	"sla_breached", "breach_flag", "is_high_priority", "day_of_week",
	"month", "week", "year", "ticket_age_hours",
}

// WarehouseRepository encapsulates the warehouse load.
type WarehouseRepository interface {
	EnsureSchema(ctx context.Context) error
	ReplaceTickets(ctx context.Context, tickets []domain.Ticket) (int64, error)
}

type warehouseRepository struct {
	pool *pgxpool.Pool
}

// NewWarehouseRepository instantiates repository.
func NewWarehouseRepository(pool *pgxpool.Pool) WarehouseRepository {
	return &warehouseRepository{pool: pool}
}

// EnsureSchema creates the reporting table when absent.
func (r *warehouseRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, warehouseSchema); err != nil {
		return fmt.Errorf("ensure warehouse schema: %w", err)
	}
	return nil
}

// ReplaceTickets swaps the table contents for the given export; each
// run is a full refresh, so prior rows are truncated first.
func (r *warehouseRepository) ReplaceTickets(ctx context.Context, tickets []domain.Ticket) (int64, error) {
	if _, err := r.pool.Exec(ctx, `TRUNCATE TABLE `+warehouseTable); err != nil {
		return 0, fmt.Errorf("truncate %s: %w", warehouseTable, err)
	}

	rows := make([][]any, 0, len(tickets))
	for _, t := range tickets {
		rows = append(rows, WarehouseRow(t))
	}
	copied, err := r.pool.CopyFrom(ctx, pgx.Identifier{warehouseTable}, warehouseColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, fmt.Errorf("copy into %s: %w", warehouseTable, err)
	}
	return copied, nil
}

// WarehouseColumns returns the load column order.
func WarehouseColumns() []string {
	return append([]string(nil), warehouseColumns...)
}

// WarehouseRow flattens one ticket into warehouse column order.
func WarehouseRow(t domain.Ticket) []any {
	return []any{
		t.TicketID, t.CreatedDate, t.ResolvedDate, string(t.Priority), string(t.Category),
		string(t.AssignedTeam), t.SLATargetHours, t.ResolutionHours, t.ResolutionDays,
		t.SLABreached, t.BreachFlag, t.IsHighPriority, t.DayOfWeek,
		t.Month, t.Week, t.Year, powerbi.TicketAgeHours(t.CreatedDate),
	}
}
