package powerbi

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/stats"
)

// FilePowerBI is the export file name.
const FilePowerBI = "powerbi_service_tickets.csv"

// ReferenceDate anchors Ticket_Age_Hours.
var ReferenceDate = time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

// exportColumns is the fixed column order for the BI export.
var exportColumns = []string{
	domain.ColTicketID,
	domain.ColCreatedDate,
	domain.ColResolvedDate,
	domain.ColPriority,
	domain.ColCategory,
	domain.ColAssignedTeam,
	domain.ColSLATargetHours,
	domain.ColResolutionHours,
	domain.ColResolutionDays,
	domain.ColSLABreached,
	domain.ColBreachFlag,
	domain.ColIsHighPriority,
	domain.ColDayOfWeek,
	domain.ColMonth,
	domain.ColWeek,
	domain.ColYear,
	domain.ColTicketAgeHours,
}

// Quality summarizes the export for the readiness report.
type Quality struct {
	Rows          int
	Columns       int
	DuplicateIDs  int
	MissingValues int
}

// Prepared is the BI-ready table plus its quality summary.
type Prepared struct {
	Columns []string
	Table   *dataset.Table
	Quality Quality
}

// Preparer flattens the engineered table into a BI-friendly export:
// sanitized column names, a fixed column order, and a Ticket_Age_Hours
// column measured against ReferenceDate.
type Preparer struct {
	logger *zap.Logger
}

// New instantiates a preparer.
func New(logger *zap.Logger) *Preparer {
	return &Preparer{logger: logger}
}

// Prepare builds the export. Optional columns absent from the input are
// skipped with a warning; Ticket_ID and Created_Date are mandatory.
func (p *Preparer) Prepare(table *dataset.TicketTable) (*Prepared, error) {
	if err := table.Require(domain.ColTicketID, domain.ColCreatedDate); err != nil {
		return nil, err
	}

	available := make([]string, 0, len(exportColumns))
	for _, col := range exportColumns {
		if col == domain.ColTicketAgeHours || table.HasColumn(col) {
			available = append(available, col)
			continue
		}
		p.logger.Warn("column missing from input, skipped in export", zap.String("column", col))
	}

	sanitized := lo.Map(available, func(col string, _ int) string { return SanitizeColumn(col) })
	out := dataset.NewTable(sanitized...)
	for _, ticket := range table.Tickets {
		row := make([]any, 0, len(available))
		for _, col := range available {
			row = append(row, exportValue(ticket, col))
		}
		out.Append(row...)
	}

	prepared := &Prepared{
		Columns: sanitized,
		Table:   out,
		Quality: quality(table.Tickets, len(sanitized)),
	}
	p.logger.Info("powerbi export prepared",
		zap.Int("rows", prepared.Quality.Rows),
		zap.Int("columns", prepared.Quality.Columns),
		zap.Int("duplicate_ids", prepared.Quality.DuplicateIDs),
	)
	return prepared, nil
}

// SanitizeColumn makes a column name BI friendly: spaces become
// underscores, every other character outside [A-Za-z0-9_] is dropped.
func SanitizeColumn(name string) string {
	underscored := strings.ReplaceAll(name, " ", "_")
	var b strings.Builder
	b.Grow(len(underscored))
	for _, r := range underscored {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TicketAgeHours returns hours from created to ReferenceDate, rounded
// to 2 decimals and clipped at zero.
func TicketAgeHours(created time.Time) float64 {
	age := stats.Round(ReferenceDate.Sub(created).Hours(), 2)
	if age < 0 {
		return 0
	}
	return age
}

func exportValue(t domain.Ticket, col string) any {
	switch col {
	case domain.ColTicketID:
		return t.TicketID
	case domain.ColCreatedDate:
		return t.CreatedDate
	case domain.ColResolvedDate:
		return t.ResolvedDate
	case domain.ColPriority:
		return t.Priority
	case domain.ColCategory:
		return t.Category
	case domain.ColAssignedTeam:
		return t.AssignedTeam
	case domain.ColSLATargetHours:
		return t.SLATargetHours
	case domain.ColResolutionHours:
		return t.ResolutionHours
	case domain.ColResolutionDays:
		return t.ResolutionDays
	case domain.ColSLABreached:
		return t.SLABreached
	case domain.ColBreachFlag:
		return t.BreachFlag
	case domain.ColIsHighPriority:
		return t.IsHighPriority
	case domain.ColDayOfWeek:
		return t.DayOfWeek
	case domain.ColMonth:
		return t.Month
	case domain.ColWeek:
		return t.Week
	case domain.ColYear:
		return t.Year
	case domain.ColTicketAgeHours:
		return TicketAgeHours(t.CreatedDate)
	}
	return ""
}

// quality counts duplicate IDs beyond each first occurrence; the typed
// table cannot hold nulls, so missing values are structurally zero.
func quality(tickets []domain.Ticket, columns int) Quality {
	seen := make(map[string]bool, len(tickets))
	duplicates := 0
	for _, t := range tickets {
		if seen[t.TicketID] {
			duplicates++
		}
		seen[t.TicketID] = true
	}
	return Quality{
		Rows:         len(tickets),
		Columns:      columns,
		DuplicateIDs: duplicates,
	}
}
