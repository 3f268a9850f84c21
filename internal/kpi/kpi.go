package kpi

import (
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/stats"
)

// weekdayOrder reindexes day-of-week rows; days with no tickets are
// omitted rather than zero-filled.
var weekdayOrder = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Summary holds the scalar service-desk KPIs.
type Summary struct {
	TotalTickets         int
	AvgResolutionHours   float64
	SLACompliancePercent float64
	BreachedTickets      int
}

// PriorityRow is one row of the per-priority KPI table.
type PriorityRow struct {
	Priority      domain.Priority
	Count         int
	AvgHours      float64
	MedianHours   float64
	MinHours      float64
	MaxHours      float64
	BreachPercent float64
}

// CategoryRow is one row of the per-category KPI table.
type CategoryRow struct {
	Category      domain.Category
	Count         int
	AvgHours      float64
	BreachPercent float64
}

// WeekdayRow is one row of the per-weekday KPI table.
type WeekdayRow struct {
	Day           string
	Count         int
	AvgHours      float64
	BreachPercent float64
}

// Calculator aggregates engineered tickets into KPIs.
type Calculator struct {
	logger *zap.Logger
}

// NewCalculator instantiates a KPI calculator.
func NewCalculator(logger *zap.Logger) *Calculator {
	return &Calculator{logger: logger}
}

// Calculate returns the scalar KPI block. Percentages and hours are
// rounded to 2 decimals at build time.
func (c *Calculator) Calculate(tickets []domain.Ticket) Summary {
	summary := Summary{TotalTickets: len(tickets)}
	if summary.TotalTickets == 0 {
		return summary
	}

	hours := lo.Map(tickets, func(t domain.Ticket, _ int) float64 { return t.ResolutionHours })
	summary.AvgResolutionHours = stats.Round(stats.Mean(hours), 2)
	summary.BreachedTickets = lo.CountBy(tickets, func(t domain.Ticket) bool { return t.SLABreached })
	compliant := summary.TotalTickets - summary.BreachedTickets
	summary.SLACompliancePercent = stats.Round(float64(compliant)/float64(summary.TotalTickets)*100, 2)

	c.logger.Info("calculated scalar KPIs",
		zap.Int("total_tickets", summary.TotalTickets),
		zap.Float64("sla_compliance_percent", summary.SLACompliancePercent),
	)
	return summary
}

// ByPriority groups by priority; rows come back in grouped-key order,
// which is alphabetical.
func (c *Calculator) ByPriority(tickets []domain.Ticket) []PriorityRow {
	groups := lo.GroupBy(tickets, func(t domain.Ticket) domain.Priority { return t.Priority })
	keys := lo.Keys(groups)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]PriorityRow, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		hours := lo.Map(group, func(t domain.Ticket, _ int) float64 { return t.ResolutionHours })
		rows = append(rows, PriorityRow{
			Priority:      key,
			Count:         len(group),
			AvgHours:      stats.Round(stats.Mean(hours), 2),
			MedianHours:   stats.Round(stats.Median(hours), 2),
			MinHours:      stats.Round(stats.Min(hours), 2),
			MaxHours:      stats.Round(stats.Max(hours), 2),
			BreachPercent: breachPercent(group),
		})
	}
	return rows
}

// ByCategory groups by category, sorted by ticket count descending.
func (c *Calculator) ByCategory(tickets []domain.Ticket) []CategoryRow {
	groups := lo.GroupBy(tickets, func(t domain.Ticket) domain.Category { return t.Category })
	keys := lo.Keys(groups)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	rows := make([]CategoryRow, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		hours := lo.Map(group, func(t domain.Ticket, _ int) float64 { return t.ResolutionHours })
		rows = append(rows, CategoryRow{
			Category:      key,
			Count:         len(group),
			AvgHours:      stats.Round(stats.Mean(hours), 2),
			BreachPercent: breachPercent(group),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Count > rows[j].Count })
	return rows
}

// ByWeekday groups by the engineered Day_of_Week, reindexed Monday
// through Sunday.
func (c *Calculator) ByWeekday(tickets []domain.Ticket) []WeekdayRow {
	groups := lo.GroupBy(tickets, func(t domain.Ticket) string { return t.DayOfWeek })

	rows := make([]WeekdayRow, 0, len(weekdayOrder))
	for _, day := range weekdayOrder {
		group, ok := groups[day]
		if !ok {
			continue
		}
		hours := lo.Map(group, func(t domain.Ticket, _ int) float64 { return t.ResolutionHours })
		rows = append(rows, WeekdayRow{
			Day:           day,
			Count:         len(group),
			AvgHours:      stats.Round(stats.Mean(hours), 2),
			BreachPercent: breachPercent(group),
		})
	}
	return rows
}

func breachPercent(tickets []domain.Ticket) float64 {
	if len(tickets) == 0 {
		return 0
	}
	breached := lo.CountBy(tickets, func(t domain.Ticket) bool { return t.SLABreached })
	return stats.Round(float64(breached)/float64(len(tickets))*100, 2)
}

// SummaryTable renders the scalar KPI block as a two-column table.
func SummaryTable(summary Summary) *dataset.Table {
	table := dataset.NewTable("Metric", "Value")
	table.Append("Total Tickets", summary.TotalTickets)
	table.Append("Avg Resolution Hours", summary.AvgResolutionHours)
	table.Append("SLA Compliance %", summary.SLACompliancePercent)
	table.Append("Breached Tickets", summary.BreachedTickets)
	return table
}

// PriorityTable renders per-priority KPI rows.
func PriorityTable(rows []PriorityRow) *dataset.Table {
	table := dataset.NewTable(domain.ColPriority, "Count", "Avg_Hours", "Median_Hours", "Min_Hours", "Max_Hours", "Breach_Percent")
	for _, r := range rows {
		table.Append(r.Priority, r.Count, r.AvgHours, r.MedianHours, r.MinHours, r.MaxHours, r.BreachPercent)
	}
	return table
}

// CategoryTable renders per-category KPI rows.
func CategoryTable(rows []CategoryRow) *dataset.Table {
	table := dataset.NewTable(domain.ColCategory, "Count", "Avg_Hours", "Breach_Percent")
	for _, r := range rows {
		table.Append(r.Category, r.Count, r.AvgHours, r.BreachPercent)
	}
	return table
}

// WeekdayTable renders per-weekday KPI rows.
func WeekdayTable(rows []WeekdayRow) *dataset.Table {
	table := dataset.NewTable(domain.ColDayOfWeek, "Count", "Avg_Hours", "Breach_Percent")
	for _, r := range rows {
		table.Append(r.Day, r.Count, r.AvgHours, r.BreachPercent)
	}
	return table
}
