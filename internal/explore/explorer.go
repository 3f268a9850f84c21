package explore

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/stats"
)

// Report table file names.
const (
	FileBreachByCategory     = "sla_breach_by_category.csv"
	FileResolutionByTeam     = "resolution_time_by_team.csv"
	FileVolumeTrend          = "ticket_volume_trend.csv"
	FilePriorityDistribution = "priority_distribution.csv"
)

// requiredColumns is the input schema shared by the four reports; Month
// is not listed because it is derived fresh from Created_Date when absent.
var requiredColumns = []string{
	domain.ColTicketID,
	domain.ColCreatedDate,
	domain.ColPriority,
	domain.ColCategory,
	domain.ColAssignedTeam,
	domain.ColSLATargetHours,
	domain.ColResolutionHours,
	domain.ColSLABreached,
	domain.ColIsHighPriority,
}

// BreachByCategoryRow answers: which categories breach SLA most?
type BreachByCategoryRow struct {
	Category              domain.Category
	TotalTickets          int
	BreachedTickets       int
	CompliantTickets      int
	BreachRatePercent     float64
	AvgResolutionHours    float64
	MedianResolutionHours float64
	MaxResolutionHours    float64
}

// ResolutionByTeamRow answers: which team resolves slowest?
type ResolutionByTeamRow struct {
	AssignedTeam          domain.Team
	TotalTickets          int
	AvgResolutionHours    float64
	AvgResolutionDays     float64
	MedianResolutionHours float64
	MinResolutionHours    float64
	MaxResolutionHours    float64
	StdResolutionHours    float64
	BreachedTickets       int
	BreachRatePercent     float64
}

// VolumeTrendRow answers: how does monthly volume evolve?
type VolumeTrendRow struct {
	Month               string
	TicketsCreated      int
	AvgResolutionHours  float64
	BreachedTickets     int
	HighPriorityTickets int
	BreachRatePercent   float64
	HighPriorityPercent float64
}

// PriorityDistributionRow answers: how are priorities distributed?
type PriorityDistributionRow struct {
	Priority           domain.Priority
	TicketCount        int
	Percentage         float64
	AvgResolutionHours float64
	SLATargetHours     float64
	BreachedTickets    int
	BreachRatePercent  float64
}

// Results bundles the four exploratory reports.
type Results struct {
	PriorityDistribution []PriorityDistributionRow
	BreachByCategory     []BreachByCategoryRow
	ResolutionByTeam     []ResolutionByTeamRow
	VolumeTrend          []VolumeTrendRow
}

// Analyzer answers the four fixed business questions over the
// engineered table.
type Analyzer struct {
	logger *zap.Logger
}

// New instantiates an exploratory analyzer.
func New(logger *zap.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// Analyze validates the input schema and runs all four reports.
func (a *Analyzer) Analyze(table *dataset.TicketTable) (*Results, error) {
	if err := table.Require(requiredColumns...); err != nil {
		return nil, err
	}
	results := &Results{
		PriorityDistribution: a.PriorityDistribution(table.Tickets),
		BreachByCategory:     a.BreachByCategory(table.Tickets),
		ResolutionByTeam:     a.ResolutionByTeam(table.Tickets),
		VolumeTrend:          a.VolumeTrend(table.Tickets),
	}
	a.logger.Info("exploratory analysis complete",
		zap.Int("categories", len(results.BreachByCategory)),
		zap.Int("teams", len(results.ResolutionByTeam)),
		zap.Int("months", len(results.VolumeTrend)),
		zap.Int("priorities", len(results.PriorityDistribution)),
	)
	return results, nil
}

// BreachByCategory reports breach statistics per category, sorted by
// breach rate descending.
func (a *Analyzer) BreachByCategory(tickets []domain.Ticket) []BreachByCategoryRow {
	groups := lo.GroupBy(tickets, func(t domain.Ticket) domain.Category { return t.Category })
	keys := sortedKeys(groups)

	rows := make([]BreachByCategoryRow, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		hours := resolutionHours(group)
		breached := countBreached(group)
		rows = append(rows, BreachByCategoryRow{
			Category:              key,
			TotalTickets:          len(group),
			BreachedTickets:       breached,
			CompliantTickets:      len(group) - breached,
			BreachRatePercent:     ratePercent(breached, len(group)),
			AvgResolutionHours:    stats.Round(stats.Mean(hours), 2),
			MedianResolutionHours: stats.Round(stats.Median(hours), 2),
			MaxResolutionHours:    stats.Round(stats.Max(hours), 2),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].BreachRatePercent > rows[j].BreachRatePercent })
	return rows
}

// ResolutionByTeam reports resolution statistics per team, sorted by
// mean resolution hours descending. The spread column is the sample
// standard deviation (ddof=1).
func (a *Analyzer) ResolutionByTeam(tickets []domain.Ticket) []ResolutionByTeamRow {
	groups := lo.GroupBy(tickets, func(t domain.Ticket) domain.Team { return t.AssignedTeam })
	keys := sortedKeys(groups)

	rows := make([]ResolutionByTeamRow, 0, len(keys))
	for _, key := range keys {
		group := groups[key]
		hours := resolutionHours(group)
		breached := countBreached(group)
		mean := stats.Mean(hours)
		rows = append(rows, ResolutionByTeamRow{
			AssignedTeam:          key,
			TotalTickets:          len(group),
			AvgResolutionHours:    stats.Round(mean, 2),
			AvgResolutionDays:     stats.Round(mean/24, 2),
			MedianResolutionHours: stats.Round(stats.Median(hours), 2),
			MinResolutionHours:    stats.Round(stats.Min(hours), 2),
			MaxResolutionHours:    stats.Round(stats.Max(hours), 2),
			StdResolutionHours:    stats.Round(stats.StdDevSample(hours), 2),
			BreachedTickets:       breached,
			BreachRatePercent:     ratePercent(breached, len(group)),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].AvgResolutionHours > rows[j].AvgResolutionHours })
	return rows
}

// VolumeTrend reports monthly volume, sorted chronologically by parsing
// the month label back to a date. The month comes from the derived
// Month field when present and from Created_Date otherwise.
func (a *Analyzer) VolumeTrend(tickets []domain.Ticket) []VolumeTrendRow {
	groups := lo.GroupBy(tickets, func(t domain.Ticket) string { return monthOf(t) })

	months := lo.Keys(groups)
	sort.Strings(months)

	rows := make([]VolumeTrendRow, 0, len(months))
	for _, month := range months {
		group := groups[month]
		hours := resolutionHours(group)
		breached := countBreached(group)
		highPriority := lo.CountBy(group, func(t domain.Ticket) bool { return t.IsHighPriority })
		rows = append(rows, VolumeTrendRow{
			Month:               month,
			TicketsCreated:      len(group),
			AvgResolutionHours:  stats.Round(stats.Mean(hours), 2),
			BreachedTickets:     breached,
			HighPriorityTickets: highPriority,
			BreachRatePercent:   ratePercent(breached, len(group)),
			HighPriorityPercent: ratePercent(highPriority, len(group)),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return parseMonth(rows[i].Month).Before(parseMonth(rows[j].Month))
	})
	return rows
}

// PriorityDistribution reports counts and shares per priority, ordered
// Critical through Low regardless of input order.
func (a *Analyzer) PriorityDistribution(tickets []domain.Ticket) []PriorityDistributionRow {
	groups := lo.GroupBy(tickets, func(t domain.Ticket) domain.Priority { return t.Priority })

	rows := make([]PriorityDistributionRow, 0, len(groups))
	for _, priority := range domain.Priorities() {
		group, ok := groups[priority]
		if !ok {
			continue
		}
		hours := resolutionHours(group)
		breached := countBreached(group)
		rows = append(rows, PriorityDistributionRow{
			Priority:           priority,
			TicketCount:        len(group),
			Percentage:         ratePercent(len(group), len(tickets)),
			AvgResolutionHours: stats.Round(stats.Mean(hours), 2),
			SLATargetHours:     group[0].SLATargetHours,
			BreachedTickets:    breached,
			BreachRatePercent:  ratePercent(breached, len(group)),
		})
	}
	return rows
}

func monthOf(t domain.Ticket) string {
	if t.Month != "" {
		return t.Month
	}
	return t.CreatedDate.Format(domain.MonthLayout)
}

func parseMonth(label string) time.Time {
	ts, err := time.Parse(domain.MonthLayout, label)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func resolutionHours(tickets []domain.Ticket) []float64 {
	return lo.Map(tickets, func(t domain.Ticket, _ int) float64 { return t.ResolutionHours })
}

func countBreached(tickets []domain.Ticket) int {
	return lo.CountBy(tickets, func(t domain.Ticket) bool { return t.SLABreached })
}

func ratePercent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return stats.Round(float64(part)/float64(total)*100, 2)
}

func sortedKeys[K ~string, V any](groups map[K]V) []K {
	keys := lo.Keys(groups)
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// BreachByCategoryTable renders the report for export.
func BreachByCategoryTable(rows []BreachByCategoryRow) *dataset.Table {
	table := dataset.NewTable(domain.ColCategory, "total_tickets", "breached_tickets", "compliant_tickets",
		"breach_rate_percent", "avg_resolution_hours", "median_resolution_hours", "max_resolution_hours")
	for _, r := range rows {
		table.Append(r.Category, r.TotalTickets, r.BreachedTickets, r.CompliantTickets,
			r.BreachRatePercent, r.AvgResolutionHours, r.MedianResolutionHours, r.MaxResolutionHours)
	}
	return table
}

// ResolutionByTeamTable renders the report for export.
func ResolutionByTeamTable(rows []ResolutionByTeamRow) *dataset.Table {
	table := dataset.NewTable(domain.ColAssignedTeam, "total_tickets", "avg_resolution_hours", "avg_resolution_days",
		"median_resolution_hours", "min_resolution_hours", "max_resolution_hours", "std_resolution_hours",
		"breached_tickets", "breach_rate_percent")
	for _, r := range rows {
		table.Append(r.AssignedTeam, r.TotalTickets, r.AvgResolutionHours, r.AvgResolutionDays,
			r.MedianResolutionHours, r.MinResolutionHours, r.MaxResolutionHours, r.StdResolutionHours,
			r.BreachedTickets, r.BreachRatePercent)
	}
	return table
}

// VolumeTrendTable renders the report for export.
func VolumeTrendTable(rows []VolumeTrendRow) *dataset.Table {
	table := dataset.NewTable(domain.ColMonth, "tickets_created", "avg_resolution_hours", "breached_tickets",
		"high_priority_tickets", "breach_rate_percent", "high_priority_percent")
	for _, r := range rows {
		table.Append(r.Month, r.TicketsCreated, r.AvgResolutionHours, r.BreachedTickets,
			r.HighPriorityTickets, r.BreachRatePercent, r.HighPriorityPercent)
	}
	return table
}

// PriorityDistributionTable renders the report for export.
func PriorityDistributionTable(rows []PriorityDistributionRow) *dataset.Table {
	table := dataset.NewTable(domain.ColPriority, "ticket_count", "percentage", "avg_resolution_hours",
		"sla_target_hours", "breached_tickets", "breach_rate_percent")
	for _, r := range rows {
		table.Append(r.Priority, r.TicketCount, r.Percentage, r.AvgResolutionHours,
			r.SLATargetHours, r.BreachedTickets, r.BreachRatePercent)
	}
	return table
}
