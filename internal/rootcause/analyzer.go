package rootcause

import (
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/config"
	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/stats"
)

// Report table file names.
const (
	FileRepeatRates     = "repeat_incident_rate_by_category.csv"
	FileRecurringIssues = "most_frequent_recurring_issues.csv"
	FileTeamEscalations = "escalations_by_team.csv"
)

// requiredColumns is the input schema for all three analyses.
var requiredColumns = []string{
	domain.ColTicketID,
	domain.ColCategory,
	domain.ColPriority,
	domain.ColAssignedTeam,
	domain.ColSLABreached,
}

// CategoryRepeatRate measures repeat-incident concentration in one category.
type CategoryRepeatRate struct {
	Category            domain.Category
	TotalTickets        int
	RecurringTickets    int
	UniqueSignatures    int
	RecurringSignatures int
	RepeatRatePercent   float64
}

// RecurringIssue is one issue signature seen more than once.
type RecurringIssue struct {
	Signature         string
	Category          domain.Category
	Priority          domain.Priority
	AssignedTeam      domain.Team
	IncidentCount     int
	BreachedCount     int
	BreachRatePercent float64
	Rank              int
}

// TeamEscalations measures one team's contribution to escalations.
type TeamEscalations struct {
	AssignedTeam          domain.Team
	TotalTickets          int
	Escalations           int
	SLABreaches           int
	EscalationRatePercent float64
	ShareOfTotalPercent   float64
}

// Analysis bundles the three root-cause reports.
type Analysis struct {
	RepeatRates     []CategoryRepeatRate
	RecurringIssues []RecurringIssue
	TeamEscalations []TeamEscalations
}

// Analyzer finds recurring issue signatures and escalation hot spots. A
// ticket escalates when its SLA is breached or its priority is Critical.
type Analyzer struct {
	cfg    config.RootCauseConfig
	logger *zap.Logger
}

// New instantiates a root-cause analyzer.
func New(cfg config.RootCauseConfig, logger *zap.Logger) *Analyzer {
	return &Analyzer{cfg: cfg, logger: logger}
}

// Analyze runs all three analyses over the engineered table.
func (a *Analyzer) Analyze(table *dataset.TicketTable) (*Analysis, error) {
	if err := table.Require(requiredColumns...); err != nil {
		return nil, err
	}

	analysis := &Analysis{
		RepeatRates:     a.RepeatRateByCategory(table.Tickets),
		RecurringIssues: a.MostFrequentRecurring(table.Tickets),
		TeamEscalations: a.EscalationsByTeam(table.Tickets),
	}
	a.logger.Info("root-cause analysis complete",
		zap.Int("categories", len(analysis.RepeatRates)),
		zap.Int("recurring_issues", len(analysis.RecurringIssues)),
		zap.Int("teams", len(analysis.TeamEscalations)),
	)
	return analysis, nil
}

// RepeatRateByCategory reports, per category, how much of the volume
// sits in issue signatures that occurred more than once.
func (a *Analyzer) RepeatRateByCategory(tickets []domain.Ticket) []CategoryRepeatRate {
	byCategory := lo.GroupBy(tickets, func(t domain.Ticket) domain.Category { return t.Category })

	rows := make([]CategoryRepeatRate, 0, len(byCategory))
	for _, category := range sortedKeys(byCategory) {
		group := byCategory[category]
		bySignature := lo.GroupBy(group, func(t domain.Ticket) string { return t.IssueSignature() })

		recurringTickets := 0
		recurringSignatures := 0
		for _, incidents := range bySignature {
			if len(incidents) > 1 {
				recurringTickets += len(incidents)
				recurringSignatures++
			}
		}

		rows = append(rows, CategoryRepeatRate{
			Category:            category,
			TotalTickets:        len(group),
			RecurringTickets:    recurringTickets,
			UniqueSignatures:    len(bySignature),
			RecurringSignatures: recurringSignatures,
			RepeatRatePercent:   ratePercent(recurringTickets, len(group)),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].RepeatRatePercent > rows[j].RepeatRatePercent })
	return rows
}

// MostFrequentRecurring reports the top N issue signatures with more
// than one incident, ranked densely by incident count.
func (a *Analyzer) MostFrequentRecurring(tickets []domain.Ticket) []RecurringIssue {
	bySignature := lo.GroupBy(tickets, func(t domain.Ticket) string { return t.IssueSignature() })

	rows := make([]RecurringIssue, 0, len(bySignature))
	for _, signature := range sortedKeys(bySignature) {
		group := bySignature[signature]
		if len(group) < 2 {
			continue
		}
		breached := lo.CountBy(group, func(t domain.Ticket) bool { return t.SLABreached })
		rows = append(rows, RecurringIssue{
			Signature:         signature,
			Category:          group[0].Category,
			Priority:          group[0].Priority,
			AssignedTeam:      group[0].AssignedTeam,
			IncidentCount:     len(group),
			BreachedCount:     breached,
			BreachRatePercent: ratePercent(breached, len(group)),
		})
	}

	rankByCount := denseRanks(rows)
	for i := range rows {
		rows[i].Rank = rankByCount[rows[i].IncidentCount]
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].IncidentCount != rows[j].IncidentCount {
			return rows[i].IncidentCount > rows[j].IncidentCount
		}
		return rows[i].BreachRatePercent > rows[j].BreachRatePercent
	})

	topN := a.cfg.TopN
	if topN <= 0 {
		topN = 15
	}
	if len(rows) > topN {
		rows = rows[:topN]
	}
	return rows
}

// EscalationsByTeam reports each team's share of all escalations.
func (a *Analyzer) EscalationsByTeam(tickets []domain.Ticket) []TeamEscalations {
	byTeam := lo.GroupBy(tickets, func(t domain.Ticket) domain.Team { return t.AssignedTeam })

	totalEscalations := 0
	rows := make([]TeamEscalations, 0, len(byTeam))
	for _, team := range sortedKeys(byTeam) {
		group := byTeam[team]
		escalations := lo.CountBy(group, func(t domain.Ticket) bool { return t.Escalated() })
		breaches := lo.CountBy(group, func(t domain.Ticket) bool { return t.SLABreached })
		totalEscalations += escalations

		rows = append(rows, TeamEscalations{
			AssignedTeam:          team,
			TotalTickets:          len(group),
			Escalations:           escalations,
			SLABreaches:           breaches,
			EscalationRatePercent: ratePercent(escalations, len(group)),
		})
	}

	for i := range rows {
		rows[i].ShareOfTotalPercent = ratePercent(rows[i].Escalations, totalEscalations)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ShareOfTotalPercent > rows[j].ShareOfTotalPercent })
	return rows
}

// denseRanks maps each distinct incident count to its 1-based rank,
// largest count first; tied counts share a rank.
func denseRanks(rows []RecurringIssue) map[int]int {
	counts := lo.Uniq(lo.Map(rows, func(r RecurringIssue, _ int) int { return r.IncidentCount }))
	sort.Sort(sort.Reverse(sort.IntSlice(counts)))

	ranks := make(map[int]int, len(counts))
	for i, c := range counts {
		ranks[c] = i + 1
	}
	return ranks
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

// RepeatRateTable renders the category report for export.
func RepeatRateTable(rows []CategoryRepeatRate) *dataset.Table {
	table := dataset.NewTable(domain.ColCategory, "total_tickets", "recurring_tickets",
		"unique_issue_signatures", "recurring_issue_signatures", "repeat_incident_rate_percent")
	for _, r := range rows {
		table.Append(r.Category, r.TotalTickets, r.RecurringTickets,
			r.UniqueSignatures, r.RecurringSignatures, r.RepeatRatePercent)
	}
	return table
}

// RecurringIssuesTable renders the signature report for export.
func RecurringIssuesTable(rows []RecurringIssue) *dataset.Table {
	table := dataset.NewTable(domain.ColIssueSignature, domain.ColCategory, domain.ColPriority,
		domain.ColAssignedTeam, "incident_count", "breached_count", "breach_rate_percent", "rank")
	for _, r := range rows {
		table.Append(r.Signature, r.Category, r.Priority, r.AssignedTeam,
			r.IncidentCount, r.BreachedCount, r.BreachRatePercent, r.Rank)
	}
	return table
}

// TeamEscalationsTable renders the team report for export.
func TeamEscalationsTable(rows []TeamEscalations) *dataset.Table {
	table := dataset.NewTable(domain.ColAssignedTeam, "total_tickets", "escalations", "sla_breaches",
		"escalation_rate_percent", "share_of_total_escalations_percent")
	for _, r := range rows {
		table.Append(r.AssignedTeam, r.TotalTickets, r.Escalations, r.SLABreaches,
			r.EscalationRatePercent, r.ShareOfTotalPercent)
	}
	return table
}
