package explore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/pkg/util"
)

func fixtureTickets() []domain.Ticket {
	april := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	may := time.Date(2025, 5, 3, 8, 0, 0, 0, time.UTC)
	return []domain.Ticket{
		{TicketID: "TICKET-00001", CreatedDate: april, Month: "2025-04", Priority: domain.PriorityCritical,
			Category: domain.CategoryNetwork, AssignedTeam: domain.TeamInfrastructure,
			SLATargetHours: 4, ResolutionHours: 2, SLABreached: false, IsHighPriority: true},
		{TicketID: "TICKET-00002", CreatedDate: april, Month: "2025-04", Priority: domain.PriorityCritical,
			Category: domain.CategoryNetwork, AssignedTeam: domain.TeamInfrastructure,
			SLATargetHours: 4, ResolutionHours: 6, SLABreached: true, IsHighPriority: true},
		{TicketID: "TICKET-00003", CreatedDate: may, Month: "2025-05", Priority: domain.PriorityMedium,
			Category: domain.CategorySoftware, AssignedTeam: domain.TeamApplications,
			SLATargetHours: 72, ResolutionHours: 60, SLABreached: false, IsHighPriority: false},
		{TicketID: "TICKET-00004", CreatedDate: may, Month: "2025-05", Priority: domain.PriorityLow,
			Category: domain.CategoryEmail, AssignedTeam: domain.TeamServiceDesk,
			SLATargetHours: 120, ResolutionHours: 130, SLABreached: true, IsHighPriority: false},
	}
}

func TestAnalyzeRequiresSchema(t *testing.T) {
	table := dataset.NewTicketTable([]string{domain.ColTicketID}, nil)

	_, err := New(zap.NewNop()).Analyze(table)
	require.Error(t, err)
	require.True(t, util.IsCode(err, util.CodeMissingColumns))
}

func TestBreachByCategorySortedByRate(t *testing.T) {
	rows := New(zap.NewNop()).BreachByCategory(fixtureTickets())

	require.Len(t, rows, 3)
	require.Equal(t, domain.CategoryEmail, rows[0].Category)
	require.Equal(t, 100.0, rows[0].BreachRatePercent)
	require.Equal(t, domain.CategoryNetwork, rows[1].Category)
	require.Equal(t, 50.0, rows[1].BreachRatePercent)
	require.Equal(t, domain.CategorySoftware, rows[2].Category)
	require.Equal(t, 0.0, rows[2].BreachRatePercent)

	network := rows[1]
	require.Equal(t, 2, network.TotalTickets)
	require.Equal(t, 1, network.BreachedTickets)
	require.Equal(t, 1, network.CompliantTickets)
	require.Equal(t, 4.0, network.AvgResolutionHours)
	require.Equal(t, 4.0, network.MedianResolutionHours)
	require.Equal(t, 6.0, network.MaxResolutionHours)
}

func TestResolutionByTeamSortedByAvg(t *testing.T) {
	rows := New(zap.NewNop()).ResolutionByTeam(fixtureTickets())

	require.Len(t, rows, 3)
	require.Equal(t, domain.TeamServiceDesk, rows[0].AssignedTeam)
	require.Equal(t, 130.0, rows[0].AvgResolutionHours)
	require.Equal(t, 5.42, rows[0].AvgResolutionDays)
	require.Equal(t, 0.0, rows[0].StdResolutionHours) // single ticket, sample stddev undefined

	infra := rows[2]
	require.Equal(t, domain.TeamInfrastructure, infra.AssignedTeam)
	require.Equal(t, 4.0, infra.AvgResolutionHours)
	require.Equal(t, 0.17, infra.AvgResolutionDays)
	require.Equal(t, 2.0, infra.MinResolutionHours)
	require.Equal(t, 6.0, infra.MaxResolutionHours)
	require.Equal(t, 2.83, infra.StdResolutionHours) // sqrt(8), ddof=1
	require.Equal(t, 50.0, infra.BreachRatePercent)
}

func TestVolumeTrendChronological(t *testing.T) {
	rows := New(zap.NewNop()).VolumeTrend(fixtureTickets())

	require.Len(t, rows, 2)
	require.Equal(t, "2025-04", rows[0].Month)
	require.Equal(t, 2, rows[0].TicketsCreated)
	require.Equal(t, 100.0, rows[0].HighPriorityPercent)
	require.Equal(t, "2025-05", rows[1].Month)
	require.Equal(t, 95.0, rows[1].AvgResolutionHours)
	require.Equal(t, 0.0, rows[1].HighPriorityPercent)
}

func TestVolumeTrendDerivesMonthWhenAbsent(t *testing.T) {
	tickets := fixtureTickets()
	for i := range tickets {
		tickets[i].Month = ""
	}

	rows := New(zap.NewNop()).VolumeTrend(tickets)
	require.Len(t, rows, 2)
	require.Equal(t, "2025-04", rows[0].Month)
	require.Equal(t, "2025-05", rows[1].Month)
}

func TestPriorityDistributionFixedOrder(t *testing.T) {
	rows := New(zap.NewNop()).PriorityDistribution(fixtureTickets())

	require.Len(t, rows, 3) // High never occurs and is omitted
	require.Equal(t, domain.PriorityCritical, rows[0].Priority)
	require.Equal(t, domain.PriorityMedium, rows[1].Priority)
	require.Equal(t, domain.PriorityLow, rows[2].Priority)

	critical := rows[0]
	require.Equal(t, 2, critical.TicketCount)
	require.Equal(t, 50.0, critical.Percentage)
	require.Equal(t, 4.0, critical.SLATargetHours)
	require.Equal(t, 50.0, critical.BreachRatePercent)

	total := 0.0
	for _, r := range rows {
		total += r.Percentage
	}
	require.InDelta(t, 100.0, total, 0.01)
}

func TestAnalyzeRunsAllReports(t *testing.T) {
	table := dataset.NewTicketTable(domain.EngineeredColumns(), fixtureTickets())

	results, err := New(zap.NewNop()).Analyze(table)
	require.NoError(t, err)
	require.Len(t, results.PriorityDistribution, 3)
	require.Len(t, results.BreachByCategory, 3)
	require.Len(t, results.ResolutionByTeam, 3)
	require.Len(t, results.VolumeTrend, 2)
}
