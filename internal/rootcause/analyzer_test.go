package rootcause

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/config"
	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/pkg/util"
)

func newAnalyzer(topN int) *Analyzer {
	return New(config.RootCauseConfig{TopN: topN}, zap.NewNop())
}

var ticketSeq int

func ticket(pri domain.Priority, cat domain.Category, team domain.Team, breached bool) domain.Ticket {
	ticketSeq++
	return domain.Ticket{
		TicketID:     fmt.Sprintf("TK-%04d", ticketSeq),
		Priority:     pri,
		Category:     cat,
		AssignedTeam: team,
		SLABreached:  breached,
	}
}

// fixture: Network|High|Infrastructure twice, Email|Critical|ServiceDesk
// three times, Hardware|Medium|Infrastructure twice, one unique Software
// ticket.
func fixtureTickets() []domain.Ticket {
	return []domain.Ticket{
		ticket(domain.PriorityHigh, domain.CategoryNetwork, domain.TeamInfrastructure, true),
		ticket(domain.PriorityHigh, domain.CategoryNetwork, domain.TeamInfrastructure, false),
		ticket(domain.PriorityLow, domain.CategorySoftware, domain.TeamApplications, false),
		ticket(domain.PriorityCritical, domain.CategoryEmail, domain.TeamServiceDesk, true),
		ticket(domain.PriorityCritical, domain.CategoryEmail, domain.TeamServiceDesk, false),
		ticket(domain.PriorityCritical, domain.CategoryEmail, domain.TeamServiceDesk, false),
		ticket(domain.PriorityMedium, domain.CategoryHardware, domain.TeamInfrastructure, false),
		ticket(domain.PriorityMedium, domain.CategoryHardware, domain.TeamInfrastructure, false),
	}
}

func TestRepeatRateByCategory(t *testing.T) {
	rows := newAnalyzer(15).RepeatRateByCategory(fixtureTickets())
	require.Len(t, rows, 4)

	// three categories at 100% keep alphabetical order, Software trails at 0%
	assert.Equal(t, domain.CategoryEmail, rows[0].Category)
	assert.Equal(t, domain.CategoryHardware, rows[1].Category)
	assert.Equal(t, domain.CategoryNetwork, rows[2].Category)
	assert.Equal(t, domain.CategorySoftware, rows[3].Category)

	network := rows[2]
	assert.Equal(t, 2, network.TotalTickets)
	assert.Equal(t, 2, network.RecurringTickets)
	assert.Equal(t, 1, network.UniqueSignatures)
	assert.Equal(t, 1, network.RecurringSignatures)
	assert.Equal(t, 100.0, network.RepeatRatePercent)

	software := rows[3]
	assert.Equal(t, 1, software.TotalTickets)
	assert.Equal(t, 0, software.RecurringTickets)
	assert.Equal(t, 1, software.UniqueSignatures)
	assert.Equal(t, 0, software.RecurringSignatures)
	assert.Equal(t, 0.0, software.RepeatRatePercent)
}

func TestMostFrequentRecurring(t *testing.T) {
	rows := newAnalyzer(15).MostFrequentRecurring(fixtureTickets())
	require.Len(t, rows, 3)

	// the singleton Software signature never appears
	for _, r := range rows {
		assert.Greater(t, r.IncidentCount, 1)
	}

	email := rows[0]
	assert.Equal(t, "Email | Critical | ServiceDesk", email.Signature)
	assert.Equal(t, 3, email.IncidentCount)
	assert.Equal(t, 1, email.BreachedCount)
	assert.Equal(t, 33.33, email.BreachRatePercent)
	assert.Equal(t, 1, email.Rank)

	// tied counts share a dense rank and order by breach rate
	assert.Equal(t, "Network | High | Infrastructure", rows[1].Signature)
	assert.Equal(t, 50.0, rows[1].BreachRatePercent)
	assert.Equal(t, 2, rows[1].Rank)
	assert.Equal(t, "Hardware | Medium | Infrastructure", rows[2].Signature)
	assert.Equal(t, 0.0, rows[2].BreachRatePercent)
	assert.Equal(t, 2, rows[2].Rank)
}

func TestMostFrequentRecurringTopN(t *testing.T) {
	rows := newAnalyzer(2).MostFrequentRecurring(fixtureTickets())
	require.Len(t, rows, 2)
	assert.Equal(t, "Email | Critical | ServiceDesk", rows[0].Signature)
	assert.Equal(t, "Network | High | Infrastructure", rows[1].Signature)
}

func TestEscalationsByTeam(t *testing.T) {
	rows := newAnalyzer(15).EscalationsByTeam(fixtureTickets())
	require.Len(t, rows, 3)

	// ServiceDesk holds all three Critical tickets
	serviceDesk := rows[0]
	assert.Equal(t, domain.TeamServiceDesk, serviceDesk.AssignedTeam)
	assert.Equal(t, 3, serviceDesk.TotalTickets)
	assert.Equal(t, 3, serviceDesk.Escalations)
	assert.Equal(t, 1, serviceDesk.SLABreaches)
	assert.Equal(t, 100.0, serviceDesk.EscalationRatePercent)
	assert.Equal(t, 75.0, serviceDesk.ShareOfTotalPercent)

	infra := rows[1]
	assert.Equal(t, domain.TeamInfrastructure, infra.AssignedTeam)
	assert.Equal(t, 4, infra.TotalTickets)
	assert.Equal(t, 1, infra.Escalations)
	assert.Equal(t, 25.0, infra.EscalationRatePercent)
	assert.Equal(t, 25.0, infra.ShareOfTotalPercent)

	apps := rows[2]
	assert.Equal(t, domain.TeamApplications, apps.AssignedTeam)
	assert.Equal(t, 0, apps.Escalations)
	assert.Equal(t, 0.0, apps.ShareOfTotalPercent)

	total := 0.0
	for _, r := range rows {
		total += r.ShareOfTotalPercent
	}
	assert.InDelta(t, 100.0, total, 0.01)
}

func TestEscalationsByTeamNoEscalations(t *testing.T) {
	tickets := []domain.Ticket{
		ticket(domain.PriorityLow, domain.CategoryNetwork, domain.TeamInfrastructure, false),
		ticket(domain.PriorityMedium, domain.CategoryEmail, domain.TeamServiceDesk, false),
	}

	rows := newAnalyzer(15).EscalationsByTeam(tickets)
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, 0, r.Escalations)
		assert.Equal(t, 0.0, r.EscalationRatePercent)
		assert.Equal(t, 0.0, r.ShareOfTotalPercent)
	}
	// no escalations to rank by, alphabetical order survives
	assert.Equal(t, domain.TeamInfrastructure, rows[0].AssignedTeam)
	assert.Equal(t, domain.TeamServiceDesk, rows[1].AssignedTeam)
}

func TestAnalyzeValidatesColumns(t *testing.T) {
	table := &dataset.TicketTable{Columns: []string{domain.ColTicketID, domain.ColCategory}}
	_, err := newAnalyzer(15).Analyze(table)
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeMissingColumns))
}

func TestAnalyzeRunsAllReports(t *testing.T) {
	table := &dataset.TicketTable{Columns: domain.EngineeredColumns(), Tickets: fixtureTickets()}
	analysis, err := newAnalyzer(15).Analyze(table)
	require.NoError(t, err)
	assert.Len(t, analysis.RepeatRates, 4)
	assert.Len(t, analysis.RecurringIssues, 3)
	assert.Len(t, analysis.TeamEscalations, 3)
}

func TestRootCauseTables(t *testing.T) {
	analysis, err := newAnalyzer(15).Analyze(&dataset.TicketTable{
		Columns: domain.EngineeredColumns(),
		Tickets: fixtureTickets(),
	})
	require.NoError(t, err)

	repeat := RepeatRateTable(analysis.RepeatRates)
	assert.Equal(t, []string{"Category", "total_tickets", "recurring_tickets",
		"unique_issue_signatures", "recurring_issue_signatures", "repeat_incident_rate_percent"},
		repeat.Columns)

	recurring := RecurringIssuesTable(analysis.RecurringIssues)
	assert.Equal(t, []string{"Issue_Signature", "Category", "Priority", "Assigned_Team",
		"incident_count", "breached_count", "breach_rate_percent", "rank"}, recurring.Columns)
	require.NotEmpty(t, recurring.Rows)
	assert.Equal(t, 1, recurring.Rows[0][7])

	teams := TeamEscalationsTable(analysis.TeamEscalations)
	assert.Equal(t, []string{"Assigned_Team", "total_tickets", "escalations", "sla_breaches",
		"escalation_rate_percent", "share_of_total_escalations_percent"}, teams.Columns)
}
