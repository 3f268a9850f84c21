package cleaning

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/domain"
)

func validRaw(id int) domain.RawTicket {
	return domain.RawTicket{
		TicketID:        fmt.Sprintf("TICKET-%05d", id),
		CreatedDate:     "2025-04-07 10:15:00",
		ResolvedDate:    "2025-04-08 16:15:00",
		Priority:        "High",
		Category:        "Network",
		AssignedTeam:    "Infrastructure",
		SLATargetHours:  "24",
		ResolutionHours: "30",
		SLABreached:     "true",
	}
}

func TestCleanDerivesCalendarFields(t *testing.T) {
	tickets, report := New(zap.NewNop()).Clean([]domain.RawTicket{validRaw(1)})
	require.Len(t, tickets, 1)
	require.Equal(t, 1, report.FinalRows)
	require.Equal(t, 0, report.RowsRemoved())

	got := tickets[0]
	require.Equal(t, "2025-04", got.Month)
	require.Equal(t, 15, got.Week) // 2025-04-07 is a Monday in ISO week 15
	require.Equal(t, 2025, got.Year)
	require.Equal(t, domain.PriorityHigh, got.Priority)
	require.True(t, got.SLABreached)
}

func TestCleanDropsRowsWithMissingValues(t *testing.T) {
	noCategory := validRaw(2)
	noCategory.Category = ""

	badDate := validRaw(3)
	badDate.CreatedDate = "not-a-date"

	badHours := validRaw(4)
	badHours.ResolutionHours = "abc"

	tickets, report := New(zap.NewNop()).Clean([]domain.RawTicket{validRaw(1), noCategory, badDate, badHours})

	require.Len(t, tickets, 1)
	require.Equal(t, 3, report.MissingDropped)
	require.Equal(t, 1, report.MissingByColumn[domain.ColCategory])
	require.Equal(t, 1, report.MissingByColumn[domain.ColCreatedDate])
	require.Equal(t, 1, report.MissingByColumn[domain.ColResolutionHours])
}

func TestCleanKeepsFirstDuplicate(t *testing.T) {
	first := validRaw(1)
	first.Priority = "Critical"
	second := validRaw(1)
	second.Priority = "Low"

	tickets, report := New(zap.NewNop()).Clean([]domain.RawTicket{first, second})

	require.Len(t, tickets, 1)
	require.Equal(t, 1, report.DuplicatesDropped)
	require.Equal(t, domain.PriorityCritical, tickets[0].Priority)
}

func TestCleanValidatesCategoricalsSequentially(t *testing.T) {
	bothInvalid := validRaw(2)
	bothInvalid.Priority = "Urgent"
	bothInvalid.Category = "Printer"

	badTeam := validRaw(3)
	badTeam.AssignedTeam = "Helpdesk"

	tickets, report := New(zap.NewNop()).Clean([]domain.RawTicket{validRaw(1), bothInvalid, badTeam})

	require.Len(t, tickets, 1)
	// The row failing both checks is dropped by the Priority pass, so
	// the later Category pass never sees it.
	require.Equal(t, 1, report.InvalidByColumn[domain.ColPriority])
	require.Equal(t, 0, report.InvalidByColumn[domain.ColCategory])
	require.Equal(t, 1, report.InvalidByColumn[domain.ColAssignedTeam])
}

func TestCleanMixedDefects(t *testing.T) {
	// 5 raw rows: one null Category, one duplicate Ticket_ID.
	nullCategory := validRaw(3)
	nullCategory.Category = ""
	duplicate := validRaw(1)

	raw := []domain.RawTicket{validRaw(1), validRaw(2), nullCategory, duplicate, validRaw(4)}
	tickets, report := New(zap.NewNop()).Clean(raw)

	require.Len(t, tickets, 3)
	require.Equal(t, 5, report.InitialRows)
	require.Equal(t, 3, report.FinalRows)
	require.Equal(t, 2, report.RowsRemoved())
	require.InDelta(t, 40.0, report.RemovedPercent(), 1e-9)
}

func TestCleanedRowsAreValid(t *testing.T) {
	rows := []domain.RawTicket{validRaw(1), validRaw(2), validRaw(3)}
	rows[1].Priority = "Medium"
	rows[2].AssignedTeam = "Applications"

	tickets, _ := New(zap.NewNop()).Clean(rows)

	ids := make(map[string]bool)
	for _, ticket := range tickets {
		require.True(t, ticket.Priority.Valid())
		require.True(t, ticket.Category.Valid())
		require.True(t, ticket.AssignedTeam.Valid())
		require.NotEmpty(t, ticket.TicketID)
		require.False(t, ticket.CreatedDate.IsZero())
		require.False(t, ids[ticket.TicketID])
		ids[ticket.TicketID] = true
	}
}
