package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnumValidation(t *testing.T) {
	for _, p := range Priorities() {
		require.True(t, p.Valid())
	}
	require.False(t, Priority("Urgent").Valid())

	for _, c := range Categories() {
		require.True(t, c.Valid())
	}
	require.False(t, Category("Printer").Valid())

	for _, tm := range Teams() {
		require.True(t, tm.Valid())
	}
	require.False(t, Team("Helpdesk").Valid())
}

func TestSLATargetHours(t *testing.T) {
	require.Equal(t, 4.0, SLATargetHours(PriorityCritical))
	require.Equal(t, 24.0, SLATargetHours(PriorityHigh))
	require.Equal(t, 72.0, SLATargetHours(PriorityMedium))
	require.Equal(t, 120.0, SLATargetHours(PriorityLow))
	require.Equal(t, 0.0, SLATargetHours(Priority("Unknown")))
}

func TestIssueSignature(t *testing.T) {
	ticket := Ticket{
		Priority:     PriorityHigh,
		Category:     CategoryNetwork,
		AssignedTeam: TeamInfrastructure,
	}
	require.Equal(t, "Network | High | Infrastructure", ticket.IssueSignature())
}

func TestEscalated(t *testing.T) {
	require.True(t, Ticket{Priority: PriorityCritical}.Escalated())
	require.True(t, Ticket{Priority: PriorityLow, SLABreached: true}.Escalated())
	require.False(t, Ticket{Priority: PriorityHigh}.Escalated())
}

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2025-04-01 09:30:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 4, 1, 9, 30, 0, 0, time.UTC), ts)

	ts, err = ParseTimestamp("2025-04-01")
	require.NoError(t, err)
	require.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), ts)

	_, err = ParseTimestamp("01/04/2025")
	require.Error(t, err)
}
