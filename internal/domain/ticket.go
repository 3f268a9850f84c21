package domain

import (
	"fmt"
	"time"
)

// Priority enumerates SLA urgency.
type Priority string

const (
	PriorityCritical Priority = "Critical"
	PriorityHigh     Priority = "High"
	PriorityMedium   Priority = "Medium"
	PriorityLow      Priority = "Low"
)

// Category enumerates ticket subject areas.
type Category string

const (
	CategoryNetwork  Category = "Network"
	CategoryHardware Category = "Hardware"
	CategorySoftware Category = "Software"
	CategoryAccess   Category = "Access"
	CategorySecurity Category = "Security"
	CategoryEmail    Category = "Email"
)

// Team enumerates resolver groups.
type Team string

const (
	TeamInfrastructure Team = "Infrastructure"
	TeamServiceDesk    Team = "ServiceDesk"
	TeamCyberSecurity  Team = "CyberSecurity"
	TeamApplications   Team = "Applications"
)

// slaTargetHours maps each priority to its maximum allowed resolution time.
var slaTargetHours = map[Priority]float64{
	PriorityCritical: 4,
	PriorityHigh:     24,
	PriorityMedium:   72,
	PriorityLow:      120,
}

// Priorities returns all priorities in severity order.
func Priorities() []Priority {
	return []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
}

// Categories returns all ticket categories.
func Categories() []Category {
	return []Category{CategoryNetwork, CategoryHardware, CategorySoftware, CategoryAccess, CategorySecurity, CategoryEmail}
}

// Teams returns all resolver teams.
func Teams() []Team {
	return []Team{TeamInfrastructure, TeamServiceDesk, TeamCyberSecurity, TeamApplications}
}

// Valid reports whether the priority belongs to the closed set.
func (p Priority) Valid() bool {
	_, ok := slaTargetHours[p]
	return ok
}

// Valid reports whether the category belongs to the closed set.
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Valid reports whether the team belongs to the closed set.
func (t Team) Valid() bool {
	for _, known := range Teams() {
		if t == known {
			return true
		}
	}
	return false
}

// SLATargetHours returns the SLA target for a priority, 0 for unknown values.
func SLATargetHours(p Priority) float64 {
	return slaTargetHours[p]
}

// Ticket is one fully validated service-desk record, including the
// calendar fields added by cleaning and the engineered features.
type Ticket struct {
	TicketID        string
	CreatedDate     time.Time
	ResolvedDate    time.Time
	Priority        Priority
	Category        Category
	AssignedTeam    Team
	SLATargetHours  float64
	ResolutionHours float64
	SLABreached     bool

	Month string
	Week  int
	Year  int

	ResolutionDays float64
	DayOfWeek      string
	IsHighPriority bool
	BreachFlag     int
}

// RawTicket is one record as read from the raw CSV, before any
// validation; every field is kept as text so malformed values reach
// the cleaner instead of failing at decode time.
type RawTicket struct {
	TicketID        string
	CreatedDate     string
	ResolvedDate    string
	Priority        string
	Category        string
	AssignedTeam    string
	SLATargetHours  string
	ResolutionHours string
	SLABreached     string
}

// IssueSignature returns the recurring-issue proxy key for the ticket.
func (t Ticket) IssueSignature() string {
	return fmt.Sprintf("%s | %s | %s", t.Category, t.Priority, t.AssignedTeam)
}

// Escalated reports the escalation heuristic: an SLA breach or a
// Critical priority. There is no independent escalation ground truth
// in the data.
func (t Ticket) Escalated() bool {
	return t.SLABreached || t.Priority == PriorityCritical
}
