package cleaning

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/stats"
)

// categoricalOrder fixes the sequence of categorical validation passes.
// Each pass filters the table left by the previous one, so the order is
// observable in per-column removal counts and must stay stable.
var categoricalOrder = []string{domain.ColPriority, domain.ColCategory, domain.ColAssignedTeam}

// Report records what the cleaner did to a raw table.
type Report struct {
	InitialRows       int
	FinalRows         int
	MissingByColumn   map[string]int
	MissingDropped    int
	DuplicatesDropped int
	InvalidByColumn   map[string]int
	Actions           []string
}

// RowsRemoved returns the total number of dropped rows.
func (r Report) RowsRemoved() int {
	return r.InitialRows - r.FinalRows
}

// RemovedPercent returns dropped rows as a share of the input.
func (r Report) RemovedPercent() float64 {
	if r.InitialRows == 0 {
		return 0
	}
	return stats.Round(float64(r.RowsRemoved())/float64(r.InitialRows)*100, 2)
}

// Cleaner turns raw rows into the validated working table.
type Cleaner struct {
	logger *zap.Logger
}

// New instantiates a cleaner.
func New(logger *zap.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean parses, filters and enriches the raw table. Steps run in a
// fixed order: type conversion, missing-value drop, Ticket_ID
// deduplication (first occurrence kept), sequential categorical
// validation, calendar-field derivation.
func (c *Cleaner) Clean(raw []domain.RawTicket) ([]domain.Ticket, Report) {
	report := Report{
		InitialRows:     len(raw),
		MissingByColumn: make(map[string]int),
		InvalidByColumn: make(map[string]int),
	}

	tickets := c.parseRows(raw, &report)
	tickets = c.dropDuplicates(tickets, &report)
	tickets = c.validateCategoricals(tickets, &report)
	deriveCalendarFields(tickets)
	report.Actions = append(report.Actions, "derived Month, Week, Year from Created_Date")

	report.FinalRows = len(tickets)
	c.logger.Info("cleaned raw tickets",
		zap.Int("initial_rows", report.InitialRows),
		zap.Int("final_rows", report.FinalRows),
		zap.Int("rows_removed", report.RowsRemoved()),
	)
	return tickets, report
}

// parseRows converts text fields into typed values. A field that is
// empty or unparsable counts as missing, and any row with a missing
// value in any column is dropped entirely; there is no imputation.
func (c *Cleaner) parseRows(raw []domain.RawTicket, report *Report) []domain.Ticket {
	tickets := make([]domain.Ticket, 0, len(raw))
	for _, row := range raw {
		ticket, missing := parseRow(row)
		if len(missing) > 0 {
			for _, col := range missing {
				report.MissingByColumn[col]++
			}
			report.MissingDropped++
			continue
		}
		tickets = append(tickets, ticket)
	}
	report.Actions = append(report.Actions,
		"converted Created_Date and Resolved_Date to timestamps",
		fmt.Sprintf("removed %d rows with missing values", report.MissingDropped),
	)
	return tickets
}

func parseRow(row domain.RawTicket) (domain.Ticket, []string) {
	var ticket domain.Ticket
	var missing []string

	field := func(col, value string) (string, bool) {
		if value == "" {
			missing = append(missing, col)
			return "", false
		}
		return value, true
	}

	if v, ok := field(domain.ColTicketID, row.TicketID); ok {
		ticket.TicketID = v
	}
	if v, ok := field(domain.ColCreatedDate, row.CreatedDate); ok {
		ts, err := domain.ParseTimestamp(v)
		if err != nil {
			missing = append(missing, domain.ColCreatedDate)
		} else {
			ticket.CreatedDate = ts
		}
	}
	if v, ok := field(domain.ColResolvedDate, row.ResolvedDate); ok {
		ts, err := domain.ParseTimestamp(v)
		if err != nil {
			missing = append(missing, domain.ColResolvedDate)
		} else {
			ticket.ResolvedDate = ts
		}
	}
	if v, ok := field(domain.ColPriority, row.Priority); ok {
		ticket.Priority = domain.Priority(v)
	}
	if v, ok := field(domain.ColCategory, row.Category); ok {
		ticket.Category = domain.Category(v)
	}
	if v, ok := field(domain.ColAssignedTeam, row.AssignedTeam); ok {
		ticket.AssignedTeam = domain.Team(v)
	}
	if v, ok := field(domain.ColSLATargetHours, row.SLATargetHours); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			missing = append(missing, domain.ColSLATargetHours)
		} else {
			ticket.SLATargetHours = f
		}
	}
	if v, ok := field(domain.ColResolutionHours, row.ResolutionHours); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			missing = append(missing, domain.ColResolutionHours)
		} else {
			ticket.ResolutionHours = f
		}
	}
	if v, ok := field(domain.ColSLABreached, row.SLABreached); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			missing = append(missing, domain.ColSLABreached)
		} else {
			ticket.SLABreached = b
		}
	}
	return ticket, missing
}

// dropDuplicates removes repeated Ticket_IDs, keeping the first
// occurrence in input order.
func (c *Cleaner) dropDuplicates(tickets []domain.Ticket, report *Report) []domain.Ticket {
	seen := make(map[string]bool, len(tickets))
	kept := tickets[:0]
	for _, ticket := range tickets {
		if seen[ticket.TicketID] {
			report.DuplicatesDropped++
			continue
		}
		seen[ticket.TicketID] = true
		kept = append(kept, ticket)
	}
	report.Actions = append(report.Actions,
		fmt.Sprintf("removed %d duplicate Ticket_ID rows", report.DuplicatesDropped))
	return kept
}

// validateCategoricals runs one filtering pass per categorical column,
// each applied to the table as left by the previous pass.
func (c *Cleaner) validateCategoricals(tickets []domain.Ticket, report *Report) []domain.Ticket {
	for _, col := range categoricalOrder {
		kept := tickets[:0]
		invalid := 0
		for _, ticket := range tickets {
			if categoricalValid(ticket, col) {
				kept = append(kept, ticket)
			} else {
				invalid++
			}
		}
		report.InvalidByColumn[col] = invalid
		report.Actions = append(report.Actions,
			fmt.Sprintf("removed %d rows with invalid %s values", invalid, col))
		tickets = kept
	}
	return tickets
}

func categoricalValid(ticket domain.Ticket, col string) bool {
	switch col {
	case domain.ColPriority:
		return ticket.Priority.Valid()
	case domain.ColCategory:
		return ticket.Category.Valid()
	case domain.ColAssignedTeam:
		return ticket.AssignedTeam.Valid()
	default:
		return true
	}
}

func deriveCalendarFields(tickets []domain.Ticket) {
	for i := range tickets {
		t := &tickets[i]
		t.Month = t.CreatedDate.Format(domain.MonthLayout)
		_, t.Week = t.CreatedDate.ISOWeek()
		t.Year = t.CreatedDate.Year()
	}
}
