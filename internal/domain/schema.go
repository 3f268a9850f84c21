package domain

import (
	"fmt"
	"time"
)

// Column names shared by every stage of the pipeline.
const (
	ColTicketID        = "Ticket_ID"
	ColCreatedDate     = "Created_Date"
	ColResolvedDate    = "Resolved_Date"
	ColPriority        = "Priority"
	ColCategory        = "Category"
	ColAssignedTeam    = "Assigned_Team"
	ColSLATargetHours  = "SLA_Target_Hours"
	ColResolutionHours = "Resolution_Hours"
	ColSLABreached     = "SLA_Breached"
	ColMonth           = "Month"
	ColWeek            = "Week"
	ColYear            = "Year"
	ColResolutionDays  = "Resolution_Days"
	ColDayOfWeek       = "Day_of_Week"
	ColIsHighPriority  = "Is_High_Priority"
	ColBreachFlag      = "Breach_Flag"
	ColTicketAgeHours  = "Ticket_Age_Hours"
	ColIssueSignature  = "Issue_Signature"
)

// TimestampLayout is the canonical timestamp format written to CSV files.
const TimestampLayout = "2006-01-02 15:04:05"

// MonthLayout is the year-month format of the derived Month column.
const MonthLayout = "2006-01"

// timestampLayouts are accepted on input, tried in order.
var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339,
	"2006-01-02",
}

// RawColumns returns the raw table schema in column order.
func RawColumns() []string {
	return []string{
		ColTicketID, ColCreatedDate, ColResolvedDate, ColPriority, ColCategory,
		ColAssignedTeam, ColSLATargetHours, ColResolutionHours, ColSLABreached,
	}
}

// CleanedColumns returns the cleaned table schema: raw columns plus calendar fields.
func CleanedColumns() []string {
	return append(RawColumns(), ColMonth, ColWeek, ColYear)
}

// EngineeredColumns returns the engineered table schema: cleaned columns plus features.
func EngineeredColumns() []string {
	return append(CleanedColumns(), ColResolutionDays, ColDayOfWeek, ColIsHighPriority, ColBreachFlag)
}

// ParseTimestamp parses a timestamp in any accepted layout.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable timestamp %q", value)
}

// FormatTimestamp renders a timestamp in the canonical CSV layout.
func FormatTimestamp(ts time.Time) string {
	return ts.Format(TimestampLayout)
}
