package main

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/pipeline"
)

const dateLayout = "2006-01-02"

func renderGenerate(w io.Writer, result *pipeline.GenerateResult) {
	s := result.Summary
	fmt.Fprintf(w, "Generated %d synthetic tickets\n", s.Count)
	fmt.Fprintf(w, "Window: %s .. %s\n", s.WindowStart.Format(dateLayout), s.WindowEnd.Format(dateLayout))
	for _, priority := range domain.Priorities() {
		fmt.Fprintf(w, "  %-10s %d\n", priority, s.ByPriority[priority])
	}
	fmt.Fprintf(w, "SLA breached: %d (%.2f%%)\n", s.Breached, s.BreachRate)
	fmt.Fprintf(w, "Wrote %s\n", result.Path)
}

func renderClean(w io.Writer, result *pipeline.CleanResult) {
	rep := result.Report
	fmt.Fprintf(w, "Cleaning complete: %d -> %d rows (%d removed, %.2f%%)\n",
		rep.InitialRows, rep.FinalRows, rep.RowsRemoved(), rep.RemovedPercent())
	fmt.Fprintf(w, "Missing values dropped: %d\n", rep.MissingDropped)
	renderColumnCounts(w, rep.MissingByColumn)
	fmt.Fprintf(w, "Duplicate ticket IDs dropped: %d\n", rep.DuplicatesDropped)
	fmt.Fprintf(w, "Invalid categorical values dropped: %d\n", sumCounts(rep.InvalidByColumn))
	renderColumnCounts(w, rep.InvalidByColumn)
	for _, action := range rep.Actions {
		fmt.Fprintf(w, "  - %s\n", action)
	}
	fmt.Fprintf(w, "Wrote %s\n", result.Path)
}

func renderEngineer(w io.Writer, result *pipeline.EngineerResult) {
	fmt.Fprintf(w, "Engineered features for %d tickets\n", result.Rows)
	fmt.Fprintf(w, "Wrote %s\n", result.Path)

	k := result.KPIs
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Key metrics:")
	fmt.Fprintf(w, "  Total tickets: %d\n", k.TotalTickets)
	fmt.Fprintf(w, "  Average resolution: %.2f hours\n", k.AvgResolutionHours)
	fmt.Fprintf(w, "  SLA compliance: %.2f%%\n", k.SLACompliancePercent)
	fmt.Fprintf(w, "  Breached tickets: %d\n", k.BreachedTickets)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "By priority:")
	tw := newTable(w)
	fmt.Fprintln(tw, "priority\tcount\tavg_hours\tmedian_hours\tmin_hours\tmax_hours\tbreach_percent")
	for _, row := range result.ByPriority {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
			row.Priority, row.Count, row.AvgHours, row.MedianHours, row.MinHours, row.MaxHours, row.BreachPercent)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "By category:")
	tw = newTable(w)
	fmt.Fprintln(tw, "category\tcount\tavg_hours\tbreach_percent")
	for _, row := range result.ByCategory {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\n", row.Category, row.Count, row.AvgHours, row.BreachPercent)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "By weekday:")
	tw = newTable(w)
	fmt.Fprintln(tw, "day\tcount\tavg_hours\tbreach_percent")
	for _, row := range result.ByWeekday {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\n", row.Day, row.Count, row.AvgHours, row.BreachPercent)
	}
	tw.Flush()
}

func renderExplore(w io.Writer, result *pipeline.ExploreResult) {
	res := result.Results

	fmt.Fprintln(w, "Priority distribution:")
	tw := newTable(w)
	fmt.Fprintln(tw, "priority\tticket_count\tpercentage\tavg_resolution_hours\tbreach_rate_percent")
	for _, row := range res.PriorityDistribution {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n",
			row.Priority, row.TicketCount, row.Percentage, row.AvgResolutionHours, row.BreachRatePercent)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "SLA breach by category:")
	tw = newTable(w)
	fmt.Fprintln(tw, "category\ttotal_tickets\tbreached_tickets\tbreach_rate_percent\tavg_resolution_hours")
	for _, row := range res.BreachByCategory {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.2f\n",
			row.Category, row.TotalTickets, row.BreachedTickets, row.BreachRatePercent, row.AvgResolutionHours)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Resolution time by team:")
	tw = newTable(w)
	fmt.Fprintln(tw, "assigned_team\ttotal_tickets\tavg_resolution_hours\tavg_resolution_days\tbreach_rate_percent")
	for _, row := range res.ResolutionByTeam {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n",
			row.AssignedTeam, row.TotalTickets, row.AvgResolutionHours, row.AvgResolutionDays, row.BreachRatePercent)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Monthly volume trend:")
	tw = newTable(w)
	fmt.Fprintln(tw, "month\ttickets_created\tavg_resolution_hours\tbreach_rate_percent\thigh_priority_percent")
	for _, row := range res.VolumeTrend {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n",
			row.Month, row.TicketsCreated, row.AvgResolutionHours, row.BreachRatePercent, row.HighPriorityPercent)
	}
	tw.Flush()

	fmt.Fprintln(w)
	for _, path := range result.Files {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
}

func renderForecast(w io.Writer, result *pipeline.ForecastResult) {
	first := result.Weekly[0].WeekStart
	last := result.Weekly[len(result.Weekly)-1].WeekStart
	fmt.Fprintf(w, "Weekly series: %d weeks (%s .. %s)\n",
		len(result.Weekly), first.Format(dateLayout), last.Format(dateLayout))

	if len(result.Projections) > 0 {
		fmt.Fprintf(w, "Method: %s\n", result.Projections[0].Method)
		fmt.Fprintf(w, "Baseline average: %.2f tickets/week\n", result.Projections[0].BaselineAvg)
	}

	fmt.Fprintln(w)
	tw := newTable(w)
	fmt.Fprintln(tw, "week_start_date\tforecast_tickets\tlower_bound\tupper_bound")
	for _, p := range result.Projections {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", p.WeekStart.Format(dateLayout), p.ForecastTickets, p.LowerBound, p.UpperBound)
	}
	tw.Flush()

	fmt.Fprintln(w)
	for _, path := range result.Files {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
}

func renderRootCause(w io.Writer, result *pipeline.RootCauseResult) {
	analysis := result.Analysis

	fmt.Fprintln(w, "Repeat incident rate by category:")
	tw := newTable(w)
	fmt.Fprintln(tw, "category\ttotal_tickets\trecurring_tickets\trepeat_incident_rate_percent")
	for _, row := range analysis.RepeatRates {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\n", row.Category, row.TotalTickets, row.RecurringTickets, row.RepeatRatePercent)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Most frequent recurring issues (top %d):\n", len(analysis.RecurringIssues))
	tw = newTable(w)
	fmt.Fprintln(tw, "rank\tissue_signature\tincident_count\tbreached_count\tbreach_rate_percent")
	for _, row := range analysis.RecurringIssues {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%.2f\n", row.Rank, row.Signature, row.IncidentCount, row.BreachedCount, row.BreachRatePercent)
	}
	tw.Flush()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Escalations by team:")
	tw = newTable(w)
	fmt.Fprintln(tw, "assigned_team\ttotal_tickets\tescalations\tescalation_rate_percent\tshare_of_total_percent")
	for _, row := range analysis.TeamEscalations {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.2f\t%.2f\n",
			row.AssignedTeam, row.TotalTickets, row.Escalations, row.EscalationRatePercent, row.ShareOfTotalPercent)
	}
	tw.Flush()

	fmt.Fprintln(w)
	for _, path := range result.Files {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
}

func renderPowerBI(w io.Writer, result *pipeline.PowerBIResult) {
	q := result.Quality
	fmt.Fprintf(w, "Power BI dataset: %d rows, %d columns\n", q.Rows, q.Columns)
	fmt.Fprintf(w, "Duplicate ticket IDs: %d\n", q.DuplicateIDs)
	fmt.Fprintf(w, "Missing values: %d\n", q.MissingValues)
	fmt.Fprintf(w, "Wrote %s\n", result.Path)
}

func renderCharts(w io.Writer, result *pipeline.ChartsResult) {
	fmt.Fprintf(w, "Rendered %d charts\n", len(result.Files))
	for _, path := range result.Files {
		fmt.Fprintf(w, "Wrote %s\n", path)
	}
}

func renderReport(w io.Writer, result *pipeline.ReportResult) {
	fmt.Fprintf(w, "Wrote workbook %s (%d sheets)\n", result.Path, result.Sheets)
}

func renderLoad(w io.Writer, result *pipeline.LoadResult) {
	fmt.Fprintf(w, "Loaded %d rows into %s\n", result.Rows, result.Table)
}

func renderPublish(w io.Writer, result *pipeline.PublishResult) {
	fmt.Fprintf(w, "Published KPI snapshot for run %s at %s\n",
		result.RunID, result.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(w, "  Total tickets: %d\n", result.KPIs.TotalTickets)
	fmt.Fprintf(w, "  Average resolution: %.2f hours\n", result.KPIs.AvgResolutionHours)
	fmt.Fprintf(w, "  SLA compliance: %.2f%%\n", result.KPIs.SLACompliancePercent)
	fmt.Fprintf(w, "  Breached tickets: %d\n", result.KPIs.BreachedTickets)
}

func renderRun(w io.Writer, result *pipeline.RunResult) {
	fmt.Fprintln(w, "Pipeline run complete")
	fmt.Fprintf(w, "  generate: %d tickets\n", result.Generate.Summary.Count)
	fmt.Fprintf(w, "  clean: %d -> %d rows\n", result.Clean.Report.InitialRows, result.Clean.Report.FinalRows)
	fmt.Fprintf(w, "  engineer: %d rows, SLA compliance %.2f%%\n",
		result.Engineer.Rows, result.Engineer.KPIs.SLACompliancePercent)
	fmt.Fprintf(w, "  explore: %d reports\n", len(result.Explore.Files))
	fmt.Fprintf(w, "  forecast: %d weeks observed, %d projected\n",
		len(result.Forecast.Weekly), len(result.Forecast.Projections))
	fmt.Fprintf(w, "  rootcause: %d recurring issues\n", len(result.RootCause.Analysis.RecurringIssues))
	fmt.Fprintf(w, "  powerbi: %d rows, %d columns\n", result.PowerBI.Quality.Rows, result.PowerBI.Quality.Columns)
	fmt.Fprintf(w, "  charts: %d files\n", len(result.Charts.Files))
	fmt.Fprintf(w, "  report: %d sheets\n", result.Report.Sheets)
	if result.Load != nil {
		fmt.Fprintf(w, "  load: %d rows into %s\n", result.Load.Rows, result.Load.Table)
	} else {
		fmt.Fprintln(w, "  load: skipped (warehouse not configured)")
	}
	if result.Publish != nil {
		fmt.Fprintf(w, "  publish: snapshot for run %s\n", result.Publish.RunID)
	} else {
		fmt.Fprintln(w, "  publish: skipped (snapshot store not configured)")
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func renderColumnCounts(w io.Writer, counts map[string]int) {
	columns := make([]string, 0, len(counts))
	for column, n := range counts {
		if n > 0 {
			columns = append(columns, column)
		}
	}
	sort.Strings(columns)
	for _, column := range columns {
		fmt.Fprintf(w, "  %-20s %d\n", column, counts[column])
	}
}

func sumCounts(counts map[string]int) int {
	total := 0
	for _, n := range counts {
		total += n
	}
	return total
}
