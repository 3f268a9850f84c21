package forecast

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/config"
	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/pkg/util"
)

func newForecaster(window int) *Forecaster {
	return New(config.ForecastConfig{Window: window}, zap.NewNop())
}

func ticketsOn(days ...string) *dataset.TicketTable {
	table := &dataset.TicketTable{Columns: domain.EngineeredColumns()}
	for i, day := range days {
		created, err := time.Parse("2006-01-02 15:04:05", day)
		if err != nil {
			panic(err)
		}
		table.Tickets = append(table.Tickets, domain.Ticket{
			TicketID:    fmt.Sprintf("TK-%04d", 1000+i),
			CreatedDate: created,
		})
	}
	return table
}

func TestWeekStartAlignsToMonday(t *testing.T) {
	cases := map[string]string{
		"2025-04-07 00:00:00": "2025-04-07", // Monday maps to itself
		"2025-04-09 15:30:00": "2025-04-07", // Wednesday
		"2025-04-13 23:59:59": "2025-04-07", // Sunday still belongs to the prior Monday
		"2025-04-14 00:00:00": "2025-04-14", // next Monday opens a new week
	}
	for in, want := range cases {
		ts, err := time.Parse("2006-01-02 15:04:05", in)
		require.NoError(t, err)
		assert.Equal(t, want, WeekStart(ts).Format("2006-01-02"), "input %s", in)
	}
}

func TestPrepareWeeklyCountsAndFillsGaps(t *testing.T) {
	// Two tickets in the week of Apr 7, none in the week of Apr 14,
	// one in the week of Apr 21.
	table := ticketsOn(
		"2025-04-07 09:00:00",
		"2025-04-13 22:00:00",
		"2025-04-23 11:00:00",
	)

	weekly, err := newForecaster(4).PrepareWeekly(table)
	require.NoError(t, err)
	require.Len(t, weekly, 3)

	assert.Equal(t, "2025-04-07", weekly[0].WeekStart.Format("2006-01-02"))
	assert.Equal(t, 2, weekly[0].Tickets)
	assert.Equal(t, "2025-04-14", weekly[1].WeekStart.Format("2006-01-02"))
	assert.Equal(t, 0, weekly[1].Tickets)
	assert.Equal(t, "2025-04-21", weekly[2].WeekStart.Format("2006-01-02"))
	assert.Equal(t, 1, weekly[2].Tickets)
}

func TestPrepareWeeklyValidation(t *testing.T) {
	empty := &dataset.TicketTable{Columns: domain.EngineeredColumns()}
	_, err := newForecaster(4).PrepareWeekly(empty)
	assert.True(t, util.IsCode(err, util.CodeEmptyInput))

	missing := &dataset.TicketTable{Columns: []string{domain.ColTicketID}}
	_, err = newForecaster(4).PrepareWeekly(missing)
	assert.True(t, util.IsCode(err, util.CodeMissingColumns))
}

func TestForecastMovingAverageBaseline(t *testing.T) {
	monday := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	weekly := make([]WeeklyCount, 0, 4)
	for i, n := range []int{10, 12, 8, 14} {
		weekly = append(weekly, WeeklyCount{WeekStart: monday.AddDate(0, 0, 7*i), Tickets: n})
	}

	projections, err := newForecaster(4).Forecast(weekly)
	require.NoError(t, err)
	require.Len(t, projections, Horizon)

	// mean 11.0, population stddev ~2.24 over the same four weeks
	first := projections[0]
	assert.Equal(t, 11, first.ForecastTickets)
	assert.Equal(t, 9, first.LowerBound)
	assert.Equal(t, 13, first.UpperBound)
	assert.Equal(t, 11.0, first.BaselineAvg)
	assert.Equal(t, Method, first.Method)

	// future weeks step by 7 days from the last observed Monday
	assert.Equal(t, "2025-05-05", projections[0].WeekStart.Format("2006-01-02"))
	assert.Equal(t, "2025-05-26", projections[3].WeekStart.Format("2006-01-02"))
	for _, p := range projections[1:] {
		assert.Equal(t, first.ForecastTickets, p.ForecastTickets)
		assert.Equal(t, first.LowerBound, p.LowerBound)
		assert.Equal(t, first.UpperBound, p.UpperBound)
	}
}

func TestForecastLowerBoundClampedAtZero(t *testing.T) {
	monday := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	weekly := []WeeklyCount{
		{WeekStart: monday, Tickets: 0},
		{WeekStart: monday.AddDate(0, 0, 7), Tickets: 0},
		{WeekStart: monday.AddDate(0, 0, 14), Tickets: 12},
	}

	// baseline 4, variability ~5.66: the raw lower bound is negative
	projections, err := newForecaster(4).Forecast(weekly)
	require.NoError(t, err)
	assert.Equal(t, 0, projections[0].LowerBound)
	assert.Equal(t, 4, projections[0].ForecastTickets)
	assert.Equal(t, 10, projections[0].UpperBound)
}

func TestForecastSingleWeekHasZeroBand(t *testing.T) {
	weekly := []WeeklyCount{{WeekStart: time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC), Tickets: 9}}

	projections, err := newForecaster(4).Forecast(weekly)
	require.NoError(t, err)
	assert.Equal(t, 9, projections[0].ForecastTickets)
	assert.Equal(t, 9, projections[0].LowerBound)
	assert.Equal(t, 9, projections[0].UpperBound)
}

func TestForecastEmptySeries(t *testing.T) {
	_, err := newForecaster(4).Forecast(nil)
	assert.True(t, util.IsCode(err, util.CodeEmptyInput))
}

func TestForecastTableColumns(t *testing.T) {
	monday := time.Date(2025, 5, 5, 0, 0, 0, 0, time.UTC)
	table := ForecastTable([]Projection{{
		WeekStart:       monday,
		ForecastTickets: 11,
		LowerBound:      9,
		UpperBound:      13,
		Method:          Method,
		BaselineAvg:     11.0,
	}})

	assert.Equal(t, []string{"week_start_date", "forecast_tickets", "lower_bound", "upper_bound",
		"method", "baseline_last_4_week_avg"}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "2025-05-05", table.Rows[0][0])

	actuals := WeeklyTable([]WeeklyCount{{WeekStart: monday, Tickets: 7}})
	assert.Equal(t, []string{"week_start_date", "actual_tickets"}, actuals.Columns)
	assert.Equal(t, 7, actuals.Rows[0][1])
}
