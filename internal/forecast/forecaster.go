package forecast

import (
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/config"
	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/stats"
	"github.com/spec-kit/servicedesk-analytics/pkg/util"
)

// Method labels every projection row.
const Method = "4-week moving average baseline"

// Horizon is the number of future weeks projected.
const Horizon = 4

// Report table file names.
const (
	FileWeeklyActuals = "weekly_ticket_volume_actuals.csv"
	FileForecast      = "ticket_volume_forecast_4_weeks.csv"
)

// variabilityFloor is the minimum trailing span for the variability band.
const variabilityFloor = 8

// WeeklyCount is one observed week of ticket volume, keyed by the
// Monday that starts it.
type WeeklyCount struct {
	WeekStart time.Time
	Tickets   int
}

// Projection is one forecast week.
type Projection struct {
	WeekStart       time.Time
	ForecastTickets int
	LowerBound      int
	UpperBound      int
	Method          string
	BaselineAvg     float64
}

// Forecaster aggregates ticket volume into Monday-based weeks and
// projects a moving-average baseline with a variability band.
type Forecaster struct {
	cfg    config.ForecastConfig
	logger *zap.Logger
}

// New instantiates a forecaster.
func New(cfg config.ForecastConfig, logger *zap.Logger) *Forecaster {
	return &Forecaster{cfg: cfg, logger: logger}
}

// PrepareWeekly buckets tickets into half-open [Monday, next Monday)
// weeks over Created_Date. Weeks between the first and last observed
// Monday with no tickets appear as zero counts.
func (f *Forecaster) PrepareWeekly(table *dataset.TicketTable) ([]WeeklyCount, error) {
	if err := table.Require(domain.ColTicketID, domain.ColCreatedDate); err != nil {
		return nil, err
	}
	if len(table.Tickets) == 0 {
		return nil, util.NewEmptyInput("ticket table")
	}

	counts := make(map[time.Time]int)
	for _, ticket := range table.Tickets {
		counts[WeekStart(ticket.CreatedDate)]++
	}

	mondays := make([]time.Time, 0, len(counts))
	for monday := range counts {
		mondays = append(mondays, monday)
	}
	sort.Slice(mondays, func(i, j int) bool { return mondays[i].Before(mondays[j]) })

	first, last := mondays[0], mondays[len(mondays)-1]
	weekly := make([]WeeklyCount, 0, len(mondays))
	for monday := first; !monday.After(last); monday = monday.AddDate(0, 0, 7) {
		weekly = append(weekly, WeeklyCount{WeekStart: monday, Tickets: counts[monday]})
	}

	f.logger.Info("prepared weekly volume",
		zap.Int("weeks", len(weekly)),
		zap.Time("first_week", first),
		zap.Time("last_week", last),
	)
	return weekly, nil
}

// Forecast projects the next 4 weeks from the observed series. The
// point forecast is the mean of the trailing window; the band is the
// population standard deviation over the trailing max(8, window) weeks.
func (f *Forecaster) Forecast(weekly []WeeklyCount) ([]Projection, error) {
	if len(weekly) == 0 {
		return nil, util.NewEmptyInput("weekly volume series")
	}

	window := f.cfg.Window
	if window <= 0 {
		window = 4
	}

	counts := make([]float64, len(weekly))
	for i, w := range weekly {
		counts[i] = float64(w.Tickets)
	}

	baseline := stats.Mean(tail(counts, window))
	variability := stats.StdDevPopulation(tail(counts, max(variabilityFloor, window)))

	point := int(math.Round(baseline))
	lower := int(math.Round(baseline - variability))
	if lower < 0 {
		lower = 0
	}
	upper := int(math.Round(baseline + variability))
	baselineAvg := stats.Round(baseline, 2)

	start := weekly[len(weekly)-1].WeekStart.AddDate(0, 0, 7)
	projections := make([]Projection, 0, Horizon)
	for i := 0; i < Horizon; i++ {
		projections = append(projections, Projection{
			WeekStart:       start.AddDate(0, 0, 7*i),
			ForecastTickets: point,
			LowerBound:      lower,
			UpperBound:      upper,
			Method:          Method,
			BaselineAvg:     baselineAvg,
		})
	}

	f.logger.Info("forecast ready",
		zap.Float64("baseline", baselineAvg),
		zap.Float64("variability", stats.Round(variability, 2)),
		zap.Int("forecast_tickets", point),
	)
	return projections, nil
}

// WeekStart returns the Monday 00:00 UTC that starts the week
// containing ts.
func WeekStart(ts time.Time) time.Time {
	t := ts.UTC()
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -offset)
}

func tail(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}

// WeeklyTable renders the observed series for export.
func WeeklyTable(rows []WeeklyCount) *dataset.Table {
	table := dataset.NewTable("week_start_date", "actual_tickets")
	for _, r := range rows {
		table.Append(r.WeekStart.Format("2006-01-02"), r.Tickets)
	}
	return table
}

// ForecastTable renders the projection for export.
func ForecastTable(rows []Projection) *dataset.Table {
	table := dataset.NewTable("week_start_date", "forecast_tickets", "lower_bound", "upper_bound",
		"method", "baseline_last_4_week_avg")
	for _, r := range rows {
		table.Append(r.WeekStart.Format("2006-01-02"), r.ForecastTickets, r.LowerBound, r.UpperBound,
			r.Method, r.BaselineAvg)
	}
	return table
}
