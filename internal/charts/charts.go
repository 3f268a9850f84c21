package charts

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/config"
	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/explore"
	"github.com/spec-kit/servicedesk-analytics/pkg/util"
)

// Chart image file names.
const (
	FileMonthlyTickets       = "monthly_tickets.png"
	FileBreachByCategory     = "sla_breach_by_category.png"
	FileResolutionByTeam     = "resolution_time_by_team.png"
	FilePriorityDistribution = "priority_distribution.png"
)

const (
	chartWidth  = 1000
	chartHeight = 600
	barWidth    = 60
)

// One color per chart, matching the report deck palette.
var (
	colorTrend      = drawing.ColorFromHex("1f77b4")
	colorBreach     = drawing.ColorFromHex("ff7f0e")
	colorResolution = drawing.ColorFromHex("2ca02c")
	colorPriority   = drawing.ColorFromHex("d62728")
)

// TrendPoint is one month on the volume line chart.
type TrendPoint struct {
	Month   time.Time
	Tickets float64
}

// Bar is one labeled bar on a category, team, or priority chart.
type Bar struct {
	Label string
	Value float64
}

// Renderer draws the four business charts from the exploratory report
// files.
type Renderer struct {
	paths  config.PathsConfig
	logger *zap.Logger
}

// New instantiates a chart renderer.
func New(paths config.PathsConfig, logger *zap.Logger) *Renderer {
	return &Renderer{paths: paths, logger: logger}
}

// RenderAll reads the four report CSVs and writes one PNG per report
// into the charts directory.
func (r *Renderer) RenderAll() error {
	trend, err := LoadTrend(r.paths.OutputFile(explore.FileVolumeTrend))
	if err != nil {
		return err
	}
	breach, err := LoadCategoryBreach(r.paths.OutputFile(explore.FileBreachByCategory))
	if err != nil {
		return err
	}
	resolution, err := LoadTeamResolution(r.paths.OutputFile(explore.FileResolutionByTeam))
	if err != nil {
		return err
	}
	priorities, err := LoadPriorityCounts(r.paths.OutputFile(explore.FilePriorityDistribution))
	if err != nil {
		return err
	}

	renders := []struct {
		file   string
		render func(io.Writer) error
	}{
		{FileMonthlyTickets, func(w io.Writer) error { return RenderMonthlyTickets(trend, w) }},
		{FileBreachByCategory, func(w io.Writer) error { return RenderCategoryBreach(breach, w) }},
		{FileResolutionByTeam, func(w io.Writer) error { return RenderTeamResolution(resolution, w) }},
		{FilePriorityDistribution, func(w io.Writer) error { return RenderPriorityDistribution(priorities, w) }},
	}
	for _, item := range renders {
		path := r.paths.ChartFile(item.file)
		if err := writePNG(path, item.render); err != nil {
			return err
		}
		r.logger.Info("chart rendered", zap.String("file", path))
	}
	return nil
}

// LoadTrend reads ticket_volume_trend.csv into chronological points.
func LoadTrend(path string) ([]TrendPoint, error) {
	records, err := dataset.ReadRecords(path)
	if err != nil {
		return nil, mapMissing(err, path)
	}
	if err := records.Require(domain.ColMonth, "tickets_created"); err != nil {
		return nil, err
	}

	points := make([]TrendPoint, 0, len(records.Rows))
	for n, row := range records.Rows {
		label := records.Get(row, domain.ColMonth)
		month, err := time.Parse(domain.MonthLayout, label)
		if err != nil {
			return nil, util.NewInvalidValue(domain.ColMonth, n+2, label, err)
		}
		raw := records.Get(row, "tickets_created")
		tickets, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, util.NewInvalidValue("tickets_created", n+2, raw, err)
		}
		points = append(points, TrendPoint{Month: month, Tickets: tickets})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Month.Before(points[j].Month) })
	return points, nil
}

// LoadCategoryBreach reads sla_breach_by_category.csv into bars sorted
// by breach rate descending.
func LoadCategoryBreach(path string) ([]Bar, error) {
	return loadBars(path, domain.ColCategory, "breach_rate_percent", sortByValueDesc)
}

// LoadTeamResolution reads resolution_time_by_team.csv into bars sorted
// by average hours descending.
func LoadTeamResolution(path string) ([]Bar, error) {
	return loadBars(path, domain.ColAssignedTeam, "avg_resolution_hours", sortByValueDesc)
}

// LoadPriorityCounts reads priority_distribution.csv into bars in fixed
// severity order.
func LoadPriorityCounts(path string) ([]Bar, error) {
	return loadBars(path, domain.ColPriority, "ticket_count", sortBySeverity)
}

func loadBars(path, labelCol, valueCol string, arrange func([]Bar)) ([]Bar, error) {
	records, err := dataset.ReadRecords(path)
	if err != nil {
		return nil, mapMissing(err, path)
	}
	if err := records.Require(labelCol, valueCol); err != nil {
		return nil, err
	}

	bars := make([]Bar, 0, len(records.Rows))
	for n, row := range records.Rows {
		raw := records.Get(row, valueCol)
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, util.NewInvalidValue(valueCol, n+2, raw, err)
		}
		bars = append(bars, Bar{Label: records.Get(row, labelCol), Value: value})
	}
	arrange(bars)
	return bars, nil
}

func sortByValueDesc(bars []Bar) {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Value > bars[j].Value })
}

// sortBySeverity orders Critical first and Low last; unknown labels
// keep their file order after the known ones.
func sortBySeverity(bars []Bar) {
	rank := make(map[string]int, 4)
	for i, p := range domain.Priorities() {
		rank[string(p)] = i
	}
	severity := func(b Bar) int {
		if r, ok := rank[b.Label]; ok {
			return r
		}
		return len(rank)
	}
	sort.SliceStable(bars, func(i, j int) bool { return severity(bars[i]) < severity(bars[j]) })
}

// RenderMonthlyTickets draws the volume trend line chart.
func RenderMonthlyTickets(points []TrendPoint, w io.Writer) error {
	if len(points) == 0 {
		return util.NewEmptyInput("volume trend report")
	}

	xs := make([]time.Time, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = p.Month
		ys[i] = p.Tickets
	}

	graph := chart.Chart{
		Title:  "Service Desk Ticket Volume Trend",
		Width:  chartWidth,
		Height: chartHeight,
		XAxis: chart.XAxis{
			Name:           "Month",
			ValueFormatter: chart.TimeValueFormatterWithFormat("Jan 2006"),
			GridMajorStyle: gridStyle(),
		},
		YAxis: chart.YAxis{
			Name:           "Number of Tickets",
			GridMajorStyle: gridStyle(),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "tickets_created",
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: colorTrend,
					StrokeWidth: 2,
					DotColor:    colorTrend,
					DotWidth:    4,
				},
			},
		},
	}
	return graph.Render(chart.PNG, w)
}

// RenderCategoryBreach draws SLA breach rate per category.
func RenderCategoryBreach(bars []Bar, w io.Writer) error {
	return renderBars(bars, "SLA Breach Rate by Ticket Category", "SLA Breach Rate (%)", colorBreach, w)
}

// RenderTeamResolution draws average resolution hours per team.
func RenderTeamResolution(bars []Bar, w io.Writer) error {
	return renderBars(bars, "Average Resolution Time by Assigned Team", "Average Resolution Time (Hours)", colorResolution, w)
}

// RenderPriorityDistribution draws ticket counts per priority level.
func RenderPriorityDistribution(bars []Bar, w io.Writer) error {
	return renderBars(bars, "Ticket Count by Priority Level", "Number of Tickets", colorPriority, w)
}

func renderBars(bars []Bar, title, yAxis string, fill drawing.Color, w io.Writer) error {
	if len(bars) == 0 {
		return util.NewEmptyInput(title + " report")
	}

	maxValue := 0.0
	values := make([]chart.Value, 0, len(bars))
	for _, b := range bars {
		if b.Value > maxValue {
			maxValue = b.Value
		}
		values = append(values, chart.Value{
			Label: b.Label,
			Value: b.Value,
			Style: chart.Style{
				FillColor:   fill,
				StrokeColor: drawing.ColorBlack,
				StrokeWidth: 1,
			},
		})
	}
	// headroom above the tallest bar, floor of 1 so all-zero data renders
	upper := maxValue * 1.15
	if upper <= 0 {
		upper = 1
	}

	graph := chart.BarChart{
		Title:    title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: barWidth,
		XAxis:    chart.Style{},
		YAxis: chart.YAxis{
			Name:           yAxis,
			Range:          &chart.ContinuousRange{Min: 0, Max: upper},
			GridMajorStyle: gridStyle(),
		},
		Bars: values,
	}
	return graph.Render(chart.PNG, w)
}

func gridStyle() chart.Style {
	return chart.Style{
		StrokeColor:     chart.ColorLightGray,
		StrokeWidth:     1,
		StrokeDashArray: []float64{4, 2},
	}
}

func writePNG(path string, render func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return render(f)
}

func mapMissing(err error, path string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return util.NewMissingInput(path, "explore")
	}
	return err
}
