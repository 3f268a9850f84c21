package pipeline

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/charts"
	"github.com/spec-kit/servicedesk-analytics/internal/cleaning"
	"github.com/spec-kit/servicedesk-analytics/internal/config"
	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/internal/explore"
	"github.com/spec-kit/servicedesk-analytics/internal/features"
	"github.com/spec-kit/servicedesk-analytics/internal/forecast"
	"github.com/spec-kit/servicedesk-analytics/internal/generator"
	"github.com/spec-kit/servicedesk-analytics/internal/kpi"
	"github.com/spec-kit/servicedesk-analytics/internal/observability"
	"github.com/spec-kit/servicedesk-analytics/internal/powerbi"
	"github.com/spec-kit/servicedesk-analytics/internal/repository"
	"github.com/spec-kit/servicedesk-analytics/internal/rootcause"
	"github.com/spec-kit/servicedesk-analytics/pkg/util"
)

// Stage names, used in logs, metrics and missing-input guidance.
const (
	StageGenerate  = "generate"
	StageClean     = "clean"
	StageEngineer  = "engineer"
	StageExplore   = "explore"
	StageForecast  = "forecast"
	StageRootCause = "rootcause"
	StagePowerBI   = "powerbi"
	StageCharts    = "charts"
	StageReport    = "report"
	StageLoad      = "load"
	StagePublish   = "publish"
)

// FileWorkbook is the Excel report file name.
const FileWorkbook = "service_desk_report.xlsx"

// Dependencies bundles the optional external sinks for the runner.
type Dependencies struct {
	Warehouse repository.WarehouseRepository
	Snapshots repository.KPISnapshotRepository
}

// Runner executes pipeline stages in order; every stage reads its
// upstream file and fully materializes its own outputs before returning.
type Runner struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *observability.Metrics
	runID   string

	generator  *generator.Generator
	cleaner    *cleaning.Cleaner
	engineer   *features.Engineer
	kpis       *kpi.Calculator
	explorer   *explore.Analyzer
	forecaster *forecast.Forecaster
	rootCause  *rootcause.Analyzer
	powerBI    *powerbi.Preparer
	charts     *charts.Renderer

	warehouse repository.WarehouseRepository
	snapshots repository.KPISnapshotRepository
}

// New wires a runner; each invocation gets a fresh run ID carried
// through every log line.
func New(cfg *config.Config, deps Dependencies, logger *zap.Logger) *Runner {
	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID))

	return &Runner{
		cfg:        cfg,
		logger:     logger,
		metrics:    observability.NewMetrics(),
		runID:      runID,
		generator:  generator.New(cfg.Generator, logger),
		cleaner:    cleaning.New(logger),
		engineer:   features.New(logger),
		kpis:       kpi.NewCalculator(logger),
		explorer:   explore.New(logger),
		forecaster: forecast.New(cfg.Forecast, logger),
		rootCause:  rootcause.New(cfg.RootCause, logger),
		powerBI:    powerbi.New(logger),
		charts:     charts.New(cfg.Paths, logger),
		warehouse:  deps.Warehouse,
		snapshots:  deps.Snapshots,
	}
}

// RunID returns the identifier assigned to this runner.
func (r *Runner) RunID() string {
	return r.runID
}

// Metrics exposes the per-stage row counters.
func (r *Runner) Metrics() *observability.Metrics {
	return r.metrics
}

// GenerateResult describes one generated raw dataset.
type GenerateResult struct {
	Path    string
	Summary generator.Summary
}

// Generate writes the synthetic raw dataset.
func (r *Runner) Generate() (*GenerateResult, error) {
	tickets, summary := r.generator.Generate()

	path := r.cfg.Paths.RawTickets()
	if err := dataset.WriteRawTickets(path, tickets); err != nil {
		return nil, err
	}
	r.metrics.RecordStage(StageGenerate, 0, len(tickets))
	return &GenerateResult{Path: path, Summary: summary}, nil
}

// CleanResult describes one cleaning pass.
type CleanResult struct {
	Path   string
	Rows   int
	Report cleaning.Report
}

// Clean validates the raw dataset and writes the cleaned table.
func (r *Runner) Clean() (*CleanResult, error) {
	raw, err := r.readRaw()
	if err != nil {
		return nil, err
	}

	tickets, report := r.cleaner.Clean(raw)

	path := r.cfg.Paths.CleanedTickets()
	if err := dataset.WriteCleanedTickets(path, tickets); err != nil {
		return nil, err
	}
	r.recordCleanMetrics(report)
	return &CleanResult{Path: path, Rows: len(tickets), Report: report}, nil
}

// EngineerResult describes one feature-engineering pass, KPIs included.
type EngineerResult struct {
	Path       string
	Rows       int
	KPIs       kpi.Summary
	ByPriority []kpi.PriorityRow
	ByCategory []kpi.CategoryRow
	ByWeekday  []kpi.WeekdayRow
}

// Engineer derives analytical features over the cleaned table, writes
// the engineered table, and computes the KPI block.
func (r *Runner) Engineer() (*EngineerResult, error) {
	table, err := r.readCleaned()
	if err != nil {
		return nil, err
	}

	engineered, err := r.engineer.Engineer(table)
	if err != nil {
		return nil, err
	}

	path := r.cfg.Paths.EngineeredTickets()
	if err := dataset.WriteEngineeredTickets(path, engineered.Tickets); err != nil {
		return nil, err
	}
	r.metrics.RecordStage(StageEngineer, len(table.Tickets), len(engineered.Tickets))

	return &EngineerResult{
		Path:       path,
		Rows:       len(engineered.Tickets),
		KPIs:       r.kpis.Calculate(engineered.Tickets),
		ByPriority: r.kpis.ByPriority(engineered.Tickets),
		ByCategory: r.kpis.ByCategory(engineered.Tickets),
		ByWeekday:  r.kpis.ByWeekday(engineered.Tickets),
	}, nil
}

// ExploreResult describes the four exploratory report files.
type ExploreResult struct {
	Results *explore.Results
	Files   []string
}

// Explore runs the four exploratory reports and writes one CSV each.
func (r *Runner) Explore() (*ExploreResult, error) {
	table, err := r.readEngineered()
	if err != nil {
		return nil, err
	}

	results, err := r.explorer.Analyze(table)
	if err != nil {
		return nil, err
	}

	outputs := []struct {
		file  string
		table *dataset.Table
	}{
		{explore.FilePriorityDistribution, explore.PriorityDistributionTable(results.PriorityDistribution)},
		{explore.FileBreachByCategory, explore.BreachByCategoryTable(results.BreachByCategory)},
		{explore.FileResolutionByTeam, explore.ResolutionByTeamTable(results.ResolutionByTeam)},
		{explore.FileVolumeTrend, explore.VolumeTrendTable(results.VolumeTrend)},
	}
	files := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := r.cfg.Paths.OutputFile(out.file)
		if err := dataset.WriteCSV(path, out.table); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	r.metrics.RecordStage(StageExplore, len(table.Tickets), len(table.Tickets))
	return &ExploreResult{Results: results, Files: files}, nil
}

// ForecastResult describes the weekly series and its projection.
type ForecastResult struct {
	Weekly      []forecast.WeeklyCount
	Projections []forecast.Projection
	Files       []string
}

// Forecast builds the weekly volume series and the 4-week projection.
func (r *Runner) Forecast() (*ForecastResult, error) {
	table, err := r.readEngineered()
	if err != nil {
		return nil, err
	}

	weekly, err := r.forecaster.PrepareWeekly(table)
	if err != nil {
		return nil, err
	}
	projections, err := r.forecaster.Forecast(weekly)
	if err != nil {
		return nil, err
	}

	actualsPath := r.cfg.Paths.OutputFile(forecast.FileWeeklyActuals)
	if err := dataset.WriteCSV(actualsPath, forecast.WeeklyTable(weekly)); err != nil {
		return nil, err
	}
	forecastPath := r.cfg.Paths.OutputFile(forecast.FileForecast)
	if err := dataset.WriteCSV(forecastPath, forecast.ForecastTable(projections)); err != nil {
		return nil, err
	}
	r.metrics.RecordStage(StageForecast, len(table.Tickets), len(weekly))
	return &ForecastResult{
		Weekly:      weekly,
		Projections: projections,
		Files:       []string{actualsPath, forecastPath},
	}, nil
}

// RootCauseResult describes the three recurring-issue report files.
type RootCauseResult struct {
	Analysis *rootcause.Analysis
	Files    []string
}

// RootCause runs the recurring-issue and escalation analyses.
func (r *Runner) RootCause() (*RootCauseResult, error) {
	table, err := r.readEngineered()
	if err != nil {
		return nil, err
	}

	analysis, err := r.rootCause.Analyze(table)
	if err != nil {
		return nil, err
	}

	outputs := []struct {
		file  string
		table *dataset.Table
	}{
		{rootcause.FileRepeatRates, rootcause.RepeatRateTable(analysis.RepeatRates)},
		{rootcause.FileRecurringIssues, rootcause.RecurringIssuesTable(analysis.RecurringIssues)},
		{rootcause.FileTeamEscalations, rootcause.TeamEscalationsTable(analysis.TeamEscalations)},
	}
	files := make([]string, 0, len(outputs))
	for _, out := range outputs {
		path := r.cfg.Paths.OutputFile(out.file)
		if err := dataset.WriteCSV(path, out.table); err != nil {
			return nil, err
		}
		files = append(files, path)
	}
	r.metrics.RecordStage(StageRootCause, len(table.Tickets), len(table.Tickets))
	return &RootCauseResult{Analysis: analysis, Files: files}, nil
}

// PowerBIResult describes the flattened BI export.
type PowerBIResult struct {
	Path    string
	Quality powerbi.Quality
}

// PowerBI writes the flattened BI dataset.
func (r *Runner) PowerBI() (*PowerBIResult, error) {
	table, err := r.readEngineered()
	if err != nil {
		return nil, err
	}

	prepared, err := r.powerBI.Prepare(table)
	if err != nil {
		return nil, err
	}

	path := r.cfg.Paths.OutputFile(powerbi.FilePowerBI)
	if err := dataset.WriteCSV(path, prepared.Table); err != nil {
		return nil, err
	}
	r.metrics.RecordStage(StagePowerBI, len(table.Tickets), prepared.Quality.Rows)
	return &PowerBIResult{Path: path, Quality: prepared.Quality}, nil
}

// ChartsResult lists the rendered chart files.
type ChartsResult struct {
	Files []string
}

// Charts renders the four business charts from the exploratory reports.
func (r *Runner) Charts() (*ChartsResult, error) {
	if err := r.charts.RenderAll(); err != nil {
		return nil, err
	}
	files := []string{
		r.cfg.Paths.ChartFile(charts.FileMonthlyTickets),
		r.cfg.Paths.ChartFile(charts.FileBreachByCategory),
		r.cfg.Paths.ChartFile(charts.FileResolutionByTeam),
		r.cfg.Paths.ChartFile(charts.FilePriorityDistribution),
	}
	return &ChartsResult{Files: files}, nil
}

// ReportResult describes the Excel workbook.
type ReportResult struct {
	Path   string
	Sheets int
}

// Report writes every report table into a single Excel workbook.
func (r *Runner) Report() (*ReportResult, error) {
	table, err := r.readEngineered()
	if err != nil {
		return nil, err
	}

	results, err := r.explorer.Analyze(table)
	if err != nil {
		return nil, err
	}
	weekly, err := r.forecaster.PrepareWeekly(table)
	if err != nil {
		return nil, err
	}
	projections, err := r.forecaster.Forecast(weekly)
	if err != nil {
		return nil, err
	}
	analysis, err := r.rootCause.Analyze(table)
	if err != nil {
		return nil, err
	}

	sheets := []dataset.Sheet{
		{Name: "KPIs", Table: kpi.SummaryTable(r.kpis.Calculate(table.Tickets))},
		{Name: "By Priority", Table: kpi.PriorityTable(r.kpis.ByPriority(table.Tickets))},
		{Name: "By Category", Table: kpi.CategoryTable(r.kpis.ByCategory(table.Tickets))},
		{Name: "By Weekday", Table: kpi.WeekdayTable(r.kpis.ByWeekday(table.Tickets))},
		{Name: "Breach By Category", Table: explore.BreachByCategoryTable(results.BreachByCategory)},
		{Name: "Team Resolution", Table: explore.ResolutionByTeamTable(results.ResolutionByTeam)},
		{Name: "Monthly Trend", Table: explore.VolumeTrendTable(results.VolumeTrend)},
		{Name: "Priority Distribution", Table: explore.PriorityDistributionTable(results.PriorityDistribution)},
		{Name: "Weekly Actuals", Table: forecast.WeeklyTable(weekly)},
		{Name: "Forecast", Table: forecast.ForecastTable(projections)},
		{Name: "Repeat Incidents", Table: rootcause.RepeatRateTable(analysis.RepeatRates)},
		{Name: "Recurring Issues", Table: rootcause.RecurringIssuesTable(analysis.RecurringIssues)},
		{Name: "Escalations", Table: rootcause.TeamEscalationsTable(analysis.TeamEscalations)},
	}

	path := r.cfg.Paths.OutputFile(FileWorkbook)
	if err := dataset.WriteWorkbook(path, sheets); err != nil {
		return nil, err
	}
	r.metrics.RecordStage(StageReport, len(table.Tickets), len(sheets))
	return &ReportResult{Path: path, Sheets: len(sheets)}, nil
}

// LoadResult describes one warehouse load.
type LoadResult struct {
	Table string
	Rows  int64
}

// Load bulk-loads the engineered table into the warehouse.
func (r *Runner) Load(ctx context.Context) (*LoadResult, error) {
	if r.warehouse == nil {
		return nil, errors.New("warehouse not configured; set POSTGRES_DSN")
	}

	table, err := r.readEngineered()
	if err != nil {
		return nil, err
	}

	if r.cfg.Postgres.EnsureSchema {
		if err := r.warehouse.EnsureSchema(ctx); err != nil {
			return nil, err
		}
	}
	rows, err := r.warehouse.ReplaceTickets(ctx, table.Tickets)
	if err != nil {
		return nil, err
	}
	r.metrics.RecordStage(StageLoad, len(table.Tickets), int(rows))
	return &LoadResult{Table: "powerbi_service_tickets", Rows: rows}, nil
}

// PublishResult describes one KPI snapshot publish.
type PublishResult struct {
	RunID       string
	GeneratedAt time.Time
	KPIs        kpi.Summary
}

// Publish writes the latest KPI block to the snapshot store.
func (r *Runner) Publish(ctx context.Context) (*PublishResult, error) {
	if r.snapshots == nil {
		return nil, errors.New("snapshot store not configured; set REDIS_ADDR")
	}

	table, err := r.readEngineered()
	if err != nil {
		return nil, err
	}

	snapshot := repository.KPISnapshot{
		RunID:       r.runID,
		GeneratedAt: time.Now().UTC(),
		Summary:     r.kpis.Calculate(table.Tickets),
	}
	if err := r.snapshots.Publish(ctx, snapshot); err != nil {
		return nil, err
	}
	r.metrics.RecordStage(StagePublish, len(table.Tickets), 1)
	return &PublishResult{RunID: snapshot.RunID, GeneratedAt: snapshot.GeneratedAt, KPIs: snapshot.Summary}, nil
}

// RunResult aggregates one end-to-end pipeline run; optional stages are
// nil when their sink is not configured.
type RunResult struct {
	Generate  *GenerateResult
	Clean     *CleanResult
	Engineer  *EngineerResult
	Explore   *ExploreResult
	Forecast  *ForecastResult
	RootCause *RootCauseResult
	PowerBI   *PowerBIResult
	Charts    *ChartsResult
	Report    *ReportResult
	Load      *LoadResult
	Publish   *PublishResult
}

// Run executes the full pipeline in stage order, stopping at the first
// failure. Warehouse load and snapshot publish run only when configured.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{}
	var err error

	if result.Generate, err = r.Generate(); err != nil {
		return nil, err
	}
	if result.Clean, err = r.Clean(); err != nil {
		return nil, err
	}
	if result.Engineer, err = r.Engineer(); err != nil {
		return nil, err
	}
	if result.Explore, err = r.Explore(); err != nil {
		return nil, err
	}
	if result.Forecast, err = r.Forecast(); err != nil {
		return nil, err
	}
	if result.RootCause, err = r.RootCause(); err != nil {
		return nil, err
	}
	if result.PowerBI, err = r.PowerBI(); err != nil {
		return nil, err
	}
	if result.Charts, err = r.Charts(); err != nil {
		return nil, err
	}
	if result.Report, err = r.Report(); err != nil {
		return nil, err
	}
	if r.warehouse != nil {
		if result.Load, err = r.Load(ctx); err != nil {
			return nil, err
		}
	}
	if r.snapshots != nil {
		if result.Publish, err = r.Publish(ctx); err != nil {
			return nil, err
		}
	}

	r.logger.Info("pipeline run complete",
		zap.Int("generated", result.Generate.Summary.Count),
		zap.Int("cleaned", result.Clean.Rows),
		zap.Int("engineered", result.Engineer.Rows),
	)
	return result, nil
}

func (r *Runner) readRaw() ([]domain.RawTicket, error) {
	path := r.cfg.Paths.RawTickets()
	raw, err := dataset.ReadRawTickets(path)
	if err != nil {
		return nil, missingInput(err, path, StageGenerate)
	}
	return raw, nil
}

func (r *Runner) readCleaned() (*dataset.TicketTable, error) {
	path := r.cfg.Paths.CleanedTickets()
	table, err := dataset.ReadTicketTable(path)
	if err != nil {
		return nil, missingInput(err, path, StageClean)
	}
	return table, nil
}

func (r *Runner) readEngineered() (*dataset.TicketTable, error) {
	path := r.cfg.Paths.EngineeredTickets()
	table, err := dataset.ReadTicketTable(path)
	if err != nil {
		return nil, missingInput(err, path, StageEngineer)
	}
	return table, nil
}

func (r *Runner) recordCleanMetrics(report cleaning.Report) {
	r.metrics.RecordStage(StageClean, report.InitialRows, report.FinalRows)
	r.metrics.RecordDrop(StageClean, "missing", report.MissingDropped)
	r.metrics.RecordDrop(StageClean, "duplicate", report.DuplicatesDropped)
	for col, n := range report.InvalidByColumn {
		r.metrics.RecordDrop(StageClean, "invalid_"+strings.ToLower(col), n)
	}
}

func missingInput(err error, path, upstream string) error {
	if errors.Is(err, fs.ErrNotExist) {
		return util.NewMissingInput(path, upstream)
	}
	return err
}
