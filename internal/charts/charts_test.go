package charts

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk-analytics/internal/config"
	"github.com/spec-kit/servicedesk-analytics/internal/dataset"
	"github.com/spec-kit/servicedesk-analytics/internal/explore"
	"github.com/spec-kit/servicedesk-analytics/pkg/util"
)

var pngMagic = []byte{0x89, 0x50, 0x4e, 0x47}

func writeReport(t *testing.T, path string, columns []string, rows ...[]any) {
	t.Helper()
	table := dataset.NewTable(columns...)
	for _, row := range rows {
		table.Append(row...)
	}
	require.NoError(t, dataset.WriteCSV(path, table))
}

func TestLoadTrendSortsChronologically(t *testing.T) {
	path := filepath.Join(t.TempDir(), explore.FileVolumeTrend)
	writeReport(t, path, []string{"Month", "tickets_created"},
		[]any{"2025-06", 300},
		[]any{"2025-04", 450},
		[]any{"2025-05", 380},
	)

	points, err := LoadTrend(path)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), points[0].Month)
	assert.Equal(t, 450.0, points[0].Tickets)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), points[2].Month)
}

func TestLoadTrendErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadTrend(filepath.Join(dir, "absent.csv"))
	assert.True(t, util.IsCode(err, util.CodeMissingInput))

	missing := filepath.Join(dir, "missing-col.csv")
	writeReport(t, missing, []string{"Month"}, []any{"2025-04"})
	_, err = LoadTrend(missing)
	assert.True(t, util.IsCode(err, util.CodeMissingColumns))

	corrupt := filepath.Join(dir, "corrupt.csv")
	writeReport(t, corrupt, []string{"Month", "tickets_created"}, []any{"2025-04", "many"})
	_, err = LoadTrend(corrupt)
	assert.True(t, util.IsCode(err, util.CodeInvalidValue))
}

func TestLoadCategoryBreachSortsByRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), explore.FileBreachByCategory)
	writeReport(t, path, []string{"Category", "breach_rate_percent"},
		[]any{"Software", 8.5},
		[]any{"Network", 21.0},
		[]any{"Email", 14.2},
	)

	bars, err := LoadCategoryBreach(path)
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, "Network", bars[0].Label)
	assert.Equal(t, "Email", bars[1].Label)
	assert.Equal(t, "Software", bars[2].Label)
}

func TestLoadPriorityCountsSeverityOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), explore.FilePriorityDistribution)
	writeReport(t, path, []string{"Priority", "ticket_count"},
		[]any{"Low", 600},
		[]any{"Critical", 200},
		[]any{"Medium", 800},
		[]any{"High", 400},
	)

	bars, err := LoadPriorityCounts(path)
	require.NoError(t, err)
	labels := []string{bars[0].Label, bars[1].Label, bars[2].Label, bars[3].Label}
	assert.Equal(t, []string{"Critical", "High", "Medium", "Low"}, labels)
}

func TestRenderMonthlyTicketsWritesPNG(t *testing.T) {
	points := []TrendPoint{
		{Month: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), Tickets: 450},
		{Month: time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), Tickets: 380},
		{Month: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), Tickets: 520},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderMonthlyTickets(points, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderBarsWritesPNG(t *testing.T) {
	bars := []Bar{{Label: "Network", Value: 21.0}, {Label: "Email", Value: 14.2}}

	var buf bytes.Buffer
	require.NoError(t, RenderCategoryBreach(bars, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngMagic))
}

func TestRenderEmptyReports(t *testing.T) {
	var buf bytes.Buffer
	err := RenderMonthlyTickets(nil, &buf)
	assert.True(t, util.IsCode(err, util.CodeEmptyInput))

	err = RenderPriorityDistribution(nil, &buf)
	assert.True(t, util.IsCode(err, util.CodeEmptyInput))
}

func TestRenderAllWritesFourCharts(t *testing.T) {
	dir := t.TempDir()
	paths := config.PathsConfig{
		DataDir:   dir,
		OutputDir: dir,
		ChartsDir: filepath.Join(dir, "charts"),
	}

	writeReport(t, paths.OutputFile(explore.FileVolumeTrend),
		[]string{"Month", "tickets_created"},
		[]any{"2025-04", 450}, []any{"2025-05", 380})
	writeReport(t, paths.OutputFile(explore.FileBreachByCategory),
		[]string{"Category", "breach_rate_percent"},
		[]any{"Network", 21.0}, []any{"Email", 14.2})
	writeReport(t, paths.OutputFile(explore.FileResolutionByTeam),
		[]string{"Assigned_Team", "avg_resolution_hours"},
		[]any{"Infrastructure", 48.2}, []any{"Applications", 61.7})
	writeReport(t, paths.OutputFile(explore.FilePriorityDistribution),
		[]string{"Priority", "ticket_count"},
		[]any{"Critical", 200}, []any{"High", 400})

	require.NoError(t, New(paths, zap.NewNop()).RenderAll())

	for _, file := range []string{FileMonthlyTickets, FileBreachByCategory, FileResolutionByTeam, FilePriorityDistribution} {
		info, err := os.Stat(paths.ChartFile(file))
		require.NoError(t, err, file)
		assert.Greater(t, info.Size(), int64(0), file)
	}
}

func TestRenderAllMissingReport(t *testing.T) {
	dir := t.TempDir()
	paths := config.PathsConfig{DataDir: dir, OutputDir: dir, ChartsDir: filepath.Join(dir, "charts")}

	err := New(paths, zap.NewNop()).RenderAll()
	require.Error(t, err)
	assert.True(t, util.IsCode(err, util.CodeMissingInput))
}
