package dataset

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")

	kpis := NewTable("Metric", "Value")
	kpis.Append("Total Tickets", 3)
	kpis.Append("SLA Compliance %", 66.67)

	teams := NewTable("Assigned_Team", "total_tickets")
	teams.Append("Infrastructure", 2)
	teams.Append("ServiceDesk", 1)

	err := WriteWorkbook(path, []Sheet{
		{Name: "KPIs", Table: kpis},
		{Name: "Teams", Table: teams},
	})
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"KPIs", "Teams"}, f.GetSheetList())

	cell, err := f.GetCellValue("KPIs", "A2")
	require.NoError(t, err)
	require.Equal(t, "Total Tickets", cell)

	cell, err = f.GetCellValue("Teams", "B2")
	require.NoError(t, err)
	require.Equal(t, "2", cell)
}

func TestWriteWorkbookRejectsEmpty(t *testing.T) {
	err := WriteWorkbook(filepath.Join(t.TempDir(), "empty.xlsx"), nil)
	require.Error(t, err)
}
