package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/spec-kit/servicedesk-analytics/internal/domain"
)

// Sheet pairs a worksheet name with the table written into it.
type Sheet struct {
	Name  string
	Table *Table
}

// WriteWorkbook writes the given sheets into a single xlsx workbook,
// creating parent directories as needed. The first sheet becomes the
// active one.
func WriteWorkbook(path string, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("write workbook %s: no sheets", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet.Name); err != nil {
				return fmt.Errorf("add sheet %s: %w", sheet.Name, err)
			}
		}
		if err := writeSheet(f, sheet); err != nil {
			return err
		}
	}

	index, err := f.GetSheetIndex(sheets[0].Name)
	if err == nil && index >= 0 {
		f.SetActiveSheet(index)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet Sheet) error {
	header := make([]any, len(sheet.Table.Columns))
	for i, col := range sheet.Table.Columns {
		header[i] = col
	}
	if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
		return fmt.Errorf("write header of %s: %w", sheet.Name, err)
	}

	for r, row := range sheet.Table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return fmt.Errorf("cell name: %w", err)
		}
		values := make([]any, len(row))
		for i, v := range row {
			values[i] = cellValue(v)
		}
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return fmt.Errorf("write row of %s: %w", sheet.Name, err)
		}
	}
	return nil
}

// cellValue keeps worksheet values aligned with the CSV rendering of
// the same table: timestamps and enums become text, numbers stay typed.
func cellValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return domain.FormatTimestamp(val)
	case domain.Priority:
		return string(val)
	case domain.Category:
		return string(val)
	case domain.Team:
		return string(val)
	default:
		return val
	}
}
