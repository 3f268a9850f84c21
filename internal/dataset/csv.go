package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spec-kit/servicedesk-analytics/internal/domain"
	"github.com/spec-kit/servicedesk-analytics/pkg/util"
)

// Table is an ordered set of columns with typed row values, the common
// currency between report builders and the CSV/Excel writers.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NewTable creates an empty table with the given column order.
func NewTable(columns ...string) *Table {
	return &Table{Columns: columns}
}

// Append adds one row; values must match the column order.
func (t *Table) Append(values ...any) {
	t.Rows = append(t.Rows, values)
}

// WriteCSV writes a table as UTF-8 comma-separated values with a header
// row and no index column, creating parent directories as needed.
func WriteCSV(path string, table *Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(table.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(table.Columns))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = formatValue(row[i])
			}
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return domain.FormatTimestamp(val)
	case domain.Priority:
		return string(val)
	case domain.Category:
		return string(val)
	case domain.Team:
		return string(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// readAll reads a CSV file into a header slice and data records.
func readAll(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read %s: file has no header row", path)
	}
	return records[0], records[1:], nil
}

func indexMap(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[h] = i
	}
	return idx
}

func missingColumns(idx map[string]int, required []string) []string {
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// ReadRawTickets loads the raw dataset, keeping every field as text.
// The full raw schema must be present; values are not validated here.
func ReadRawTickets(path string) ([]domain.RawTicket, error) {
	headers, records, err := readAll(path)
	if err != nil {
		return nil, err
	}
	idx := indexMap(headers)
	if missing := missingColumns(idx, domain.RawColumns()); len(missing) > 0 {
		return nil, util.NewMissingColumns(missing...)
	}

	get := func(record []string, col string) string {
		return record[idx[col]]
	}

	tickets := make([]domain.RawTicket, 0, len(records))
	for _, record := range records {
		tickets = append(tickets, domain.RawTicket{
			TicketID:        get(record, domain.ColTicketID),
			CreatedDate:     get(record, domain.ColCreatedDate),
			ResolvedDate:    get(record, domain.ColResolvedDate),
			Priority:        get(record, domain.ColPriority),
			Category:        get(record, domain.ColCategory),
			AssignedTeam:    get(record, domain.ColAssignedTeam),
			SLATargetHours:  get(record, domain.ColSLATargetHours),
			ResolutionHours: get(record, domain.ColResolutionHours),
			SLABreached:     get(record, domain.ColSLABreached),
		})
	}
	return tickets, nil
}

// Records is a report table read back as raw text cells, for stages
// that consume prior report files rather than ticket datasets.
type Records struct {
	Columns []string
	Rows    [][]string

	idx map[string]int
}

// ReadRecords loads a report CSV keeping every cell as text.
func ReadRecords(path string) (*Records, error) {
	headers, rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	return &Records{Columns: headers, Rows: rows, idx: indexMap(headers)}, nil
}

// Require fails with a named-columns validation error when any of the
// given columns is absent.
func (r *Records) Require(columns ...string) error {
	if missing := missingColumns(r.idx, columns); len(missing) > 0 {
		return util.NewMissingColumns(missing...)
	}
	return nil
}

// Get returns the named cell of a row, empty string when absent.
func (r *Records) Get(row []string, column string) string {
	i, ok := r.idx[column]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// TicketTable is a typed ticket dataset together with the column set it
// was read with, so downstream stages can verify their required inputs.
type TicketTable struct {
	Columns []string
	Tickets []domain.Ticket
}

// NewTicketTable wraps in-memory tickets under a known schema.
func NewTicketTable(columns []string, tickets []domain.Ticket) *TicketTable {
	return &TicketTable{Columns: columns, Tickets: tickets}
}

// HasColumn reports whether the table was read with the given column.
func (t *TicketTable) HasColumn(name string) bool {
	for _, col := range t.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Require fails with a named-columns validation error when any of the
// given columns is absent.
func (t *TicketTable) Require(columns ...string) error {
	var missing []string
	for _, col := range columns {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return util.NewMissingColumns(missing...)
	}
	return nil
}

// ReadTicketTable loads a cleaned or engineered dataset into typed
// tickets. Only columns present in the header are decoded; a value that
// cannot be parsed into its typed column is a fatal error, since these
// files are pipeline outputs.
func ReadTicketTable(path string) (*TicketTable, error) {
	headers, records, err := readAll(path)
	if err != nil {
		return nil, err
	}
	idx := indexMap(headers)

	tickets := make([]domain.Ticket, 0, len(records))
	for n, record := range records {
		row := n + 2 // 1-based, after header
		var ticket domain.Ticket
		if err := decodeTicket(&ticket, record, idx, row); err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return &TicketTable{Columns: headers, Tickets: tickets}, nil
}

func decodeTicket(ticket *domain.Ticket, record []string, idx map[string]int, row int) error {
	get := func(col string) (string, bool) {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return "", false
		}
		return record[i], true
	}

	if v, ok := get(domain.ColTicketID); ok {
		ticket.TicketID = v
	}
	if v, ok := get(domain.ColCreatedDate); ok {
		ts, err := domain.ParseTimestamp(v)
		if err != nil {
			return util.NewInvalidValue(domain.ColCreatedDate, row, v, err)
		}
		ticket.CreatedDate = ts
	}
	if v, ok := get(domain.ColResolvedDate); ok {
		ts, err := domain.ParseTimestamp(v)
		if err != nil {
			return util.NewInvalidValue(domain.ColResolvedDate, row, v, err)
		}
		ticket.ResolvedDate = ts
	}
	if v, ok := get(domain.ColPriority); ok {
		ticket.Priority = domain.Priority(v)
	}
	if v, ok := get(domain.ColCategory); ok {
		ticket.Category = domain.Category(v)
	}
	if v, ok := get(domain.ColAssignedTeam); ok {
		ticket.AssignedTeam = domain.Team(v)
	}
	if v, ok := get(domain.ColSLATargetHours); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return util.NewInvalidValue(domain.ColSLATargetHours, row, v, err)
		}
		ticket.SLATargetHours = f
	}
	if v, ok := get(domain.ColResolutionHours); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return util.NewInvalidValue(domain.ColResolutionHours, row, v, err)
		}
		ticket.ResolutionHours = f
	}
	if v, ok := get(domain.ColSLABreached); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return util.NewInvalidValue(domain.ColSLABreached, row, v, err)
		}
		ticket.SLABreached = b
	}
	if v, ok := get(domain.ColMonth); ok {
		ticket.Month = v
	}
	if v, ok := get(domain.ColWeek); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return util.NewInvalidValue(domain.ColWeek, row, v, err)
		}
		ticket.Week = n
	}
	if v, ok := get(domain.ColYear); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return util.NewInvalidValue(domain.ColYear, row, v, err)
		}
		ticket.Year = n
	}
	if v, ok := get(domain.ColResolutionDays); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return util.NewInvalidValue(domain.ColResolutionDays, row, v, err)
		}
		ticket.ResolutionDays = f
	}
	if v, ok := get(domain.ColDayOfWeek); ok {
		ticket.DayOfWeek = v
	}
	if v, ok := get(domain.ColIsHighPriority); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return util.NewInvalidValue(domain.ColIsHighPriority, row, v, err)
		}
		ticket.IsHighPriority = b
	}
	if v, ok := get(domain.ColBreachFlag); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return util.NewInvalidValue(domain.ColBreachFlag, row, v, err)
		}
		ticket.BreachFlag = n
	}
	return nil
}

// WriteRawTickets writes the 9-column raw schema.
func WriteRawTickets(path string, tickets []domain.Ticket) error {
	table := NewTable(domain.RawColumns()...)
	for _, t := range tickets {
		table.Append(
			t.TicketID, t.CreatedDate, t.ResolvedDate, t.Priority, t.Category,
			t.AssignedTeam, t.SLATargetHours, t.ResolutionHours, t.SLABreached,
		)
	}
	return WriteCSV(path, table)
}

// WriteCleanedTickets writes the 12-column cleaned schema.
func WriteCleanedTickets(path string, tickets []domain.Ticket) error {
	table := NewTable(domain.CleanedColumns()...)
	for _, t := range tickets {
		table.Append(
			t.TicketID, t.CreatedDate, t.ResolvedDate, t.Priority, t.Category,
			t.AssignedTeam, t.SLATargetHours, t.ResolutionHours, t.SLABreached,
			t.Month, t.Week, t.Year,
		)
	}
	return WriteCSV(path, table)
}

// WriteEngineeredTickets writes the 16-column engineered schema.
func WriteEngineeredTickets(path string, tickets []domain.Ticket) error {
	table := NewTable(domain.EngineeredColumns()...)
	for _, t := range tickets {
		table.Append(
			t.TicketID, t.CreatedDate, t.ResolvedDate, t.Priority, t.Category,
			t.AssignedTeam, t.SLATargetHours, t.ResolutionHours, t.SLABreached,
			t.Month, t.Week, t.Year,
			t.ResolutionDays, t.DayOfWeek, t.IsHighPriority, t.BreachFlag,
		)
	}
	return WriteCSV(path, table)
}
