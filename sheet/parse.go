package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aouyang1/go-forecastboard/timedataset"
)

var (
	ErrSourceUnavailable = errors.New("spreadsheet source unavailable")
	ErrSchemaMismatch    = errors.New("spreadsheet schema mismatch")
	ErrInvalidDate       = errors.New("invalid date")
)

// cells treated as absent besides anything that does not parse as a number
var naValues = map[string]struct{}{
	"":    {},
	"-":   {},
	"NA":  {},
	"N/A": {},
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"1/2/2006",
	"1/2/2006 15:04:05",
	"02 Jan 2006",
	"2 January 2006",
}

// Table is a parsed tab: a strictly increasing date index and one numeric column per
// non-date header.
type Table struct {
	Source  Source
	Schema  Schema
	T       []time.Time
	Columns map[string][]float64
}

// Len returns the number of dated rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.T)
}

// Has reports whether the tab carried the named column.
func (t *Table) Has(name string) bool {
	if t == nil {
		return false
	}
	_, exists := t.Columns[name]
	return exists
}

// Column returns a copy of the named column as a dataset on the table's dates.
func (t *Table) Column(name string) (*timedataset.TimeDataset, error) {
	if !t.Has(name) {
		return nil, fmt.Errorf("column %q not found, %w", name, ErrSchemaMismatch)
	}
	return timedataset.NewUnivariateDataset(t.T, t.Columns[name])
}

// ParseValue coerces a cell to a number, returning NaN for absent or malformed cells.
func ParseValue(cell string) float64 {
	cell = strings.TrimSpace(cell)
	if _, na := naValues[cell]; na {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// ParseDate reads a date cell in any supported layout and drops the time of day.
func ParseDate(cell string) (time.Time, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return time.Time{}, fmt.Errorf("empty date, %w", ErrInvalidDate)
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, cell)
		if err == nil {
			return timedataset.TruncateDay(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q, %w", cell, ErrInvalidDate)
}

type row struct {
	t      time.Time
	values []float64
}

// Parse reads a CSV export and validates it against schema. Rows with an unreadable date are
// skipped and on repeated dates the first row wins.
func Parse(r io.Reader, schema Schema) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s tab has no header row, %w", schema.Name, ErrSchemaMismatch)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to read header, %w: %w", ErrSchemaMismatch, err)
	}

	colIdx := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			continue
		}
		if _, exists := colIdx[name]; exists {
			continue
		}
		colIdx[name] = i
	}
	if err := schema.Check(colIdx); err != nil {
		return nil, err
	}

	dateIdx := colIdx[schema.DateColumn]
	names := make([]string, 0, len(colIdx)-1)
	for name := range colIdx {
		if name == schema.DateColumn {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var rows []row
	seen := make(map[int64]struct{})
	var skipped, duplicates int
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("unable to read row %d, %w: %w", line, ErrSchemaMismatch, err)
		}
		if dateIdx >= len(record) {
			skipped++
			continue
		}
		t, err := ParseDate(record[dateIdx])
		if err != nil {
			skipped++
			slog.Debug("skipping row without a readable date", "tab", schema.Name, "line", line, "error", err.Error())
			continue
		}
		key := t.Unix()
		if _, exists := seen[key]; exists {
			duplicates++
			continue
		}
		seen[key] = struct{}{}

		values := make([]float64, len(names))
		for i, name := range names {
			idx := colIdx[name]
			if idx >= len(record) {
				values[i] = math.NaN()
				continue
			}
			values[i] = ParseValue(record[idx])
		}
		rows = append(rows, row{t: t, values: values})
	}
	if skipped > 0 {
		slog.Warn("skipped rows with unreadable dates", "tab", schema.Name, "rows", skipped)
	}
	if duplicates > 0 {
		slog.Warn("dropped rows with repeated dates", "tab", schema.Name, "rows", duplicates)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].t.Before(rows[j].t)
	})

	tbl := &Table{
		Schema:  schema,
		T:       make([]time.Time, len(rows)),
		Columns: make(map[string][]float64, len(names)),
	}
	for _, name := range names {
		tbl.Columns[name] = make([]float64, len(rows))
	}
	for i, r := range rows {
		tbl.T[i] = r.t
		for j, name := range names {
			tbl.Columns[name][i] = r.values[j]
		}
	}
	return tbl, nil
}
