// Package dataset holds the in-memory table produced from an uploaded file and
// the loaders that build it.
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the inferred primitive type of a column.
type Kind string

const (
	KindNumber Kind = "number"
	KindDate   Kind = "date"
	KindText   Kind = "text"
)

// dateLayouts are tried in order when inferring date columns.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
}

// Column is a named, typed sequence of values. Values always holds the raw
// text; Numbers or Times are populated according to Kind, with NaN / zero time
// standing in for missing cells.
type Column struct {
	Name    string
	Kind    Kind
	Values  []string
	Numbers []float64
	Times   []time.Time
}

// Table is an ordered set of equal-length columns.
type Table struct {
	Columns []Column
}

// New builds a table from a header and rows, padding short rows with empty
// cells. Rows wider than the header are rejected.
func New(header []string, rows [][]string) (*Table, error) {
	names := uniqueNames(header)
	cols := make([]Column, len(names))
	for i, name := range names {
		cols[i] = Column{Name: name, Values: make([]string, 0, len(rows))}
	}

	for lineNo, row := range rows {
		if len(row) > len(names) {
			return nil, fmt.Errorf("expected %d fields in line %d, saw %d", len(names), lineNo+2, len(row))
		}
		for i := range cols {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cols[i].Values = append(cols[i].Values, cell)
		}
	}

	for i := range cols {
		inferKind(&cols[i])
	}
	return &Table{Columns: cols}, nil
}

// uniqueNames fills blank header cells and de-duplicates repeated names the
// way spreadsheet tools do ("Sales", "Sales.1").
func uniqueNames(header []string) []string {
	seen := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		out[i] = name
	}
	return out
}

func inferKind(c *Column) {
	nonEmpty := 0
	numbers := make([]float64, len(c.Values))
	isNumber := true
	for i, v := range c.Values {
		v = strings.TrimSpace(v)
		if v == "" {
			numbers[i] = math.NaN()
			continue
		}
		nonEmpty++
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			isNumber = false
			break
		}
		numbers[i] = f
	}
	if nonEmpty == 0 {
		c.Kind = KindText
		return
	}
	if isNumber {
		c.Kind = KindNumber
		c.Numbers = numbers
		return
	}

	times := make([]time.Time, len(c.Values))
	for i, v := range c.Values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		t, ok := parseDate(v)
		if !ok {
			c.Kind = KindText
			return
		}
		times[i] = t
	}
	c.Kind = KindDate
	c.Times = times
}

func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// NumRows returns the shared row count.
func (t *Table) NumRows() int {
	if t.NumColumns() == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Empty reports whether the table has no columns or no rows.
func (t *Table) Empty() bool {
	return t.NumColumns() == 0 || t.NumRows() == 0
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, t.NumColumns())
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// Column looks a column up by exact name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Row returns the raw cells of row i.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.Columns))
	for j, c := range t.Columns {
		row[j] = c.Values[i]
	}
	return row
}

// Select returns a new table holding only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	out := &Table{Columns: make([]Column, 0, len(names))}
	for _, name := range names {
		c, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q not found", name)
		}
		out.Columns = append(out.Columns, *c)
	}
	return out, nil
}

// WriteCSV serializes the table with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	for i := 0; i < t.NumRows(); i++ {
		if err := cw.Write(t.Row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
