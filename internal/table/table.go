// Package table provides the tabular interchange value passed between the
// normalizer, the proximity join, and the store. Cell values are strings;
// typed interpretation belongs to the consumer.
package table

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Table is a named collection of rows sharing one column set.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// New creates an empty table with the given name and columns.
func New(name string, columns []string) *Table {
	return &Table{Name: name, Columns: columns}
}

// Append adds a row. The row length must match the column count.
func (t *Table) Append(row []string) error {
	if len(row) != len(t.Columns) {
		return eris.Errorf("table %s: row has %d cells, want %d", t.Name, len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Index returns a column name to position map. Names are matched exactly.
func (t *Table) Index() map[string]int {
	m := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		m[c] = i
	}
	return m
}

// ColumnDiff compares the table's column set against the expected set,
// order-independent. It returns the missing and extra column names, sorted.
func (t *Table) ColumnDiff(expected []string) (missing, extra []string) {
	have := t.Index()
	want := make(map[string]bool, len(expected))
	for _, c := range expected {
		want[c] = true
		if _, ok := have[c]; !ok {
			missing = append(missing, c)
		}
	}
	for _, c := range t.Columns {
		if !want[c] {
			extra = append(extra, c)
		}
	}
	sort.Strings(missing)
	sort.Strings(extra)
	return missing, extra
}

// FormatColumns renders a column list for error messages.
func FormatColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
