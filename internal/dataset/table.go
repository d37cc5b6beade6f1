// Package dataset provides the tabular feature containers shared by the
// data client and the regression models.
package dataset

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNoColumns        = errors.New("table has no columns")
	ErrRaggedColumns    = errors.New("columns have differing lengths")
	ErrUnknownColumn    = errors.New("unknown column")
	ErrRowWidthMismatch = errors.New("row width does not match column count")
)

// Table is an ordered set of named numeric columns with one row per
// observation. Column order is significant: models capture it at fit time
// and enforce it at predict time.
type Table struct {
	cols []string
	data [][]float64 // column-major
}

// New builds a table from ordered column names and per-column data.
func New(cols []string, data [][]float64) (*Table, error) {
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	if len(cols) != len(data) {
		return nil, fmt.Errorf("%d column names for %d data columns: %w", len(cols), len(data), ErrRaggedColumns)
	}
	n := len(data[0])
	for i, col := range data {
		if len(col) != n {
			return nil, fmt.Errorf("column %q has %d rows, expected %d: %w", cols[i], len(col), n, ErrRaggedColumns)
		}
	}
	copied := make([][]float64, len(data))
	for i, col := range data {
		copied[i] = append([]float64(nil), col...)
	}
	return &Table{cols: append([]string(nil), cols...), data: copied}, nil
}

// FromRows builds a table from row-major data.
func FromRows(cols []string, rows [][]float64) (*Table, error) {
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	data := make([][]float64, len(cols))
	for i := range data {
		data[i] = make([]float64, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(cols) {
			return nil, fmt.Errorf("row %d has %d values for %d columns: %w", r, len(row), len(cols), ErrRowWidthMismatch)
		}
		for c, v := range row {
			data[c][r] = v
		}
	}
	return &Table{cols: append([]string(nil), cols...), data: data}, nil
}

// Columns returns the ordered column names.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// NumRows returns the number of observations.
func (t *Table) NumRows() int {
	if len(t.data) == 0 {
		return 0
	}
	return len(t.data[0])
}

// NumCols returns the number of features.
func (t *Table) NumCols() int {
	return len(t.cols)
}

// Col returns the values of a named column.
func (t *Table) Col(name string) ([]float64, error) {
	for i, c := range t.cols {
		if c == name {
			return append([]float64(nil), t.data[i]...), nil
		}
	}
	return nil, fmt.Errorf("column %q: %w", name, ErrUnknownColumn)
}

// Row returns a single observation in column order.
func (t *Table) Row(i int) []float64 {
	row := make([]float64, len(t.cols))
	for c := range t.cols {
		row[c] = t.data[c][i]
	}
	return row
}

// AppendRow adds one observation in column order.
func (t *Table) AppendRow(row []float64) error {
	if len(row) != len(t.cols) {
		return fmt.Errorf("row has %d values for %d columns: %w", len(row), len(t.cols), ErrRowWidthMismatch)
	}
	for c, v := range row {
		t.data[c] = append(t.data[c], v)
	}
	return nil
}

// Select returns a new table containing the named columns in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	data := make([][]float64, 0, len(names))
	for _, name := range names {
		col, err := t.Col(name)
		if err != nil {
			return nil, err
		}
		data = append(data, col)
	}
	return &Table{cols: append([]string(nil), names...), data: data}, nil
}

// Take returns a new table containing the given row indices in order.
func (t *Table) Take(idx []int) *Table {
	data := make([][]float64, len(t.cols))
	for c := range t.cols {
		data[c] = make([]float64, len(idx))
		for r, i := range idx {
			data[c][r] = t.data[c][i]
		}
	}
	return &Table{cols: append([]string(nil), t.cols...), data: data}
}

// Matrix materializes the table as a dense row-by-feature matrix.
func (t *Table) Matrix() *mat.Dense {
	m := t.NumRows()
	n := len(t.cols)
	out := mat.NewDense(m, n, nil)
	for c := 0; c < n; c++ {
		for r := 0; r < m; r++ {
			out.Set(r, c, t.data[c][r])
		}
	}
	return out
}

// SameColumns reports whether the table carries exactly the given columns
// in the given order.
func (t *Table) SameColumns(names []string) bool {
	if len(t.cols) != len(names) {
		return false
	}
	for i, c := range t.cols {
		if c != names[i] {
			return false
		}
	}
	return true
}

// Factorize encodes labels to a dense integer index with first-seen-order
// level assignment, returning the index and the distinct levels.
func Factorize(labels []string) ([]int, []string) {
	idx := make([]int, len(labels))
	levels := make([]string, 0)
	seen := make(map[string]int)
	for i, l := range labels {
		code, ok := seen[l]
		if !ok {
			code = len(levels)
			seen[l] = code
			levels = append(levels, l)
		}
		idx[i] = code
	}
	return idx, levels
}
