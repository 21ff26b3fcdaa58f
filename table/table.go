//
// Copyright 2020 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package table provides the in-memory tables that synopses are computed
// from: typed columns loaded from CSV, equality filters and key joins.
//
// Tables are immutable. Filter and Join return new tables and never modify
// their inputs, so a loaded table can be shared read-only between goroutines.
package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/google/differential-privacy/synopsis/checks"
)

// Kind is the type of the values of a column.
type Kind int

// Column kinds. A column is Int if every non-empty cell parses as a base-10
// int64, Float if every non-empty cell parses as a float64, and String
// otherwise.
const (
	String Kind = iota
	Int
	Float
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "Int"
	case Float:
		return "Float"
	}
	return "String"
}

// Column is a named column of a Table. Empty cells are missing values.
type Column struct {
	Name   string
	Kind   Kind
	cells  []string
	ints   []int64
	floats []float64
}

// Len returns the number of cells in the column.
func (c *Column) Len() int {
	return len(c.cells)
}

// Missing reports whether the i-th cell is empty.
func (c *Column) Missing(i int) bool {
	return c.cells[i] == ""
}

// Cell returns the raw text of the i-th cell.
func (c *Column) Cell(i int) string {
	return c.cells[i]
}

// Int returns the i-th value of an Int column.
func (c *Column) Int(i int) int64 {
	return c.ints[i]
}

// Float returns the i-th value of a numeric column as a float64.
func (c *Column) Float(i int) float64 {
	if c.Kind == Int {
		return float64(c.ints[i])
	}
	return c.floats[i]
}

// Key returns a canonical text form of the i-th cell, such that cells holding
// equal values have equal keys: integral floats are written like ints, and
// numbers lose leading zeros and signs.
func (c *Column) Key(i int) string {
	if c.Missing(i) {
		return ""
	}
	switch c.Kind {
	case Int:
		return strconv.FormatInt(c.ints[i], 10)
	case Float:
		return canonicalFloat(c.floats[i])
	}
	return c.cells[i]
}

// Numeric reports whether the column holds numbers.
func (c *Column) Numeric() bool {
	return c.Kind == Int || c.Kind == Float
}

func canonicalFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e18 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// newColumn infers the kind of the cells and parses them.
func newColumn(name string, cells []string) *Column {
	c := &Column{Name: name, Kind: Int, cells: cells}
	ints := make([]int64, len(cells))
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		v, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			c.Kind = Float
			break
		}
		ints[i] = v
	}
	if c.Kind == Int {
		c.ints = ints
		return c
	}
	floats := make([]float64, len(cells))
	for i, cell := range cells {
		if cell == "" {
			floats[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			c.Kind = String
			return c
		}
		floats[i] = v
	}
	c.floats = floats
	return c
}

// Table is an immutable collection of rows with named columns.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New returns a table with the given column names and row-major cells. Cells
// are trimmed of surrounding whitespace and column kinds are inferred.
func New(names []string, rows [][]string) (*Table, error) {
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("table.New: %w: duplicate column %q", checks.ErrInvalidParameter, name)
		}
		index[name] = i
	}
	cells := make([][]string, len(names))
	for i := range cells {
		cells[i] = make([]string, len(rows))
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, fmt.Errorf("table.New: %w: row %d has %d cells, want %d", checks.ErrInvalidParameter, r, len(row), len(names))
		}
		for c, cell := range row {
			cells[c][r] = strings.TrimSpace(cell)
		}
	}
	t := &Table{index: index, rows: len(rows)}
	for i, name := range names {
		t.columns = append(t.columns, newColumn(name, cells[i]))
	}
	return t, nil
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return t.rows
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the column with the given name.
func (t *Table) Column(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: no column %q, have %v", checks.ErrInvalidParameter, name, t.Names())
	}
	return t.columns[i], nil
}

// Row returns the raw cells of the i-th row.
func (t *Table) Row(i int) []string {
	row := make([]string, len(t.columns))
	for c, col := range t.columns {
		row[c] = col.cells[i]
	}
	return row
}

// Floats returns the non-missing values of a numeric column in row order.
func (t *Table) Floats(name string) ([]float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, fmt.Errorf("Floats: %w", err)
	}
	if !c.Numeric() {
		return nil, fmt.Errorf("Floats: %w: column %q is %v, must be numeric", checks.ErrInvalidParameter, name, c.Kind)
	}
	values := make([]float64, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if !c.Missing(i) {
			values = append(values, c.Float(i))
		}
	}
	return values, nil
}

// Keys returns the canonical keys of the non-missing cells of a column in row
// order. See Column.Key.
func (t *Table) Keys(name string) ([]string, error) {
	c, err := t.Column(name)
	if err != nil {
		return nil, fmt.Errorf("Keys: %w", err)
	}
	keys := make([]string, 0, c.Len())
	for i := 0; i < c.Len(); i++ {
		if !c.Missing(i) {
			keys = append(keys, c.Key(i))
		}
	}
	return keys, nil
}

// project returns a table holding the rows with the given indices, in order.
func (t *Table) project(rows []int) *Table {
	out := &Table{index: t.index, rows: len(rows)}
	for _, c := range t.columns {
		nc := &Column{Name: c.Name, Kind: c.Kind, cells: make([]string, len(rows))}
		switch c.Kind {
		case Int:
			nc.ints = make([]int64, len(rows))
		case Float:
			nc.floats = make([]float64, len(rows))
		}
		for j, r := range rows {
			nc.cells[j] = c.cells[r]
			switch c.Kind {
			case Int:
				nc.ints[j] = c.ints[r]
			case Float:
				nc.floats[j] = c.floats[r]
			}
		}
		out.columns = append(out.columns, nc)
	}
	return out
}
