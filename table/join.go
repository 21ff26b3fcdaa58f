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

package table

import (
	"fmt"
	"strings"

	"github.com/google/differential-privacy/synopsis/checks"
)

// JoinType is the kind of an equality join.
type JoinType int

// Join types.
const (
	Inner JoinType = iota
	Left
	Right
	Outer
)

func (j JoinType) String() string {
	switch j {
	case Inner:
		return "inner"
	case Left:
		return "left"
	case Right:
		return "right"
	case Outer:
		return "outer"
	}
	return fmt.Sprintf("JoinType(%d)", int(j))
}

// ParseJoinType parses "inner", "left", "right" or "outer".
func ParseJoinType(s string) (JoinType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "inner":
		return Inner, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	case "outer", "full":
		return Outer, nil
	}
	return Inner, fmt.Errorf("ParseJoinType: %w: unknown join type %q", checks.ErrInvalidParameter, s)
}

// Join joins a and b on equal values of the key column and returns the joined
// table and its row count.
//
// The output holds the columns of a followed by the columns of b except the
// key. Other column names present in both tables get the suffixes "_x" and
// "_y". Rows with a missing key never match. Inner and left joins keep the row
// order of a, right joins the row order of b; outer joins list the rows of the
// left join followed by the unmatched rows of b.
func Join(a, b *Table, key string, how JoinType) (*Table, int, error) {
	ak, err := a.Column(key)
	if err != nil {
		return nil, 0, fmt.Errorf("Join: left table: %w", err)
	}
	bk, err := b.Column(key)
	if err != nil {
		return nil, 0, fmt.Errorf("Join: right table: %w", err)
	}
	if how < Inner || how > Outer {
		return nil, 0, fmt.Errorf("Join: %w: unknown join type %v", checks.ErrInvalidParameter, how)
	}

	names, bCols := joinedNames(a, b, key)
	keyPos := a.index[key]
	bKeyPos := b.index[key]

	var rows [][]string
	emit := func(ai, bi int) {
		row := make([]string, 0, len(names))
		if ai >= 0 {
			row = append(row, a.Row(ai)...)
		} else {
			row = append(row, make([]string, len(a.columns))...)
			row[keyPos] = b.columns[bKeyPos].cells[bi]
		}
		for _, c := range bCols {
			if bi >= 0 {
				row = append(row, b.columns[c].cells[bi])
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}

	switch how {
	case Right:
		index := buildIndex(ak)
		for bi := 0; bi < b.rows; bi++ {
			matches := index[probeKey(bk, bi)]
			if len(matches) == 0 {
				emit(-1, bi)
				continue
			}
			for _, ai := range matches {
				emit(ai, bi)
			}
		}
	default:
		index := buildIndex(bk)
		matchedB := make([]bool, b.rows)
		for ai := 0; ai < a.rows; ai++ {
			matches := index[probeKey(ak, ai)]
			if len(matches) == 0 && how != Inner {
				emit(ai, -1)
				continue
			}
			for _, bi := range matches {
				matchedB[bi] = true
				emit(ai, bi)
			}
		}
		if how == Outer {
			for bi, matched := range matchedB {
				if !matched {
					emit(-1, bi)
				}
			}
		}
	}

	out, err := New(names, rows)
	if err != nil {
		return nil, 0, fmt.Errorf("Join: %w", err)
	}
	return out, out.NumRows(), nil
}

// joinedNames returns the output column names and the indices of the columns
// of b that are kept.
func joinedNames(a, b *Table, key string) ([]string, []int) {
	var names []string
	for _, c := range a.columns {
		name := c.Name
		if _, ok := b.index[name]; ok && name != key {
			name += "_x"
		}
		names = append(names, name)
	}
	var bCols []int
	for i, c := range b.columns {
		if c.Name == key {
			continue
		}
		name := c.Name
		if _, ok := a.index[name]; ok {
			name += "_y"
		}
		names = append(names, name)
		bCols = append(bCols, i)
	}
	return names, bCols
}

// buildIndex maps each non-missing key of c to the rows holding it.
func buildIndex(c *Column) map[string][]int {
	index := make(map[string][]int)
	for i := 0; i < c.Len(); i++ {
		if c.Missing(i) {
			continue
		}
		k := c.Key(i)
		index[k] = append(index[k], i)
	}
	return index
}

// probeKey returns the key of row i, or a key that matches nothing if the
// cell is missing.
func probeKey(c *Column, i int) string {
	if c.Missing(i) {
		return "\x00missing"
	}
	return c.Key(i)
}
