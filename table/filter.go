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
	"strconv"
	"strings"

	"github.com/google/differential-privacy/synopsis/checks"
)

// Filter selects the rows whose Column equals Value.
//
// Value is compared according to the column kind: numerically for Int and
// Float columns (so "18" matches 18 and 18.0), textually otherwise.
type Filter struct {
	Column string
	Value  string
}

func (f Filter) String() string {
	return fmt.Sprintf("%s == %q", f.Column, f.Value)
}

// ParseFilter parses a filter written as "column=value".
func ParseFilter(s string) (Filter, error) {
	column, value, ok := strings.Cut(s, "=")
	if !ok || column == "" {
		return Filter{}, fmt.Errorf("ParseFilter: %w: %q is not of the form column=value", checks.ErrInvalidParameter, s)
	}
	return Filter{Column: strings.TrimSpace(column), Value: strings.TrimSpace(value)}, nil
}

// Filter returns the rows of t matching f. A nil f returns t itself.
func (t *Table) Filter(f *Filter) (*Table, error) {
	if f == nil {
		return t, nil
	}
	c, err := t.Column(f.Column)
	if err != nil {
		return nil, fmt.Errorf("Filter: %w", err)
	}
	want, ok := filterKey(c.Kind, f.Value)
	if !ok {
		// A non-numeric value never equals a cell of a numeric column.
		return t.project(nil), nil
	}
	var rows []int
	for i := 0; i < c.Len(); i++ {
		if !c.Missing(i) && c.Key(i) == want {
			rows = append(rows, i)
		}
	}
	return t.project(rows), nil
}

// FilterAll applies every filter in order.
func (t *Table) FilterAll(filters ...Filter) (*Table, error) {
	out := t
	for i := range filters {
		var err error
		if out, err = out.Filter(&filters[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// filterKey returns the canonical key of value for a column of kind k.
func filterKey(k Kind, value string) (string, bool) {
	value = strings.TrimSpace(value)
	switch k {
	case Int, Float:
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return strconv.FormatInt(v, 10), true
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return "", false
		}
		return canonicalFloat(v), true
	}
	return value, true
}
