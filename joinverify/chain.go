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

// Package joinverify computes the exact sizes of chained equality joins. The
// sizes are the ground truth that the index pairs of synopses are checked
// against.
package joinverify

import (
	"context"
	"fmt"
	"strings"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/table"
	"golang.org/x/sync/errgroup"
)

// Step joins one more table onto the result of the previous steps.
type Step struct {
	// Path of the CSV file holding the table. Only used by Load and in
	// messages if Table is set.
	Path  string
	Table *table.Table
	// Filters are applied to Table before the join.
	Filters []table.Filter
	Key     string
	How     table.JoinType
}

func (s *Step) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s join %s on %s", s.How, s.name(), s.Key)
	for _, f := range s.Filters {
		fmt.Fprintf(&b, " [%v]", f)
	}
	return b.String()
}

func (s *Step) name() string {
	if s.Path == "" {
		return "<table>"
	}
	return s.Path
}

// Result is the outcome of a chain of joins.
type Result struct {
	// Table is the final joined table. Nil for results computed by SQLite.
	Table *table.Table
	// Sizes holds the number of rows after each step.
	Sizes []int
}

// Count returns the number of rows of the final table.
func (r *Result) Count() int {
	if len(r.Sizes) == 0 {
		return 0
	}
	return r.Sizes[len(r.Sizes)-1]
}

// Load reads the table of every step that has a Path but no Table. Tables
// are read concurrently.
func Load(ctx context.Context, steps []Step) error {
	for i, s := range steps {
		if s.Table == nil && s.Path == "" {
			return fmt.Errorf("joinverify.Load: %w: step %d has neither table nor path", checks.ErrInvalidParameter, i)
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := range steps {
		s := &steps[i]
		if s.Table != nil {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := table.LoadCSV(s.Path)
			if err != nil {
				return err
			}
			s.Table = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("joinverify.Load: %w", err)
	}
	return nil
}

// Chain filters the table of each step and joins it onto base, left to
// right, recording the size of every intermediate result.
func Chain(base *table.Table, steps []Step) (*Result, error) {
	if err := checkSteps(base, steps); err != nil {
		return nil, fmt.Errorf("joinverify.Chain: %w", err)
	}
	res := &Result{Table: base}
	for i := range steps {
		s := &steps[i]
		right, err := s.Table.FilterAll(s.Filters...)
		if err != nil {
			return nil, fmt.Errorf("joinverify.Chain: step %d: %w", i, err)
		}
		joined, n, err := table.Join(res.Table, right, s.Key, s.How)
		if err != nil {
			return nil, fmt.Errorf("joinverify.Chain: step %d: %w", i, err)
		}
		log.V(1).Infof("joinverify.Chain: %v: %d x %d rows -> %d rows", s, res.Table.NumRows(), right.NumRows(), n)
		res.Table = joined
		res.Sizes = append(res.Sizes, n)
	}
	return res, nil
}

func checkSteps(base *table.Table, steps []Step) error {
	if base == nil {
		return fmt.Errorf("%w: base table is nil", checks.ErrInvalidParameter)
	}
	if len(steps) == 0 {
		return fmt.Errorf("%w: no join steps", checks.ErrInvalidParameter)
	}
	for i, s := range steps {
		if s.Table == nil {
			return fmt.Errorf("%w: step %d (%s) has no table, call Load first", checks.ErrInvalidParameter, i, s.name())
		}
		if err := checks.CheckColumn(s.Key, fmt.Sprintf("step %d key", i)); err != nil {
			return err
		}
	}
	return nil
}
