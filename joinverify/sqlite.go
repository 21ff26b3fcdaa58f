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

package joinverify

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/table"

	// Registers the "sqlite" driver.
	_ "modernc.org/sqlite"
)

// SQLite computes chained join sizes with an embedded in-memory SQLite
// database. It follows the semantics of Chain: missing cells are NULL and
// never match, and overlapping column names get the suffixes "_x" and "_y".
//
// Not thread-safe.
type SQLite struct {
	db     *sql.DB
	tables int
}

// OpenSQLite returns an empty in-memory database. Call Close to release it.
func OpenSQLite(ctx context.Context) (*SQLite, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("OpenSQLite: %v", err)
	}
	// Every connection to ":memory:" opens a distinct database.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("OpenSQLite: %v", err)
	}
	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// ChainSQLite is like Chain but runs the joins in a fresh SQLite database.
// The returned Result has no Table.
func ChainSQLite(ctx context.Context, base *table.Table, steps []Step) (*Result, error) {
	s, err := OpenSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer s.Close()
	return s.Chain(ctx, base, steps)
}

// Chain loads base and the tables of steps into the database and counts the
// rows after each join.
func (s *SQLite) Chain(ctx context.Context, base *table.Table, steps []Step) (*Result, error) {
	if err := checkSteps(base, steps); err != nil {
		return nil, fmt.Errorf("SQLite.Chain: %w", err)
	}
	baseName, err := s.load(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("SQLite.Chain: %w", err)
	}

	// exprs maps each column of the joined result to the SQL expression
	// holding its value.
	exprs := make(map[string]string)
	for _, c := range base.Names() {
		exprs[c] = "j0." + quoteIdent(c)
	}
	from := quoteIdent(baseName) + " AS j0"
	var args []any
	res := &Result{}
	for i := range steps {
		step := &steps[i]
		name, err := s.load(ctx, step.Table)
		if err != nil {
			return nil, fmt.Errorf("SQLite.Chain: step %d: %w", i, err)
		}
		sub, subArgs, err := filteredSelect(name, step.Table, step.Filters)
		if err != nil {
			return nil, fmt.Errorf("SQLite.Chain: step %d: %w", i, err)
		}
		leftKey, ok := exprs[step.Key]
		if !ok {
			return nil, fmt.Errorf("SQLite.Chain: step %d: %w: joined tables have no column %q", i, checks.ErrInvalidParameter, step.Key)
		}
		if _, err := step.Table.Column(step.Key); err != nil {
			return nil, fmt.Errorf("SQLite.Chain: step %d: %w", i, err)
		}

		alias := fmt.Sprintf("j%d", i+1)
		rightKey := alias + "." + quoteIdent(step.Key)
		from += fmt.Sprintf(" %s (%s) AS %s ON %s = %s", joinSQL(step.How), sub, alias, leftKey, rightKey)
		args = append(args, subArgs...)

		exprs[step.Key] = fmt.Sprintf("COALESCE(%s, %s)", leftKey, rightKey)
		for _, c := range step.Table.Names() {
			if c == step.Key {
				continue
			}
			right := alias + "." + quoteIdent(c)
			if left, ok := exprs[c]; ok {
				delete(exprs, c)
				exprs[c+"_x"] = left
				exprs[c+"_y"] = right
				continue
			}
			exprs[c] = right
		}

		query := "SELECT COUNT(*) FROM " + from
		var n int
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
			return nil, fmt.Errorf("SQLite.Chain: step %d: %v", i, err)
		}
		log.V(1).Infof("SQLite.Chain: %s -> %d rows", query, n)
		res.Sizes = append(res.Sizes, n)
	}
	return res, nil
}

// load creates a new table holding the rows of t and returns its name.
func (s *SQLite) load(ctx context.Context, t *table.Table) (string, error) {
	name := fmt.Sprintf("t%d", s.tables)
	s.tables++

	names := t.Names()
	columns := make([]*table.Column, len(names))
	defs := make([]string, len(names))
	for i, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return "", err
		}
		columns[i] = c
		defs[i] = quoteIdent(n) + " " + sqlType(c.Kind)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(defs, ", "))); err != nil {
		return "", fmt.Errorf("couldn't create table %s, err = %v", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), placeholders))
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	row := make([]any, len(columns))
	for r := 0; r < t.NumRows(); r++ {
		for i, c := range columns {
			row[i] = sqlValue(c, r)
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return "", fmt.Errorf("couldn't insert row %d into %s, err = %v", r, name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}
	return name, nil
}

// filteredSelect returns a query selecting the rows of the named table that
// match every filter, and its arguments.
func filteredSelect(name string, t *table.Table, filters []table.Filter) (string, []any, error) {
	query := "SELECT * FROM " + quoteIdent(name)
	var conds []string
	var args []any
	for _, f := range filters {
		c, err := t.Column(f.Column)
		if err != nil {
			return "", nil, err
		}
		arg, ok := filterArg(c.Kind, f.Value)
		if !ok {
			// A non-numeric value never equals a cell of a numeric column.
			conds = append(conds, "0")
			continue
		}
		conds = append(conds, quoteIdent(f.Column)+" = ?")
		args = append(args, arg)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return query, args, nil
}

func filterArg(k table.Kind, value string) (any, bool) {
	value = strings.TrimSpace(value)
	switch k {
	case table.Int, table.Float:
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v, true
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, false
		}
		return v, true
	}
	return value, true
}

func sqlType(k table.Kind) string {
	switch k {
	case table.Int:
		return "INTEGER"
	case table.Float:
		return "REAL"
	}
	return "TEXT"
}

func sqlValue(c *table.Column, r int) any {
	if c.Missing(r) {
		return nil
	}
	switch c.Kind {
	case table.Int:
		return c.Int(r)
	case table.Float:
		return c.Float(r)
	}
	return c.Cell(r)
}

func joinSQL(how table.JoinType) string {
	switch how {
	case table.Left:
		return "LEFT JOIN"
	case table.Right:
		return "RIGHT JOIN"
	case table.Outer:
		return "FULL OUTER JOIN"
	}
	return "JOIN"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
