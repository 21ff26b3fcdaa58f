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

// This is a command line utility which prints the exact sizes of a chain of
// joins over CSV tables.
// Usage example:
// go run ./cmd/joincount --base=account.csv --base_filter=district_id=18 \
//   --join=disp.csv:account_id --join=order.csv:account_id:left:k_symbol=LEASING --sqlite
package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/synopsis/joinverify"
	"github.com/google/differential-privacy/synopsis/table"
)

// stringList is a flag that can be repeated.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

var (
	baseFile    = flag.String("base", "", "Input csv file name of the leftmost table.")
	baseFilters stringList
	joins       stringList
	useSQLite   = flag.Bool("sqlite", false, "Also compute the sizes with an in-memory SQLite database and compare.")
)

func init() {
	flag.Var(&baseFilters, "base_filter", "Filter of the base table of the form column=value. Can be repeated.")
	flag.Var(&joins, "join", "Join step of the form path:key[:how][:column=value...] where how is inner, left, right or outer. Can be repeated.")
}

func main() {
	flag.Parse()

	log.Infof("The join counter was run with arguments: base = %q, base_filter = %v, join = %v", *baseFile, baseFilters, joins)

	if *baseFile == "" {
		log.Exit("No base table was chosen")
	}
	if len(joins) == 0 {
		log.Exit("No join step was chosen")
	}

	var filters []table.Filter
	for _, s := range baseFilters {
		f, err := table.ParseFilter(s)
		if err != nil {
			log.Exitf("Invalid --base_filter: %v", err)
		}
		filters = append(filters, f)
	}
	steps := make([]joinverify.Step, 0, len(joins))
	for _, s := range joins {
		step, err := parseStep(s)
		if err != nil {
			log.Exitf("Invalid --join: %v", err)
		}
		steps = append(steps, step)
	}

	ctx := context.Background()
	base, err := table.LoadCSV(*baseFile)
	if err != nil {
		log.Exitf("Couldn't load the base table, err = %v", err)
	}
	if base, err = base.FilterAll(filters...); err != nil {
		log.Exitf("Couldn't filter the base table, err = %v", err)
	}
	if err := joinverify.Load(ctx, steps); err != nil {
		log.Exitf("Couldn't load the joined tables, err = %v", err)
	}

	res, err := joinverify.Chain(base, steps)
	if err != nil {
		log.Exitf("Couldn't join the tables, err = %v", err)
	}
	fmt.Printf("%s: %d rows\n", *baseFile, base.NumRows())
	for i := range steps {
		fmt.Printf("%v: %d rows\n", &steps[i], res.Sizes[i])
	}

	if *useSQLite {
		check, err := joinverify.ChainSQLite(ctx, base, steps)
		if err != nil {
			log.Exitf("Couldn't join the tables with SQLite, err = %v", err)
		}
		for i := range steps {
			if check.Sizes[i] != res.Sizes[i] {
				log.Exitf("Step %d (%v): SQLite counted %d rows, want %d", i, &steps[i], check.Sizes[i], res.Sizes[i])
			}
		}
		log.Infof("SQLite agrees on all %d join sizes", len(steps))
	}
}

// parseStep parses a join step written as path:key[:how][:column=value...].
func parseStep(s string) (joinverify.Step, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return joinverify.Step{}, fmt.Errorf("%q is not of the form path:key[:how][:column=value...]", s)
	}
	step := joinverify.Step{Path: parts[0], Key: parts[1]}
	rest := parts[2:]
	if len(rest) > 0 && !strings.Contains(rest[0], "=") {
		how, err := table.ParseJoinType(rest[0])
		if err != nil {
			return joinverify.Step{}, err
		}
		step.How = how
		rest = rest[1:]
	}
	for _, r := range rest {
		f, err := table.ParseFilter(r)
		if err != nil {
			return joinverify.Step{}, err
		}
		step.Filters = append(step.Filters, f)
	}
	return step, nil
}
