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
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/go-cmp/cmp"
)

const accountCSV = `account_id,district_id,frequency,date
1,18,POPLATEK MESICNE,950324
2,1,POPLATEK MESICNE,930226
3,5,POPLATEK MESICNE,970707
4,12,POPLATEK MESICNE,960221
5,18,POPLATEK TYDNE,960530
6,18,POPLATEK MESICNE,930131
`

func mustReadCSV(t *testing.T, s string) *Table {
	t.Helper()
	tbl, err := ReadCSV(strings.NewReader(s))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	return tbl
}

func TestReadCSVInfersKinds(t *testing.T) {
	tbl := mustReadCSV(t, "id,amount,name,partial\n1,10.5,a,\n2,3,b,7\n")
	for _, tc := range []struct {
		column string
		want   Kind
	}{
		{"id", Int},
		{"amount", Float},
		{"name", String},
		{"partial", Int},
	} {
		c, err := tbl.Column(tc.column)
		if err != nil {
			t.Fatalf("Column(%q): %v", tc.column, err)
		}
		if c.Kind != tc.want {
			t.Errorf("Column(%q).Kind: got %v, want %v", tc.column, c.Kind, tc.want)
		}
	}
	if got := tbl.NumRows(); got != 2 {
		t.Errorf("NumRows: got %d, want 2", got)
	}
}

func TestReadCSVErrors(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err == nil {
		t.Errorf("ReadCSV(empty): got nil error, want error")
	}
	if _, err := ReadCSV(strings.NewReader("a,b\n1,2,3\n")); err == nil {
		t.Errorf("ReadCSV(ragged): got nil error, want error")
	}
	if _, err := ReadCSV(strings.NewReader("a,a\n1,2\n")); !errors.Is(err, checks.ErrInvalidParameter) {
		t.Errorf("ReadCSV(duplicate column): got %v, want ErrInvalidParameter", err)
	}
}

func TestFloatsSkipsMissingValues(t *testing.T) {
	tbl := mustReadCSV(t, "v,s\n1,x\n,y\n2.5,z\n")
	got, err := tbl.Floats("v")
	if err != nil {
		t.Fatalf("Floats: %v", err)
	}
	if diff := cmp.Diff([]float64{1, 2.5}, got); diff != "" {
		t.Errorf("Floats: unexpected result (-want +got):\n%s", diff)
	}
	if _, err := tbl.Floats("s"); !errors.Is(err, checks.ErrInvalidParameter) {
		t.Errorf("Floats(string column): got %v, want ErrInvalidParameter", err)
	}
	if _, err := tbl.Floats("nope"); !errors.Is(err, checks.ErrInvalidParameter) {
		t.Errorf("Floats(missing column): got %v, want ErrInvalidParameter", err)
	}
}

func TestFilter(t *testing.T) {
	tbl := mustReadCSV(t, accountCSV)
	for _, tc := range []struct {
		desc   string
		filter *Filter
		want   []string
	}{
		{"no filter", nil, []string{"1", "2", "3", "4", "5", "6"}},
		{"int column", &Filter{Column: "district_id", Value: "18"}, []string{"1", "5", "6"}},
		{"int column, float literal", &Filter{Column: "district_id", Value: "18.0"}, []string{"1", "5", "6"}},
		{"string column", &Filter{Column: "frequency", Value: "POPLATEK TYDNE"}, []string{"5"}},
		{"no match", &Filter{Column: "district_id", Value: "99"}, []string{}},
		{"non-numeric value on int column", &Filter{Column: "district_id", Value: "abc"}, []string{}},
	} {
		got, err := tbl.Filter(tc.filter)
		if err != nil {
			t.Fatalf("Filter(%v): %v", tc.filter, err)
		}
		ids, err := got.Keys("account_id")
		if err != nil {
			t.Fatalf("Keys: %v", err)
		}
		if diff := cmp.Diff(tc.want, ids); diff != "" {
			t.Errorf("Filter: when %s unexpected account ids (-want +got):\n%s", tc.desc, diff)
		}
	}
	if _, err := tbl.Filter(&Filter{Column: "nope", Value: "1"}); !errors.Is(err, checks.ErrInvalidParameter) {
		t.Errorf("Filter on missing column: got %v, want ErrInvalidParameter", err)
	}
}

func TestFilterAll(t *testing.T) {
	tbl := mustReadCSV(t, accountCSV)
	got, err := tbl.FilterAll(Filter{"district_id", "18"}, Filter{"frequency", "POPLATEK MESICNE"})
	if err != nil {
		t.Fatalf("FilterAll: %v", err)
	}
	if got.NumRows() != 2 {
		t.Errorf("FilterAll: got %d rows, want 2", got.NumRows())
	}
}

func TestParseFilter(t *testing.T) {
	got, err := ParseFilter("operation=VYBER KARTOU")
	if err != nil {
		t.Fatalf("ParseFilter: %v", err)
	}
	if want := (Filter{Column: "operation", Value: "VYBER KARTOU"}); got != want {
		t.Errorf("ParseFilter: got %+v, want %+v", got, want)
	}
	if _, err := ParseFilter("novalue"); !errors.Is(err, checks.ErrInvalidParameter) {
		t.Errorf("ParseFilter(novalue): got %v, want ErrInvalidParameter", err)
	}
}

func TestLoadAndWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "account.csv")
	if err := os.WriteFile(path, []byte(accountCSV), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	tbl, err := LoadCSV(path)
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if diff := cmp.Diff(accountCSV, buf.String()); diff != "" {
		t.Errorf("WriteCSV: unexpected output (-want +got):\n%s", diff)
	}
	if _, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Errorf("LoadCSV(missing file): got nil error, want error")
	}
}
