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

package cdfindex

import (
	"errors"
	"testing"

	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/rand"
	"github.com/google/go-cmp/cmp"
)

func TestCDFIndexes(t *testing.T) {
	for _, tc := range []struct {
		desc     string
		pos, neg []int64
		want     []Pair
	}{
		{
			desc: "zero noise",
			pos:  []int64{10, 20, 5},
			neg:  []int64{10, 20, 5},
			want: []Pair{{0, 10}, {10, 30}, {30, 35}},
		},
		{
			desc: "single bin",
			pos:  []int64{7},
			neg:  []int64{7},
			want: []Pair{{0, 7}},
		},
		{
			desc: "biased noise",
			pos:  []int64{17, 27, 12},
			neg:  []int64{3, 13, 0},
			want: []Pair{{0, 17}, {3, 44}, {16, 56}},
		},
		{
			desc: "negative two-sided counts",
			pos:  []int64{5, -3, 4},
			neg:  []int64{6, 0, 2},
			// C = 6: cdf_pos = 5 2 6.
			want: []Pair{{0, 5}, {6, 2}, {6, 6}},
		},
	} {
		got, err := CDFIndexes(tc.pos, tc.neg)
		if err != nil {
			t.Fatalf("CDFIndexes: when %s got error %v", tc.desc, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("CDFIndexes: when %s unexpected pairs (-want +got):\n%s", tc.desc, diff)
		}
	}
}

func TestCDFIndexesCapped(t *testing.T) {
	got, err := CDFIndexesCapped([]int64{17, 27, 12}, []int64{3, 13, 0}, 40)
	if err != nil {
		t.Fatalf("CDFIndexesCapped: %v", err)
	}
	want := []Pair{{0, 17}, {3, 40}, {16, 40}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CDFIndexesCapped: unexpected pairs (-want +got):\n%s", diff)
	}
	if _, err := CDFIndexesCapped([]int64{1}, []int64{1}, -1); !errors.Is(err, checks.ErrInvalidParameter) {
		t.Errorf("CDFIndexesCapped with negative cap: got %v, want ErrInvalidParameter", err)
	}
}

func TestDPIndexes(t *testing.T) {
	for _, tc := range []struct {
		desc            string
		trueHist, noisy []int64
		want            []Pair
	}{
		{
			desc:     "zero noise",
			trueHist: []int64{10, 20, 5},
			noisy:    []int64{10, 20, 5},
			want:     []Pair{{0, 10}, {10, 30}, {30, 35}},
		},
		{
			desc:     "noisy",
			trueHist: []int64{10, 20, 5},
			noisy:    []int64{12, 18, 9},
			want:     []Pair{{0, 12}, {8, 30}, {26, 35}},
		},
		{
			desc:     "single bin",
			trueHist: []int64{7},
			noisy:    []int64{9},
			want:     []Pair{{0, 7}},
		},
	} {
		got, err := DPIndexes(tc.trueHist, tc.noisy)
		if err != nil {
			t.Fatalf("DPIndexes: when %s got error %v", tc.desc, err)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("DPIndexes: when %s unexpected pairs (-want +got):\n%s", tc.desc, diff)
		}
	}
}

func TestDPIndexesZeroNoiseGivesExactBoundaries(t *testing.T) {
	hist := []int64{4, 0, 9, 1, 3, 3, 0, 8}
	got, err := DPIndexes(hist, hist)
	if err != nil {
		t.Fatalf("DPIndexes: %v", err)
	}
	var before int64
	for i, p := range got {
		if want := (Pair{Lo: before, Hi: before + hist[i]}); p != want {
			t.Errorf("DPIndexes: bin %d is %v, want %v", i, p, want)
		}
		before += hist[i]
	}
}

func TestArgumentCheck(t *testing.T) {
	for _, tc := range []struct {
		desc string
		a, b []int64
	}{
		{"empty", nil, nil},
		{"length mismatch", []int64{1, 2}, []int64{1}},
	} {
		if _, err := CDFIndexes(tc.a, tc.b); !errors.Is(err, checks.ErrInvalidParameter) {
			t.Errorf("CDFIndexes: when %s got %v, want ErrInvalidParameter", tc.desc, err)
		}
		if _, err := CDFIndexesCapped(tc.a, tc.b, 10); !errors.Is(err, checks.ErrInvalidParameter) {
			t.Errorf("CDFIndexesCapped: when %s got %v, want ErrInvalidParameter", tc.desc, err)
		}
		if _, err := DPIndexes(tc.a, tc.b); !errors.Is(err, checks.ErrInvalidParameter) {
			t.Errorf("DPIndexes: when %s got %v, want ErrInvalidParameter", tc.desc, err)
		}
	}
}

func TestRestore(t *testing.T) {
	in := []Pair{{5, 3}, {2, 10}, {4, 8}}
	got := Restore(in)
	want := []Pair{{3, 3}, {2, 10}, {4, 10}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Restore: unexpected pairs (-want +got):\n%s", diff)
	}
	if n := Violations(in); n != 1 {
		t.Errorf("Violations(input): got %d, want 1", n)
	}
	if n := Violations(got); n != 0 {
		t.Errorf("Violations(restored): got %d, want 0", n)
	}
	if diff := cmp.Diff([]Pair{{5, 3}, {2, 10}, {4, 8}}, in); diff != "" {
		t.Errorf("Restore modified its input (-want +got):\n%s", diff)
	}
}

// Restored pairs satisfy Lo <= Hi, non-decreasing Hi and Hi <= C for
// arbitrary noisy histograms.
func TestRestoreInvariants(t *testing.T) {
	r := rand.New(rand.NewSeeded(11))
	for trial := 0; trial < 1000; trial++ {
		bins := 1 + int(r.I63n(32))
		pos := make([]int64, bins)
		neg := make([]int64, bins)
		for i := range pos {
			exact := r.I63n(50)
			pos[i] = exact + r.I63n(15) - 2
			neg[i] = exact - r.I63n(exact+1)
		}
		pairs, err := CDFIndexes(pos, neg)
		if err != nil {
			t.Fatalf("CDFIndexes: %v", err)
		}
		restored := Restore(pairs)
		c := sum(pos)
		for i, p := range restored {
			if p.Lo > p.Hi {
				t.Fatalf("Restore(%v): pair %d is %v, Lo > Hi", pairs, i, p)
			}
			if p.Hi > c {
				t.Fatalf("Restore(%v): pair %d is %v, Hi > C = %d", pairs, i, p, c)
			}
			if i > 0 && p.Hi < restored[i-1].Hi {
				t.Fatalf("Restore(%v): Hi decreases at pair %d", pairs, i)
			}
		}
	}
}
