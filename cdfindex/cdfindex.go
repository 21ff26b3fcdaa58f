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

// Package cdfindex derives per-bin bounds on cumulative counts from noisy
// histograms.
//
// For bin i, a Pair bounds the position in the sorted data at which the bin
// starts (Lo) and ends (Hi). Consumers use the pairs to size padded
// intermediate results without learning the exact counts.
package cdfindex

import (
	"fmt"

	"github.com/google/differential-privacy/synopsis/checks"
)

// Pair bounds a cumulative count at a bin boundary.
type Pair struct {
	Lo int64 `codec:"lo" json:"lo"`
	Hi int64 `codec:"hi" json:"hi"`
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p.Lo, p.Hi)
}

// CDFIndexes returns one Pair per bin from a histogram with two-sided noise
// (pos) and one with negative noise (neg):
//
//	Lo_0 = 0,            Hi_0 = min(cdf_pos[0], C)
//	Lo_i = cdf_neg[i-1], Hi_i = min(cdf_pos[i], C)
//
// where cdf_x[i] = x[0] + ... + x[i] and C = sum(pos). The pairs are returned
// as computed; see Restore.
func CDFIndexes(pos, neg []int64) ([]Pair, error) {
	if err := checkLengths(pos, neg); err != nil {
		return nil, fmt.Errorf("CDFIndexes: %w", err)
	}
	return cdfIndexes(pos, neg, sum(pos)), nil
}

// CDFIndexesCapped is like CDFIndexes with an explicit cap c on Hi instead
// of sum(pos), for instance a separately released noisy total.
func CDFIndexesCapped(pos, neg []int64, c int64) ([]Pair, error) {
	if err := checkLengths(pos, neg); err != nil {
		return nil, fmt.Errorf("CDFIndexesCapped: %w", err)
	}
	if c < 0 {
		return nil, fmt.Errorf("CDFIndexesCapped: %w: cap is %d, must be nonnegative", checks.ErrInvalidParameter, c)
	}
	return cdfIndexes(pos, neg, c), nil
}

func cdfIndexes(pos, neg []int64, c int64) []Pair {
	pairs := make([]Pair, len(pos))
	var cdfPos, cdfNeg int64
	for i := range pos {
		cdfPos += pos[i]
		pairs[i] = Pair{Lo: cdfNeg, Hi: min64(cdfPos, c)}
		cdfNeg += neg[i]
	}
	return pairs
}

// DPIndexes returns one Pair per bin from the exact histogram and a noisy
// version of it:
//
//	Hi_i = min(noisy[0] + ... + noisy[i], C)
//	Lo_i = max(C - (noisy[i] + ... + noisy[n-1]), 0)
//
// where C = sum(trueHist). Only the total of trueHist is used.
func DPIndexes(trueHist, noisy []int64) ([]Pair, error) {
	if err := checkLengths(trueHist, noisy); err != nil {
		return nil, fmt.Errorf("DPIndexes: %w", err)
	}
	c := sum(trueHist)
	suffix := sum(noisy)
	pairs := make([]Pair, len(noisy))
	var prefix int64
	for i, v := range noisy {
		prefix += v
		pairs[i] = Pair{Lo: max64(c-suffix, 0), Hi: min64(prefix, c)}
		suffix -= v
	}
	return pairs, nil
}

// Restore returns a copy of pairs in which Hi is non-decreasing and Lo is at
// most Hi. Hi is replaced by the running maximum of Hi, then Lo by
// min(Lo, Hi). Neither bound increases beyond the largest input Hi.
func Restore(pairs []Pair) []Pair {
	out := make([]Pair, len(pairs))
	var hi int64
	for i, p := range pairs {
		if i == 0 || p.Hi > hi {
			hi = p.Hi
		}
		out[i] = Pair{Lo: min64(p.Lo, hi), Hi: hi}
	}
	return out
}

// Violations returns the number of pairs with Lo > Hi.
func Violations(pairs []Pair) int {
	n := 0
	for _, p := range pairs {
		if p.Lo > p.Hi {
			n++
		}
	}
	return n
}

func checkLengths(a, b []int64) error {
	if len(a) == 0 {
		return fmt.Errorf("%w: histograms must not be empty", checks.ErrInvalidParameter)
	}
	if len(a) != len(b) {
		return fmt.Errorf("%w: histograms have %d and %d bins, must be equal", checks.ErrInvalidParameter, len(a), len(b))
	}
	return nil
}

func sum(values []int64) int64 {
	var s int64
	for _, v := range values {
		s += v
	}
	return s
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
