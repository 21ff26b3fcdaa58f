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

// Package histogram computes the exact, un-noised statistics a synopsis is
// derived from: equal-width histograms over a numeric attribute and value
// frequencies.
package histogram

import (
	"fmt"
	"math"
	"sort"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/table"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Options contains the options of Build.
type Options struct {
	Attribute string        // Numeric column to bin. Required.
	Filter    *table.Filter // Optional equality filter applied before binning.
	BinCount  int           // Number of bins. Required.
	// StrictRange rejects an attribute whose values are all equal when more
	// than one bin is requested, instead of falling back to bins of width 1.
	StrictRange bool
}

// Histogram holds the exact counts of an attribute over equal-width bins.
//
// Bin i covers [Min + i*Width, Min + (i+1)*Width); the last bin is also
// closed on the right. Values outside [Min, Min + len(Counts)*Width] are not
// counted, which can happen because Min and Max are truncated toward zero.
type Histogram struct {
	Counts []int64
	Min    int64
	Max    int64
	Width  int64
	// Total is the number of rows left after filtering, including rows whose
	// attribute is missing or falls outside every bin.
	Total int
}

// Sum returns the sum of the counts.
func (h *Histogram) Sum() int64 {
	var s int64
	for _, c := range h.Counts {
		s += c
	}
	return s
}

// Edges returns the len(Counts)+1 bin edges.
func (h *Histogram) Edges() []int64 {
	edges := make([]int64, len(h.Counts)+1)
	for i := range edges {
		edges[i] = h.Min + int64(i)*h.Width
	}
	return edges
}

// Build filters t and bins the values of the attribute into equal-width bins.
//
// The bounds are the observed minimum and maximum truncated toward zero, and
// the width is ceil((Max-Min)/BinCount), or 1 if all values are equal.
func Build(t *table.Table, opt *Options) (*Histogram, error) {
	if opt == nil {
		opt = &Options{}
	}
	binCount := opt.BinCount
	if err := checks.CheckBinCount(binCount); err != nil {
		return nil, fmt.Errorf("histogram.Build: %w", err)
	}
	if err := checks.CheckColumn(opt.Attribute); err != nil {
		return nil, fmt.Errorf("histogram.Build: %w", err)
	}

	filtered, err := t.Filter(opt.Filter)
	if err != nil {
		return nil, fmt.Errorf("histogram.Build: %w", err)
	}
	if err := checks.CheckNonEmpty(filtered.NumRows(), describe(opt.Attribute, opt.Filter)); err != nil {
		return nil, fmt.Errorf("histogram.Build: %w", err)
	}
	values, err := filtered.Floats(opt.Attribute)
	if err != nil {
		return nil, fmt.Errorf("histogram.Build: %w", err)
	}
	if err := checks.CheckNonEmpty(len(values), "column "+opt.Attribute); err != nil {
		return nil, fmt.Errorf("histogram.Build: %w", err)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("histogram.Build: %w: column %q holds non-finite value %v", checks.ErrDegenerateRange, opt.Attribute, v)
		}
	}

	lower, upper := math.Trunc(floats.Min(values)), math.Trunc(floats.Max(values))
	if err := checks.CheckRange(lower, upper, binCount, opt.StrictRange); err != nil {
		return nil, fmt.Errorf("histogram.Build: %w", err)
	}
	width, err := binWidth(lower, upper, binCount)
	if err != nil {
		return nil, fmt.Errorf("histogram.Build: %w: column %q: %v", checks.ErrDegenerateRange, opt.Attribute, err)
	}
	h := &Histogram{
		Min:   int64(lower),
		Max:   int64(upper),
		Width: width,
		Total: filtered.NumRows(),
	}
	h.Counts = binValues(values, h.Edges())
	log.V(1).Infof("histogram.Build: %s: min=%d max=%d width=%d counts=%v", describe(opt.Attribute, opt.Filter), h.Min, h.Max, h.Width, h.Counts)
	return h, nil
}

// binValues counts values into the bins delimited by edges. The last bin is
// closed on the right and values outside the edges are dropped.
func binValues(values []float64, edges []int64) []int64 {
	dividers := make([]float64, len(edges))
	for i, e := range edges {
		dividers[i] = float64(e)
	}
	first, last := dividers[0], dividers[len(dividers)-1]

	var inside []float64
	atLast := 0
	for _, v := range values {
		switch {
		case v == last:
			atLast++
		case v >= first && v < last:
			inside = append(inside, v)
		}
	}
	sort.Float64s(inside)

	weighted := make([]float64, len(edges)-1)
	stat.Histogram(weighted, dividers, inside, nil)
	counts := make([]int64, len(weighted))
	for i, w := range weighted {
		counts[i] = int64(w)
	}
	counts[len(counts)-1] += int64(atLast)
	return counts
}

// binWidth returns ceil((upper-lower)/binCount), or 1 if lower == upper. The
// bounds are integral. It fails if a bound, the range or the last edge
// lower+binCount*width does not fit in an int64.
func binWidth(lower, upper float64, binCount int) (int64, error) {
	if math.Abs(lower) >= maxMagnitude || math.Abs(upper) >= maxMagnitude {
		return 0, fmt.Errorf("range [%g, %g] exceeds the int64 range", lower, upper)
	}
	lo, hi, n := int64(lower), int64(upper), int64(binCount)
	if lo < 0 && hi > math.MaxInt64+lo {
		return 0, fmt.Errorf("width of range [%d, %d] exceeds the int64 range", lo, hi)
	}
	width := ceilDiv(hi-lo, n)
	if width == 0 {
		width = 1
	}
	if width > math.MaxInt64/n {
		return 0, fmt.Errorf("%d bins of width %d exceed the int64 range", n, width)
	}
	if last := lo + n*width; last < lo {
		return 0, fmt.Errorf("last edge %d + %d*%d exceeds the int64 range", lo, n, width)
	}
	return width, nil
}

// maxMagnitude is 2⁶³, the smallest float64 magnitude outside the int64 range.
var maxMagnitude = math.Exp2(63)

// ceilDiv returns ceil(a/b) for a >= 0 and b > 0.
func ceilDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

func describe(attribute string, f *table.Filter) string {
	if f == nil {
		return fmt.Sprintf("column %q", attribute)
	}
	return fmt.Sprintf("column %q where %v", attribute, f)
}
