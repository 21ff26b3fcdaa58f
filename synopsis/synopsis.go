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

// Package synopsis generates differentially private synopses of a table
// column: a noisy histogram, a noisy histogram with negative noise, the
// cumulative index pairs derived from both, and a noisy maximum frequency.
//
// Each synopsis spends the configured ε independently on each of its
// statistics. Budget composition across statistics or synopses is not
// tracked.
package synopsis

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/synopsis/cdfindex"
	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/dpagg"
	"github.com/google/differential-privacy/synopsis/histogram"
	"github.com/google/differential-privacy/synopsis/noise"
	"github.com/google/differential-privacy/synopsis/rand"
	"github.com/google/differential-privacy/synopsis/table"
	"github.com/google/uuid"
)

// DefaultBinCount is the number of histogram bins used when
// Options.BinCount is 0.
const DefaultBinCount = 8

// Options contains the options of Generate.
type Options struct {
	Attribute string        // Numeric column the synopsis describes. Required.
	Filter    *table.Filter // Optional equality filter applied to the table first.
	Epsilon   float64       // Privacy parameter ε. Required.
	BinCount  int           // Number of histogram bins. Defaults to DefaultBinCount.
	// Noise used for every statistic. Defaults to geometric difference noise
	// from a secure source.
	Noise noise.Noise
	// StrictRange rejects an attribute whose values are all equal when more
	// than one bin is requested.
	StrictRange bool
	// RestoreInvariants post-processes the index pairs so that Lo <= Hi and
	// Hi is non-decreasing.
	RestoreInvariants bool
	// PerValueMaxFrequency noises the count of every value before taking the
	// maximum instead of noising the exact maximum.
	PerValueMaxFrequency bool
	// NoisyTotalCap caps Hi with a separately released noisy total instead of
	// the sum of the noisy histogram.
	NoisyTotalCap bool
	// TestMode disables noise. For tests only.
	TestMode TestMode
}

// FilterSpec is the serialized form of a table.Filter.
type FilterSpec struct {
	Column string `codec:"column"`
	Value  string `codec:"value"`
}

func (f *FilterSpec) filter() *table.Filter {
	if f == nil {
		return nil
	}
	return &table.Filter{Column: f.Column, Value: f.Value}
}

func filterSpec(f *table.Filter) *FilterSpec {
	if f == nil {
		return nil
	}
	return &FilterSpec{Column: f.Column, Value: f.Value}
}

// Synopsis is the differentially private summary of one column.
type Synopsis struct {
	RunID     string      `codec:"run_id"`
	Name      string      `codec:"name,omitempty"`
	Attribute string      `codec:"attribute"`
	Filter    *FilterSpec `codec:"filter,omitempty"`
	Epsilon   float64     `codec:"epsilon"`
	BinCount  int         `codec:"bin_count"`
	// Min and Width describe the bins: bin i covers
	// [Min + i*Width, Min + (i+1)*Width).
	Min   int64  `codec:"min"`
	Width int64  `codec:"width"`
	Noise string `codec:"noise"`

	NoisyHistogram         []int64         `codec:"noisy_histogram"`
	NoisyNegativeHistogram []int64         `codec:"noisy_negative_histogram"`
	Indexes                []cdfindex.Pair `codec:"indexes"`
	NoisyMaxFrequency      int64           `codec:"noisy_max_frequency"`
	// NoisyTotal is the released total used as the cap of the indexes, if
	// Options.NoisyTotalCap was set.
	NoisyTotal *int64 `codec:"noisy_total,omitempty"`
	// Violations is the number of index pairs with Lo > Hi before any
	// restoration.
	Violations int `codec:"violations"`
}

// Generate computes the synopsis of t described by opt.
//
// The exact histogram is built once. The two noisy histograms and the
// maximum frequency use independent noise draws.
func Generate(t *table.Table, opt *Options) (*Synopsis, error) {
	if opt == nil {
		opt = &Options{}
	}
	if err := checks.CheckEpsilonStrict(opt.Epsilon); err != nil {
		return nil, fmt.Errorf("synopsis.Generate: %w", err)
	}
	binCount := opt.BinCount
	if binCount == 0 {
		binCount = DefaultBinCount
	}
	n, err := noiseFor(opt)
	if err != nil {
		return nil, fmt.Errorf("synopsis.Generate: %w", err)
	}

	h, err := histogram.Build(t, &histogram.Options{
		Attribute:   opt.Attribute,
		Filter:      opt.Filter,
		BinCount:    binCount,
		StrictRange: opt.StrictRange,
	})
	if err != nil {
		return nil, fmt.Errorf("synopsis.Generate: %w", err)
	}
	hopt := &dpagg.HistogramOptions{Epsilon: opt.Epsilon, Noise: n}
	pos, err := dpagg.NoisyHistogram(h, hopt)
	if err != nil {
		return nil, fmt.Errorf("synopsis.Generate: %w", err)
	}
	neg, err := dpagg.NoisyNegativeHistogram(h, hopt)
	if err != nil {
		return nil, fmt.Errorf("synopsis.Generate: %w", err)
	}

	s := &Synopsis{
		RunID:                  uuid.New().String(),
		Attribute:              opt.Attribute,
		Filter:                 filterSpec(opt.Filter),
		Epsilon:                opt.Epsilon,
		BinCount:               binCount,
		Min:                    h.Min,
		Width:                  h.Width,
		Noise:                  noise.ToKind(n).String(),
		NoisyHistogram:         pos,
		NoisyNegativeHistogram: neg,
	}

	if s.Indexes, s.NoisyTotal, err = indexes(h, pos, neg, n, opt); err != nil {
		return nil, fmt.Errorf("synopsis.Generate: %w", err)
	}
	s.Violations = cdfindex.Violations(s.Indexes)
	if s.Violations > 0 {
		log.Warningf("synopsis %s: %d of %d index pairs have Lo > Hi", s.RunID, s.Violations, len(s.Indexes))
	}
	if opt.RestoreInvariants {
		s.Indexes = cdfindex.Restore(s.Indexes)
	}

	s.NoisyMaxFrequency, err = dpagg.NoisyMaxFrequency(t, &dpagg.MaxFrequencyOptions{
		Attribute:     opt.Attribute,
		Filter:        opt.Filter,
		Epsilon:       opt.Epsilon,
		Noise:         n,
		PerValueNoise: opt.PerValueMaxFrequency,
	})
	if err != nil {
		return nil, fmt.Errorf("synopsis.Generate: %w", err)
	}
	log.V(1).Infof("synopsis %s: %s: indexes %v", s.RunID, describe(opt), s.Indexes)
	return s, nil
}

// indexes returns the index pairs of a synopsis, capped by the noisy
// total if opt.NoisyTotalCap is set.
func indexes(h *histogram.Histogram, pos, neg []int64, n noise.Noise, opt *Options) ([]cdfindex.Pair, *int64, error) {
	if !opt.NoisyTotalCap {
		pairs, err := cdfindex.CDFIndexes(pos, neg)
		return pairs, nil, err
	}
	total, err := n.AddNoiseInt64(h.Sum(), 1, opt.Epsilon)
	if err != nil {
		return nil, nil, err
	}
	// Clamping cannot fail: the bounds are ordered.
	total, _ = dpagg.ClampInt64(total, 0, math.MaxInt64)
	pairs, err := cdfindex.CDFIndexesCapped(pos, neg, total)
	if err != nil {
		return nil, nil, err
	}
	return pairs, &total, nil
}

func noiseFor(opt *Options) (noise.Noise, error) {
	if opt.TestMode.isEnabled() {
		return noNoise{}, nil
	}
	if opt.Noise != nil {
		return opt.Noise, nil
	}
	return noise.GeometricDifference(rand.Secure(), nil)
}

func describe(opt *Options) string {
	if opt.Filter == nil {
		return opt.Attribute
	}
	return fmt.Sprintf("%s where %v", opt.Attribute, opt.Filter)
}
