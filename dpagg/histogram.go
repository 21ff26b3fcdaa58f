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

// Package dpagg contains the differentially private statistics released in a
// synopsis: noisy histograms and a noisy maximum frequency.
//
// Every function performs its own noise draw. Two calls on the same input
// return independently perturbed results.
package dpagg

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/synopsis/histogram"
	"github.com/google/differential-privacy/synopsis/noise"
	"github.com/google/differential-privacy/synopsis/rand"
	"github.com/google/differential-privacy/synopsis/table"
)

// HistogramOptions contains the options of the noisy histogram functions.
type HistogramOptions struct {
	Epsilon float64     // Privacy parameter ε. Required.
	Noise   noise.Noise // Type of noise used. Defaults to geometric difference noise from a secure source.
}

// NoisyHistogram returns the counts of h plus two-sided noise. The result is
// not clipped.
func NoisyHistogram(h *histogram.Histogram, opt *HistogramOptions) ([]int64, error) {
	n, eps, err := histogramNoise(opt)
	if err != nil {
		return nil, fmt.Errorf("NoisyHistogram: %w", err)
	}
	samples, err := n.TwoSided(eps, len(h.Counts))
	if err != nil {
		return nil, fmt.Errorf("NoisyHistogram: %w", err)
	}
	noisy := make([]int64, len(h.Counts))
	for i, c := range h.Counts {
		noisy[i] = c + samples[i]
	}
	log.V(1).Infof("NoisyHistogram: %v -> %v", h.Counts, noisy)
	return noisy, nil
}

// NoisyNegativeHistogram returns the counts of h plus negative noise, clipped
// to be nonnegative.
func NoisyNegativeHistogram(h *histogram.Histogram, opt *HistogramOptions) ([]int64, error) {
	n, eps, err := histogramNoise(opt)
	if err != nil {
		return nil, fmt.Errorf("NoisyNegativeHistogram: %w", err)
	}
	samples, err := n.Negative(eps, len(h.Counts))
	if err != nil {
		return nil, fmt.Errorf("NoisyNegativeHistogram: %w", err)
	}
	noisy := make([]int64, len(h.Counts))
	for i, c := range h.Counts {
		// Clamping cannot fail: the bounds are ordered.
		noisy[i], _ = ClampInt64(c+samples[i], 0, math.MaxInt64)
	}
	log.V(1).Infof("NoisyNegativeHistogram: %v -> %v", h.Counts, noisy)
	return noisy, nil
}

// NoisyHistogramOf builds the exact histogram of t described by hopt and
// returns it with two-sided noise added.
func NoisyHistogramOf(t *table.Table, hopt *histogram.Options, opt *HistogramOptions) ([]int64, error) {
	h, err := histogram.Build(t, hopt)
	if err != nil {
		return nil, fmt.Errorf("NoisyHistogramOf: %w", err)
	}
	return NoisyHistogram(h, opt)
}

// NoisyNegativeHistogramOf builds the exact histogram of t described by hopt
// and returns it with negative noise added and clipped.
func NoisyNegativeHistogramOf(t *table.Table, hopt *histogram.Options, opt *HistogramOptions) ([]int64, error) {
	h, err := histogram.Build(t, hopt)
	if err != nil {
		return nil, fmt.Errorf("NoisyNegativeHistogramOf: %w", err)
	}
	return NoisyNegativeHistogram(h, opt)
}

func histogramNoise(opt *HistogramOptions) (noise.Noise, float64, error) {
	if opt == nil {
		opt = &HistogramOptions{}
	}
	n, err := noiseOrDefault(opt.Noise)
	return n, opt.Epsilon, err
}

// noiseOrDefault returns n, or geometric difference noise with the default
// bias drawn from a secure source if n is nil.
func noiseOrDefault(n noise.Noise) (noise.Noise, error) {
	if n != nil {
		return n, nil
	}
	return noise.GeometricDifference(rand.Secure(), nil)
}
