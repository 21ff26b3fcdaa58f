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

package dpagg

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/histogram"
	"github.com/google/differential-privacy/synopsis/noise"
	"github.com/google/differential-privacy/synopsis/table"
)

// MaxFrequencyOptions contains the options of NoisyMaxFrequency.
type MaxFrequencyOptions struct {
	Attribute string        // Column whose value frequencies are counted. Required.
	Filter    *table.Filter // Optional equality filter.
	Epsilon   float64       // Privacy parameter ε. Required.
	Noise     noise.Noise   // Type of noise used. Defaults to geometric difference noise from a secure source.
	// PerValueNoise adds an independent exponential draw to the count of each
	// distinct value and releases the largest noisy count (report noisy max).
	// When unset, a single draw is added to the exact maximum.
	PerValueNoise bool
}

// NoisyMaxFrequency returns the largest number of occurrences of any single
// value of the attribute, plus exponential noise with rate ε, truncated to an
// integer. Epsilon must be at least 2⁻⁵⁰ and the result saturates at
// math.MaxInt64.
//
// With PerValueNoise unset, the exact maximum is computed first and a single
// draw is added to it. Adding the noise after taking the maximum does not
// hide which value is most frequent; set PerValueNoise for the report noisy
// max mechanism.
func NoisyMaxFrequency(t *table.Table, opt *MaxFrequencyOptions) (int64, error) {
	if opt == nil {
		opt = &MaxFrequencyOptions{}
	}
	if err := checks.CheckEpsilonVeryStrict(opt.Epsilon); err != nil {
		return 0, fmt.Errorf("NoisyMaxFrequency: %w", err)
	}
	n, err := noiseOrDefault(opt.Noise)
	if err != nil {
		return 0, fmt.Errorf("NoisyMaxFrequency: %w", err)
	}

	if !opt.PerValueNoise {
		exact, err := histogram.ExactMaxFrequency(t, opt.Attribute, opt.Filter)
		if err != nil {
			return 0, fmt.Errorf("NoisyMaxFrequency: %w", err)
		}
		e, err := n.Exponential(opt.Epsilon)
		if err != nil {
			return 0, fmt.Errorf("NoisyMaxFrequency: %w", err)
		}
		return truncateCount(float64(exact) + e), nil
	}

	freq, err := histogram.Frequencies(t, opt.Attribute, opt.Filter)
	if err != nil {
		return 0, fmt.Errorf("NoisyMaxFrequency: %w", err)
	}
	if len(freq) == 0 {
		log.Warningf("NoisyMaxFrequency: column %q has no values, releasing noise only", opt.Attribute)
		freq = map[string]int64{"": 0}
	}
	best := math.Inf(-1)
	for _, c := range freq {
		e, err := n.Exponential(opt.Epsilon)
		if err != nil {
			return 0, fmt.Errorf("NoisyMaxFrequency: %w", err)
		}
		if v := float64(c) + e; v > best {
			best = v
		}
	}
	return truncateCount(best), nil
}

// truncateCount truncates a noisy count toward zero, saturating at
// math.MaxInt64.
func truncateCount(v float64) int64 {
	if v >= maxInt64Float {
		return math.MaxInt64
	}
	return int64(v)
}

// maxInt64Float is 2⁶³, the smallest float64 above math.MaxInt64.
var maxInt64Float = math.Exp2(63)
