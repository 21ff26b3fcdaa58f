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

package noise

import (
	"fmt"
	"math"

	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultBias is the offset added to the difference of two geometric samples.
// It pushes two-sided noise away from zero so that noisy counts overestimate
// the exact counts with high probability.
const DefaultBias = 7

var (
	// granularityParam determines the resolution of the discrete Laplace noise
	// relative to the L_1 sensitivity and ε. It corresponds to the value 2ᵏ
	// described in
	// https://github.com/google/differential-privacy/blob/main/common_docs/Secure_Noise_Generation.pdf.
	// The probability of an overflow is less than 2⁻¹⁰⁰⁰ if it is at most 2⁴⁰
	// and ε is at least 2⁻⁵⁰.
	//
	// This parameter should be a power of 2.
	granularityParam = math.Exp2(40)
)

// Options contains the options of the geometric difference noise generator.
type Options struct {
	// Bias added before taking absolute values. Must be nonnegative. Nil
	// Options use DefaultBias.
	Bias int64
}

type geometricDifference struct {
	r    *rand.Rand
	bias int64
}

// GeometricDifference returns a Noise instance whose samples are built from the
// difference U-V of two independent geometric samples with success
// probability p = 1 - e^-ε:
//
//	two-sided noise: |U - V + bias|
//	negative noise:  -|U - V - bias|
//
// A nil src means rand.Secure(). A nil opt means default options.
//
// The returned instance is not thread-safe.
func GeometricDifference(src rand.Source, opt *Options) (Noise, error) {
	if opt == nil {
		opt = &Options{Bias: DefaultBias}
	}
	if opt.Bias < 0 {
		return nil, fmt.Errorf("GeometricDifference: %w: Bias is %d, must be nonnegative", checks.ErrInvalidParameter, opt.Bias)
	}
	return &geometricDifference{r: rand.New(src), bias: opt.Bias}, nil
}

func (g *geometricDifference) Kind() Kind {
	return GeometricDifferenceNoise
}

func (g *geometricDifference) String() string {
	return fmt.Sprintf("Geometric Difference Noise (bias %d)", g.bias)
}

// TwoSided returns count samples of |U - V + bias|.
func (g *geometricDifference) TwoSided(epsilon float64, count int) ([]int64, error) {
	if err := checkArgsGeometric(epsilon, count); err != nil {
		return nil, fmt.Errorf("TwoSided: %w", err)
	}
	samples := make([]int64, count)
	for i := range samples {
		samples[i] = abs(g.difference(epsilon) + g.bias)
	}
	return samples, nil
}

// Negative returns count samples of -|U - V - bias|.
func (g *geometricDifference) Negative(epsilon float64, count int) ([]int64, error) {
	if err := checkArgsGeometric(epsilon, count); err != nil {
		return nil, fmt.Errorf("Negative: %w", err)
	}
	samples := make([]int64, count)
	for i := range samples {
		samples[i] = -abs(g.difference(epsilon) - g.bias)
	}
	return samples, nil
}

// Exponential returns a sample from the exponential distribution with rate ε.
func (g *geometricDifference) Exponential(epsilon float64) (float64, error) {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return 0, fmt.Errorf("Exponential: %w", err)
	}
	return distuv.Exponential{Rate: epsilon, Src: g.r.Source()}.Rand(), nil
}

// AddNoiseInt64 adds discrete Laplace noise scaled to ε and l1Sensitivity to x.
//
// The noise is based on a geometric sampling mechanism that is robust against
// unintentional privacy leaks due to artifacts of floating point arithmetic.
func (g *geometricDifference) AddNoiseInt64(x, l1Sensitivity int64, epsilon float64) (int64, error) {
	if err := checks.CheckL1Sensitivity(l1Sensitivity); err != nil {
		return 0, fmt.Errorf("AddNoiseInt64: %w", err)
	}
	if err := checks.CheckEpsilonVeryStrict(epsilon); err != nil {
		return 0, fmt.Errorf("AddNoiseInt64: %w", err)
	}
	return addLaplaceInt64(g.r, x, epsilon, l1Sensitivity), nil
}

// difference returns U - V for two independent geometric samples with
// parameter λ = ε.
func (g *geometricDifference) difference(epsilon float64) int64 {
	return geometric(g.r, epsilon) - geometric(g.r, epsilon)
}

func checkArgsGeometric(epsilon float64, count int) error {
	if err := checks.CheckEpsilonVeryStrict(epsilon); err != nil {
		return err
	}
	return checks.CheckCount(count)
}

func abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// addLaplaceInt64 adds Laplace noise scaled to the given epsilon and l1Sensitivity to the
// specified int64
func addLaplaceInt64(r *rand.Rand, x int64, epsilon float64, l1Sensitivity int64) int64 {
	granularity := ceilPowerOfTwo((float64(l1Sensitivity) / epsilon) / granularityParam)
	sample := twoSidedGeometric(r, granularity*epsilon/(float64(l1Sensitivity)+granularity))
	if granularity < 1 {
		return x + int64(math.Round(float64(sample)*granularity))
	}
	return roundToMultiple(x, int64(granularity)) + sample*int64(granularity)
}

// geometric draws a sample drawn from a geometric distribution with parameter
//
//	p = 1 - e^-λ.
//
// More precisely, it returns the number of Bernoulli trials until the first success
// where the success probability is p = 1 - e^-λ. The returned sample is truncated
// to the max int64 value.
//
// Note that to ensure that a truncation happens with probability less than 10⁻⁶,
// λ must be greater than 2⁻⁵⁹.
func geometric(r *rand.Rand, lambda float64) int64 {
	// Return truncated sample in the case that the sample exceeds the max int64.
	if r.Uniform() > -1.0*math.Expm1(-1.0*lambda*math.MaxInt64) {
		return math.MaxInt64
	}

	// Perform a binary search for the sample in the interval from 1 to max int64.
	// Each iteration splits the interval in two and randomly keeps either the
	// left or the right subinterval depending on the respective probability of
	// the sample being contained in them. The search ends once the interval only
	// contains a single sample.
	var left int64 = 0              // exclusive bound
	var right int64 = math.MaxInt64 // inclusive bound

	for left+1 < right {
		// Compute a midpoint that divides the probability mass of the current interval
		// approximately evenly between the left and right subinterval. The resulting
		// midpoint will be less or equal to the arithmetic mean of the interval.
		mid := left - int64(math.Floor((math.Log(0.5)+math.Log1p(math.Exp(lambda*float64(left-right))))/lambda))
		// Keep mid inside the search interval despite finite precision arithmetic.
		if mid <= left {
			mid = left + 1
		} else if mid >= right {
			mid = right - 1
		}

		// Probability that the sample is at most mid, i.e.,
		//   q = Pr[X ≤ mid | left < X ≤ right]
		// where X denotes the sample. The value of q should be approximately one half.
		q := math.Expm1(lambda*float64(left-mid)) / math.Expm1(lambda*float64(left-right))
		if r.Uniform() <= q {
			right = mid
		} else {
			left = mid
		}
	}
	return right
}

// twoSidedGeometric draws a sample from a geometric distribution that is
// mirrored at 0. The non-negative part of the distribution's PDF matches
// the PDF of a geometric distribution of parameter p = 1 - e^-λ that is
// shifted to the left by 1 and scaled accordingly.
func twoSidedGeometric(r *rand.Rand, lambda float64) int64 {
	var sample int64 = 0
	var sign int64 = -1
	// Keep a sample of 0 only if the sign is positive. Otherwise, the
	// probability of 0 would be twice as high as it should be.
	for sample == 0 && sign == -1 {
		sample = geometric(r, lambda) - 1
		sign = int64(r.Sign())
	}
	return sample * sign
}
