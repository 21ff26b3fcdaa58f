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

// Package noise contains methods to generate the noise added to histograms,
// totals and maximum frequencies of a synopsis.
package noise

import (
	log "github.com/golang/glog"
)

// Kind is an enum type. Its values are the supported noise generators. It is
// recorded in synopsis metadata.
type Kind int

// Noise generators.
const (
	GeometricDifferenceNoise Kind = iota
	NoNoise
	Unrecognised
)

func (k Kind) String() string {
	switch k {
	case GeometricDifferenceNoise:
		return "GeometricDifference"
	case NoNoise:
		return "NoNoise"
	}
	return "Unrecognised"
}

// ToKind converts a Noise instance into a Kind. Noise implementations outside
// this package report Unrecognised unless they implement Kind() themselves.
func ToKind(n Noise) Kind {
	if n == nil {
		log.Warningf("ToKind: nil noise specified, returning Unrecognised")
		return Unrecognised
	}
	if k, ok := n.(interface{ Kind() Kind }); ok {
		return k.Kind()
	}
	return Unrecognised
}

// Noise is an interface for the primitives that perturb synopsis statistics.
type Noise interface {
	// TwoSided returns count independent non-negative noise values, centered
	// around a positive bias, for privacy parameter ε.
	TwoSided(epsilon float64, count int) ([]int64, error)

	// Negative returns count independent non-positive noise values, centered
	// around the negated bias, for privacy parameter ε.
	Negative(epsilon float64, count int) ([]int64, error)

	// Exponential returns one draw from the exponential distribution with
	// rate ε (scale 1/ε).
	Exponential(epsilon float64) (float64, error)

	// AddNoiseInt64 adds discrete Laplace noise to x so that the output is
	// ε-differentially private given the L_1 sensitivity of x.
	AddNoiseInt64(x, l1Sensitivity int64, epsilon float64) (int64, error)
}
