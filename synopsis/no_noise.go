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

package synopsis

import (
	"fmt"

	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/noise"
)

// TestMode is an enum representing the test modes of synopsis generation.
type TestMode int

const (
	// TestModeDisabled indicates that test mode is disabled. Default.
	TestModeDisabled TestMode = iota
	// TestModeWithoutNoise is the test mode where every statistic is released
	// exactly. Parameters are still validated.
	TestModeWithoutNoise
)

func (tm TestMode) isEnabled() bool {
	return tm != TestModeDisabled
}

// noNoise is a Noise instance that doesn't add noise to the data. Used as the
// noise type only when test mode is enabled.
type noNoise struct{}

func (noNoise) Kind() noise.Kind {
	return noise.NoNoise
}

func (noNoise) TwoSided(epsilon float64, count int) ([]int64, error) {
	if err := checkNoNoiseArgs(epsilon, count); err != nil {
		return nil, fmt.Errorf("TwoSided: %w", err)
	}
	return make([]int64, count), nil
}

func (noNoise) Negative(epsilon float64, count int) ([]int64, error) {
	if err := checkNoNoiseArgs(epsilon, count); err != nil {
		return nil, fmt.Errorf("Negative: %w", err)
	}
	return make([]int64, count), nil
}

func (noNoise) Exponential(epsilon float64) (float64, error) {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return 0, fmt.Errorf("Exponential: %w", err)
	}
	return 0, nil
}

func (noNoise) AddNoiseInt64(x, _ int64, epsilon float64) (int64, error) {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return 0, fmt.Errorf("AddNoiseInt64: %w", err)
	}
	return x, nil
}

func checkNoNoiseArgs(epsilon float64, count int) error {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return err
	}
	return checks.CheckCount(count)
}
