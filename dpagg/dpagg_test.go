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
	"math"
	"testing"

	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/noise"
	"github.com/google/differential-privacy/synopsis/rand"
	"github.com/google/differential-privacy/synopsis/table"
)

// This file contains structs, functions, and values used to test DP aggregations.

var ln3 = math.Log(3)

// noNoise is a Noise instance that doesn't add noise to the data.
type noNoise struct {
	noise.Noise
}

func (noNoise) TwoSided(epsilon float64, count int) ([]int64, error) {
	return constNoise{}.TwoSided(epsilon, count)
}

func (noNoise) Negative(epsilon float64, count int) ([]int64, error) {
	return constNoise{}.Negative(epsilon, count)
}

func (noNoise) Exponential(epsilon float64) (float64, error) {
	return 0, checks.CheckEpsilonStrict(epsilon)
}

func (noNoise) AddNoiseInt64(x, _ int64, _ float64) (int64, error) {
	return x, nil
}

// constNoise is a Noise instance that returns the same value for every draw,
// after validating its arguments like the real generator does.
type constNoise struct {
	noise.Noise
	twoSided, negative int64
	exponential        float64
}

func (c constNoise) TwoSided(epsilon float64, count int) ([]int64, error) {
	return c.fill(epsilon, count, c.twoSided)
}

func (c constNoise) Negative(epsilon float64, count int) ([]int64, error) {
	return c.fill(epsilon, count, c.negative)
}

func (c constNoise) Exponential(epsilon float64) (float64, error) {
	return c.exponential, checks.CheckEpsilonStrict(epsilon)
}

func (constNoise) fill(epsilon float64, count int, v int64) ([]int64, error) {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return nil, err
	}
	if err := checks.CheckCount(count); err != nil {
		return nil, err
	}
	out := make([]int64, count)
	for i := range out {
		out[i] = v
	}
	return out, nil
}

// seeded returns a geometric difference generator drawing from a
// deterministic source.
func seeded(t testing.TB, seed uint64) noise.Noise {
	t.Helper()
	n, err := noise.GeometricDifference(rand.NewSeeded(seed), nil)
	if err != nil {
		t.Fatalf("GeometricDifference: %v", err)
	}
	return n
}

// accountTable returns a table with columns account_id, district_id and type.
func accountTable(t testing.TB) *table.Table {
	t.Helper()
	rows := [][]string{
		{"1", "18", "OWNER"},
		{"2", "18", "OWNER"},
		{"3", "18", "DISPONENT"},
		{"4", "1", "OWNER"},
		{"5", "18", "OWNER"},
		{"6", "5", "OWNER"},
		{"7", "18", "DISPONENT"},
		{"8", "18", "OWNER"},
	}
	tbl, err := table.New([]string{"account_id", "district_id", "type"}, rows)
	if err != nil {
		t.Fatalf("table.New: %v", err)
	}
	return tbl
}
