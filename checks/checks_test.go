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

package checks

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestCheckEpsilonVeryStrict(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		epsilon float64
		wantErr bool
	}{
		{"epsilon < 2⁻⁵⁰",
			math.Exp2(-51.0),
			true},
		{"epsilon == 2⁻⁵⁰",
			math.Exp2(-50.0),
			false},
		{"negative epsilon",
			-2,
			true},
		{"zero epsilon",
			0,
			true},
		{"epsilon is NaN",
			math.NaN(),
			true},
		{"epsilon is positive infinity",
			math.Inf(1),
			true},
		{"positive epsilon",
			50,
			false},
	} {
		if err := CheckEpsilonVeryStrict(tc.epsilon); (err != nil) != tc.wantErr {
			t.Errorf("CheckEpsilonVeryStrict: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckEpsilonStrict(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		epsilon float64
		wantErr bool
	}{
		{"negative epsilon",
			-2,
			true},
		{"zero epsilon",
			0,
			true},
		{"epsilon is NaN",
			math.NaN(),
			true},
		{"epsilon is negative infinity",
			math.Inf(-1),
			true},
		{"epsilon is positive infinity",
			math.Inf(1),
			true},
		{"small epsilon",
			1e-9,
			false},
		{"positive epsilon",
			0.5,
			false},
	} {
		err := CheckEpsilonStrict(tc.epsilon)
		if (err != nil) != tc.wantErr {
			t.Errorf("CheckEpsilonStrict: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("CheckEpsilonStrict: when %s got %v, want error wrapping ErrInvalidParameter", tc.desc, err)
		}
	}
}

func TestCheckBinCount(t *testing.T) {
	for _, tc := range []struct {
		binCount int
		wantErr  bool
	}{
		{-1, true},
		{0, true},
		{1, false},
		{32, false},
	} {
		err := CheckBinCount(tc.binCount)
		if (err != nil) != tc.wantErr {
			t.Errorf("CheckBinCount(%d): got err %v, want err %t", tc.binCount, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("CheckBinCount(%d): got %v, want error wrapping ErrInvalidParameter", tc.binCount, err)
		}
	}
}

func TestCheckCount(t *testing.T) {
	if err := CheckCount(0); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("CheckCount(0): got %v, want ErrInvalidParameter", err)
	}
	if err := CheckCount(3); err != nil {
		t.Errorf("CheckCount(3): got %v, want nil", err)
	}
}

func TestCheckNameOverride(t *testing.T) {
	err := CheckEpsilonStrict(-1, "NoiseEpsilon")
	if err == nil || !strings.Contains(err.Error(), "NoiseEpsilon") {
		t.Errorf("CheckEpsilonStrict with name: got %v, want message mentioning NoiseEpsilon", err)
	}
	if err := CheckEpsilonStrict(1, "a", "b"); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("CheckEpsilonStrict with two names: got %v, want ErrInvalidParameter", err)
	}
}

func TestCheckNonEmpty(t *testing.T) {
	if err := CheckNonEmpty(0, "filtered table"); !errors.Is(err, ErrEmptyData) {
		t.Errorf("CheckNonEmpty(0): got %v, want ErrEmptyData", err)
	}
	if err := CheckNonEmpty(7, "filtered table"); err != nil {
		t.Errorf("CheckNonEmpty(7): got %v, want nil", err)
	}
}

func TestCheckRange(t *testing.T) {
	for _, tc := range []struct {
		desc         string
		lower, upper float64
		binCount     int
		strict       bool
		wantErr      bool
	}{
		{"regular range", 0, 10, 4, false, false},
		{"single value, single bin", 5, 5, 1, true, false},
		{"single value, lenient", 5, 5, 8, false, false},
		{"single value, strict", 5, 5, 8, true, true},
		{"lower > upper", 6, 5, 8, false, true},
		{"lower is NaN", math.NaN(), 5, 8, false, true},
		{"upper is infinite", 0, math.Inf(1), 8, false, true},
	} {
		err := CheckRange(tc.lower, tc.upper, tc.binCount, tc.strict)
		if (err != nil) != tc.wantErr {
			t.Errorf("CheckRange: when %s got err %v, want err %t", tc.desc, err, tc.wantErr)
		}
		if err != nil && !errors.Is(err, ErrDegenerateRange) {
			t.Errorf("CheckRange: when %s got %v, want error wrapping ErrDegenerateRange", tc.desc, err)
		}
	}
}
