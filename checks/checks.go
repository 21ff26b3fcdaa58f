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

// Package checks contains parameter checks and error kinds shared by the
// synopsis packages.
//
// Every error returned by a check wraps one of ErrInvalidParameter,
// ErrEmptyData or ErrDegenerateRange, so callers can branch with errors.Is.
package checks

import (
	"errors"
	"fmt"
	"math"

	log "github.com/golang/glog"
)

var (
	// ErrInvalidParameter is returned for a nonpositive or non-finite epsilon,
	// a nonpositive bin count or sample count, or a missing column.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrEmptyData is returned when a filtered table has no rows but a
	// minimum, maximum or mode must be computed from it.
	ErrEmptyData = errors.New("empty data")
	// ErrDegenerateRange is returned when an attribute's value range cannot
	// be split into bins of positive width.
	ErrDegenerateRange = errors.New("degenerate range")
)

const (
	epsilonName  = "Epsilon"
	binCountName = "BinCount"
	countName    = "Count"
)

func verifyName(defaultName string, nameSlice []string) (string, error) {
	var name string
	switch len(nameSlice) {
	case 0:
		name = defaultName
	case 1:
		name = nameSlice[0]
	default:
		return "", fmt.Errorf("%w: there should be 0 or 1 'name' parameter, got %d", ErrInvalidParameter, len(nameSlice))
	}
	return name, nil
}

// CheckEpsilonStrict returns an error if ε is nonpositive, NaN or +∞.
func CheckEpsilonStrict(epsilon float64, name ...string) error {
	epsName, err := verifyName(epsilonName, name)
	if err != nil {
		return err
	}
	if epsilon <= 0 || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%w: %s is %f, must be strictly positive and finite", ErrInvalidParameter, epsName, epsilon)
	}
	return nil
}

// CheckEpsilonVeryStrict returns an error if ε is +∞ or less than 2⁻⁵⁰.
//
// Geometric sampling truncates with non-negligible probability below that
// value.
func CheckEpsilonVeryStrict(epsilon float64, name ...string) error {
	epsName, err := verifyName(epsilonName, name)
	if err != nil {
		return err
	}
	if epsilon < math.Exp2(-50.0) || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%w: %s is %f, must be at least 2^-50 and finite", ErrInvalidParameter, epsName, epsilon)
	}
	return nil
}

// CheckBinCount returns an error if binCount is nonpositive.
func CheckBinCount(binCount int, name ...string) error {
	bName, err := verifyName(binCountName, name)
	if err != nil {
		return err
	}
	if binCount <= 0 {
		return fmt.Errorf("%w: %s is %d, must be strictly positive", ErrInvalidParameter, bName, binCount)
	}
	return nil
}

// CheckCount returns an error if the number of requested samples is nonpositive.
func CheckCount(count int, name ...string) error {
	cName, err := verifyName(countName, name)
	if err != nil {
		return err
	}
	if count <= 0 {
		return fmt.Errorf("%w: %s is %d, must be strictly positive", ErrInvalidParameter, cName, count)
	}
	return nil
}

// CheckL1Sensitivity returns an error if l1Sensitivity is nonpositive.
func CheckL1Sensitivity(l1Sensitivity int64) error {
	if l1Sensitivity <= 0 {
		return fmt.Errorf("%w: L1Sensitivity is %d, must be strictly positive", ErrInvalidParameter, l1Sensitivity)
	}
	return nil
}

// CheckColumn returns an error if column is empty.
func CheckColumn(column string, name ...string) error {
	cName, err := verifyName("Attribute", name)
	if err != nil {
		return err
	}
	if column == "" {
		return fmt.Errorf("%w: %s must be set", ErrInvalidParameter, cName)
	}
	return nil
}

// CheckNonEmpty returns an error if rows is zero. what describes the data
// that is empty and is only used in the error message.
func CheckNonEmpty(rows int, what string) error {
	if rows == 0 {
		return fmt.Errorf("%w: %s has no rows", ErrEmptyData, what)
	}
	return nil
}

// CheckRange returns an error if lower or upper is not finite, or if lower is
// larger than upper.
//
// A range with lower == upper is accepted unless strict is set and more than
// one bin is requested; in the non-strict case a warning is logged and the
// caller is expected to fall back to unit-width bins.
func CheckRange(lower, upper float64, binCount int, strict bool) error {
	if math.IsNaN(lower) || math.IsNaN(upper) {
		return fmt.Errorf("%w: range [%f, %f] cannot contain NaN", ErrDegenerateRange, lower, upper)
	}
	if math.IsInf(lower, 0) || math.IsInf(upper, 0) {
		return fmt.Errorf("%w: range [%f, %f] cannot be infinite", ErrDegenerateRange, lower, upper)
	}
	if lower > upper {
		return fmt.Errorf("%w: upper bound (%f) must be larger than lower bound (%f)", ErrDegenerateRange, upper, lower)
	}
	if lower == upper && binCount > 1 {
		if strict {
			return fmt.Errorf("%w: lower and upper bounds are both %f, cannot split into %d bins", ErrDegenerateRange, lower, binCount)
		}
		log.Warningf("Lower bound is equal to upper bound (%f): using bins of width 1", lower)
	}
	return nil
}
