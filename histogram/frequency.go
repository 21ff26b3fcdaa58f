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

package histogram

import (
	"fmt"

	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/table"
)

// Frequencies returns the number of occurrences of each distinct value of the
// attribute after filtering. Values are keyed by their canonical text (see
// table.Column.Key) and missing cells are not counted.
func Frequencies(t *table.Table, attribute string, filter *table.Filter) (map[string]int64, error) {
	if err := checks.CheckColumn(attribute); err != nil {
		return nil, fmt.Errorf("Frequencies: %w", err)
	}
	filtered, err := t.Filter(filter)
	if err != nil {
		return nil, fmt.Errorf("Frequencies: %w", err)
	}
	if err := checks.CheckNonEmpty(filtered.NumRows(), describe(attribute, filter)); err != nil {
		return nil, fmt.Errorf("Frequencies: %w", err)
	}
	keys, err := filtered.Keys(attribute)
	if err != nil {
		return nil, fmt.Errorf("Frequencies: %w", err)
	}
	freq := make(map[string]int64)
	for _, k := range keys {
		freq[k]++
	}
	return freq, nil
}

// ExactMaxFrequency returns the largest number of occurrences of any single
// value of the attribute after filtering, or 0 if every cell is missing.
func ExactMaxFrequency(t *table.Table, attribute string, filter *table.Filter) (int64, error) {
	freq, err := Frequencies(t, attribute, filter)
	if err != nil {
		return 0, fmt.Errorf("ExactMaxFrequency: %w", err)
	}
	var m int64
	for _, c := range freq {
		if c > m {
			m = c
		}
	}
	return m, nil
}
