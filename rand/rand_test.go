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

package rand

import (
	"testing"

	"github.com/grd/stat"
)

// byteSource returns the given bytes, one per Uint64 call, in the low byte.
type byteSource struct {
	b   []byte
	pos int
}

func (s *byteSource) Uint64() uint64 {
	v := s.b[s.pos%len(s.b)]
	s.pos++
	return uint64(v)
}

func (s *byteSource) Seed(_ uint64) {}

func TestBooleanBufIsShifting(t *testing.T) {
	r := New(&byteSource{b: []byte{
		0b00100100,
		0b10010000,
	}})
	for pos, want := range []bool{
		// first byte
		false,
		false,
		true,
		false,
		false,
		true,
		false,
		false,
		// second byte
		false,
		false,
		false,
		false,
		true,
		false,
		false,
		true,
	} {
		if got := r.Boolean(); got != want {
			t.Errorf("Boolean: got %v, want %v in %v-th iteration", got, want, pos)
		}
	}
}

func TestSeededSourcesAreReproducible(t *testing.T) {
	r1, r2 := New(NewSeeded(42)), New(NewSeeded(42))
	for i := 0; i < 100; i++ {
		if a, b := r1.U64(), r2.U64(); a != b {
			t.Fatalf("U64: got %d and %d in %d-th iteration, want equal values from equally seeded sources", a, b, i)
		}
	}
	r3 := New(NewSeeded(43))
	same := true
	for i := 0; i < 10; i++ {
		if r1.U64() != r3.U64() {
			same = false
		}
	}
	if same {
		t.Errorf("U64: sources seeded with 42 and 43 produced the same sequence")
	}
}

func TestUniformIsInUnitInterval(t *testing.T) {
	r := New(NewSeeded(7))
	for i := 0; i < 10000; i++ {
		if u := r.Uniform(); u <= 0 || u > 1 {
			t.Fatalf("Uniform: got %f, want value in (0, 1]", u)
		}
	}
}

func TestUniformMean(t *testing.T) {
	const numberOfSamples = 100000
	r := New(NewSeeded(11))
	samples := make(stat.Float64Slice, numberOfSamples)
	for i := range samples {
		samples[i] = r.Uniform()
	}
	// The mean of U(0,1] is 0.5 with standard deviation sqrt(1/12); the tolerance is the
	// 99.9995% quantile of the sample mean.
	if got, tol := stat.Mean(samples), 4.41717*0.288675/316.227766; got < 0.5-tol || got > 0.5+tol {
		t.Errorf("Uniform: got mean %f, want 0.5 ± %f", got, tol)
	}
}

func TestI63nIsInRange(t *testing.T) {
	r := New(NewSeeded(3))
	for _, n := range []int64{1, 2, 7, 1000} {
		for i := 0; i < 1000; i++ {
			if got := r.I63n(n); got < 0 || got >= n {
				t.Fatalf("I63n(%d): got %d, want value in [0, %d)", n, got, n)
			}
		}
	}
}

func TestSecureSourceIsNotConstant(t *testing.T) {
	r := New(nil)
	first := r.U64()
	for i := 0; i < 8; i++ {
		if r.U64() != first {
			return
		}
	}
	t.Errorf("U64: secure source returned %d nine times in a row", first)
}
