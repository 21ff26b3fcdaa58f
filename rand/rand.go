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

// Package rand provides sources of randomness and methods for drawing the
// primitive random values used by the synopsis noise generators.
//
// Every draw goes through an explicit Source. Secure returns the default
// cryptographically secure source; NewSeeded returns a deterministic source for
// reproducible runs and tests.
package rand

import (
	"bufio"
	cryptorand "crypto/rand"
	"encoding/binary"
	"io"
	"math"
	"math/bits"
	"sync"

	log "github.com/golang/glog"
	xrand "golang.org/x/exp/rand"
)

// Source is a source of uniformly distributed uint64 values. Its method set
// matches golang.org/x/exp/rand.Source, so any Source can also feed the gonum
// distributions.
type Source interface {
	Uint64() uint64
	Seed(seed uint64)
}

var (
	randBufLock sync.Mutex
	randBuf     io.Reader = bufio.NewReaderSize(cryptorand.Reader, 65536)
)

func readRandBuf(b []byte) (int, error) {
	randBufLock.Lock()
	defer randBufLock.Unlock()
	return io.ReadFull(randBuf, b)
}

// secureSource reads from a shared buffered crypto/rand reader. It is safe for
// concurrent use.
type secureSource struct{}

// Secure returns a cryptographically secure Source.
func Secure() Source {
	return secureSource{}
}

// Uint64 returns a uniformly random uint64.
func (secureSource) Uint64() uint64 {
	var r [8]uint8
	if _, err := readRandBuf(r[:]); err != nil {
		log.Fatalf("out of randomness, should never happen: %v", err)
	}
	return binary.LittleEndian.Uint64(r[:])
}

// Seed is a no-op.
func (secureSource) Seed(_ uint64) {}

// NewSeeded returns a deterministic Source. Two sources created with the same
// seed produce the same sequence. Not safe for concurrent use.
func NewSeeded(seed uint64) Source {
	return xrand.NewSource(seed)
}

// Rand draws primitive random values from a Source.
//
// Not thread-safe.
type Rand struct {
	src    Source
	bitBuf uint8
	bitPos int8
}

// New returns a Rand drawing from src. A nil src means Secure().
func New(src Source) *Rand {
	if src == nil {
		src = Secure()
	}
	return &Rand{src: src, bitPos: math.MaxInt8}
}

// Source returns the underlying source.
func (r *Rand) Source() Source {
	return r.src
}

// U64 returns a uniformly random uint64.
func (r *Rand) U64() uint64 {
	return r.src.Uint64()
}

// U8 returns a uniformly random uint8.
func (r *Rand) U8() uint8 {
	return uint8(r.src.Uint64())
}

// Sign returns +1.0 or -1.0 with equal probabilities.
func (r *Rand) Sign() float64 {
	if r.Boolean() {
		return 1.0
	}
	return -1.0
}

// Boolean returns true or false with equal probability.
func (r *Rand) Boolean() bool {
	if r.bitPos > 7 { // Out of random bits.
		r.bitBuf = r.U8()
		r.bitPos = 0
	}
	res := r.bitBuf&(1<<r.bitPos) > 0
	r.bitPos++
	return res
}

// I63n returns an integer from the set {0,...,n-1} uniformly at random.
// The value of n must be positive.
func (r *Rand) I63n(n int64) int64 {
	largestMultipleOfN := (math.MaxInt64 / n) * n
	var positiveRandomInteger int64
	for {
		// Draw random 64 bit sequence and set sign bit to 0.
		positiveRandomInteger = int64(r.U64()) & 0x7fffffffffffffff
		if positiveRandomInteger < largestMultipleOfN {
			break
		}
	}
	return positiveRandomInteger % n
}

// Uniform returns a float64 from the interval (0,1] such that each float
// in the interval is returned with positive probability and the resulting
// distribution simulates a continuous uniform distribution on (0, 1].
func (r *Rand) Uniform() float64 {
	i := r.U64() % (1 << 53)
	u := (1 + float64(i)/(1<<53)) / math.Pow(2, r.Geometric())
	// We want to avoid returning 0, since we're taking the log of the output.
	if u == 0 {
		return 1
	}
	return u
}

// Geometric returns a float64 that counts the number of Bernoulli trials until
// the first success for a success probability of 0.5.
func (r *Rand) Geometric() float64 {
	// 1 plus the number of leading zeros from an infinite stream of random bits
	// follows the desired geometric distribution.
	b := 1
	var u uint8
	for u == 0 {
		u = r.U8()
		b += bits.LeadingZeros8(u)
	}
	return float64(b)
}
