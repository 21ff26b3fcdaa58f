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
	"context"
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/google/differential-privacy/synopsis/noise"
	"github.com/google/differential-privacy/synopsis/rand"
	"github.com/google/differential-privacy/synopsis/table"
	"github.com/ugorji/go/codec"
	"golang.org/x/sync/errgroup"
)

// DefaultEpsilon is the privacy parameter used by jobs when neither the job
// nor the config sets one.
const DefaultEpsilon = 1.0

// Job describes one synopsis to generate.
type Job struct {
	Name      string      `codec:"name"`
	Path      string      `codec:"path"` // CSV file holding the table.
	Attribute string      `codec:"attribute"`
	Filter    *FilterSpec `codec:"filter,omitempty"`
	// Epsilon and BinCount override the values of the config if set.
	Epsilon  float64 `codec:"epsilon,omitempty"`
	BinCount int     `codec:"bin_count,omitempty"`
}

// Config describes a batch of synopses.
type Config struct {
	Epsilon  float64 `codec:"epsilon,omitempty"`
	BinCount int     `codec:"bin_count,omitempty"`
	// Seed makes the noise of every job deterministic if nonzero. Seeded noise
	// is predictable and must not be used for releases.
	Seed                 uint64 `codec:"seed,omitempty"`
	StrictRange          bool   `codec:"strict_range,omitempty"`
	RestoreInvariants    bool   `codec:"restore_invariants,omitempty"`
	PerValueMaxFrequency bool   `codec:"per_value_max_frequency,omitempty"`
	NoisyTotalCap        bool   `codec:"noisy_total_cap,omitempty"`
	Jobs                 []Job  `codec:"jobs"`

	TestMode TestMode `codec:"-"`
}

var jsonHandle = &codec.JsonHandle{}

// ParseConfig decodes a JSON config and validates it.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := codec.NewDecoderBytes(data, jsonHandle).Decode(cfg); err != nil {
		return nil, fmt.Errorf("ParseConfig: %w: %v", checks.ErrInvalidParameter, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("ParseConfig: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads a JSON config from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the config file = %q, err = %v", path, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the config file = %q: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Jobs) == 0 {
		return fmt.Errorf("%w: config has no jobs", checks.ErrInvalidParameter)
	}
	if c.BinCount < 0 {
		return fmt.Errorf("%w: bin_count is %d, must be nonnegative", checks.ErrInvalidParameter, c.BinCount)
	}
	for i, j := range c.Jobs {
		if j.Path == "" {
			return fmt.Errorf("%w: job %d (%q) has no path", checks.ErrInvalidParameter, i, j.Name)
		}
		if err := checks.CheckColumn(j.Attribute, fmt.Sprintf("job %d (%q) attribute", i, j.Name)); err != nil {
			return err
		}
		if j.Filter != nil && j.Filter.Column == "" {
			return fmt.Errorf("%w: job %d (%q) has a filter without column", checks.ErrInvalidParameter, i, j.Name)
		}
		if err := checks.CheckEpsilonStrict(c.epsilon(j), fmt.Sprintf("job %d (%q) epsilon", i, j.Name)); err != nil {
			return err
		}
		if j.BinCount < 0 {
			return fmt.Errorf("%w: job %d (%q) bin_count is %d, must be nonnegative", checks.ErrInvalidParameter, i, j.Name, j.BinCount)
		}
	}
	return nil
}

func (c *Config) epsilon(j Job) float64 {
	switch {
	case j.Epsilon != 0:
		return j.Epsilon
	case c.Epsilon != 0:
		return c.Epsilon
	}
	return DefaultEpsilon
}

func (c *Config) options(i int) (*Options, error) {
	j := c.Jobs[i]
	opt := &Options{
		Attribute:            j.Attribute,
		Filter:               j.Filter.filter(),
		Epsilon:              c.epsilon(j),
		BinCount:             c.BinCount,
		StrictRange:          c.StrictRange,
		RestoreInvariants:    c.RestoreInvariants,
		PerValueMaxFrequency: c.PerValueMaxFrequency,
		NoisyTotalCap:        c.NoisyTotalCap,
		TestMode:             c.TestMode,
	}
	if j.BinCount != 0 {
		opt.BinCount = j.BinCount
	}
	if c.Seed != 0 {
		n, err := noise.GeometricDifference(rand.NewSeeded(jobSeed(c.Seed, i)), nil)
		if err != nil {
			return nil, err
		}
		opt.Noise = n
	}
	return opt, nil
}

// jobSeed derives the seed of the i-th job from the config seed.
func jobSeed(seed uint64, i int) uint64 {
	return seed ^ (uint64(i+1) * 0x9e3779b97f4a7c15)
}

// Run generates the synopsis of every job of cfg, in order.
//
// Each distinct table is loaded once; tables are loaded concurrently and
// shared read-only between jobs. Run stops at the first error.
func Run(ctx context.Context, cfg *Config) ([]*Synopsis, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("synopsis.Run: %w", err)
	}
	tables, err := loadTables(ctx, cfg.Jobs)
	if err != nil {
		return nil, fmt.Errorf("synopsis.Run: %w", err)
	}

	synopses := make([]*Synopsis, 0, len(cfg.Jobs))
	for i, j := range cfg.Jobs {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("synopsis.Run: %w", err)
		}
		opt, err := cfg.options(i)
		if err != nil {
			return nil, fmt.Errorf("synopsis.Run: job %q: %w", j.Name, err)
		}
		s, err := Generate(tables[j.Path], opt)
		if err != nil {
			return nil, fmt.Errorf("synopsis.Run: job %q: %w", j.Name, err)
		}
		s.Name = j.Name
		log.Infof("Generated synopsis %s for job %q (%s, ε=%g, %d bins)", s.RunID, j.Name, describe(opt), s.Epsilon, s.BinCount)
		synopses = append(synopses, s)
	}
	return synopses, nil
}

// loadTables reads the table of every distinct job path.
func loadTables(ctx context.Context, jobs []Job) (map[string]*table.Table, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, j := range jobs {
		if !seen[j.Path] {
			seen[j.Path] = true
			paths = append(paths, j.Path)
		}
	}

	loaded := make([]*table.Table, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := table.LoadCSV(path)
			if err != nil {
				return err
			}
			loaded[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	tables := make(map[string]*table.Table, len(paths))
	for i, path := range paths {
		tables[path] = loaded[i]
	}
	return tables, nil
}
