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

// This is a command line utility which generates differentially private
// synopses of CSV tables.
// Usage examples:
// go run ./cmd/synopsis --config=jobs.json --output=synopses.json
// go run ./cmd/synopsis --input_file=account.csv --attribute=account_id --filter=district_id=18 --epsilon=0.5 --bins=16
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/synopsis/synopsis"
	"github.com/google/differential-privacy/synopsis/table"
)

var (
	configFile = flag.String("config", "", "JSON file listing the synopses to generate. If empty, a single synopsis is described by the other flags.")
	inputFile  = flag.String("input_file", "", "Input csv file name. Ignored if --config is set.")
	attribute  = flag.String("attribute", "", "Numeric column to summarize. Ignored if --config is set.")
	filter     = flag.String("filter", "", "Optional row filter of the form column=value. Ignored if --config is set.")
	epsilon    = flag.Float64("epsilon", 0, "Privacy budget of each noise draw. If set, overrides the config and every job.")
	bins       = flag.Int("bins", 0, "Number of histogram bins. If set, overrides the config and every job.")
	seed       = flag.Uint64("seed", 0, "If nonzero, makes the noise deterministic. Never use for releases.")
	restore    = flag.Bool("restore", false, "Restore the ordering invariants of the index pairs.")
	outputFile = flag.String("output", "", "Output file name. Standard output if empty.")
	format     = flag.String("format", "json", "Output format: json or cbor.")
)

func main() {
	flag.Parse()

	log.Infof("The synopsis generator was run with arguments: config = %q, inputFile = %q, attribute = %q, filter = %q, output = %q, format = %q",
		*configFile, *inputFile, *attribute, *filter, *outputFile, *format)

	f, err := synopsis.ParseFormat(*format)
	if err != nil {
		log.Exitf("Invalid --format: %v", err)
	}
	cfg, err := config()
	if err != nil {
		log.Exitf("Couldn't build the config, err = %v", err)
	}

	synopses, err := synopsis.Run(context.Background(), cfg)
	if err != nil {
		log.Exitf("Couldn't generate synopses, err = %v", err)
	}

	if err := writeSynopses(*outputFile, synopses, f); err != nil {
		log.Exitf("Couldn't write synopses, err = %v", err)
	}

	log.Infof("Successfully generated %d synopses", len(synopses))
}

// writeSynopses encodes synopses to the file at path, or to standard output
// if path is empty. Errors from closing the file are returned.
func writeSynopses(path string, synopses []*synopsis.Synopsis, f synopsis.Format) error {
	if path == "" {
		return synopsis.Encode(os.Stdout, synopses, f)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("couldn't create the output file = %q, err = %v", path, err)
	}
	if err := synopsis.Encode(out, synopses, f); err != nil {
		out.Close()
		return fmt.Errorf("couldn't write the output file = %q, err = %v", path, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("couldn't close the output file = %q, err = %v", path, err)
	}
	return nil
}

// config returns the config file with the flag overrides applied, or a
// single-job config described by the flags.
func config() (*synopsis.Config, error) {
	var cfg *synopsis.Config
	if *configFile != "" {
		var err error
		if cfg, err = synopsis.LoadConfig(*configFile); err != nil {
			return nil, err
		}
	} else {
		if *inputFile == "" {
			log.Exit("Neither --config nor --input_file was set")
		}
		if *attribute == "" {
			log.Exit("No --attribute was chosen")
		}
		job := synopsis.Job{Name: *attribute, Path: *inputFile, Attribute: *attribute}
		if *filter != "" {
			tf, err := table.ParseFilter(*filter)
			if err != nil {
				return nil, err
			}
			job.Filter = &synopsis.FilterSpec{Column: tf.Column, Value: tf.Value}
			job.Name += "_" + tf.Column + "_" + tf.Value
		}
		cfg = &synopsis.Config{Jobs: []synopsis.Job{job}}
	}
	applyOverrides(cfg, *epsilon, *bins, *seed, *restore)
	return cfg, nil
}

// applyOverrides sets the nonzero flag values on cfg. Epsilon and binCount
// replace the values of every job as well.
func applyOverrides(cfg *synopsis.Config, epsilon float64, binCount int, seed uint64, restore bool) {
	if epsilon != 0 {
		cfg.Epsilon = epsilon
		for i := range cfg.Jobs {
			cfg.Jobs[i].Epsilon = epsilon
		}
	}
	if binCount != 0 {
		cfg.BinCount = binCount
		for i := range cfg.Jobs {
			cfg.Jobs[i].BinCount = binCount
		}
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if restore {
		cfg.RestoreInvariants = true
	}
}
