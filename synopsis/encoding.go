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
	"io"
	"strings"

	"github.com/google/differential-privacy/synopsis/checks"
	"github.com/ugorji/go/codec"
)

// Format is an encoding of synopses.
type Format int

// Supported formats.
const (
	JSON Format = iota
	CBOR
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case CBOR:
		return "cbor"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat parses "json" or "cbor".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return JSON, nil
	case "cbor":
		return CBOR, nil
	}
	return JSON, fmt.Errorf("ParseFormat: %w: unknown format %q", checks.ErrInvalidParameter, s)
}

var (
	indentedJSONHandle = &codec.JsonHandle{Indent: 2}
	cborHandle         = &codec.CborHandle{}
)

func (f Format) handle() (codec.Handle, error) {
	switch f {
	case JSON:
		return indentedJSONHandle, nil
	case CBOR:
		return cborHandle, nil
	}
	return nil, fmt.Errorf("%w: unknown format %v", checks.ErrInvalidParameter, f)
}

// Encode writes synopses to w in the given format.
func Encode(w io.Writer, synopses []*Synopsis, f Format) error {
	h, err := f.handle()
	if err != nil {
		return fmt.Errorf("synopsis.Encode: %w", err)
	}
	if err := codec.NewEncoder(w, h).Encode(synopses); err != nil {
		return fmt.Errorf("synopsis.Encode: %v", err)
	}
	return nil
}

// Decode reads synopses written by Encode.
func Decode(r io.Reader, f Format) ([]*Synopsis, error) {
	h, err := f.handle()
	if err != nil {
		return nil, fmt.Errorf("synopsis.Decode: %w", err)
	}
	var synopses []*Synopsis
	if err := codec.NewDecoder(r, h).Decode(&synopses); err != nil {
		return nil, fmt.Errorf("synopsis.Decode: %v", err)
	}
	return synopses, nil
}
