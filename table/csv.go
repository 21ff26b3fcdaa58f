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

package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/golang/glog"
)

// ReadCSV reads a table from comma separated values. The first record is the
// header holding the column names.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("couldn't read the csv header: input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("couldn't read the csv header, err = %v", err)
	}
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("couldn't read csv record %d, err = %v", len(rows)+1, err)
		}
		rows = append(rows, record)
	}
	return New(names, rows)
}

// LoadCSV reads a table from the csv file at path.
func LoadCSV(path string) (*Table, error) {
	csvFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the csv file = %q, err = %v", path, err)
	}
	defer csvFile.Close()

	t, err := ReadCSV(csvFile)
	if err != nil {
		return nil, fmt.Errorf("couldn't load the csv file = %q: %w", path, err)
	}
	log.V(1).Infof("Loaded %q: %d rows, columns %v", path, t.NumRows(), t.Names())
	return t, nil
}

// WriteCSV writes t with a header row.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Names()); err != nil {
		return fmt.Errorf("couldn't write the csv header, err = %v", err)
	}
	for i := 0; i < t.rows; i++ {
		if err := writer.Write(t.Row(i)); err != nil {
			return fmt.Errorf("couldn't write csv record %d, err = %v", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
