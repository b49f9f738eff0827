package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
)

// ReadCSV reads a dataset from CSV source text. The first row is the
// header and defines column order; rows whose cells are all empty are
// dropped before they reach the core.
func ReadCSV(r io.Reader) (Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Dataset{}, fmt.Errorf("csv source is empty")
	}
	if err != nil {
		return Dataset{}, fmt.Errorf("read csv header: %w", err)
	}

	seen := make(map[string]bool, len(header))
	for _, col := range header {
		if col == "" {
			return Dataset{}, fmt.Errorf("csv header contains an empty column name")
		}
		if seen[col] {
			return Dataset{}, fmt.Errorf("csv header contains duplicate column %q", col)
		}
		seen[col] = true
	}

	ds := Dataset{Columns: header}
	dropped := 0
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Dataset{}, fmt.Errorf("read csv line %d: %w", line, err)
		}

		empty := true
		for _, cell := range record {
			if cell != "" {
				empty = false
				break
			}
		}
		if empty {
			dropped++
			continue
		}

		row := make(map[string]string, len(header))
		for i, col := range header {
			row[col] = record[i]
		}
		ds.Rows = append(ds.Rows, row)
	}

	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("skipped all-empty csv rows")
	}

	return ds, nil
}

// LoadCSV reads a dataset from a CSV file on disk.
func LoadCSV(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("open dataset file: %w", err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return Dataset{}, fmt.Errorf("load %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Int("rows", len(ds.Rows)).
		Strs("columns", ds.Columns).
		Msg("dataset loaded")

	return ds, nil
}

// DefaultLabelColumn returns the label column implied by the ingestion
// contract: the last declared column, unless the caller overrides it.
func (ds Dataset) DefaultLabelColumn() string {
	if len(ds.Columns) == 0 {
		return ""
	}
	return ds.Columns[len(ds.Columns)-1]
}

// DefaultFeatureColumns returns every column except the given label
// column, in declaration order.
func (ds Dataset) DefaultFeatureColumns(labelCol string) []string {
	cols := make([]string, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		if c != labelCol {
			cols = append(cols, c)
		}
	}
	return cols
}
