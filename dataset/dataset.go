// Package dataset loads the benchmark records once and keeps them in memory.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
)

// Record is one row: field name to string, int64, float64 or nil.
type Record map[string]any

// Dataset is the full set of records for a run, loaded once.
type Dataset struct {
	Columns []string
	Records []Record
}

func (d *Dataset) Len() int { return len(d.Records) }

// Batch returns fresh copies of every record, so sinks that annotate
// documents (e.g. with an _id) never see ids from an earlier insert.
func (d *Dataset) Batch() []Record {
	out := make([]Record, len(d.Records))
	for i, r := range d.Records {
		c := make(Record, len(r))
		for k, v := range r {
			c[k] = v
		}
		out[i] = c
	}
	return out
}

// RandomField picks a random record and one of its fields.
func (d *Dataset) RandomField(rng *rand.Rand) (string, any, error) {
	if len(d.Records) == 0 || len(d.Columns) == 0 {
		return "", nil, errors.New("dataset is empty")
	}
	rec := d.Records[rng.IntN(len(d.Records))]
	col := d.Columns[rng.IntN(len(d.Columns))]
	return col, rec[col], nil
}

// LoadCSV reads a CSV file with a header row.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", path, err)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV parses CSV from r. Empty cells become nil, numeric cells are typed.
func ReadCSV(r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}

	ds := &Dataset{Columns: make([]string, len(header))}
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q", name)
		}
		seen[name] = true
		ds.Columns[i] = name
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := make(Record, len(ds.Columns))
		for i, col := range ds.Columns {
			rec[col] = parseCell(row[i])
		}
		ds.Records = append(ds.Records, rec)
	}
	return ds, nil
}

// parseCell types a cell only when its stored text renders back unchanged.
func parseCell(s string) any {
	if s == "" {
		return nil
	}
	// Leading zeros (zip prefixes, ids) are identifiers, not numbers.
	if len(s) > 1 && s[0] == '0' && s[1] != '.' {
		return s
	}
	n, err := strconv.ParseInt(s, 10, 64)
	switch {
	case err == nil && strconv.FormatInt(n, 10) == s:
		return n
	case err == nil, errors.Is(err, strconv.ErrRange):
		return s
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") {
		return s
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if text, _ := Text(f); text == s {
			return f
		}
	}
	return s
}

// Text renders a value the way relational sinks store it.
func Text(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case int64:
		return strconv.FormatInt(x, 10), true
	case int:
		return strconv.Itoa(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	default:
		return fmt.Sprint(x), true
	}
}
