package worker

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dataprep/ingest/internal/model"
	"github.com/dataprep/ingest/internal/store"
)

const maxSampleValues = 20

var nullTokens = map[string]bool{
	"":     true,
	"na":   true,
	"n/a":  true,
	"nan":  true,
	"null": true,
	"none": true,
}

// ProfileCSV reads a CSV with a header row and infers per-column types,
// null and distinct counts, and numeric stats.
func ProfileCSV(r io.Reader) (*store.Profile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("file is empty")
		}
		return nil, fmt.Errorf("invalid CSV header: %w", err)
	}
	names, err := columnNames(header)
	if err != nil {
		return nil, err
	}

	cols := make([]*columnAcc, len(names))
	for i := range cols {
		cols[i] = newColumnAcc()
	}

	rows := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid CSV at row %d: %w", rows+2, err)
		}
		rows++
		for i, acc := range cols {
			var cell string
			if i < len(record) {
				cell = record[i]
			}
			acc.add(cell)
		}
	}

	profile := &store.Profile{
		RowCount:        rows,
		Columns:         make([]store.ColumnProfile, len(names)),
		ConstantColumns: []string{},
		GeneratedAt:     time.Now().UTC(),
	}
	for i, acc := range cols {
		profile.Columns[i] = acc.profile(names[i])
		if len(acc.distinct) <= 1 {
			profile.ConstantColumns = append(profile.ConstantColumns, names[i])
		}
	}
	return profile, nil
}

func columnNames(header []string) ([]string, error) {
	seen := map[string]bool{}
	names := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		if seen[name] {
			return nil, fmt.Errorf("duplicate column %q in header", name)
		}
		seen[name] = true
		names[i] = name
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("header has no columns")
	}
	return names, nil
}

type columnAcc struct {
	nulls    int
	distinct map[string]struct{}
	order    []string
	numbers  []float64
	allInt   bool
	allFloat bool
	allBool  bool
}

func newColumnAcc() *columnAcc {
	return &columnAcc{distinct: map[string]struct{}{}, allInt: true, allFloat: true, allBool: true}
}

func (a *columnAcc) add(cell string) {
	cell = strings.TrimSpace(cell)
	if nullTokens[strings.ToLower(cell)] {
		a.nulls++
		return
	}
	if _, ok := a.distinct[cell]; !ok {
		a.distinct[cell] = struct{}{}
		a.order = append(a.order, cell)
	}

	if _, err := strconv.ParseInt(cell, 10, 64); err != nil {
		a.allInt = false
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsInf(f, 0) {
		a.numbers = append(a.numbers, f)
	} else {
		a.allFloat = false
	}
	if _, err := strconv.ParseBool(strings.ToLower(cell)); err != nil {
		a.allBool = false
	}
}

func (a *columnAcc) dtype() string {
	switch {
	case len(a.distinct) == 0:
		return "string"
	case a.allInt:
		return "int"
	case a.allFloat:
		return "double"
	case a.allBool:
		return "boolean"
	default:
		return "string"
	}
}

func (a *columnAcc) profile(name string) store.ColumnProfile {
	p := store.ColumnProfile{
		Name:     name,
		Dtype:    a.dtype(),
		Nulls:    a.nulls,
		Distinct: len(a.distinct),
	}
	switch p.Dtype {
	case "int", "double":
		p.Stats = numericStats(a.numbers)
	default:
		n := len(a.order)
		if n > maxSampleValues {
			n = maxSampleValues
		}
		p.Values = append([]string(nil), a.order[:n]...)
	}
	return p
}

func numericStats(values []float64) *model.Stats {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}

	lo, hi := sorted[0], sorted[len(sorted)-1]
	return &model.Stats{Min: &lo, Max: &hi, Mean: &mean, Median: &median}
}
