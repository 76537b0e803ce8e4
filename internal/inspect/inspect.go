// Package inspect computes descriptive statistics over one column of a
// stored period file.
package inspect

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/okian/savant/internal/domain/table"
)

// Loader reads a stored table.
type Loader interface {
	Read(path string) (*table.Table, error)
}

// Summary is the describe() view of a numeric column.
type Summary struct {
	Column string
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	P25    float64
	P50    float64
	P75    float64
	Max    float64
}

// missingValues are the cell spellings read as a missing value.
var missingValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// Describe loads path and summarises column. Cells listed in missingValues
// are skipped; any other non-numeric cell is an error. A column with no values
// yields Count 0 and NaN everywhere else.
func Describe(loader Loader, path, column string) (*Summary, error) {
	t, err := loader.Read(path)
	if err != nil {
		return nil, err
	}
	cells, err := t.Column(column)
	if err != nil {
		return nil, err
	}

	values := make([]float64, 0, len(cells))
	for i, c := range cells {
		c = strings.TrimSpace(c)
		if _, ok := missingValues[c]; ok {
			continue
		}
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q row %d: %q", ErrNotNumeric, column, i+1, c)
		}
		if math.IsNaN(v) {
			continue
		}
		values = append(values, v)
	}
	return Summarize(column, values)
}

// Summarize computes the summary of values.
func Summarize(column string, values []float64) (*Summary, error) {
	s := &Summary{Column: column, Count: len(values)}
	if len(values) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.P25, s.P50, s.P75, s.Max = nan, nan, nan, nan, nan, nan, nan
		return s, nil
	}

	data := stats.Float64Data(values)
	var err error
	if s.Mean, err = data.Mean(); err != nil {
		return nil, err
	}
	if s.Min, err = data.Min(); err != nil {
		return nil, err
	}
	if s.Max, err = data.Max(); err != nil {
		return nil, err
	}
	if len(values) > 1 {
		if s.Std, err = stats.StandardDeviationSample(data); err != nil {
			return nil, err
		}
	} else {
		s.Std = math.NaN()
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	s.P25 = linearPercentile(sorted, 25)
	s.P50 = linearPercentile(sorted, 50)
	s.P75 = linearPercentile(sorted, 75)
	return s, nil
}

// linearPercentile interpolates between the two closest ranks of sorted.
func linearPercentile(sorted []float64, pct float64) float64 {
	pos := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// String renders the summary one statistic per line.
func (s *Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-6s%14.6f\n", "count", float64(s.Count))
	for _, row := range []struct {
		name string
		v    float64
	}{
		{"mean", s.Mean},
		{"std", s.Std},
		{"min", s.Min},
		{"25%", s.P25},
		{"50%", s.P50},
		{"75%", s.P75},
		{"max", s.Max},
	} {
		fmt.Fprintf(&b, "%-6s%14.6f\n", row.name, row.v)
	}
	fmt.Fprintf(&b, "Name: %s, dtype: float64\n", s.Column)
	return b.String()
}
