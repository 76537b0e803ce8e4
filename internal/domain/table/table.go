// Package table holds pitch-event rows as they appear in CSV form.
//
// Columns are owned by the upstream provider, so cells stay strings and
// schema is carried by the header row alone.
package table

import (
	"context"
	"fmt"

	"github.com/okian/savant/internal/domain/dedupe"
)

// Table is a header plus rows of equal width.
type Table struct {
	Header []string
	Rows   [][]string
}

// New creates an empty table with the given header.
func New(header []string) *Table {
	return &Table{Header: header}
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// ColumnIndex returns the position of name in the header.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
}

// Column returns every cell of the named column, in row order.
func (t *Table) Column(name string) ([]string, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// Concat stacks tables row-wise. The result header is the union of all
// headers in order of first appearance; cells for columns a source table
// lacks are left empty.
func Concat(tables ...*Table) *Table {
	var header []string
	pos := make(map[string]int)
	total := 0
	for _, t := range tables {
		if t == nil {
			continue
		}
		total += len(t.Rows)
		for _, h := range t.Header {
			if _, ok := pos[h]; !ok {
				pos[h] = len(header)
				header = append(header, h)
			}
		}
	}

	out := &Table{Header: header, Rows: make([][]string, 0, total)}
	for _, t := range tables {
		if t == nil {
			continue
		}
		mapping := make([]int, len(t.Header))
		identity := len(t.Header) == len(header)
		for i, h := range t.Header {
			mapping[i] = pos[h]
			if mapping[i] != i {
				identity = false
			}
		}
		for _, row := range t.Rows {
			if identity {
				out.Rows = append(out.Rows, row)
				continue
			}
			aligned := make([]string, len(header))
			for i, cell := range row {
				aligned[mapping[i]] = cell
			}
			out.Rows = append(out.Rows, aligned)
		}
	}
	return out
}

// DropDuplicates removes rows identical across all columns, keeping the
// first occurrence, and returns how many rows were dropped. Pass an
// unbounded deduper for an exact result.
func (t *Table) DropDuplicates(ctx context.Context, d dedupe.Deduper) int {
	kept := t.Rows[:0]
	dropped := 0
	for _, row := range t.Rows {
		if d.SeenAndRecord(ctx, dedupe.RowKey(row)) {
			dropped++
			continue
		}
		kept = append(kept, row)
	}
	// Release references held by the tail.
	for i := len(kept); i < len(t.Rows); i++ {
		t.Rows[i] = nil
	}
	t.Rows = kept
	return dropped
}
