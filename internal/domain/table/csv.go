package table

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses CSV with a header row. Records shorter than the header are
// padded with empty cells; longer ones are malformed. An empty input yields
// an empty table. Repeated column names are suffixed (see uniqueHeader).
func Decode(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(prefix, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return &Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %w", ErrMalformed, err)
	}

	t := New(uniqueHeader(header))
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		switch {
		case len(rec) > len(header):
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: record on line %d: %w", ErrMalformed, line, csv.ErrFieldCount)
		case len(rec) < len(header):
			rec = append(rec, make([]string, len(header)-len(rec))...)
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// Encode writes the header row followed by every row. No index column is added.
// A table without header writes nothing.
func Encode(w io.Writer, t *Table) error {
	if t == nil || len(t.Header) == 0 {
		return nil
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// uniqueHeader renames repeated column names to name.1, name.2, ... so
// every column stays addressable after a merge.
func uniqueHeader(header []string) []string {
	taken := make(map[string]struct{}, len(header))
	for _, h := range header {
		taken[h] = struct{}{}
	}

	next := make(map[string]int, len(header))
	out := make([]string, len(header))
	for i, h := range header {
		n, repeated := next[h]
		if !repeated {
			next[h] = 1
			out[i] = h
			continue
		}
		name := h + "." + strconv.Itoa(n)
		for {
			if _, ok := taken[name]; !ok {
				break
			}
			n++
			name = h + "." + strconv.Itoa(n)
		}
		taken[name] = struct{}{}
		next[h] = n + 1
		out[i] = name
	}
	return out
}
