package dedupe

import (
	"strconv"
	"strings"
)

// RowKey encodes a row's fields into a single key. Fields are length-prefixed,
// so two rows share a key only when every field is identical.
func RowKey(fields []string) string {
	n := 0
	for _, f := range fields {
		n += len(f) + 8
	}

	var b strings.Builder
	b.Grow(n)
	for _, f := range fields {
		b.WriteString(strconv.Itoa(len(f)))
		b.WriteByte(':')
		b.WriteString(f)
	}
	return b.String()
}
