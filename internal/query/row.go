package query

import (
	"database/sql"
	"fmt"
	"unicode/utf8"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Row maps column names to values in the order the engine returned the
// columns. It marshals to a JSON object with keys in that order.
type Row = *orderedmap.OrderedMap[string, any]

// NewRow returns an empty Row.
func NewRow() Row {
	return orderedmap.New[string, any]()
}

// RowValues returns the row's values in column order.
func RowValues(r Row) []any {
	out := make([]any, 0, r.Len())
	for pair := r.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// columnNames returns the result columns, naming anonymous ones column_N.
func columnNames(rows *sql.Rows) ([]string, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	for i, c := range cols {
		if c == "" {
			cols[i] = fmt.Sprintf("column_%d", i+1)
		}
	}
	return cols, nil
}

// fetchAll reads every remaining row. With duplicate column names the
// last value wins and the key keeps its first position.
func fetchAll(rows *sql.Rows) ([]string, []Row, error) {
	cols, err := columnNames(rows)
	if err != nil {
		return nil, nil, err
	}

	out := []Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := NewRow()
		for i, c := range cols {
			row.Set(c, normalizeValue(vals[i]))
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, out, nil
}

// normalizeValue makes driver values JSON friendly. Text columns that
// drivers hand back as []byte become strings.
func normalizeValue(v any) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	if utf8.Valid(b) {
		return string(b)
	}
	// Binary data; encoding/json base64-encodes a fresh copy.
	return append([]byte(nil), b...)
}
