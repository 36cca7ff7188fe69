package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Column describes one column of a query result
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ResultSet is a tabular query result. It mirrors the shape QuestDB returns
// from /exec so that both database transports produce the same value.
type ResultSet struct {
	Query   string   `json:"query"`
	Columns []Column `json:"columns"`
	Dataset [][]any  `json:"dataset"`
	Count   int      `json:"count"`
}

// Index returns the position of the named column or -1
func (r *ResultSet) Index(name string) int {
	for i, c := range r.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the result contains the named column
func (r *ResultSet) HasColumn(name string) bool {
	return r.Index(name) >= 0
}

// ColumnNames returns the column names in order
func (r *ResultSet) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// Len returns the number of rows
func (r *ResultSet) Len() int {
	return len(r.Dataset)
}

// Value returns the raw cell value, or nil if the row or column is missing
func (r *ResultSet) Value(row int, name string) any {
	idx := r.Index(name)
	if idx < 0 || row < 0 || row >= len(r.Dataset) || idx >= len(r.Dataset[row]) {
		return nil
	}
	return r.Dataset[row][idx]
}

// Float returns the cell as float64. ok is false for nulls and non-numeric cells.
func (r *ResultSet) Float(row int, name string) (float64, bool) {
	return ToFloat(r.Value(row, name))
}

// String returns the cell formatted as a string, "" for null
func (r *ResultSet) String(row int, name string) string {
	v := r.Value(row, name)
	if v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprint(v)
}

// Rows converts the dataset to one map per row
func (r *ResultSet) Rows() []map[string]any {
	out := make([]map[string]any, 0, len(r.Dataset))
	for _, row := range r.Dataset {
		m := make(map[string]any, len(r.Columns))
		for i, c := range r.Columns {
			if i < len(row) {
				m[c.Name] = row[i]
			}
		}
		out = append(out, m)
	}
	return out
}

// ToFloat converts JSON/SQL scalar values to float64
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
