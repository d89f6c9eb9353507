package datasource

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/go-viper/mapstructure/v2"
)

// Row is one result row: column names and values in result order.
type Row struct {
	columns []string
	values  []any
}

// NewRow pairs columns with values. Extra values or columns are dropped.
func NewRow(columns []string, values []any) Row {
	n := min(len(columns), len(values))
	return Row{columns: slices.Clone(columns[:n]), values: slices.Clone(values[:n])}
}

// Pairs builds a Row from alternating names and values:
// Pairs("name", "John", "age", 30). A trailing name without value is ignored.
func Pairs(kv ...any) Row {
	var r Row
	for i := 0; i+1 < len(kv); i += 2 {
		r.columns = append(r.columns, fmt.Sprint(kv[i]))
		r.values = append(r.values, kv[i+1])
	}
	return r
}

// Len returns the number of columns.
func (r Row) Len() int { return len(r.columns) }

// Columns returns the column names in result order.
func (r Row) Columns() []string { return slices.Clone(r.columns) }

// Values returns the values in result order.
func (r Row) Values() []any { return slices.Clone(r.values) }

// At returns the i-th value.
func (r Row) At(i int) any { return r.values[i] }

// Get returns the value of the named column.
func (r Row) Get(name string) (any, bool) {
	i := slices.Index(r.columns, name)
	if i < 0 {
		return nil, false
	}
	return r.values[i], true
}

// Map returns the row as an unordered map.
func (r Row) Map() map[string]any {
	m := make(map[string]any, len(r.columns))
	for i, c := range r.columns {
		m[c] = r.values[i]
	}
	return m
}

// Decode copies the row into out, a pointer to a struct or map. Struct
// fields are matched by their `db` tag, or case-insensitively by name.
func (r Row) Decode(out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "db",
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook:       mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return err
	}
	return dec.Decode(r.Map())
}

// MarshalJSON renders the row as a JSON object preserving column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
