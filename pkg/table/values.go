package table

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/pthm/vantage"
	"github.com/pthm/vantage/pkg/datasource"
)

// values is an ordered name/value list taken from a struct or map.
type values struct {
	names []string
	vals  map[string]any
}

// lookup matches name exactly, then case-insensitively.
func (v values) lookup(name string) (any, bool) {
	if x, ok := v.vals[name]; ok {
		return x, true
	}
	for _, n := range v.names {
		if strings.EqualFold(n, name) {
			return v.vals[n], true
		}
	}
	return nil, false
}

// valuesOf flattens a struct, pointer to struct, map[string]any or
// datasource.Row. Struct fields use their `db` tag (",omitempty" supported,
// "-" skips) or their lowercased name. Nested structs such as time.Time are
// kept as values.
func valuesOf(in any) (values, error) {
	switch m := in.(type) {
	case map[string]any:
		return values{names: slices.Sorted(maps.Keys(m)), vals: m}, nil
	case datasource.Row:
		return values{names: m.Columns(), vals: m.Map()}, nil
	}

	rv := reflect.ValueOf(in)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return values{}, fmt.Errorf("%w: nil %T", vantage.ErrNotAStruct, in)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return values{}, fmt.Errorf("%w: got %T", vantage.ErrNotAStruct, in)
	}

	out := values{vals: make(map[string]any)}
	rt := rv.Type()
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		name, omitEmpty, skip := parseTag(f)
		if skip {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		out.names = append(out.names, name)
		out.vals[name] = fv.Interface()
	}
	return out, nil
}

// fieldNames lists the column names a struct or map shape asks for. Map
// keys come back sorted.
func fieldNames(shape any) ([]string, error) {
	if m, ok := shape.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m)), nil
	}

	rt := reflect.TypeOf(shape)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: got %T", vantage.ErrNotAStruct, shape)
	}
	var names []string
	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() {
			continue
		}
		if name, _, skip := parseTag(f); !skip {
			names = append(names, name)
		}
	}
	return names, nil
}

func parseTag(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("db")
	if tag == "-" {
		return "", false, true
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	return name, opts == "omitempty", false
}

func isZero(v any) bool {
	if v == nil {
		return true
	}
	return reflect.ValueOf(v).IsZero()
}
