package keys

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
)

// Canonical returns a deterministic byte encoding of the key: a JSON array
// of [name, value] pairs in sorted name order, with map keys and struct
// fields sorted so the same logical value always encodes to the same bytes.
// This encoding is the input to fingerprinting and the basis of Equal; it is
// not the storage form (see the codec package for that).
func (k Key) Canonical() ([]byte, error) {
	buf := []byte{'['}
	for i, p := range k {
		if i > 0 {
			buf = append(buf, ',')
		}
		name, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		buf = append(buf, '[')
		buf = append(buf, name...)
		buf = append(buf, ',')
		val, err := canonicalValue(p.Value)
		if err != nil {
			return nil, fmt.Errorf("keys: argument %q: %w", p.Name, err)
		}
		buf = append(buf, val...)
		buf = append(buf, ']')
	}
	return append(buf, ']'), nil
}

// canonicalValue encodes a single value deterministically. Numbers of any
// width encode to the same text when they represent the same quantity, which
// is what makes codec round trips invisible to key comparison.
func canonicalValue(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	// Types that define their own JSON form (time.Time among them) keep it;
	// reflecting over their unexported fields would encode nothing useful.
	if m, ok := v.(json.Marshaler); ok {
		return m.MarshalJSON()
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return []byte("null"), nil
		}
		return canonicalValue(rv.Elem().Interface())

	case reflect.Slice:
		if rv.IsNil() {
			return []byte("null"), nil
		}
		return canonicalSequence(rv)

	case reflect.Array:
		return canonicalSequence(rv)

	case reflect.Map:
		if rv.IsNil() {
			return []byte("{}"), nil
		}
		return canonicalMap(rv)

	case reflect.Struct:
		return canonicalStruct(rv)

	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, fmt.Errorf("%s values cannot appear in a cache key", rv.Kind())

	default:
		return json.Marshal(v)
	}
}

func canonicalSequence(rv reflect.Value) ([]byte, error) {
	buf := []byte{'['}
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			buf = append(buf, ',')
		}
		elem, err := canonicalValue(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		buf = append(buf, elem...)
	}
	return append(buf, ']'), nil
}

// canonicalMap encodes map entries sorted by the canonical encoding of the
// key, so iteration order never leaks into the result.
func canonicalMap(rv reflect.Value) ([]byte, error) {
	type entry struct {
		name string
		val  []byte
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		name, err := canonicalValue(iter.Key().Interface())
		if err != nil {
			return nil, err
		}
		val, err := canonicalValue(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry{name: string(name), val: val})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	buf := []byte{'{'}
	for i, e := range entries {
		if i > 0 {
			buf = append(buf, ',')
		}
		// Map keys become JSON object keys; non-string keys keep their
		// canonical text inside a quoted string.
		name := e.name
		if len(name) == 0 || name[0] != '"' {
			quoted, err := json.Marshal(name)
			if err != nil {
				return nil, err
			}
			name = string(quoted)
		}
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, e.val...)
	}
	return append(buf, '}'), nil
}

// canonicalStruct encodes exported fields sorted by field name, matching the
// shape a struct takes after decoding from a codec into a generic map.
func canonicalStruct(rv reflect.Value) ([]byte, error) {
	rt := rv.Type()
	type entry struct {
		name string
		val  []byte
	}
	entries := make([]entry, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		val, err := canonicalValue(rv.Field(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		entries = append(entries, entry{name: field.Name, val: val})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].name < entries[j].name })

	buf := []byte{'{'}
	for i, e := range entries {
		if i > 0 {
			buf = append(buf, ',')
		}
		name, err := json.Marshal(e.name)
		if err != nil {
			return nil, err
		}
		buf = append(buf, name...)
		buf = append(buf, ':')
		buf = append(buf, e.val...)
	}
	return append(buf, '}'), nil
}

// valuesEqual compares two argument values through their canonical
// encodings, falling back to reflect.DeepEqual when a value cannot be
// canonically encoded.
func valuesEqual(a, b any) bool {
	ca, errA := canonicalValue(a)
	cb, errB := canonicalValue(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return string(ca) == string(cb)
}
