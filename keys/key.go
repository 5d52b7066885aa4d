package keys

import (
	"fmt"
	"sort"
	"strings"
)

// Pair is one named argument inside a canonical key.
type Pair struct {
	Name  string
	Value any
}

// Key is the canonical, order-independent representation of a function
// call's arguments. Pairs are sorted by name; defaulted arguments are
// absent. Keys are value-like: build them with New or Normalize and treat
// them as immutable.
type Key []Pair

// New builds a key from the given pairs, sorting them by name.
func New(pairs ...Pair) Key {
	k := make(Key, len(pairs))
	copy(k, pairs)
	sort.Slice(k, func(i, j int) bool { return k[i].Name < k[j].Name })
	return k
}

// Get returns the value bound to name, if present.
func (k Key) Get(name string) (any, bool) {
	for _, p := range k {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

// Equal reports whether two keys are cache-equivalent. Comparison happens on
// the canonical byte encoding, so values that differ only in Go
// representation (int vs int64 after a codec round trip) still compare equal.
func (k Key) Equal(other Key) bool {
	a, err := k.Canonical()
	if err != nil {
		return false
	}
	b, err := other.Canonical()
	if err != nil {
		return false
	}
	return string(a) == string(b)
}

// String renders the key for error messages and logs.
func (k Key) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range k {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "(%q, %v)", p.Name, p.Value)
	}
	b.WriteByte(')')
	return b.String()
}

// Wire returns the codec-facing form of the key: a slice of [name, value]
// pairs. Storage codecs encode this rather than the Key type itself so that
// a stored key can be rebuilt from any codec's generic decode output.
func (k Key) Wire() []any {
	out := make([]any, len(k))
	for i, p := range k {
		out[i] = []any{p.Name, p.Value}
	}
	return out
}

// FromWire rebuilds a key from a decoded wire form. It accepts the []any
// shapes produced by the msgpack and JSON codecs.
func FromWire(v any) (Key, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("keys: wire form is %T, want []any", v)
	}
	k := make(Key, 0, len(items))
	for _, item := range items {
		pair, ok := item.([]any)
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("keys: wire pair is %T, want [name, value]", item)
		}
		name, ok := pair[0].(string)
		if !ok {
			return nil, fmt.Errorf("keys: wire pair name is %T, want string", pair[0])
		}
		k = append(k, Pair{Name: name, Value: pair[1]})
	}
	return New(k...), nil
}
