package keys

import "fmt"

// VariadicPrefix marks the synthetic key entry that collects positional
// arguments beyond the declared parameters. The marker keeps the entry from
// colliding with any legal parameter name.
const VariadicPrefix = "*"

// Signature declares the formal parameters of a memoised function. Go has no
// runtime reflection over parameter names or defaults, so the caller supplies
// them explicitly at wrap time.
type Signature struct {
	// Params lists the parameter names in declaration order.
	Params []string

	// Defaults maps parameter names to their default values. A supplied
	// argument equal to its default is dropped from the key, so defaulted
	// and explicit calls share one cache entry.
	Defaults map[string]any

	// Variadic names the rest parameter, if any. Empty means extra
	// positional arguments are an error.
	Variadic string
}

// ArgumentError reports a call that does not bind to the declared signature:
// too many positional arguments, an unknown keyword, or a positional and
// keyword binding of the same parameter with different values.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Param == "" {
		return "keys: " + e.Reason
	}
	return fmt.Sprintf("keys: argument %q: %s", e.Param, e.Reason)
}

// Normalize converts a call's positional and keyword arguments into the
// canonical key. The result is deterministic and independent of call syntax:
// positional arguments are bound to parameter names in declaration order,
// keywords merged, default-valued bindings dropped, and the remaining pairs
// sorted by name.
func Normalize(sig Signature, args []any, kwargs map[string]any) (Key, error) {
	bound := make(map[string]any, len(args)+len(kwargs))

	if len(args) > len(sig.Params) {
		if sig.Variadic == "" {
			return nil, &ArgumentError{Reason: fmt.Sprintf(
				"takes %d positional arguments but %d were given",
				len(sig.Params), len(args))}
		}
		rest := make([]any, len(args)-len(sig.Params))
		copy(rest, args[len(sig.Params):])
		bound[VariadicPrefix+sig.Variadic] = rest
	}

	for i, name := range sig.Params {
		if i >= len(args) {
			break
		}
		bound[name] = args[i]
	}

	for name, val := range kwargs {
		if !isParam(sig, name) {
			return nil, &ArgumentError{Param: name, Reason: "unexpected keyword argument"}
		}
		if prev, ok := bound[name]; ok {
			// A parameter bound both positionally and by keyword is only
			// valid when both bindings agree.
			if !valuesEqual(prev, val) {
				return nil, &ArgumentError{Param: name, Reason: "bound positionally and by keyword with different values"}
			}
			continue
		}
		bound[name] = val
	}

	for name, def := range sig.Defaults {
		if val, ok := bound[name]; ok && valuesEqual(val, def) {
			delete(bound, name)
		}
	}

	pairs := make([]Pair, 0, len(bound))
	for name, val := range bound {
		pairs = append(pairs, Pair{Name: name, Value: val})
	}
	return New(pairs...), nil
}

func isParam(sig Signature, name string) bool {
	for _, p := range sig.Params {
		if p == name {
			return true
		}
	}
	return false
}
