package composition

import "github.com/usdgo/usd/sdf"

// applyListOp combines a weaker-opinion base list with a stronger-opinion
// authored list per its ListEditQualifier, section 4.8's "list-ops compose
// respecting Prepend/Append/Delete/Reset semantics". Equality is by the
// caller-supplied key function, since the element type varies (token
// strings, pathutil.Path, value.Reference).
func applyListOp[T any](qualifier sdf.ListEditQualifier, base, authored []T, key func(T) string) []T {
	switch qualifier {
	case sdf.ResetToExplicit, sdf.Explicit:
		return append([]T(nil), authored...)
	case sdf.Add:
		return unionAppend(base, authored, key)
	case sdf.Prepend:
		return append(append([]T(nil), authored...), removeKeys(base, authored, key)...)
	case sdf.Append:
		return append(removeKeys(base, authored, key), authored...)
	case sdf.Delete:
		return removeKeys(base, authored, key)
	case sdf.Reorder:
		return reorder(base, authored, key)
	default:
		return append([]T(nil), authored...)
	}
}

func unionAppend[T any](base, add []T, key func(T) string) []T {
	out := append([]T(nil), base...)
	seen := make(map[string]bool, len(base))
	for _, b := range base {
		seen[key(b)] = true
	}
	for _, a := range add {
		if !seen[key(a)] {
			out = append(out, a)
			seen[key(a)] = true
		}
	}
	return out
}

func removeKeys[T any](base, remove []T, key func(T) string) []T {
	drop := make(map[string]bool, len(remove))
	for _, r := range remove {
		drop[key(r)] = true
	}
	var out []T
	for _, b := range base {
		if !drop[key(b)] {
			out = append(out, b)
		}
	}
	return out
}

// reorder moves every element of base named in order to the front, in the
// order given, preserving the relative order of whatever's left.
func reorder[T any](base, order []T, key func(T) string) []T {
	byKey := make(map[string]T, len(base))
	present := make(map[string]bool, len(base))
	for _, b := range base {
		byKey[key(b)] = b
		present[key(b)] = true
	}
	var out []T
	moved := make(map[string]bool, len(order))
	for _, o := range order {
		k := key(o)
		if present[k] && !moved[k] {
			out = append(out, byKey[k])
			moved[k] = true
		}
	}
	for _, b := range base {
		k := key(b)
		if !moved[k] {
			out = append(out, b)
			moved[k] = true
		}
	}
	return out
}
