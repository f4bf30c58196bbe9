package pathutil

import "unicode"

// IsValidIdentifier reports whether name obeys the prim-name grammar of
// section 3: first char letter or '_', remainder letters/digits/'_'.
func IsValidIdentifier(name string) bool {
	return isValidIdentifierImpl(name, false)
}

// IsValidPropertyName reports whether name obeys the property-name grammar:
// like an identifier, but interior ':' namespace separators are allowed and
// the name may not start or end with ':' or '.', and at most one '.' is
// permitted overall (checked by callers that split off the dot-suffix
// first; this function validates a single namespaced segment run).
func IsValidPropertyName(name string) bool {
	if name == "" {
		return false
	}
	if name[0] == ':' || name[len(name)-1] == ':' {
		return false
	}
	if name[0] == '.' || name[len(name)-1] == '.' {
		return false
	}
	for _, part := range splitNamespace(name) {
		if !isValidIdentifierImpl(part, false) {
			return false
		}
	}
	return true
}

// IsValidExtendedIdentifier accepts UTF-8 identifiers whose codepoints fall
// in the letter/number Unicode general categories; emoji (Symbol, Other
// categories) are rejected per section 4.3.
func IsValidExtendedIdentifier(name string) bool {
	return isValidIdentifierImpl(name, true)
}

func isValidIdentifierImpl(name string, extended bool) bool {
	if name == "" {
		return false
	}
	runes := []rune(name)
	if !isIdentStart(runes[0], extended) {
		return false
	}
	for _, r := range runes[1:] {
		if !isIdentCont(r, extended) {
			return false
		}
	}
	return true
}

func isIdentStart(r rune, extended bool) bool {
	if r == '_' {
		return true
	}
	if extended {
		return unicode.IsLetter(r)
	}
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isIdentCont(r rune, extended bool) bool {
	if r == '_' {
		return true
	}
	if extended {
		return unicode.IsLetter(r) || unicode.IsNumber(r)
	}
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func splitNamespace(name string) []string {
	var parts []string
	start := 0
	for i, r := range name {
		if r == ':' {
			parts = append(parts, name[start:i])
			start = i + 1
		}
	}
	parts = append(parts, name[start:])
	return parts
}
