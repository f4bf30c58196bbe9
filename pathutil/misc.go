package pathutil

import (
	"fmt"
	"strings"
)

// udimToken is the literal marker USD uses for UDIM tile expansion.
const udimToken = "<UDIM>"

// SplitUDIM reports whether assetPath contains the <UDIM> token and, if so,
// returns it unchanged for downstream tile expansion (section 4.4's "UDIM
// asset paths are returned verbatim").
func SplitUDIM(assetPath string) (path string, isUDIM bool) {
	return assetPath, strings.Contains(assetPath, udimToken)
}

// ParseVariantElement parses a brace-quoted "{variantSetName=variantName}"
// token in isolation (as opposed to one embedded in a Path), validating
// that neither side contains '=' or a newline. Either side may be empty.
func ParseVariantElement(s string) (VariantSelection, error) {
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return VariantSelection{}, fmt.Errorf("variant element %q must be brace-quoted", s)
	}
	inner := s[1 : len(s)-1]
	eq := strings.IndexByte(inner, '=')
	if eq < 0 {
		return VariantSelection{}, fmt.Errorf("variant element %q missing '='", s)
	}
	vs, vv := inner[:eq], inner[eq+1:]
	if strings.ContainsAny(vs, "=\n") || strings.ContainsAny(vv, "=\n") {
		return VariantSelection{}, fmt.Errorf("variant element %q malformed", s)
	}
	return VariantSelection{VariantSet: vs, Variant: vv}, nil
}

// maxUniqueNameAttempts bounds UniqueName's search per section 4.3.
const maxUniqueNameAttempts = 1024

// UniqueName returns a name guaranteed not to be in used: name itself if
// available, else name suffixed with an increasing counter (name2, name3,
// ...) starting from the count of prior uses recorded for name, bounded at
// maxUniqueNameAttempts tries.
func UniqueName(used map[string]int, name string) string {
	if _, taken := used[name]; !taken {
		used[name] = 1
		return name
	}
	count := used[name]
	for i := 0; i < maxUniqueNameAttempts; i++ {
		count++
		candidate := fmt.Sprintf("%s%d", name, count)
		if _, taken := used[candidate]; !taken {
			used[name] = count
			used[candidate] = 1
			return candidate
		}
	}
	used[name] = count
	return fmt.Sprintf("%s%d", name, count+1)
}
