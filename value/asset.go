package value

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/usdgo/usd/pathutil"
)

// AssetPath carries either a single-'@' or triple-'@@@'-delimited asset
// reference (section 3). Triple escapes embedded "@@@" via a backslash.
type AssetPath struct {
	Raw    string // the interior text, already unescaped
	Triple bool
}

// ParseAssetPath parses the literal text of an asset-path token, including
// its delimiters (either "@...@" or "@@@...@@@").
func ParseAssetPath(literal string) (AssetPath, error) {
	if strings.HasPrefix(literal, "@@@") && strings.HasSuffix(literal, "@@@") && len(literal) >= 6 {
		inner := literal[3 : len(literal)-3]
		inner = strings.ReplaceAll(inner, `\@@@`, "@@@")
		return AssetPath{Raw: inner, Triple: true}, nil
	}
	if strings.HasPrefix(literal, "@") && strings.HasSuffix(literal, "@") && len(literal) >= 2 {
		return AssetPath{Raw: literal[1 : len(literal)-1]}, nil
	}
	return AssetPath{}, errors.Errorf("malformed asset path literal %q", literal)
}

// String renders the AssetPath back to its delimited USDA form.
func (a AssetPath) String() string {
	if a.Triple {
		return "@@@" + strings.ReplaceAll(a.Raw, "@@@", `\@@@`) + "@@@"
	}
	return "@" + a.Raw + "@"
}

// LayerOffset is the optional (scale, offset) pair a Reference may carry.
type LayerOffset struct {
	Offset float64
	Scale  float64
}

// Reference is (AssetPath, optional Path, optional LayerOffset), per
// section 3.
type Reference struct {
	AssetPath   AssetPath
	PrimPath    *pathutil.Path
	LayerOffset *LayerOffset
}
