package ascii

import (
	"strconv"
	"strings"

	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/value"
)

// parseValue parses one value literal of the given (possibly array-suffixed)
// typeName, starting at the parser's current token.
func (p *Parser) parseValue(typeName string) (value.Value, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return value.Value{}, err
	}
	if tok.Kind == TokIdent && tok.Text == "None" {
		p.lex.Next()
		return value.Block(typeName), nil
	}
	base, isArray := value.SplitArrayType(typeName)
	if isArray {
		return p.parseArrayValue(base)
	}
	return p.parseScalarValue(base)
}

func (p *Parser) parseArrayValue(base string) (value.Value, error) {
	if _, err := p.expectPunct("["); err != nil {
		return value.Value{}, err
	}
	elems, err := p.parseScalarList(base, "]")
	if err != nil {
		return value.Value{}, err
	}
	if _, err := p.expectPunct("]"); err != nil {
		return value.Value{}, err
	}
	return buildArray(base, elems)
}

// parseScalarList parses a comma-separated run of scalar literals of type
// base until the closing token close is seen (without consuming it).
func (p *Parser) parseScalarList(base, close string) ([]value.Value, error) {
	var out []value.Value
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokPunct && tok.Text == close {
			break
		}
		v, err := p.parseScalarValue(base)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		tok, err = p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokPunct && tok.Text == "," {
			p.lex.Next()
			continue
		}
		break
	}
	return out, nil
}

func buildArray(base string, elems []value.Value) (value.Value, error) {
	switch base {
	case "bool":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) bool { x, _ := value.Get[bool](v); return x }))
	case "int":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) int32 { x, _ := value.Get[int32](v); return x }))
	case "uint":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) uint32 { x, _ := value.Get[uint32](v); return x }))
	case "int64":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) int64 { x, _ := value.Get[int64](v); return x }))
	case "uint64":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) uint64 { x, _ := value.Get[uint64](v); return x }))
	case "half":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Half { x, _ := value.Get[value.Half](v); return x }))
	case "float":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) float32 { x, _ := value.Get[float32](v); return x }))
	case "double", "timecode":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) float64 { x, _ := value.Get[float64](v); return x }))
	case "string":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) string { x, _ := value.Get[string](v); return x }))
	case "token":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) pathutil.Token { x, _ := value.Get[pathutil.Token](v); return x }))
	case "asset":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.AssetPath { x, _ := value.Get[value.AssetPath](v); return x }))
	case "path":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) pathutil.Path { x, _ := value.Get[pathutil.Path](v); return x }))
	case "int2":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Int2 { x, _ := value.Get[value.Int2](v); return x }))
	case "int3":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Int3 { x, _ := value.Get[value.Int3](v); return x }))
	case "int4":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Int4 { x, _ := value.Get[value.Int4](v); return x }))
	case "float2", "texCoord2f":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Vec2F { x, _ := value.Get[value.Vec2F](v); return x }))
	case "float3", "color3f", "point3f", "normal3f", "vector3f", "texCoord3f":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Vec3F { x, _ := value.Get[value.Vec3F](v); return x }))
	case "float4", "color4f":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Vec4F { x, _ := value.Get[value.Vec4F](v); return x }))
	case "double2", "texCoord2d":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Vec2D { x, _ := value.Get[value.Vec2D](v); return x }))
	case "double3", "color3d", "point3d", "normal3d", "vector3d", "texCoord3d":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Vec3D { x, _ := value.Get[value.Vec3D](v); return x }))
	case "double4", "color4d":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Vec4D { x, _ := value.Get[value.Vec4D](v); return x }))
	case "half2", "texCoord2h":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Vec2H { x, _ := value.Get[value.Vec2H](v); return x }))
	case "half3", "color3h", "point3h", "normal3h", "vector3h", "texCoord3h":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Vec3H { x, _ := value.Get[value.Vec3H](v); return x }))
	case "half4", "color4h":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Vec4H { x, _ := value.Get[value.Vec4H](v); return x }))
	case "quath":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.QuatH { x, _ := value.Get[value.QuatH](v); return x }))
	case "quatf":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.QuatF { x, _ := value.Get[value.QuatF](v); return x }))
	case "quatd":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.QuatD { x, _ := value.Get[value.QuatD](v); return x }))
	case "matrix2d":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Matrix2D { x, _ := value.Get[value.Matrix2D](v); return x }))
	case "matrix3d":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Matrix3D { x, _ := value.Get[value.Matrix3D](v); return x }))
	case "matrix4d":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Matrix4D { x, _ := value.Get[value.Matrix4D](v); return x }))
	case "dictionary":
		return value.NewArray(base+"[]", mapVals(elems, func(v value.Value) value.Dictionary { x, _ := value.Get[value.Dictionary](v); return x }))
	default:
		return value.Value{}, diag.New(diag.KindSchema, "unknown array element type %q", base)
	}
}

func mapVals[T any](elems []value.Value, f func(value.Value) T) []T {
	out := make([]T, len(elems))
	for i, e := range elems {
		out[i] = f(e)
	}
	return out
}

func (p *Parser) parseScalarValue(base string) (value.Value, error) {
	switch base {
	case "bool":
		tok, err := p.lex.Next()
		if err != nil {
			return value.Value{}, err
		}
		if tok.Kind != TokIdent || (tok.Text != "true" && tok.Text != "false") {
			return value.Value{}, diag.At(diag.KindParse, tok.Pos, "expected bool literal, got %q", tok.Text)
		}
		return value.NewScalar("bool", tok.Text == "true")
	case "int":
		n, err := p.parseIntLiteral(32, false)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("int", int32(n))
	case "uint":
		n, err := p.parseIntLiteral(32, true)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("uint", uint32(n))
	case "int64":
		n, err := p.parseIntLiteral(64, false)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("int64", n)
	case "uint64":
		n, err := p.parseIntLiteral(64, true)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("uint64", uint64(n))
	case "half":
		f, err := p.parseFloatLiteral()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("half", value.HalfFromFloat32(float32(f)))
	case "float":
		f, err := p.parseFloatLiteral()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("float", float32(f))
	case "double", "timecode":
		f, err := p.parseFloatLiteral()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, f)
	case "string":
		tok, err := p.expectString()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("string", tok.Text)
	case "token":
		tok, err := p.expectStringOrIdent()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("token", pathutil.Intern(tok.Text))
	case "asset":
		tok, err := p.expectAsset()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("asset", value.AssetPath{Raw: tok.Text, Triple: tok.Triple})
	case "path":
		tok, err := p.expectPath()
		if err != nil {
			return value.Value{}, err
		}
		pth, err := pathutil.Parse("<" + tok.Text + ">")
		if err != nil {
			return value.Value{}, diag.At(diag.KindParse, tok.Pos, "%s", err)
		}
		return value.NewScalar("path", pth)
	case "dictionary":
		dict, err := p.parseDictionary()
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("dictionary", dict)
	case "int2":
		xs, err := p.parseTuple(2)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("int2", value.Int2{X: int32(xs[0]), Y: int32(xs[1])})
	case "int3":
		xs, err := p.parseTuple(3)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("int3", value.Int3{X: int32(xs[0]), Y: int32(xs[1]), Z: int32(xs[2])})
	case "int4":
		xs, err := p.parseTuple(4)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar("int4", value.Int4{X: int32(xs[0]), Y: int32(xs[1]), Z: int32(xs[2]), W: int32(xs[3])})
	case "float2", "texCoord2f":
		xs, err := p.parseTuple(2)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.Vec2F{X: float32(xs[0]), Y: float32(xs[1])})
	case "float3", "color3f", "point3f", "normal3f", "vector3f", "texCoord3f":
		xs, err := p.parseTuple(3)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.Vec3F{X: float32(xs[0]), Y: float32(xs[1]), Z: float32(xs[2])})
	case "float4", "color4f":
		xs, err := p.parseTuple(4)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.Vec4F{X: float32(xs[0]), Y: float32(xs[1]), Z: float32(xs[2]), W: float32(xs[3])})
	case "double2", "texCoord2d":
		xs, err := p.parseTuple(2)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.Vec2D{X: xs[0], Y: xs[1]})
	case "double3", "color3d", "point3d", "normal3d", "vector3d", "texCoord3d":
		xs, err := p.parseTuple(3)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.Vec3D{X: xs[0], Y: xs[1], Z: xs[2]})
	case "double4", "color4d":
		xs, err := p.parseTuple(4)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.Vec4D{X: xs[0], Y: xs[1], Z: xs[2], W: xs[3]})
	case "half2", "texCoord2h":
		xs, err := p.parseTuple(2)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.Vec2H{X: value.HalfFromFloat32(float32(xs[0])), Y: value.HalfFromFloat32(float32(xs[1]))})
	case "half3", "color3h", "point3h", "normal3h", "vector3h", "texCoord3h":
		xs, err := p.parseTuple(3)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.Vec3H{
			X: value.HalfFromFloat32(float32(xs[0])), Y: value.HalfFromFloat32(float32(xs[1])), Z: value.HalfFromFloat32(float32(xs[2])),
		})
	case "half4", "color4h":
		xs, err := p.parseTuple(4)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.Vec4H{
			X: value.HalfFromFloat32(float32(xs[0])), Y: value.HalfFromFloat32(float32(xs[1])),
			Z: value.HalfFromFloat32(float32(xs[2])), W: value.HalfFromFloat32(float32(xs[3])),
		})
	case "quath":
		xs, err := p.parseTuple(4)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.QuatH{
			X: value.HalfFromFloat32(float32(xs[1])), Y: value.HalfFromFloat32(float32(xs[2])),
			Z: value.HalfFromFloat32(float32(xs[3])), W: value.HalfFromFloat32(float32(xs[0])),
		})
	case "quatf":
		xs, err := p.parseTuple(4)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.QuatF{X: float32(xs[1]), Y: float32(xs[2]), Z: float32(xs[3]), W: float32(xs[0])})
	case "quatd":
		xs, err := p.parseTuple(4)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewScalar(base, value.QuatD{X: xs[1], Y: xs[2], Z: xs[3], W: xs[0]})
	case "matrix2d":
		rows, err := p.parseMatrixRows(2)
		if err != nil {
			return value.Value{}, err
		}
		var m value.Matrix2D
		copy(m[:], rows)
		return value.NewScalar(base, m)
	case "matrix3d":
		rows, err := p.parseMatrixRows(3)
		if err != nil {
			return value.Value{}, err
		}
		var m value.Matrix3D
		copy(m[:], rows)
		return value.NewScalar(base, m)
	case "matrix4d":
		rows, err := p.parseMatrixRows(4)
		if err != nil {
			return value.Value{}, err
		}
		var m value.Matrix4D
		copy(m[:], rows)
		return value.NewScalar(base, m)
	default:
		tok, _ := p.lex.Peek()
		return value.Value{}, diag.At(diag.KindSchema, tok.Pos, "unknown value type %q", base)
	}
}

// parseTuple parses "(x, y, ...)" with n float components.
func (p *Parser) parseTuple(n int) ([]float64, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	xs := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		f, err := p.parseFloatLiteral()
		if err != nil {
			return nil, err
		}
		xs = append(xs, f)
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return xs, nil
}

// parseMatrixRows parses an n×n matrix literal "( (r0...), (r1...), ... )"
// in row-major order.
func (p *Parser) parseMatrixRows(n int) ([]float64, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	out := make([]float64, 0, n*n)
	for i := 0; i < n; i++ {
		if i > 0 {
			if _, err := p.expectPunct(","); err != nil {
				return nil, err
			}
		}
		row, err := p.parseTuple(n)
		if err != nil {
			return nil, err
		}
		out = append(out, row...)
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Parser) parseFloatLiteral() (float64, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return 0, err
	}
	if tok.Kind != TokNumber {
		return 0, diag.At(diag.KindParse, tok.Pos, "expected number, got %q", tok.Text)
	}
	return parseFloatText(tok.Text), nil
}

func parseFloatText(text string) float64 {
	neg := false
	s := text
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var f float64
	switch s {
	case "inf":
		f = posInf()
	case "nan":
		f = nan()
	default:
		f, _ = strconv.ParseFloat(s, 64)
	}
	if neg {
		f = -f
	}
	return f
}

func (p *Parser) parseIntLiteral(bits int, unsigned bool) (int64, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return 0, err
	}
	if tok.Kind != TokNumber {
		return 0, diag.At(diag.KindParse, tok.Pos, "expected integer, got %q", tok.Text)
	}
	if unsigned {
		n, err := strconv.ParseUint(strings.TrimPrefix(tok.Text, "+"), 10, bits)
		if err != nil {
			return 0, diag.At(diag.KindParse, tok.Pos, "invalid integer literal %q", tok.Text)
		}
		return int64(n), nil
	}
	n, err := strconv.ParseInt(tok.Text, 10, bits)
	if err != nil {
		return 0, diag.At(diag.KindParse, tok.Pos, "invalid integer literal %q", tok.Text)
	}
	return n, nil
}

// parseDictionary parses a "{ type name = value ... }" dictionary literal.
func (p *Parser) parseDictionary() (value.Dictionary, error) {
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	dict := value.Dictionary{}
	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Kind == TokPunct && tok.Text == "}" {
			p.lex.Next()
			break
		}
		typeTok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if typeTok.Kind != TokIdent {
			return nil, diag.At(diag.KindParse, typeTok.Pos, "expected type name in dictionary, got %q", typeTok.Text)
		}
		typeName := typeTok.Text
		if arrTok, _ := p.lex.Peek(); arrTok.Kind == TokPunct && arrTok.Text == "[" {
			p.lex.Next()
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			typeName += "[]"
		}
		nameTok, err := p.expectStringOrIdent()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("="); err != nil {
			return nil, err
		}
		v, err := p.parseValue(typeName)
		if err != nil {
			return nil, err
		}
		dict[nameTok.Text] = value.MetaVariable{Name: nameTok.Text, Type: typeName, Value: v}
	}
	return dict, nil
}
