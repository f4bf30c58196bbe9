package ascii

import (
	"strings"

	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
)

// Parser is a recursive-descent reader over one USDA document. It does not
// attempt error recovery: the first malformed statement aborts the parse,
// matching the teacher's obj.Decoder, which also stops at the first
// unparsable line rather than trying to resynchronize.
type Parser struct {
	lex      *Lexer
	warnings diag.List
}

// Parse reads src (a complete USDA document, magic header included) into a
// Layer. sourceIdentifier is recorded as the Layer's SourceIdentifier; the
// composition engine's cycle guard tracks resolved asset paths instead.
func Parse(src, sourceIdentifier string) (*sdf.Layer, *diag.List, error) {
	version, body, err := stripMagicHeader(src)
	if err != nil {
		return nil, nil, err
	}
	_ = version
	p := &Parser{lex: NewLexer(body)}
	layer := sdf.NewLayer(sourceIdentifier)

	if tok, err := p.lex.Peek(); err != nil {
		return nil, nil, err
	} else if tok.Kind == TokPunct && tok.Text == "(" {
		if err := p.parseLayerMetas(&layer.Metas); err != nil {
			return nil, nil, err
		}
	}

	for {
		tok, err := p.lex.Peek()
		if err != nil {
			return nil, nil, err
		}
		if tok.Kind == TokEOF {
			break
		}
		prim, err := p.parsePrimStatement()
		if err != nil {
			return nil, nil, err
		}
		layer.RootPrimSpecs = append(layer.RootPrimSpecs, prim)
	}
	return layer, &p.warnings, nil
}

// stripMagicHeader validates and removes the "#usda <version>" line required
// at the start of every USDA document (section 4.5), returning the version
// literal and the remaining source.
func stripMagicHeader(src string) (version, rest string, err error) {
	trimmed := strings.TrimLeft(src, " \t\r\n")
	if !strings.HasPrefix(trimmed, "#usda") {
		return "", "", diag.New(diag.KindFormat, "missing '#usda' magic header")
	}
	nl := strings.IndexByte(trimmed, '\n')
	var line string
	if nl < 0 {
		line, rest = trimmed, ""
	} else {
		line, rest = trimmed[:nl], trimmed[nl+1:]
	}
	version = strings.TrimSpace(strings.TrimPrefix(line, "#usda"))
	version = strings.Trim(version, `"`)
	if version == "" {
		return "", "", diag.New(diag.KindFormat, "missing version in '#usda' header")
	}
	return version, rest, nil
}

func (p *Parser) expectPunct(text string) (Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != TokPunct || tok.Text != text {
		return Token{}, diag.At(diag.KindParse, tok.Pos, "expected %q, got %q", text, tok.Text)
	}
	return tok, nil
}

func (p *Parser) expectString() (Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != TokString {
		return Token{}, diag.At(diag.KindParse, tok.Pos, "expected string literal, got %q", tok.Text)
	}
	return tok, nil
}

func (p *Parser) expectStringOrIdent() (Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != TokString && tok.Kind != TokIdent {
		return Token{}, diag.At(diag.KindParse, tok.Pos, "expected identifier, got %q", tok.Text)
	}
	return tok, nil
}

func (p *Parser) expectAsset() (Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != TokAsset {
		return Token{}, diag.At(diag.KindParse, tok.Pos, "expected asset path literal, got %q", tok.Text)
	}
	return tok, nil
}

func (p *Parser) expectPath() (Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != TokPath {
		return Token{}, diag.At(diag.KindParse, tok.Pos, "expected path literal, got %q", tok.Text)
	}
	return tok, nil
}

func (p *Parser) peekIs(kind TokKind, text string) bool {
	tok, err := p.lex.Peek()
	if err != nil {
		return false
	}
	return tok.Kind == kind && (text == "" || tok.Text == text)
}

// tryListEdit consumes and returns a leading list-edit keyword
// (add/delete/prepend/append/reorder), defaulting to Explicit.
func (p *Parser) tryListEdit() (sdf.ListEditQualifier, error) {
	tok, err := p.lex.Peek()
	if err != nil {
		return sdf.Explicit, err
	}
	if tok.Kind != TokIdent {
		return sdf.Explicit, nil
	}
	switch tok.Text {
	case "add":
		p.lex.Next()
		return sdf.Add, nil
	case "delete":
		p.lex.Next()
		return sdf.Delete, nil
	case "prepend":
		p.lex.Next()
		return sdf.Prepend, nil
	case "append":
		p.lex.Next()
		return sdf.Append, nil
	case "reorder":
		p.lex.Next()
		return sdf.Reorder, nil
	default:
		return sdf.Explicit, nil
	}
}

// parseLayerMetas parses the stage-level "( ... )" metadata block.
func (p *Parser) parseLayerMetas(m *sdf.LayerMetas) error {
	if _, err := p.expectPunct("("); err != nil {
		return err
	}
	for !p.peekIs(TokPunct, ")") {
		key, err := p.lex.Next()
		if err != nil {
			return err
		}
		if key.Kind != TokIdent {
			return diag.At(diag.KindParse, key.Pos, "expected stage meta key, got %q", key.Text)
		}
		switch key.Text {
		case "subLayers":
			if _, err := p.expectPunct("="); err != nil {
				return err
			}
			if _, err := p.expectPunct("["); err != nil {
				return err
			}
			for !p.peekIs(TokPunct, "]") {
				a, err := p.expectAsset()
				if err != nil {
					return err
				}
				m.SubLayers = append(m.SubLayers, a.Text)
				var off *value.LayerOffset
				if p.peekIs(TokPunct, "(") {
					off, err = p.parseLayerOffsetMeta()
					if err != nil {
						return err
					}
				}
				m.SubLayerOffsets = append(m.SubLayerOffsets, off)
				if p.peekIs(TokPunct, ",") {
					p.lex.Next()
				}
			}
			if _, err := p.expectPunct("]"); err != nil {
				return err
			}
		case "defaultPrim":
			v, err := p.metaStringValue()
			if err != nil {
				return err
			}
			m.DefaultPrim = v
		case "doc":
			v, err := p.metaStringValue()
			if err != nil {
				return err
			}
			m.Doc = v
		case "upAxis":
			v, err := p.metaStringValue()
			if err != nil {
				return err
			}
			m.UpAxis = sdf.UpAxisFromString(v)
			m.HasUpAxis = true
		case "metersPerUnit":
			f, err := p.metaFloatValue()
			if err != nil {
				return err
			}
			m.MetersPerUnit = f
			m.HasMetersPerUnit = true
		case "timeCodesPerSecond":
			f, err := p.metaFloatValue()
			if err != nil {
				return err
			}
			m.TimeCodesPerSecond = f
		case "framesPerSecond":
			f, err := p.metaFloatValue()
			if err != nil {
				return err
			}
			m.FramesPerSecond = f
		case "startTimeCode":
			f, err := p.metaFloatValue()
			if err != nil {
				return err
			}
			m.StartTimeCode = f
		case "endTimeCode":
			f, err := p.metaFloatValue()
			if err != nil {
				return err
			}
			m.EndTimeCode = f
		case "customLayerData":
			if _, err := p.expectPunct("="); err != nil {
				return err
			}
			d, err := p.parseDictionary()
			if err != nil {
				return err
			}
			m.CustomLayerData = d
		default:
			mv, err := p.parseGenericMeta(key.Text)
			if err != nil {
				return err
			}
			if m.Extra == nil {
				m.Extra = make(map[string]value.MetaVariable)
			}
			m.Extra[key.Text] = mv
		}
	}
	_, err := p.expectPunct(")")
	return err
}

func (p *Parser) parseLayerOffsetMeta() (*value.LayerOffset, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	off := &value.LayerOffset{Scale: 1}
	for !p.peekIs(TokPunct, ")") {
		key, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct("="); err != nil {
			return nil, err
		}
		f, err := p.parseFloatLiteral()
		if err != nil {
			return nil, err
		}
		switch key.Text {
		case "offset":
			off.Offset = f
		case "scale":
			off.Scale = f
		}
	}
	_, err := p.expectPunct(")")
	return off, err
}

func (p *Parser) metaStringValue() (string, error) {
	if _, err := p.expectPunct("="); err != nil {
		return "", err
	}
	tok, err := p.expectString()
	if err != nil {
		return "", err
	}
	return tok.Text, nil
}

func (p *Parser) metaFloatValue() (float64, error) {
	if _, err := p.expectPunct("="); err != nil {
		return 0, err
	}
	return p.parseFloatLiteral()
}

// parseGenericMeta parses an unrecognized "key = <value>" metadata entry by
// sniffing the value's lexical shape, since its declared USD type name is
// not given in a metadata block (unlike typed attribute statements).
func (p *Parser) parseGenericMeta(name string) (value.MetaVariable, error) {
	if _, err := p.expectPunct("="); err != nil {
		return value.MetaVariable{}, err
	}
	tok, err := p.lex.Peek()
	if err != nil {
		return value.MetaVariable{}, err
	}
	switch {
	case tok.Kind == TokString:
		p.lex.Next()
		v, _ := value.NewScalar("string", tok.Text)
		return value.MetaVariable{Name: name, Type: "string", Value: v}, nil
	case tok.Kind == TokNumber:
		f, err := p.parseFloatLiteral()
		if err != nil {
			return value.MetaVariable{}, err
		}
		v, _ := value.NewScalar("double", f)
		return value.MetaVariable{Name: name, Type: "double", Value: v}, nil
	case tok.Kind == TokIdent && (tok.Text == "true" || tok.Text == "false"):
		p.lex.Next()
		v, _ := value.NewScalar("bool", tok.Text == "true")
		return value.MetaVariable{Name: name, Type: "bool", Value: v}, nil
	case tok.Kind == TokPunct && tok.Text == "{":
		d, err := p.parseDictionary()
		if err != nil {
			return value.MetaVariable{}, err
		}
		v, _ := value.NewScalar("dictionary", d)
		return value.MetaVariable{Name: name, Type: "dictionary", Value: v}, nil
	case tok.Kind == TokPunct && tok.Text == "[":
		p.lex.Next()
		elems, err := p.parseScalarList("string", "]")
		if err != nil {
			return value.MetaVariable{}, err
		}
		if _, err := p.expectPunct("]"); err != nil {
			return value.MetaVariable{}, err
		}
		v, _ := buildArray("string", elems)
		return value.MetaVariable{Name: name, Type: "string[]", Value: v}, nil
	default:
		p.lex.Next()
		v, _ := value.NewScalar("string", tok.Text)
		return value.MetaVariable{Name: name, Type: "string", Value: v}, nil
	}
}

// parsePrimStatement parses one "def|over|class Type? "name" (metas)? { ... }"
// block.
func (p *Parser) parsePrimStatement() (*sdf.PrimSpec, error) {
	specTok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	var specifier sdf.Specifier
	switch specTok.Text {
	case "def":
		specifier = sdf.Def
	case "over":
		specifier = sdf.Over
	case "class":
		specifier = sdf.Class
	default:
		return nil, diag.At(diag.KindParse, specTok.Pos, "expected 'def', 'over' or 'class', got %q", specTok.Text)
	}

	var typeName string
	tok, err := p.lex.Peek()
	if err != nil {
		return nil, err
	}
	if tok.Kind == TokIdent {
		typeName = tok.Text
		p.lex.Next()
	}
	nameTok, err := p.expectString()
	if err != nil {
		return nil, err
	}
	if !pathutil.IsValidIdentifier(nameTok.Text) {
		return nil, diag.At(diag.KindSchema, nameTok.Pos, "invalid prim name %q", nameTok.Text)
	}

	prim := sdf.New(nameTok.Text, specifier)
	prim.TypeName = typeName

	if p.peekIs(TokPunct, "(") {
		if err := p.parsePrimMetas(&prim.Metas); err != nil {
			return nil, err
		}
	}

	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	if err := p.parsePrimBody(prim); err != nil {
		return nil, err
	}
	if !prim.CheckUniqueChildNames() {
		p.warnings.AddAt(nameTok.Pos, "duplicate child prim name under %q", nameTok.Text)
	}
	return prim, nil
}

func (p *Parser) parsePrimBody(prim *sdf.PrimSpec) error {
	for !p.peekIs(TokPunct, "}") {
		tok, err := p.lex.Peek()
		if err != nil {
			return err
		}
		if tok.Kind == TokEOF {
			return diag.At(diag.KindParse, tok.Pos, "unexpected end of file inside %q", prim.Name)
		}
		switch {
		case tok.Kind == TokIdent && (tok.Text == "def" || tok.Text == "over" || tok.Text == "class"):
			child, err := p.parsePrimStatement()
			if err != nil {
				return err
			}
			if !prim.AddChild(child) {
				p.warnings.AddAt(tok.Pos, "duplicate child prim name %q", child.Name)
			}
		case tok.Kind == TokIdent && tok.Text == "variantSet":
			if err := p.parseVariantSetStatement(prim); err != nil {
				return err
			}
		default:
			if err := p.parsePropertyStatement(prim.Properties, &prim.PropertyOrder); err != nil {
				return err
			}
		}
	}
	return p.consumePunct("}")
}

func (p *Parser) consumePunct(text string) error {
	_, err := p.expectPunct(text)
	return err
}

// parseVariantSetStatement parses 'variantSet "name" = { "variant" { ... } ... }'.
func (p *Parser) parseVariantSetStatement(prim *sdf.PrimSpec) error {
	p.lex.Next() // 'variantSet'
	nameTok, err := p.expectString()
	if err != nil {
		return err
	}
	if _, err := p.expectPunct("="); err != nil {
		return err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return err
	}
	for !p.peekIs(TokPunct, "}") {
		variantTok, err := p.expectString()
		if err != nil {
			return err
		}
		if _, err := p.expectPunct("{"); err != nil {
			return err
		}
		content := sdf.NewVariantContent()
		if err := p.parseVariantBody(content); err != nil {
			return err
		}
		prim.AddVariant(nameTok.Text, variantTok.Text, content)
	}
	return p.consumePunct("}")
}

func (p *Parser) parseVariantBody(content *sdf.VariantContent) error {
	for !p.peekIs(TokPunct, "}") {
		tok, err := p.lex.Peek()
		if err != nil {
			return err
		}
		if tok.Kind == TokEOF {
			return diag.At(diag.KindParse, tok.Pos, "unexpected end of file inside variant")
		}
		if tok.Kind == TokIdent && (tok.Text == "def" || tok.Text == "over" || tok.Text == "class") {
			child, err := p.parsePrimStatement()
			if err != nil {
				return err
			}
			content.Children = append(content.Children, child)
			continue
		}
		if err := p.parsePropertyStatement(content.Properties, &content.PropertyOrder); err != nil {
			return err
		}
	}
	return p.consumePunct("}")
}

// parsePrimMetas parses the "( ... )" prim metadata block.
func (p *Parser) parsePrimMetas(m *sdf.PrimMetaMap) error {
	if _, err := p.expectPunct("("); err != nil {
		return err
	}
	for !p.peekIs(TokPunct, ")") {
		edit, err := p.tryListEdit()
		if err != nil {
			return err
		}
		key, err := p.lex.Next()
		if err != nil {
			return err
		}
		if key.Kind != TokIdent {
			return diag.At(diag.KindParse, key.Pos, "expected prim meta key, got %q", key.Text)
		}
		switch key.Text {
		case "kind":
			v, err := p.metaStringValue()
			if err != nil {
				return err
			}
			m.Kind = v
		case "doc":
			v, err := p.metaStringValue()
			if err != nil {
				return err
			}
			m.Doc = v
		case "active":
			if _, err := p.expectPunct("="); err != nil {
				return err
			}
			b, err := p.parseScalarValue("bool")
			if err != nil {
				return err
			}
			bv, _ := value.Get[bool](b)
			m.Active = &bv
		case "hidden":
			if _, err := p.expectPunct("="); err != nil {
				return err
			}
			b, err := p.parseScalarValue("bool")
			if err != nil {
				return err
			}
			bv, _ := value.Get[bool](b)
			m.Hidden = &bv
		case "references":
			refs, err := p.parseReferenceList()
			if err != nil {
				return err
			}
			m.References = append(m.References, refs...)
			m.ReferencesEdit = edit
		case "payload":
			refs, err := p.parseReferenceList()
			if err != nil {
				return err
			}
			m.Payload = append(m.Payload, refs...)
			m.PayloadEdit = edit
		case "inherits":
			paths, err := p.parsePathList()
			if err != nil {
				return err
			}
			m.Inherits = append(m.Inherits, paths...)
			m.InheritsEdit = edit
		case "specializes":
			paths, err := p.parsePathList()
			if err != nil {
				return err
			}
			m.Specializes = append(m.Specializes, paths...)
			m.SpecializesEdit = edit
		case "variantSets":
			names, err := p.parseStringList()
			if err != nil {
				return err
			}
			m.VariantSetNames = append(m.VariantSetNames, names...)
		case "variants":
			if _, err := p.expectPunct("="); err != nil {
				return err
			}
			d, err := p.parseDictionary()
			if err != nil {
				return err
			}
			if m.Variants == nil {
				m.Variants = make(map[string]string)
			}
			for k, mv := range d {
				if s, ok := value.Get[string](mv.Value); ok {
					m.Variants[k] = s
				}
			}
		case "apiSchemas":
			names, err := p.parseStringList()
			if err != nil {
				return err
			}
			m.APISchemas = append(m.APISchemas, names...)
		case "customData":
			if _, err := p.expectPunct("="); err != nil {
				return err
			}
			d, err := p.parseDictionary()
			if err != nil {
				return err
			}
			m.CustomData = d
		case "assetInfo":
			if _, err := p.expectPunct("="); err != nil {
				return err
			}
			d, err := p.parseDictionary()
			if err != nil {
				return err
			}
			m.AssetInfo = d
		default:
			mv, err := p.parseGenericMeta(key.Text)
			if err != nil {
				return err
			}
			if m.Extra == nil {
				m.Extra = make(map[string]value.MetaVariable)
			}
			m.Extra[key.Text] = mv
		}
	}
	_, err := p.expectPunct(")")
	return err
}

func (p *Parser) parseStringList() ([]string, error) {
	if _, err := p.expectPunct("="); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var out []string
	for !p.peekIs(TokPunct, "]") {
		tok, err := p.expectString()
		if err != nil {
			return nil, err
		}
		out = append(out, tok.Text)
		if p.peekIs(TokPunct, ",") {
			p.lex.Next()
		}
	}
	_, err := p.expectPunct("]")
	return out, err
}

func (p *Parser) parsePathList() ([]pathutil.Path, error) {
	if _, err := p.expectPunct("="); err != nil {
		return nil, err
	}
	single := true
	if p.peekIs(TokPunct, "[") {
		p.lex.Next()
		single = false
	}
	var out []pathutil.Path
	for {
		if !single && p.peekIs(TokPunct, "]") {
			break
		}
		tok, err := p.expectPath()
		if err != nil {
			return nil, err
		}
		pth, err := pathutil.Parse("<" + tok.Text + ">")
		if err != nil {
			return nil, diag.At(diag.KindParse, tok.Pos, "%s", err)
		}
		out = append(out, pth)
		if single {
			break
		}
		if p.peekIs(TokPunct, ",") {
			p.lex.Next()
			continue
		}
		break
	}
	if !single {
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Parser) parseReferenceList() ([]value.Reference, error) {
	if _, err := p.expectPunct("="); err != nil {
		return nil, err
	}
	single := true
	if p.peekIs(TokPunct, "[") {
		p.lex.Next()
		single = false
	}
	var out []value.Reference
	for {
		if !single && p.peekIs(TokPunct, "]") {
			break
		}
		if single && p.peekIs(TokIdent, "None") {
			p.lex.Next()
			break
		}
		ref, err := p.parseOneReference()
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
		if single {
			break
		}
		if p.peekIs(TokPunct, ",") {
			p.lex.Next()
			continue
		}
		break
	}
	if !single {
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (p *Parser) parseOneReference() (value.Reference, error) {
	assetTok, err := p.expectAsset()
	if err != nil {
		return value.Reference{}, err
	}
	ref := value.Reference{AssetPath: value.AssetPath{Raw: assetTok.Text, Triple: assetTok.Triple}}
	if p.peekIs(TokPath, "") {
		pathTok, _ := p.lex.Next()
		pth, err := pathutil.Parse(pathTok.Text)
		if err != nil {
			return value.Reference{}, diag.At(diag.KindParse, pathTok.Pos, "%s", err)
		}
		ref.PrimPath = &pth
	}
	if p.peekIs(TokPunct, "(") {
		off, err := p.parseLayerOffsetMeta()
		if err != nil {
			return value.Reference{}, err
		}
		ref.LayerOffset = off
	}
	return ref, nil
}
