package ascii

import (
	"strings"

	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
)

// parsePropertyStatement parses one attribute or relationship statement into
// props, preserving first-seen order in *order.
func (p *Parser) parsePropertyStatement(props map[string]*sdf.Property, order *[]string) error {
	edit, err := p.tryListEdit()
	if err != nil {
		return err
	}
	custom := false
	if p.peekIs(TokIdent, "custom") {
		p.lex.Next()
		custom = true
	}
	if p.peekIs(TokIdent, "rel") {
		return p.parseRelationshipStatement(props, order, edit, custom)
	}

	variability := sdf.Varying
	if p.peekIs(TokIdent, "uniform") {
		p.lex.Next()
		variability = sdf.Uniform
	}

	typeTok, err := p.lex.Next()
	if err != nil {
		return err
	}
	if typeTok.Kind != TokIdent {
		return diag.At(diag.KindParse, typeTok.Pos, "expected attribute type, got %q", typeTok.Text)
	}
	typeName := typeTok.Text
	if p.peekIs(TokPunct, "[") {
		p.lex.Next()
		if _, err := p.expectPunct("]"); err != nil {
			return err
		}
		typeName += "[]"
	}

	nameTok, err := p.lex.Next()
	if err != nil {
		return err
	}
	if nameTok.Kind != TokIdent && nameTok.Kind != TokString {
		return diag.At(diag.KindParse, nameTok.Pos, "expected attribute name, got %q", nameTok.Text)
	}
	base, isConnect, isTimeSamples := splitAttrSuffix(nameTok.Text)
	if !pathutil.IsValidPropertyName(base) {
		return diag.At(diag.KindSchema, nameTok.Pos, "invalid attribute name %q", base)
	}

	attr := existingAttribute(props, base)
	attr.TypeName = typeName
	attr.Variability = variability
	attr.IsCustom = custom

	if p.peekIs(TokPunct, "=") {
		p.lex.Next()
		switch {
		case isConnect:
			paths, err := p.parseConnectionTargets()
			if err != nil {
				return err
			}
			attr.Metas.Connections = paths
		case isTimeSamples:
			samples, err := p.parseTimeSamplesDict(typeName)
			if err != nil {
				return err
			}
			attr.PrimVar.IsTimeSamples = true
			attr.PrimVar.Samples = samples
		default:
			if p.peekIs(TokIdent, "None") {
				p.lex.Next()
				attr.IsBlocked = true
			} else {
				v, err := p.parseValue(typeName)
				if err != nil {
					return err
				}
				attr.PrimVar.Scalar = v
			}
		}
	}

	if p.peekIs(TokPunct, "(") {
		if err := p.parseAttrMetas(&attr.Metas); err != nil {
			return err
		}
	}

	if _, exists := props[base]; !exists {
		*order = append(*order, base)
	}
	props[base] = &sdf.Property{Attribute: attr, ListEdit: edit, Custom: custom}
	return nil
}

func existingAttribute(props map[string]*sdf.Property, name string) *sdf.Attribute {
	if existing, ok := props[name]; ok && existing.Attribute != nil {
		return existing.Attribute
	}
	return &sdf.Attribute{Name: name}
}

// splitAttrSuffix separates the ".connect"/".timeSamples" grammar suffix
// from an attribute name, per section 4.5.
func splitAttrSuffix(name string) (base string, isConnect, isTimeSamples bool) {
	if strings.HasSuffix(name, ".connect") {
		return strings.TrimSuffix(name, ".connect"), true, false
	}
	if strings.HasSuffix(name, ".timeSamples") {
		return strings.TrimSuffix(name, ".timeSamples"), false, true
	}
	return name, false, false
}

func (p *Parser) parseConnectionTargets() ([]pathutil.Path, error) {
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

// parseTimeSamplesDict parses "{ time: value, ... }", where each value may
// be "None" to author a block at that time.
func (p *Parser) parseTimeSamplesDict(typeName string) (value.TimeSamples, error) {
	var ts value.TimeSamples
	if _, err := p.expectPunct("{"); err != nil {
		return ts, err
	}
	for !p.peekIs(TokPunct, "}") {
		t, err := p.parseFloatLiteral()
		if err != nil {
			return ts, err
		}
		if _, err := p.expectColon(); err != nil {
			return ts, err
		}
		var v value.Value
		if p.peekIs(TokIdent, "None") {
			p.lex.Next()
			v = value.Block(typeName)
		} else {
			v, err = p.parseValue(typeName)
			if err != nil {
				return ts, err
			}
		}
		ts.Set(t, v)
		if p.peekIs(TokPunct, ",") {
			p.lex.Next()
		}
	}
	if _, err := p.expectPunct("}"); err != nil {
		return ts, err
	}
	return ts, nil
}

// expectColon consumes the ':' separator inside a timeSamples dict. ':' is
// not a general punctuation token (it is swallowed into identifiers
// elsewhere, e.g. namespaced property names), so this takes the next token
// and requires it to be an identifier token whose text is exactly ":".
func (p *Parser) expectColon() (Token, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != TokIdent || tok.Text != ":" {
		return Token{}, diag.At(diag.KindParse, tok.Pos, "expected ':', got %q", tok.Text)
	}
	return tok, nil
}

// parseAttrMetas parses the "( ... )" attribute metadata block.
func (p *Parser) parseAttrMetas(m *sdf.AttrMeta) error {
	if _, err := p.expectPunct("("); err != nil {
		return err
	}
	for !p.peekIs(TokPunct, ")") {
		key, err := p.lex.Next()
		if err != nil {
			return err
		}
		if key.Kind != TokIdent {
			return diag.At(diag.KindParse, key.Pos, "expected attribute meta key, got %q", key.Text)
		}
		switch key.Text {
		case "interpolation":
			v, err := p.metaStringValue()
			if err != nil {
				return err
			}
			m.Interpolation = v
		case "elementSize":
			if _, err := p.expectPunct("="); err != nil {
				return err
			}
			n, err := p.parseIntLiteral(32, true)
			if err != nil {
				return err
			}
			m.ElementSize = uint(n)
			m.HasElemSize = true
		case "colorSpace":
			v, err := p.metaStringValue()
			if err != nil {
				return err
			}
			m.ColorSpace = v
		case "customData":
			if _, err := p.expectPunct("="); err != nil {
				return err
			}
			d, err := p.parseDictionary()
			if err != nil {
				return err
			}
			m.CustomData = d
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

// parseRelationshipStatement parses '[edit] [custom] rel NAME[.connect] [= target] [(metas)]'.
func (p *Parser) parseRelationshipStatement(props map[string]*sdf.Property, order *[]string, edit sdf.ListEditQualifier, custom bool) error {
	p.lex.Next() // 'rel'
	nameTok, err := p.lex.Next()
	if err != nil {
		return err
	}
	base, _, _ := splitAttrSuffix(nameTok.Text)
	if !pathutil.IsValidPropertyName(base) {
		return diag.At(diag.KindSchema, nameTok.Pos, "invalid relationship name %q", base)
	}

	rel := &sdf.Relationship{ListEdit: edit}
	if p.peekIs(TokPunct, "=") {
		p.lex.Next()
		switch {
		case p.peekIs(TokIdent, "None"):
			p.lex.Next()
			rel.Kind = sdf.RelBlocked
		case p.peekIs(TokPunct, "["):
			p.lex.Next()
			for !p.peekIs(TokPunct, "]") {
				tok, err := p.expectPath()
				if err != nil {
					return err
				}
				pth, err := pathutil.Parse("<" + tok.Text + ">")
				if err != nil {
					return diag.At(diag.KindParse, tok.Pos, "%s", err)
				}
				rel.Paths = append(rel.Paths, pth)
				if p.peekIs(TokPunct, ",") {
					p.lex.Next()
				}
			}
			p.lex.Next() // ']'
			rel.Kind = sdf.RelPathList
		case p.peekIs(TokString, ""):
			tok, _ := p.lex.Next()
			rel.StringVal = tok.Text
			rel.Kind = sdf.RelString
		default:
			tok, err := p.expectPath()
			if err != nil {
				return err
			}
			pth, err := pathutil.Parse("<" + tok.Text + ">")
			if err != nil {
				return diag.At(diag.KindParse, tok.Pos, "%s", err)
			}
			rel.Path = pth
			rel.Kind = sdf.RelSinglePath
		}
	}

	if p.peekIs(TokPunct, "(") {
		// Relationship metas are parsed with the attribute meta parser and
		// then discarded as a whole: none of them, customData and doc
		// included, is stored on the Relationship.
		var discard sdf.AttrMeta
		if err := p.parseAttrMetas(&discard); err != nil {
			return err
		}
	}

	if _, exists := props[base]; !exists {
		*order = append(*order, base)
	}
	props[base] = &sdf.Property{Relationship: rel, ListEdit: edit, Custom: custom}
	return nil
}
