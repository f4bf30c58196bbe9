package crate

import (
	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
)

// Materialize walks the SPECS table in declaration order (section 4.10's
// "MaterializeSpecs" state) and builds the same *sdf.Layer shape the ascii
// reader produces: specs attach to PrimSpecs looked up (and created, if not
// yet seen) by their resolved Path, exactly as the design note in section
// 4.6 describes ("looking each path up in the decoded path table").
func (r *Reader) Materialize(s *sections, sourceIdentifier string) (*sdf.Layer, *diag.List, error) {
	layer := sdf.NewLayer(sourceIdentifier)
	warnings := &diag.List{}
	byPath := map[string]*sdf.PrimSpec{}
	pathCache := map[int64]pathutil.Path{}

	for _, sp := range s.specs {
		p, err := resolvePath(s.paths, s.tokens, int64(sp.PathIdx), pathCache)
		if err != nil {
			return nil, nil, err
		}
		fields, err := collectFields(s, sp.FieldSetIdx)
		if err != nil {
			return nil, nil, err
		}

		switch sp.Type {
		case SpecPseudoRoot:
			if err := applyLayerMetas(layer, fields, s, warnings); err != nil {
				return nil, nil, err
			}
		case SpecPrim, SpecVariant, SpecVariantSet:
			prim := findOrCreatePrim(layer, byPath, p)
			if err := applyPrimFields(prim, fields, s, warnings, p.String()); err != nil {
				return nil, nil, err
			}
		case SpecAttribute:
			parent := findOrCreatePrim(layer, byPath, p.PrimPath())
			attr, err := buildAttribute(p.Prop, fields, s)
			if err != nil {
				return nil, nil, err
			}
			parent.AddProperty(p.Prop, &attr)
		case SpecRelationship:
			parent := findOrCreatePrim(layer, byPath, p.PrimPath())
			rel := buildRelationship(fields, s)
			parent.AddProperty(p.Prop, &sdf.Property{Relationship: rel})
		default:
			warnings.Add("spec %s: unknown spec type %d ignored", p, sp.Type)
		}
	}
	return layer, warnings, nil
}

func collectFields(s *sections, fieldSetIdx uint32) ([]field, error) {
	if int(fieldSetIdx) >= len(s.fieldSets) {
		return nil, errIntegrity(SectionFieldSets, int64(fieldSetIdx), "fieldset index out of range")
	}
	idxs := s.fieldSets[fieldSetIdx]
	out := make([]field, 0, len(idxs))
	for _, fi := range idxs {
		if int(fi) >= len(s.fields) {
			return nil, errIntegrity(SectionFields, int64(fi), "field index out of range")
		}
		out = append(out, s.fields[fi])
	}
	return out, nil
}

func fieldName(s *sections, f field) string {
	if int(f.NameIdx) >= len(s.tokens) {
		return ""
	}
	return s.tokens[f.NameIdx]
}

func findOrCreatePrim(layer *sdf.Layer, byPath map[string]*sdf.PrimSpec, p pathutil.Path) *sdf.PrimSpec {
	key := p.String()
	if existing, ok := byPath[key]; ok {
		return existing
	}
	if p.IsRoot() || len(p.Components) == 0 {
		// Unreachable via well-formed specs (the pseudo-root spec carries no
		// PrimSpec of its own), but guards against a malformed path table.
		root := sdf.New("", sdf.Def)
		byPath[key] = root
		return root
	}
	name := p.Components[len(p.Components)-1].Name
	node := sdf.New(name, sdf.Over)
	byPath[key] = node

	parentPath := p.ParentPath()
	if len(parentPath.Components) == 0 {
		layer.RootPrimSpecs = append(layer.RootPrimSpecs, node)
		return node
	}
	parent := findOrCreatePrim(layer, byPath, parentPath)
	parent.AddChild(node)
	return node
}

func applyLayerMetas(layer *sdf.Layer, fields []field, s *sections, warnings *diag.List) error {
	for _, f := range fields {
		name := fieldName(s, f)
		v, err := DecodeValue(f.Rep, s)
		if err != nil {
			return err
		}
		switch name {
		case "defaultPrim":
			if t, ok := value.Get[pathutil.Token](v); ok {
				layer.Metas.DefaultPrim = t.String()
			}
		case "upAxis":
			if t, ok := value.Get[pathutil.Token](v); ok {
				layer.Metas.UpAxis = sdf.UpAxisFromString(t.String())
				layer.Metas.HasUpAxis = true
			}
		case "metersPerUnit":
			if d, ok := value.Get[float64](v); ok {
				layer.Metas.MetersPerUnit = d
				layer.Metas.HasMetersPerUnit = true
			}
		case "documentation", "doc":
			if str, ok := value.Get[string](v); ok {
				layer.Metas.Doc = str
			}
		case "timeCodesPerSecond":
			if d, ok := value.Get[float64](v); ok {
				layer.Metas.TimeCodesPerSecond = d
			}
		case "startTimeCode":
			if d, ok := value.Get[float64](v); ok {
				layer.Metas.StartTimeCode = d
			}
		case "endTimeCode":
			if d, ok := value.Get[float64](v); ok {
				layer.Metas.EndTimeCode = d
			}
		default:
			diagWarnIfFieldUnknown(warnings, "/", name)
		}
	}
	return nil
}

func applyPrimFields(prim *sdf.PrimSpec, fields []field, s *sections, warnings *diag.List, pathStr string) error {
	for _, f := range fields {
		name := fieldName(s, f)
		v, err := DecodeValue(f.Rep, s)
		if err != nil {
			return err
		}
		switch name {
		case "typeName":
			if t, ok := value.Get[pathutil.Token](v); ok {
				prim.TypeName = t.String()
			}
		case "specifier":
			if n, ok := value.Get[int32](v); ok {
				prim.Specifier = sdf.Specifier(n)
			}
		case "kind":
			if t, ok := value.Get[pathutil.Token](v); ok {
				prim.Metas.Kind = t.String()
			}
		case "documentation", "doc":
			if str, ok := value.Get[string](v); ok {
				prim.Metas.Doc = str
			}
		default:
			diagWarnIfFieldUnknown(warnings, pathStr, name)
		}
	}
	return nil
}

func buildAttribute(name string, fields []field, s *sections) (sdf.Property, error) {
	attr := &sdf.Attribute{Name: name}
	prop := sdf.Property{Attribute: attr}
	for _, f := range fields {
		fn := fieldName(s, f)
		switch fn {
		case "typeName":
			v, err := DecodeValue(f.Rep, s)
			if err != nil {
				return sdf.Property{}, err
			}
			if t, ok := value.Get[pathutil.Token](v); ok {
				attr.TypeName = t.String()
			}
		case "variability":
			v, err := DecodeValue(f.Rep, s)
			if err != nil {
				return sdf.Property{}, err
			}
			if n, ok := value.Get[int32](v); ok {
				attr.Variability = sdf.Variability(n)
			}
		case "custom":
			v, err := DecodeValue(f.Rep, s)
			if err != nil {
				return sdf.Property{}, err
			}
			if b, ok := value.Get[bool](v); ok {
				prop.Custom = b
			}
		case "default":
			v, err := DecodeValue(f.Rep, s)
			if err != nil {
				return sdf.Property{}, err
			}
			attr.PrimVar.Scalar = v
		}
	}
	return prop, nil
}

func buildRelationship(fields []field, s *sections) *sdf.Relationship {
	rel := &sdf.Relationship{}
	for _, f := range fields {
		fn := fieldName(s, f)
		if fn != "targetPaths" && fn != "targetPath" {
			continue
		}
		v, err := DecodeValue(f.Rep, s)
		if err != nil {
			continue
		}
		if p, ok := value.Get[pathutil.Path](v); ok {
			rel.Kind = sdf.RelSinglePath
			rel.Path = p
			continue
		}
		if ps, ok := value.Get[[]pathutil.Path](v); ok {
			rel.Kind = sdf.RelPathList
			rel.Paths = ps
		}
	}
	return rel
}
