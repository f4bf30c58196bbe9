package ascii

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
)

// Print renders layer back to USDA text. Re-parsing the output yields the
// same prims (specifier, type name, children), the layer metas written by
// writeLayerMetas, the prim metas written by primMetaLines, attribute
// values (scalar or time-sampled), relationship targets and variant sets.
// Formatting (indentation, blank lines) is not guaranteed stable across
// versions. Print does not write framesPerSecond, unrecognized ("Extra")
// metas, sublayer or reference layer offsets, list-edit qualifiers,
// attribute metas (interpolation, elementSize, colorSpace, customData) or
// ".connect" targets, so these are absent after a re-parse; an attribute
// declared without a value is written as "= None" and re-parses as
// blocked.
func Print(layer *sdf.Layer) string {
	var b strings.Builder
	b.WriteString("#usda 1.0\n")
	writeLayerMetas(&b, &layer.Metas)
	for _, prim := range layer.RootPrimSpecs {
		writePrim(&b, prim, 0)
	}
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("    ")
	}
}

func writeLayerMetas(b *strings.Builder, m *sdf.LayerMetas) {
	var lines []string
	if m.DefaultPrim != "" {
		lines = append(lines, fmt.Sprintf("defaultPrim = %s", pathutil.EscapeAndQuote(m.DefaultPrim)))
	}
	if m.HasUpAxis {
		lines = append(lines, fmt.Sprintf("upAxis = %s", pathutil.EscapeAndQuote(string(m.UpAxis))))
	}
	if m.HasMetersPerUnit {
		lines = append(lines, fmt.Sprintf("metersPerUnit = %s", formatFloat(m.MetersPerUnit)))
	}
	if m.Doc != "" {
		lines = append(lines, fmt.Sprintf("doc = %s", pathutil.EscapeAndQuote(m.Doc)))
	}
	if len(m.SubLayers) > 0 {
		var paths []string
		for _, s := range m.SubLayers {
			paths = append(paths, "@"+s+"@")
		}
		lines = append(lines, fmt.Sprintf("subLayers = [%s]", strings.Join(paths, ", ")))
	}
	if m.TimeCodesPerSecond != 0 {
		lines = append(lines, fmt.Sprintf("timeCodesPerSecond = %s", formatFloat(m.TimeCodesPerSecond)))
	}
	if m.StartTimeCode != 0 {
		lines = append(lines, fmt.Sprintf("startTimeCode = %s", formatFloat(m.StartTimeCode)))
	}
	if m.EndTimeCode != 0 {
		lines = append(lines, fmt.Sprintf("endTimeCode = %s", formatFloat(m.EndTimeCode)))
	}
	if len(m.CustomLayerData) > 0 {
		lines = append(lines, fmt.Sprintf("customLayerData = %s", formatDictionary(m.CustomLayerData)))
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString("(\n")
	for _, l := range lines {
		b.WriteString("    " + l + "\n")
	}
	b.WriteString(")\n\n")
}

func writePrim(b *strings.Builder, prim *sdf.PrimSpec, depth int) {
	indent(b, depth)
	b.WriteString(prim.Specifier.String())
	if prim.TypeName != "" {
		b.WriteString(" " + prim.TypeName)
	}
	b.WriteString(" " + pathutil.EscapeAndQuote(prim.Name))

	metaLines := primMetaLines(&prim.Metas)
	if len(metaLines) > 0 {
		b.WriteString(" (\n")
		for _, l := range metaLines {
			indent(b, depth+1)
			b.WriteString(l + "\n")
		}
		indent(b, depth)
		b.WriteString(")")
	}
	b.WriteString("\n")
	indent(b, depth)
	b.WriteString("{\n")

	for _, name := range prim.PropertyOrder {
		writeProperty(b, name, prim.Properties[name], depth+1)
	}
	for _, setName := range prim.VariantSetOrder {
		writeVariantSet(b, setName, prim.VariantSets[setName], prim.VariantOrder[setName], depth+1)
	}
	for _, child := range prim.Children {
		writePrim(b, child, depth+1)
	}

	indent(b, depth)
	b.WriteString("}\n")
}

func primMetaLines(m *sdf.PrimMetaMap) []string {
	var lines []string
	if m.Kind != "" {
		lines = append(lines, fmt.Sprintf("kind = %s", pathutil.EscapeAndQuote(m.Kind)))
	}
	if m.Doc != "" {
		lines = append(lines, fmt.Sprintf("doc = %s", pathutil.EscapeAndQuote(m.Doc)))
	}
	if len(m.Inherits) > 0 {
		lines = append(lines, fmt.Sprintf("inherits = %s", formatPathList(m.Inherits)))
	}
	if len(m.Specializes) > 0 {
		lines = append(lines, fmt.Sprintf("specializes = %s", formatPathList(m.Specializes)))
	}
	if len(m.References) > 0 {
		lines = append(lines, fmt.Sprintf("references = %s", formatReferenceList(m.References)))
	}
	if len(m.Payload) > 0 {
		lines = append(lines, fmt.Sprintf("payload = %s", formatReferenceList(m.Payload)))
	}
	if len(m.VariantSetNames) > 0 {
		var names []string
		for _, n := range m.VariantSetNames {
			names = append(names, pathutil.EscapeAndQuote(n))
		}
		lines = append(lines, fmt.Sprintf("variantSets = [%s]", strings.Join(names, ", ")))
	}
	if len(m.Variants) > 0 {
		var parts []string
		for set, sel := range m.Variants {
			parts = append(parts, fmt.Sprintf("string %s = %s", pathutil.EscapeAndQuote(set), pathutil.EscapeAndQuote(sel)))
		}
		lines = append(lines, fmt.Sprintf("variants = {\n        %s\n    }", strings.Join(parts, "\n        ")))
	}
	if m.Active != nil {
		lines = append(lines, fmt.Sprintf("active = %v", *m.Active))
	}
	if m.Hidden != nil {
		lines = append(lines, fmt.Sprintf("hidden = %v", *m.Hidden))
	}
	if len(m.APISchemas) > 0 {
		var names []string
		for _, n := range m.APISchemas {
			names = append(names, pathutil.EscapeAndQuote(n))
		}
		lines = append(lines, fmt.Sprintf("apiSchemas = [%s]", strings.Join(names, ", ")))
	}
	if len(m.CustomData) > 0 {
		lines = append(lines, fmt.Sprintf("customData = %s", formatDictionary(m.CustomData)))
	}
	if len(m.AssetInfo) > 0 {
		lines = append(lines, fmt.Sprintf("assetInfo = %s", formatDictionary(m.AssetInfo)))
	}
	return lines
}

func formatPathList(paths []pathutil.Path) string {
	var parts []string
	for _, p := range paths {
		parts = append(parts, formatTarget(p))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatTarget(p pathutil.Path) string {
	tp := p
	tp.IsTarget = true
	return tp.String()
}

func formatReferenceList(refs []value.Reference) string {
	var parts []string
	for _, r := range refs {
		s := r.AssetPath.String()
		if r.PrimPath != nil {
			s += formatTarget(*r.PrimPath)
		}
		parts = append(parts, s)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func writeVariantSet(b *strings.Builder, setName string, variants map[string]*sdf.VariantContent, order []string, depth int) {
	indent(b, depth)
	b.WriteString(fmt.Sprintf("variantSet %s = {\n", pathutil.EscapeAndQuote(setName)))
	for _, name := range order {
		content := variants[name]
		indent(b, depth+1)
		b.WriteString(fmt.Sprintf("%s {\n", pathutil.EscapeAndQuote(name)))
		for _, pname := range content.PropertyOrder {
			writeProperty(b, pname, content.Properties[pname], depth+2)
		}
		for _, child := range content.Children {
			writePrim(b, child, depth+2)
		}
		indent(b, depth+1)
		b.WriteString("}\n")
	}
	indent(b, depth)
	b.WriteString("}\n")
}

func writeProperty(b *strings.Builder, name string, prop *sdf.Property, depth int) {
	indent(b, depth)
	if prop.IsRelationship() {
		writeRelationship(b, name, prop)
		return
	}
	attr := prop.Attribute
	if attr == nil {
		b.WriteString("\n")
		return
	}
	if prop.Custom {
		b.WriteString("custom ")
	}
	if attr.Variability == sdf.Uniform {
		b.WriteString("uniform ")
	}
	b.WriteString(attr.TypeName + " " + name)
	if attr.IsBlocked {
		b.WriteString(" = None\n")
		return
	}
	if attr.PrimVar.IsTimeSamples {
		b.WriteString(".timeSamples = {\n")
		attr.PrimVar.Samples.Range(func(t float64, v value.Value) bool {
			indent(b, depth+1)
			s, _ := FormatValue(v)
			b.WriteString(fmt.Sprintf("%s: %s,\n", formatFloat(t), s))
			return true
		})
		indent(b, depth)
		b.WriteString("}\n")
		return
	}
	s, err := FormatValue(attr.PrimVar.Scalar)
	if err != nil {
		s = "None"
	}
	b.WriteString(" = " + s + "\n")
}

func writeRelationship(b *strings.Builder, name string, prop *sdf.Property) {
	rel := prop.Relationship
	if prop.Custom {
		b.WriteString("custom ")
	}
	b.WriteString("rel " + name)
	switch rel.Kind {
	case sdf.RelBlocked:
		b.WriteString(" = None\n")
	case sdf.RelSinglePath:
		b.WriteString(" = " + formatTarget(rel.Path) + "\n")
	case sdf.RelPathList:
		b.WriteString(" = " + formatPathList(rel.Paths) + "\n")
	case sdf.RelString:
		b.WriteString(" = " + pathutil.EscapeAndQuote(rel.StringVal) + "\n")
	default:
		b.WriteString("\n")
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FormatValue renders v as a USDA literal, the inverse of parseValue in
// valueparse.go. Array values iterate their concrete Go slice via
// reflection rather than duplicating one formatter per element type twice
// (once for scalars, once for arrays), the way parseValue's sibling
// buildArray duplicates per-type dispatch on the read side.
func FormatValue(v value.Value) (string, error) {
	if v.Blocked {
		return "None", nil
	}
	if v.IsArray {
		rv := reflect.ValueOf(v.Raw())
		parts := make([]string, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			s, err := formatElem(v.TypeName, rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			parts[i] = s
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	}
	return formatElem(v.TypeName, v.Raw())
}

func formatElem(base string, raw interface{}) (string, error) {
	switch base {
	case "bool":
		return fmt.Sprintf("%v", raw.(bool)), nil
	case "int":
		return fmt.Sprintf("%d", raw.(int32)), nil
	case "uint":
		return fmt.Sprintf("%d", raw.(uint32)), nil
	case "int64":
		return fmt.Sprintf("%d", raw.(int64)), nil
	case "uint64":
		return fmt.Sprintf("%d", raw.(uint64)), nil
	case "half":
		return formatFloat(float64(value.HalfToFloat32(raw.(value.Half)))), nil
	case "float":
		return formatFloat(float64(raw.(float32))), nil
	case "double", "timecode":
		return formatFloat(raw.(float64)), nil
	case "string":
		return pathutil.EscapeAndQuote(raw.(string)), nil
	case "token":
		return pathutil.EscapeAndQuote(raw.(pathutil.Token).String()), nil
	case "asset":
		return raw.(value.AssetPath).String(), nil
	case "path":
		return formatTarget(raw.(pathutil.Path)), nil
	case "int2":
		v := raw.(value.Int2)
		return fmt.Sprintf("(%d, %d)", v.X, v.Y), nil
	case "int3":
		v := raw.(value.Int3)
		return fmt.Sprintf("(%d, %d, %d)", v.X, v.Y, v.Z), nil
	case "int4":
		v := raw.(value.Int4)
		return fmt.Sprintf("(%d, %d, %d, %d)", v.X, v.Y, v.Z, v.W), nil
	case "float2", "texCoord2f":
		v := raw.(value.Vec2F)
		return fmt.Sprintf("(%s, %s)", formatFloat(float64(v.X)), formatFloat(float64(v.Y))), nil
	case "float3", "color3f", "point3f", "normal3f", "vector3f", "texCoord3f":
		v := raw.(value.Vec3F)
		return fmt.Sprintf("(%s, %s, %s)", formatFloat(float64(v.X)), formatFloat(float64(v.Y)), formatFloat(float64(v.Z))), nil
	case "float4", "color4f":
		v := raw.(value.Vec4F)
		return fmt.Sprintf("(%s, %s, %s, %s)", formatFloat(float64(v.X)), formatFloat(float64(v.Y)), formatFloat(float64(v.Z)), formatFloat(float64(v.W))), nil
	case "double2", "texCoord2d":
		v := raw.(value.Vec2D)
		return fmt.Sprintf("(%s, %s)", formatFloat(v.X), formatFloat(v.Y)), nil
	case "double3", "color3d", "point3d", "normal3d", "vector3d", "texCoord3d":
		v := raw.(value.Vec3D)
		return fmt.Sprintf("(%s, %s, %s)", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z)), nil
	case "double4", "color4d":
		v := raw.(value.Vec4D)
		return fmt.Sprintf("(%s, %s, %s, %s)", formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z), formatFloat(v.W)), nil
	case "half2", "texCoord2h":
		v := raw.(value.Vec2H)
		return fmt.Sprintf("(%s, %s)", formatFloat(float64(value.HalfToFloat32(v.X))), formatFloat(float64(value.HalfToFloat32(v.Y)))), nil
	case "half3", "color3h", "point3h", "normal3h", "vector3h", "texCoord3h":
		v := raw.(value.Vec3H)
		return fmt.Sprintf("(%s, %s, %s)", formatFloat(float64(value.HalfToFloat32(v.X))), formatFloat(float64(value.HalfToFloat32(v.Y))), formatFloat(float64(value.HalfToFloat32(v.Z)))), nil
	case "half4", "color4h":
		v := raw.(value.Vec4H)
		return fmt.Sprintf("(%s, %s, %s, %s)", formatFloat(float64(value.HalfToFloat32(v.X))), formatFloat(float64(value.HalfToFloat32(v.Y))), formatFloat(float64(value.HalfToFloat32(v.Z))), formatFloat(float64(value.HalfToFloat32(v.W)))), nil
	case "quath":
		v := raw.(value.QuatH)
		return fmt.Sprintf("(%s, %s, %s, %s)", formatFloat(float64(value.HalfToFloat32(v.W))), formatFloat(float64(value.HalfToFloat32(v.X))), formatFloat(float64(value.HalfToFloat32(v.Y))), formatFloat(float64(value.HalfToFloat32(v.Z)))), nil
	case "quatf":
		v := raw.(value.QuatF)
		return fmt.Sprintf("(%s, %s, %s, %s)", formatFloat(float64(v.W)), formatFloat(float64(v.X)), formatFloat(float64(v.Y)), formatFloat(float64(v.Z))), nil
	case "quatd":
		v := raw.(value.QuatD)
		return fmt.Sprintf("(%s, %s, %s, %s)", formatFloat(v.W), formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z)), nil
	case "matrix2d":
		m := raw.(value.Matrix2D)
		return fmt.Sprintf("( (%s, %s), (%s, %s) )", formatFloat(m[0]), formatFloat(m[1]), formatFloat(m[2]), formatFloat(m[3])), nil
	case "matrix3d":
		m := raw.(value.Matrix3D)
		return fmt.Sprintf("( (%s, %s, %s), (%s, %s, %s), (%s, %s, %s) )",
			formatFloat(m[0]), formatFloat(m[1]), formatFloat(m[2]),
			formatFloat(m[3]), formatFloat(m[4]), formatFloat(m[5]),
			formatFloat(m[6]), formatFloat(m[7]), formatFloat(m[8])), nil
	case "matrix4d":
		m := raw.(value.Matrix4D)
		return fmt.Sprintf("( (%s, %s, %s, %s), (%s, %s, %s, %s), (%s, %s, %s, %s), (%s, %s, %s, %s) )",
			formatFloat(m[0]), formatFloat(m[1]), formatFloat(m[2]), formatFloat(m[3]),
			formatFloat(m[4]), formatFloat(m[5]), formatFloat(m[6]), formatFloat(m[7]),
			formatFloat(m[8]), formatFloat(m[9]), formatFloat(m[10]), formatFloat(m[11]),
			formatFloat(m[12]), formatFloat(m[13]), formatFloat(m[14]), formatFloat(m[15])), nil
	case "dictionary":
		return formatDictionary(raw.(value.Dictionary)), nil
	default:
		return "", fmt.Errorf("FormatValue: unsupported type %q", base)
	}
}

func formatDictionary(d value.Dictionary) string {
	var parts []string
	for k, mv := range d {
		s, err := FormatValue(mv.Value)
		if err != nil {
			s = "None"
		}
		parts = append(parts, fmt.Sprintf("%s %s = %s", mv.Type, pathutil.EscapeAndQuote(k), s))
	}
	return "{\n        " + strings.Join(parts, "\n        ") + "\n    }"
}
