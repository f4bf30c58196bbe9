// Package usd implements the Stage Reconstructor of section 4.9 and the
// public entry points of section 6: lowering a composed sdf.Layer into a
// typed Stage, and the LoadUSD*FromMemory / IsUSD* / CompositeSublayers...
// front door the rest of the corpus's loaders (loader/gltf, loader/obj,
// loader/collada) each expose as their package's single public API.
package usd

import (
	"fmt"

	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
)

// Kind names the recognized USD schema types of section 4.9. Unknown
// type names reconstruct as KindGPrim, a lossless generic fallback.
type Kind string

const (
	KindXform          Kind = "Xform"
	KindScope          Kind = "Scope"
	KindGeomMesh       Kind = "Mesh"
	KindGeomSphere     Kind = "Sphere"
	KindGeomCube       Kind = "Cube"
	KindGeomCone       Kind = "Cone"
	KindGeomCylinder   Kind = "Cylinder"
	KindGeomCapsule    Kind = "Capsule"
	KindGeomBasisCurves Kind = "BasisCurves"
	KindGeomPoints     Kind = "Points"
	KindGeomSubset     Kind = "GeomSubset"
	KindGeomCamera     Kind = "Camera"
	KindShader         Kind = "Shader"
	KindMaterial       Kind = "Material"
	KindNodeGraph      Kind = "NodeGraph"
	KindLuxSphereLight   Kind = "SphereLight"
	KindLuxDomeLight     Kind = "DomeLight"
	KindLuxDiskLight     Kind = "DiskLight"
	KindLuxDistantLight  Kind = "DistantLight"
	KindLuxCylinderLight Kind = "CylinderLight"
	KindSkelRoot       Kind = "SkelRoot"
	KindSkeleton       Kind = "Skeleton"
	KindSkelAnimation  Kind = "SkelAnimation"
	KindBlendShape     Kind = "BlendShape"
	KindGPrim          Kind = "" // generic fallback, emits a warning
)

var validSubdivisionSchemes = map[string]bool{"none": true, "catmullClark": true, "bilinear": true, "loop": true}
var validCameraProjections = map[string]bool{"perspective": true, "orthographic": true}
var knownShaderInfoIDs = map[string]bool{"UsdPreviewSurface": true, "UsdUVTexture": true, "UsdPrimvarReader_float2": true}

// Prim is a reconstructed, typed scene node: the schema-specific fields a
// validator populated from the source PrimSpec's properties, plus the
// PrimSpec itself for anything a caller needs that isn't lifted into a
// typed field.
type Prim struct {
	Name string
	Kind Kind
	Spec *sdf.PrimSpec

	Children []*Prim

	// XformOpOrder holds the validated op name list for any prim carrying
	// xformable behavior (Xform, geometry prims, lights).
	XformOpOrder []string

	// Mesh fields, populated when Kind == KindGeomMesh.
	Points            []value.Vec3F
	SubdivisionScheme string

	// GeomSubset fields.
	ElementType string
	FamilyType  string
	Indices     []uint32

	// Camera fields.
	Projection string

	// Shader fields.
	ShaderInfoID string

	// MaterialBinding captures the "material:binding" relationship target,
	// when authored on any prim.
	MaterialBinding *pathutil.Path
}

// buildPrim reconstructs one PrimSpec into a typed Prim, recursing into
// children, appending warnings (never errors) for anything recoverable
// per section 4.11's "unknown prim type" / "unknown attribute meta key"
// rules. Fatal mismatches (a required, wrongly-typed property) surface as
// a *diag.Error through err.
func buildPrim(spec *sdf.PrimSpec, path pathutil.Path, warnings *diag.List) (*Prim, error) {
	p := &Prim{Name: spec.Name, Kind: schemaKind(spec.TypeName), Spec: spec}

	if xform, ok := spec.Properties["xformOpOrder"]; ok {
		ops, err := validateXformOpOrder(spec, xform, path)
		if err != nil {
			return nil, err
		}
		p.XformOpOrder = ops
	}

	if rel, ok := spec.Properties["material:binding"]; ok && rel.Relationship != nil && rel.Relationship.Kind == sdf.RelSinglePath {
		target := rel.Relationship.Path
		p.MaterialBinding = &target
	}

	switch p.Kind {
	case KindGeomMesh:
		if err := validateGeomMesh(spec, p, path); err != nil {
			return nil, err
		}
	case KindGeomSubset:
		if err := validateGeomSubset(spec, p, path); err != nil {
			return nil, err
		}
	case KindGeomCamera:
		if err := validateGeomCamera(spec, p, path); err != nil {
			return nil, err
		}
	case KindShader:
		validateShader(spec, p, warnings, path)
	case KindGPrim:
		if spec.TypeName != "" {
			warnings.Add("%s: unknown prim type %q, reconstructing as GPrim", path, spec.TypeName)
		}
	}

	for _, child := range spec.Children {
		if child.Specifier == sdf.Class {
			continue // class subtrees are never lowered to Prims, OPEN QUESTION DECISIONS
		}
		childPrim, err := buildPrim(child, path.AppendChild(child.Name), warnings)
		if err != nil {
			return nil, err
		}
		p.Children = append(p.Children, childPrim)
	}

	return p, nil
}

func schemaKind(typeName string) Kind {
	switch typeName {
	case "Xform", "Scope", "Mesh", "Sphere", "Cube", "Cone", "Cylinder", "Capsule",
		"BasisCurves", "Points", "GeomSubset", "Camera", "Shader", "Material", "NodeGraph",
		"SphereLight", "DomeLight", "DiskLight", "DistantLight", "CylinderLight",
		"SkelRoot", "Skeleton", "SkelAnimation", "BlendShape":
		return Kind(typeName)
	default:
		return KindGPrim
	}
}

var xformOpAllowedTypes = map[string]bool{
	"double": true, "float": true, "half": true,
	"double3": true, "float3": true, "half3": true,
	"double4": true, "float4": true, "half4": true,
	"matrix4d": true,
}

// validateXformOpOrder checks section 4.9's xformOpOrder rule: each named
// op (after stripping its "xformOp:<kind>:" prefix and optional suffix)
// must have a matching attribute of an allowed numeric/vector/matrix type.
func validateXformOpOrder(spec *sdf.PrimSpec, xformOpOrderProp *sdf.Property, path pathutil.Path) ([]string, error) {
	if xformOpOrderProp.Attribute == nil {
		return nil, diag.New(diag.KindSchema, "%s: xformOpOrder must be an attribute", path)
	}
	names, ok := value.Get[[]pathutil.Token](xformOpOrderProp.Attribute.PrimVar.Scalar)
	if !ok {
		return nil, diag.New(diag.KindSchema, "%s: xformOpOrder must be a token[]", path)
	}
	var ops []string
	for _, n := range names {
		tok := n.String()
		ops = append(ops, tok)
		opAttr, ok := spec.Properties[tok]
		if !ok || opAttr.Attribute == nil {
			return nil, diag.New(diag.KindSchema, "%s: xformOpOrder names %q but no matching attribute is authored", path, tok)
		}
		base, _ := value.SplitArrayType(opAttr.Attribute.TypeName)
		if !xformOpAllowedTypes[base] {
			return nil, diag.New(diag.KindSchema, "%s: xform op %q has disallowed type %q", path, tok, opAttr.Attribute.TypeName)
		}
	}
	return ops, nil
}

func validateGeomMesh(spec *sdf.PrimSpec, p *Prim, path pathutil.Path) error {
	if pointsProp, ok := spec.Properties["points"]; ok {
		if pointsProp.Attribute == nil {
			return diag.New(diag.KindSchema, "%s: points must be an attribute", path)
		}
		base, isArray := value.SplitArrayType(pointsProp.Attribute.TypeName)
		if base != "point3f" || !isArray {
			return diag.New(diag.KindSchema, "%s: points must be point3f[], got %s", path, pointsProp.Attribute.TypeName)
		}
		pts, ok := value.Get[[]value.Vec3F](pointsProp.Attribute.PrimVar.Scalar)
		if !ok {
			return diag.New(diag.KindSchema, "%s: points value does not match its declared type", path)
		}
		p.Points = pts
	}
	if schemeProp, ok := spec.Properties["subdivisionScheme"]; ok && schemeProp.Attribute != nil {
		scheme, ok := value.Get[string](schemeProp.Attribute.PrimVar.Scalar)
		if !ok || !validSubdivisionSchemes[scheme] {
			return diag.New(diag.KindSchema, "%s: subdivisionScheme %q is not one of none|catmullClark|bilinear|loop", path, scheme)
		}
		p.SubdivisionScheme = scheme
	}
	return nil
}

func validateGeomSubset(spec *sdf.PrimSpec, p *Prim, path pathutil.Path) error {
	if et, ok := stringAttr(spec, "elementType"); ok {
		p.ElementType = et
	}
	if ft, ok := stringAttr(spec, "familyType"); ok {
		p.FamilyType = ft
	}
	if idxProp, ok := spec.Properties["indices"]; ok && idxProp.Attribute != nil {
		if ints, ok := value.Get[[]int32](idxProp.Attribute.PrimVar.Scalar); ok {
			for _, v := range ints {
				p.Indices = append(p.Indices, uint32(v))
			}
		} else if uints, ok := value.Get[[]uint32](idxProp.Attribute.PrimVar.Scalar); ok {
			p.Indices = append(p.Indices, uints...)
		} else {
			return diag.New(diag.KindSchema, "%s: indices must be an int[] or uint[]", path)
		}
	}
	return nil
}

func validateGeomCamera(spec *sdf.PrimSpec, p *Prim, path pathutil.Path) error {
	if projProp, ok := spec.Properties["projection"]; ok && projProp.Attribute != nil {
		proj, ok := value.Get[string](projProp.Attribute.PrimVar.Scalar)
		if !ok || !validCameraProjections[proj] {
			return diag.New(diag.KindSchema, "%s: projection %q must be perspective or orthographic", path, proj)
		}
		p.Projection = proj
	}
	return nil
}

func validateShader(spec *sdf.PrimSpec, p *Prim, warnings *diag.List, path pathutil.Path) {
	if id, ok := stringAttr(spec, "info:id"); ok {
		p.ShaderInfoID = id
		if !knownShaderInfoIDs[id] {
			warnings.Add("%s: unsupported Shader info:id %q", path, id)
		}
	}
}

func stringAttr(spec *sdf.PrimSpec, name string) (string, bool) {
	prop, ok := spec.Properties[name]
	if !ok || prop.Attribute == nil {
		return "", false
	}
	return value.Get[string](prop.Attribute.PrimVar.Scalar)
}

// String renders a Prim path-style for diagnostics.
func (p *Prim) String() string {
	return fmt.Sprintf("%s(%s)", p.Name, p.Kind)
}
