package ascii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
)

func TestParseMinimalLayer(t *testing.T) {
	src := `#usda 1.0
(
    defaultPrim = "World"
    upAxis = "Y"
    metersPerUnit = 0.01
)

def Xform "World"
{
    def Sphere "geom" (
        kind = "component"
    )
    {
        double radius = 2
        custom string note = "hello"
    }
}
`
	layer, warnings, err := Parse(src, "mem:test.usda")
	require.NoError(t, err)
	require.True(t, warnings.Empty())

	assert.Equal(t, "World", layer.Metas.DefaultPrim)
	assert.Equal(t, sdf.UpAxisY, layer.Metas.UpAxis)
	assert.InDelta(t, 0.01, layer.Metas.MetersPerUnit, 1e-9)

	require.Len(t, layer.RootPrimSpecs, 1)
	world := layer.RootPrimSpecs[0]
	assert.Equal(t, "World", world.Name)
	assert.Equal(t, "Xform", world.TypeName)
	assert.Equal(t, sdf.Def, world.Specifier)

	geom, ok := world.ChildByName("geom")
	require.True(t, ok)
	assert.Equal(t, "Sphere", geom.TypeName)
	assert.Equal(t, "component", geom.Metas.Kind)

	radiusProp, ok := geom.Properties["radius"]
	require.True(t, ok)
	require.NotNil(t, radiusProp.Attribute)
	radius, ok := value.Get[float64](radiusProp.Attribute.PrimVar.Scalar)
	require.True(t, ok)
	assert.Equal(t, 2.0, radius)

	noteProp, ok := geom.Properties["note"]
	require.True(t, ok)
	assert.True(t, noteProp.Custom)
	note, ok := value.Get[string](noteProp.Attribute.PrimVar.Scalar)
	require.True(t, ok)
	assert.Equal(t, "hello", note)
}

func TestParseReferencesAndRelationship(t *testing.T) {
	src := `#usda 1.0

def "Model" (
    references = @./model.usda@</Model>
)
{
    rel material:binding = </Materials/Red>
}
`
	layer, _, err := Parse(src, "mem:refs.usda")
	require.NoError(t, err)
	require.Len(t, layer.RootPrimSpecs, 1)

	model := layer.RootPrimSpecs[0]
	require.Len(t, model.Metas.References, 1)
	assert.Equal(t, "./model.usda", model.Metas.References[0].AssetPath.Raw)
	require.NotNil(t, model.Metas.References[0].PrimPath)
	assert.Equal(t, "/Model", model.Metas.References[0].PrimPath.String())

	rel, ok := model.Properties["material:binding"]
	require.True(t, ok)
	require.True(t, rel.IsRelationship())
	assert.Equal(t, sdf.RelSinglePath, rel.Relationship.Kind)
	assert.Equal(t, "/Materials/Red", rel.Relationship.Path.String())
}

func TestParseArrayAndTimeSamples(t *testing.T) {
	src := `#usda 1.0

def Mesh "M"
{
    point3f[] points = [(0, 0, 0), (1, 0, 0), (0, 1, 0)]
    double size.timeSamples = {
        1: 1,
        2: 2.5,
    }
}
`
	layer, _, err := Parse(src, "mem:arr.usda")
	require.NoError(t, err)
	m := layer.RootPrimSpecs[0]

	pointsProp := m.Properties["points"]
	pts, ok := value.Get[[]value.Vec3F](pointsProp.Attribute.PrimVar.Scalar)
	require.True(t, ok)
	require.Len(t, pts, 3)
	assert.Equal(t, float32(1), pts[1].X)

	sizeProp := m.Properties["size"]
	require.True(t, sizeProp.Attribute.PrimVar.IsTimeSamples)
	assert.Equal(t, 2, sizeProp.Attribute.PrimVar.Samples.Len())
	v, ok := sizeProp.Attribute.PrimVar.Samples.Get(2)
	require.True(t, ok)
	f, ok := value.Get[float64](v)
	require.True(t, ok)
	assert.Equal(t, 2.5, f)
}

func TestParseVariantSet(t *testing.T) {
	src := `#usda 1.0

def Xform "Asset" (
    variantSets = ["shape"]
    variants = {
        string shape = "cube"
    }
)
{
    variantSet "shape" = {
        "cube" {
            def Cube "geom" {}
        }
        "sphere" {
            def Sphere "geom" {}
        }
    }
}
`
	layer, _, err := Parse(src, "mem:variants.usda")
	require.NoError(t, err)
	asset := layer.RootPrimSpecs[0]
	assert.Equal(t, []string{"shape"}, asset.Metas.VariantSetNames)
	assert.Equal(t, "cube", asset.Metas.Variants["shape"])

	variants, ok := asset.VariantSets["shape"]
	require.True(t, ok)
	require.Len(t, variants, 2)
	cube := variants["cube"]
	require.Len(t, cube.Children, 1)
	assert.Equal(t, "Cube", cube.Children[0].TypeName)
}

func TestParseMissingMagicHeader(t *testing.T) {
	_, _, err := Parse(`def "X" {}`, "mem:bad.usda")
	require.Error(t, err)
}
