package composition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
)

func strAttr(t *testing.T, name, v string) *sdf.Property {
	t.Helper()
	scalar, err := value.NewScalar("string", v)
	require.NoError(t, err)
	return &sdf.Property{Attribute: &sdf.Attribute{
		Name: name, TypeName: "string",
		PrimVar: sdf.PrimVar{Scalar: scalar},
	}}
}

func TestCompositeInheritsMergesClassIntoPrim(t *testing.T) {
	layer := sdf.NewLayer("mem:root")

	class := sdf.New("_class_Base", sdf.Class)
	class.AddProperty("color", strAttr(t, "color", "red"))

	robot := sdf.New("Robot", sdf.Def)
	inheritPath, err := pathutil.Parse("/_class_Base")
	require.NoError(t, err)
	robot.Metas.Inherits = []pathutil.Path{inheritPath}

	layer.RootPrimSpecs = []*sdf.PrimSpec{class, robot}

	c := New(nil, func(string) (*sdf.Layer, *diag.List, error) { return nil, nil, nil })
	changed, warnings, err := c.CompositeInherits(layer)
	require.NoError(t, err)
	assert.True(t, warnings.Empty())
	assert.True(t, changed)

	prop, ok := robot.Properties["color"]
	require.True(t, ok)
	got, ok := value.Get[string](prop.Attribute.PrimVar.Scalar)
	require.True(t, ok)
	assert.Equal(t, "red", got)
	assert.Empty(t, robot.Metas.Inherits)
}

func TestCompositeVariantExpandsSelectedVariant(t *testing.T) {
	layer := sdf.NewLayer("mem:root")
	prim := sdf.New("Ball", sdf.Def)
	prim.Metas.VariantSetNames = []string{"shadingVariant"}
	prim.Metas.Variants = map[string]string{"shadingVariant": "red"}

	red := sdf.NewVariantContent()
	red.AddProperty("color", strAttr(t, "color", "red"))
	blue := sdf.NewVariantContent()
	blue.AddProperty("color", strAttr(t, "color", "blue"))
	prim.AddVariant("shadingVariant", "red", red)
	prim.AddVariant("shadingVariant", "blue", blue)

	layer.RootPrimSpecs = []*sdf.PrimSpec{prim}

	c := New(nil, func(string) (*sdf.Layer, *diag.List, error) { return nil, nil, nil })
	changed, warnings, err := c.CompositeVariant(layer)
	require.NoError(t, err)
	assert.True(t, warnings.Empty())
	assert.True(t, changed)

	prop, ok := prim.Properties["color"]
	require.True(t, ok)
	got, ok := value.Get[string](prop.Attribute.PrimVar.Scalar)
	require.True(t, ok)
	assert.Equal(t, "red", got)
	assert.Empty(t, prim.Metas.VariantSetNames)
}

func TestCompositeSublayersDetectsCycle(t *testing.T) {
	layer := sdf.NewLayer("mem:a.usda")
	layer.Metas.SubLayers = []string{"b.usda"}

	var load LayerLoader
	load = func(id string) (*sdf.Layer, *diag.List, error) {
		cyclic := sdf.NewLayer(id)
		cyclic.Metas.SubLayers = []string{"a.usda"}
		return cyclic, nil, nil
	}
	c := New(nil, load)
	visiting := map[string]bool{"a.usda": true}
	_, _, err := c.CompositeSublayers(layer, visiting, 0)
	assert.Error(t, err)
}

func TestCompositeReferencesFoldsDefaultPrim(t *testing.T) {
	referenced := sdf.NewLayer("mem:ref.usda")
	referenced.Metas.DefaultPrim = "Geo"
	geo := sdf.New("Geo", sdf.Def)
	geo.TypeName = "Xform"
	referenced.RootPrimSpecs = []*sdf.PrimSpec{geo}

	layer := sdf.NewLayer("mem:root.usda")
	prim := sdf.New("Instance", sdf.Def)
	assetPath, err := value.ParseAssetPath("@ref.usda@")
	require.NoError(t, err)
	prim.Metas.References = []value.Reference{{AssetPath: assetPath}}
	layer.RootPrimSpecs = []*sdf.PrimSpec{prim}

	c := New(nil, func(string) (*sdf.Layer, *diag.List, error) { return referenced, nil, nil })
	changed, warnings, err := c.CompositeReferences(layer)
	require.NoError(t, err)
	assert.True(t, warnings.Empty())
	assert.True(t, changed)
	assert.Equal(t, "Xform", prim.TypeName)
	assert.Empty(t, prim.Metas.References)
}
