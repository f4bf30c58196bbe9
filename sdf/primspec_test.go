package sdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usdgo/usd/value"
)

func TestAddChildRejectsDuplicateNames(t *testing.T) {
	root := New("root", Def)
	assert.True(t, root.AddChild(New("A", Def)))
	assert.False(t, root.AddChild(New("A", Over)))
	assert.Len(t, root.Children, 1)
}

func TestAddPropertyRejectsDuplicateNames(t *testing.T) {
	root := New("root", Def)
	assert.True(t, root.AddProperty("radius", &Property{Attribute: &Attribute{Name: "radius"}}))
	assert.False(t, root.AddProperty("radius", &Property{Attribute: &Attribute{Name: "radius"}}))
	assert.Equal(t, []string{"radius"}, root.PropertyOrder)
}

func TestAddVariantPreservesOrder(t *testing.T) {
	root := New("root", Def)
	root.AddVariant("shape", "sphere", NewVariantContent())
	root.AddVariant("shape", "cube", NewVariantContent())
	root.AddVariant("shape", "sphere", NewVariantContent()) // re-author, no reorder

	assert.Equal(t, []string{"shape"}, root.VariantSetOrder)
	assert.Equal(t, []string{"sphere", "cube"}, root.VariantOrder["shape"])
	assert.Len(t, root.VariantSets["shape"], 2)
}

func TestCheckUniqueChildNames(t *testing.T) {
	root := New("root", Def)
	root.Children = append(root.Children, New("A", Def), New("A", Def))
	assert.False(t, root.CheckUniqueChildNames())

	root2 := New("root", Def)
	root2.Children = append(root2.Children, New("A", Def), New("B", Def))
	assert.True(t, root2.CheckUniqueChildNames())
}

func TestCheckPropertyTypesMatch(t *testing.T) {
	root := New("root", Def)
	v, err := value.NewScalar("float", float32(1))
	require.NoError(t, err)
	root.Properties["radius"] = &Property{Attribute: &Attribute{
		Name: "radius", TypeName: "float", PrimVar: PrimVar{Scalar: v},
	}}
	assert.True(t, root.CheckPropertyTypesMatch())

	root.Properties["mismatched"] = &Property{Attribute: &Attribute{
		Name: "mismatched", TypeName: "double", PrimVar: PrimVar{Scalar: v},
	}}
	assert.False(t, root.CheckPropertyTypesMatch())
}

func TestLayerFindPrim(t *testing.T) {
	l := NewLayer("mem:test")
	root := New("World", Def)
	child := New("Geom", Def)
	root.AddChild(child)
	l.RootPrimSpecs = append(l.RootPrimSpecs, root)

	got, ok := l.FindPrim([]string{"World", "Geom"})
	require.True(t, ok)
	assert.Equal(t, child, got)

	_, ok = l.FindPrim([]string{"World", "Missing"})
	assert.False(t, ok)
}

func TestLayerDefaultPrimSpec(t *testing.T) {
	l := NewLayer("mem:test")
	a := New("A", Def)
	b := New("B", Def)
	l.RootPrimSpecs = append(l.RootPrimSpecs, a, b)

	got, ok := l.DefaultPrimSpec()
	require.True(t, ok)
	assert.Equal(t, a, got, "no defaultPrim authored: falls back to first root prim")

	l.Metas.DefaultPrim = "B"
	got, ok = l.DefaultPrimSpec()
	require.True(t, ok)
	assert.Equal(t, b, got)

	l.Metas.DefaultPrim = "Missing"
	_, ok = l.DefaultPrimSpec()
	assert.False(t, ok)
}
