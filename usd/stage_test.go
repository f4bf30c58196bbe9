package usd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
)

func TestIsUSDDetectsEachFormat(t *testing.T) {
	ok, format := IsUSD([]byte("#usda 1.0\n"))
	assert.True(t, ok)
	assert.Equal(t, "usda", format)

	usdc := make([]byte, usdcMinSize)
	copy(usdc, "PXR-USDC")
	ok, format = IsUSD(usdc)
	assert.True(t, ok)
	assert.Equal(t, "usdc", format)

	ok, _ = IsUSD([]byte("not a usd file"))
	assert.False(t, ok)
}

func TestLoadUSDAFromMemoryRejectsBadMagic(t *testing.T) {
	_, _, err := LoadUSDAFromMemory([]byte("not usda"), "", LoadOptions{})
	assert.Error(t, err)
}

func TestLoadUSDAFromMemoryComposesSimpleDocument(t *testing.T) {
	src := `#usda 1.0
(
    defaultPrim = "World"
)

def Xform "World"
{
    def Sphere "ball"
    {
        double radius = 2
    }
}
`
	stage, warnings, err := LoadUSDAFromMemory([]byte(src), "", LoadOptions{})
	require.NoError(t, err)
	require.NotNil(t, stage)
	_ = warnings

	require.Len(t, stage.RootPrims, 1)
	world := stage.RootPrims[0]
	assert.Equal(t, "World", world.Name)
	require.Len(t, world.Children, 1)
	assert.Equal(t, "ball", world.Children[0].Name)
	assert.Equal(t, KindGeomSphere, world.Children[0].Kind)
}

func TestBuildStageSkipsClassSpecifierRoots(t *testing.T) {
	layer := sdf.NewLayer("mem:test")
	class := sdf.New("_class_Base", sdf.Class)
	real := sdf.New("Robot", sdf.Def)
	layer.RootPrimSpecs = []*sdf.PrimSpec{class, real}

	stage, err := BuildStage(layer, &diag.List{})
	require.NoError(t, err)
	require.Len(t, stage.RootPrims, 1)
	assert.Equal(t, "Robot", stage.RootPrims[0].Name)
}

func TestBuildStageReconstructsGPrimForUnknownType(t *testing.T) {
	layer := sdf.NewLayer("mem:test")
	prim := sdf.New("Thing", sdf.Def)
	prim.TypeName = "SomeFutureSchema"
	layer.RootPrimSpecs = []*sdf.PrimSpec{prim}

	warnings := &diag.List{}
	stage, err := BuildStage(layer, warnings)
	require.NoError(t, err)
	require.Len(t, stage.RootPrims, 1)
	assert.Equal(t, KindGPrim, stage.RootPrims[0].Kind)
	assert.False(t, warnings.Empty())
}

func TestBuildStageValidatesGeomSphereHasNoRequiredPoints(t *testing.T) {
	layer := sdf.NewLayer("mem:test")
	sphere := sdf.New("ball", sdf.Def)
	sphere.TypeName = "Sphere"
	radius, err := value.NewScalar("double", 2.0)
	require.NoError(t, err)
	sphere.AddProperty("radius", &sdf.Property{Attribute: &sdf.Attribute{
		Name: "radius", TypeName: "double",
		PrimVar: sdf.PrimVar{Scalar: radius},
	}})
	layer.RootPrimSpecs = []*sdf.PrimSpec{sphere}

	stage, err := BuildStage(layer, &diag.List{})
	require.NoError(t, err)
	assert.Equal(t, KindGeomSphere, stage.RootPrims[0].Kind)
}
