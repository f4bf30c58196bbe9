package ascii

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usdgo/usd/value"
)

func TestPrintThenParseRoundTripsSimpleDocument(t *testing.T) {
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

	printed := Print(layer)
	roundTripped, warnings2, err := Parse(printed, "mem:test.usda")
	require.NoError(t, err, "printed document:\n%s", printed)
	require.True(t, warnings2.Empty())

	assert.Equal(t, layer.Metas.DefaultPrim, roundTripped.Metas.DefaultPrim)
	assert.Equal(t, layer.Metas.UpAxis, roundTripped.Metas.UpAxis)
	assert.InDelta(t, layer.Metas.MetersPerUnit, roundTripped.Metas.MetersPerUnit, 1e-9)

	require.Len(t, roundTripped.RootPrimSpecs, 1)
	world := roundTripped.RootPrimSpecs[0]
	assert.Equal(t, "World", world.Name)
	assert.Equal(t, "Xform", world.TypeName)

	geom, ok := world.ChildByName("geom")
	require.True(t, ok)
	assert.Equal(t, "Sphere", geom.TypeName)
	assert.Equal(t, "component", geom.Metas.Kind)

	radiusProp, ok := geom.Properties["radius"]
	require.True(t, ok)
	assert.Equal(t, "double", radiusProp.Attribute.TypeName)

	noteProp, ok := geom.Properties["note"]
	require.True(t, ok)
	assert.True(t, noteProp.Custom)
}

func TestFormatValueHandlesScalarsAndArrays(t *testing.T) {
	boolVal, err := value.NewScalar("bool", true)
	require.NoError(t, err)
	s, err := FormatValue(boolVal)
	require.NoError(t, err)
	assert.Equal(t, "true", s)

	strVal, err := value.NewScalar("string", "hi there")
	require.NoError(t, err)
	s, err = FormatValue(strVal)
	require.NoError(t, err)
	assert.Equal(t, `"hi there"`, s)

	intArr, err := value.NewArray("int", []int32{1, 2, 3})
	require.NoError(t, err)
	s, err = FormatValue(intArr)
	require.NoError(t, err)
	assert.Equal(t, "[1, 2, 3]", s)
}
