package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScalarValidatesType(t *testing.T) {
	v, err := NewScalar("double", float64(1.5))
	require.NoError(t, err)
	got, ok := Get[float64](v)
	assert.True(t, ok)
	assert.Equal(t, 1.5, got)

	_, err = NewScalar("double", float32(1.5))
	assert.Error(t, err)
}

func TestNewArray(t *testing.T) {
	v, err := NewArray("float3[]", []Vec3F{{X: 1, Y: 2, Z: 3}})
	require.NoError(t, err)
	assert.True(t, v.IsArray)
	assert.Equal(t, "float3[]", v.FullTypeName())
}

func TestValueEqual(t *testing.T) {
	a, _ := NewScalar("int", int32(5))
	b, _ := NewScalar("int", int32(5))
	c, _ := NewScalar("int", int32(6))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestBlockValue(t *testing.T) {
	v := Block("float")
	assert.True(t, v.Blocked)
	assert.Equal(t, "None", v.String())
}

func TestHalfRoundTrip(t *testing.T) {
	for _, f := range []float32{0, 1, -1, 0.5, 3.14159, 65504, -65504} {
		h := HalfFromFloat32(f)
		got := HalfToFloat32(h)
		assert.InDelta(t, float64(f), float64(got), 0.01)
	}
}

func TestTimeSamplesOrderingAndBlock(t *testing.T) {
	var ts TimeSamples
	v1, _ := NewScalar("float", float32(1.0))
	v2, _ := NewScalar("float", float32(3.0))
	ts.Set(20, v2)
	ts.Set(0, v1)
	ts.Set(10, Block("float"))

	assert.Equal(t, []float64{0, 10, 20}, ts.Times())
	var times []float64
	ts.Range(func(t float64, v Value) bool {
		times = append(times, t)
		return true
	})
	assert.Equal(t, []float64{0, 10, 20}, times)

	sample, ok := ts.Get(10)
	require.True(t, ok)
	assert.True(t, sample.Blocked)
	assert.True(t, ts.CheckUniformType())
}

func TestTimeSamplesNaNKeyReplace(t *testing.T) {
	var ts TimeSamples
	v1, _ := NewScalar("float", float32(1.0))
	v2, _ := NewScalar("float", float32(2.0))
	ts.Set(math.NaN(), v1)
	ts.Set(math.NaN(), v2)
	assert.Equal(t, 1, ts.Len())
}
