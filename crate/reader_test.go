package crate

import (
	"context"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usdgo/usd/value"
)

// buildFixture hand-assembles a minimal valid USDC buffer: one root Xform
// prim named "World" carrying a single non-animated double attribute
// "radius" = 2.0. There is no public crate writer (write-support is an
// explicit non-goal, spec.md section 1), so the test builds bytes directly
// out of this package's own unexported encoders — the same relationship
// loader/gltf/loader_test.go-style binary fixtures have to the decoder they
// exercise.
func buildFixture(t *testing.T) []byte {
	t.Helper()

	tokens := []string{"World", "radius", "typeName", "specifier", "Xform", "variability", "default", "double"}
	tokIdx := func(s string) uint32 {
		for i, t := range tokens {
			if t == s {
				return uint32(i)
			}
		}
		t.Fatalf("token %q not in fixture table", s)
		return 0
	}

	tokenID, ok := TypeIDForName("token")
	require.True(t, ok)
	intID, ok := TypeIDForName("int")
	require.True(t, ok)
	doubleID, ok := TypeIDForName("double")
	require.True(t, ok)

	// VALUEREPS payload: just the 8 raw bytes of the attribute's double
	// default, at offset 0.
	valueReps := make([]byte, 8)
	binary.LittleEndian.PutUint64(valueReps, math.Float64bits(2.0))

	fields := []field{
		{NameIdx: tokIdx("typeName"), Rep: ValueRep{TypeID: tokenID, IsInlined: true, Payload: tokIdx("Xform")}},
		{NameIdx: tokIdx("specifier"), Rep: ValueRep{TypeID: intID, IsInlined: true, Payload: 0}}, // sdf.Def == 0
		{NameIdx: tokIdx("typeName"), Rep: ValueRep{TypeID: tokenID, IsInlined: true, Payload: tokIdx("double")}},
		{NameIdx: tokIdx("variability"), Rep: ValueRep{TypeID: intID, IsInlined: true, Payload: 0}}, // sdf.Varying == 0
		{NameIdx: tokIdx("default"), Rep: ValueRep{TypeID: doubleID, Payload: 0}},
	}
	fieldSetFlat := []uint32{0, 1, 0xFFFFFFFF, 2, 3, 4, 0xFFFFFFFF}

	paths := []pathEntry{
		{ParentIdx: -1, ElementIdx: int64(tokIdx("World")), IsProperty: false},
		{ParentIdx: 0, ElementIdx: int64(tokIdx("radius")), IsProperty: true},
	}

	specs := []spec{
		{PathIdx: 0, FieldSetIdx: 0, Type: SpecPrim},
		{PathIdx: 1, FieldSetIdx: 1, Type: SpecAttribute},
	}

	tokensPayload := encodeStringTable(tokens)
	fieldsPayload := encodeFieldsForTest(fields)
	fieldSetsPayload := encodeUint32s(fieldSetFlat)
	pathsPayload := encodePathsForTest(paths)
	specsPayload := encodeSpecsForTest(specs)

	var body []byte
	var toc TOC
	appendSection := func(name SectionName, payload []byte) {
		chunk, err := compressBlock(payload)
		require.NoError(t, err)
		toc.Sections = append(toc.Sections, Section{Name: name, Start: BootstrapSize + int64(len(body)), Size: int64(len(chunk))})
		body = append(body, chunk...)
	}
	appendSection(SectionTokens, tokensPayload)
	appendSection(SectionStrings, encodeUint32s(nil))
	appendSection(SectionFields, fieldsPayload)
	appendSection(SectionFieldSets, fieldSetsPayload)
	appendSection(SectionPaths, pathsPayload)
	appendSection(SectionSpecs, specsPayload)
	appendSection(SectionValueReps, valueReps)

	tocOffset := BootstrapSize + int64(len(body))
	var tocBytes []byte
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], uint64(len(toc.Sections)))
	tocBytes = append(tocBytes, tmp[:]...)
	for _, s := range toc.Sections {
		name := make([]byte, sectionNameWidth)
		copy(name, s.Name)
		tocBytes = append(tocBytes, name...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(s.Start))
		tocBytes = append(tocBytes, tmp[:]...)
		binary.LittleEndian.PutUint64(tmp[:], uint64(s.Size))
		tocBytes = append(tocBytes, tmp[:]...)
	}

	out := make([]byte, BootstrapSize)
	copy(out[0:8], Magic)
	out[8], out[9], out[10] = 0, 8, 0
	binary.LittleEndian.PutUint64(out[16:24], uint64(tocOffset))
	out = append(out, body...)
	out = append(out, tocBytes...)
	return out
}

func encodeStringTable(tokens []string) []byte {
	var buf []byte
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(tokens)))
	buf = append(buf, tmp[:n]...)
	for _, t := range tokens {
		buf = append(buf, t...)
		buf = append(buf, 0)
	}
	return buf
}

func encodeFieldsForTest(fields []field) []byte {
	var buf []byte
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(fields)))
	buf = append(buf, tmp[:n]...)
	names := make([]uint32, len(fields))
	reps := make([]int64, len(fields))
	for i, f := range fields {
		names[i] = f.NameIdx
		reps[i] = int64(f.Rep.Encode())
	}
	buf = append(buf, encodeUint32s(names)...)
	buf = append(buf, encodeInts64(reps)...)
	return buf
}

func encodePathsForTest(paths []pathEntry) []byte {
	var buf []byte
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(paths)))
	buf = append(buf, tmp[:n]...)
	parents := make([]int64, len(paths))
	elements := make([]int64, len(paths))
	isProp := make([]int64, len(paths))
	for i, p := range paths {
		parents[i] = p.ParentIdx
		elements[i] = p.ElementIdx
		if p.IsProperty {
			isProp[i] = 1
		}
	}
	buf = append(buf, encodeInts64(parents)...)
	buf = append(buf, encodeInts64(elements)...)
	buf = append(buf, encodeInts64(isProp)...)
	return buf
}

func encodeSpecsForTest(specs []spec) []byte {
	var buf []byte
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(specs)))
	buf = append(buf, tmp[:n]...)
	pathIdxs := make([]uint32, len(specs))
	fsIdxs := make([]uint32, len(specs))
	types := make([]uint32, len(specs))
	for i, s := range specs {
		pathIdxs[i] = s.PathIdx
		fsIdxs[i] = s.FieldSetIdx
		types[i] = uint32(s.Type)
	}
	buf = append(buf, encodeUint32s(pathIdxs)...)
	buf = append(buf, encodeUint32s(fsIdxs)...)
	buf = append(buf, encodeUint32s(types)...)
	return buf
}

func TestReadFixtureLayer(t *testing.T) {
	data := buildFixture(t)
	r := New(data, Options{NumThreads: 2})

	layer, warnings, err := r.Read(context.Background(), "mem:fixture.usdc")
	require.NoError(t, err)
	require.True(t, warnings.Empty())

	require.Len(t, layer.RootPrimSpecs, 1)
	world := layer.RootPrimSpecs[0]
	assert.Equal(t, "World", world.Name)
	assert.Equal(t, "Xform", world.TypeName)

	prop, ok := world.Properties["radius"]
	require.True(t, ok)
	require.NotNil(t, prop.Attribute)
	assert.Equal(t, "double", prop.Attribute.TypeName)
	got, ok := value.Get[float64](prop.Attribute.PrimVar.Scalar)
	require.True(t, ok)
	assert.Equal(t, 2.0, got)
}

func TestReadBootstrapRejectsShortFile(t *testing.T) {
	r := New([]byte("short"), Options{})
	_, err := r.ReadBootstrap()
	assert.Error(t, err)
}

func TestReadBootstrapRejectsBadMagic(t *testing.T) {
	data := make([]byte, BootstrapSize)
	copy(data, "NOTUSDC!")
	r := New(data, Options{})
	_, err := r.ReadBootstrap()
	assert.Error(t, err)
}

func TestValueRepRoundTrip(t *testing.T) {
	v := ValueRep{TypeID: 7, IsArray: true, IsCompressed: true, Payload: 12345}
	got := DecodeValueRep(v.Encode())
	assert.Equal(t, v, got)
}
