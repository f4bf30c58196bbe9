package crate

// ValueRep is the 64-bit value descriptor of section 4.6:
// (type_id: 32, is_array: 1, is_inlined: 1, is_compressed: 1, is_payload: 1,
// reserved, payload: 28 bits). Inlined values fit directly in the payload
// bits; others are byte offsets into the VALUEREPS section.
type ValueRep struct {
	TypeID       uint32
	IsArray      bool
	IsInlined    bool
	IsCompressed bool
	IsPayload    bool
	Payload      uint32 // low 28 bits
}

const (
	valueRepPayloadBits = 28
	valueRepPayloadMask = 1<<valueRepPayloadBits - 1
)

// DecodeValueRep splits a raw 64-bit descriptor into its fields.
func DecodeValueRep(raw uint64) ValueRep {
	return ValueRep{
		TypeID:       uint32(raw >> 32),
		IsArray:      raw&(1<<31) != 0,
		IsInlined:    raw&(1<<30) != 0,
		IsCompressed: raw&(1<<29) != 0,
		IsPayload:    raw&(1<<28) != 0,
		Payload:      uint32(raw) & valueRepPayloadMask,
	}
}

// Encode reassembles the 64-bit descriptor, the inverse of DecodeValueRep.
// Exercised only by this package's own tests, which build fixture bytes —
// the reader itself never re-encodes a ValueRep.
func (v ValueRep) Encode() uint64 {
	var flags uint64
	if v.IsArray {
		flags |= 1 << 31
	}
	if v.IsInlined {
		flags |= 1 << 30
	}
	if v.IsCompressed {
		flags |= 1 << 29
	}
	if v.IsPayload {
		flags |= 1 << 28
	}
	return uint64(v.TypeID)<<32 | flags | uint64(v.Payload&valueRepPayloadMask)
}

// typeNameByID and typeIDByName are this implementation's concrete
// assignment of the 32-bit type ids section 4.6 describes abstractly
// ("every type id must be in the value-system registry") onto the value
// package's canonical type-name registry, in the fixed declaration order of
// orderedValueTypeNames so the id table is stable across runs. The real USD
// crate format pins these ids to fixed historical constants; since that
// table is not reproduced in original_source's retrieved excerpt, this
// package defines its own closed, internally-consistent table instead of
// guessing at the upstream values.
var typeNameByID []string
var typeIDByName map[string]uint32

func init() {
	names := append([]string(nil), orderedValueTypeNames...)
	typeNameByID = names
	typeIDByName = make(map[string]uint32, len(names))
	for i, n := range names {
		typeIDByName[n] = uint32(i)
	}
}

// orderedValueTypeNames lists every scalar type name value.TypeNames()
// enumerates, in a fixed declaration order (copied here rather than sorted
// at init time so the id table never silently reorders if the value
// package's registry gains entries whose names happen to sort earlier).
var orderedValueTypeNames = []string{
	"bool", "int", "uint", "int64", "uint64", "half", "float", "double",
	"string", "token", "asset", "path", "reference", "dictionary", "timecode",
	"int2", "int3", "int4",
	"half2", "half3", "half4", "float2", "float3", "float4", "double2", "double3", "double4",
	"color3h", "color3f", "color3d", "color4h", "color4f", "color4d",
	"point3h", "point3f", "point3d", "normal3h", "normal3f", "normal3d",
	"vector3h", "vector3f", "vector3d",
	"texCoord2h", "texCoord2f", "texCoord2d", "texCoord3h", "texCoord3f", "texCoord3d",
	"quath", "quatf", "quatd",
	"matrix2d", "matrix3d", "matrix4d",
}

// TypeNameForID resolves a ValueRep.TypeID to its canonical USD type name.
func TypeNameForID(id uint32) (string, bool) {
	if int(id) < 0 || int(id) >= len(typeNameByID) {
		return "", false
	}
	return typeNameByID[id], true
}

// TypeIDForName is the inverse of TypeNameForID, used by this package's
// tests to build fixture ValueReps.
func TypeIDForName(name string) (uint32, bool) {
	id, ok := typeIDByName[name]
	return id, ok
}
