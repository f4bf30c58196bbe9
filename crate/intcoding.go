package crate

import (
	"encoding/binary"
)

// Integer coding (section 4.6): the index arrays of the STRINGS, FIELDS,
// FIELDSETS, PATHS and SPECS sections are coded
// as a first value followed by zigzag-varint deltas from the previous
// value, rather than storing every element at full width. This is the
// classic delta+variable-width scheme USD's own crate format uses for
// monotonic-ish index arrays; decode->re-encode is bit-exact for any input
// because the zigzag/varint pair is a total bijection on int64, independent
// of how well the deltas happen to compress.

// encodeInts64 int-codes a slice of int64 values.
func encodeInts64(vals []int64) []byte {
	buf := make([]byte, 0, len(vals)*2+8)
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(len(vals)))
	buf = append(buf, tmp[:n]...)
	var prev int64
	for i, v := range vals {
		var delta int64
		if i == 0 {
			delta = v
		} else {
			delta = v - prev
		}
		prev = v
		n := binary.PutVarint(tmp[:], delta)
		buf = append(buf, tmp[:n]...)
	}
	return buf
}

// decodeInts64 decodes a buffer produced by encodeInts64, returning the
// values and the number of bytes consumed.
func decodeInts64(section SectionName, data []byte) ([]int64, int64, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, 0, errIntegrity(section, 0, "malformed int-coded count")
	}
	off := int64(n)
	out := make([]int64, 0, count)
	var prev int64
	for i := uint64(0); i < count; i++ {
		if off >= int64(len(data)) {
			return nil, 0, errIntegrity(section, off, "truncated int-coded array (wanted %d elements, got %d)", count, i)
		}
		delta, n := binary.Varint(data[off:])
		if n <= 0 {
			return nil, 0, errIntegrity(section, off, "malformed int-coded delta")
		}
		off += int64(n)
		var v int64
		if i == 0 {
			v = delta
		} else {
			v = prev + delta
		}
		prev = v
		out = append(out, v)
	}
	return out, off, nil
}

// encodeUint32s/decodeUint32s narrow the int64 codec to uint32, the width
// STRINGS/FIELDS/FIELDSETS/SPECS index arrays are actually stored at.
func encodeUint32s(vals []uint32) []byte {
	wide := make([]int64, len(vals))
	for i, v := range vals {
		wide[i] = int64(v)
	}
	return encodeInts64(wide)
}

func decodeUint32s(section SectionName, data []byte) ([]uint32, int64, error) {
	wide, n, err := decodeInts64(section, data)
	if err != nil {
		return nil, 0, err
	}
	out := make([]uint32, len(wide))
	for i, v := range wide {
		if v < 0 || v > 0xFFFFFFFF {
			return nil, 0, errIntegrity(section, 0, "int-coded value %d out of uint32 range", v)
		}
		out[i] = uint32(v)
	}
	return out, n, nil
}
