package crate

import (
	"encoding/binary"

	"github.com/pierrec/lz4/v4"
	"github.com/pkg/errors"
	"github.com/usdgo/usd/diag"
)

// A compressed section is a sequence of chunks, each prefixed by two
// little-endian uint64 lengths (compressed, then uncompressed), followed by
// that many compressed bytes, decoded with github.com/pierrec/lz4/v4's
// block codec. The chunk-per-section scheme lets LoadSections decompress
// TOKENS/STRINGS/PATHS/SPECS/VALUEREPS independently and in parallel.
const chunkHeaderSize = 16

// compressBlock encodes data as a single self-describing chunk. Only used
// by this package's own tests to build fixture bytes — the reader never
// writes crate files (non-goal, spec.md section 1).
func compressBlock(data []byte) ([]byte, error) {
	bound := lz4.CompressBlockBound(len(data))
	compressed := make([]byte, bound)
	var c lz4.Compressor
	n, err := c.CompressBlock(data, compressed)
	if err != nil {
		return nil, errors.Wrap(err, "lz4 compress")
	}
	out := make([]byte, chunkHeaderSize)
	if n == 0 {
		// Incompressible input: lz4 reports n==0; store raw and mark
		// compressedLen == uncompressedLen as the "stored" signal.
		binary.LittleEndian.PutUint64(out[0:8], uint64(len(data)))
		binary.LittleEndian.PutUint64(out[8:16], uint64(len(data)))
		return append(out, data...), nil
	}
	binary.LittleEndian.PutUint64(out[0:8], uint64(n))
	binary.LittleEndian.PutUint64(out[8:16], uint64(len(data)))
	return append(out, compressed[:n]...), nil
}

// decompressBlock decodes one chunk produced by compressBlock, returning
// the uncompressed payload and the number of source bytes it consumed.
func decompressBlock(section SectionName, offset int64, data []byte) ([]byte, int64, error) {
	if len(data) < chunkHeaderSize {
		return nil, 0, errIntegrity(section, offset, "truncated chunk header")
	}
	compLen := binary.LittleEndian.Uint64(data[0:8])
	rawLen := binary.LittleEndian.Uint64(data[8:16])
	total := int64(chunkHeaderSize) + int64(compLen)
	if int64(len(data)) < total {
		return nil, 0, errIntegrity(section, offset, "chunk declares %d bytes, only %d available", compLen, len(data)-chunkHeaderSize)
	}
	body := data[chunkHeaderSize:total]
	if compLen == rawLen {
		// Stored, uncompressed (compressBlock's incompressible-input path).
		out := make([]byte, rawLen)
		copy(out, body)
		return out, total, nil
	}
	out := make([]byte, rawLen)
	n, err := lz4.UncompressBlock(body, out)
	if err != nil {
		return nil, 0, diag.Wrap(diag.KindIntegrity, err, "lz4 decompress %s+0x%x", section, offset)
	}
	if int64(n) != int64(rawLen) {
		return nil, 0, errIntegrity(section, offset, "decompressed %d bytes, expected %d", n, rawLen)
	}
	return out, total, nil
}

// decompressAll decodes every chunk in a section's raw byte range back to
// back, concatenating their payloads.
func decompressAll(name SectionName, data []byte) ([]byte, error) {
	var out []byte
	var off int64
	for off < int64(len(data)) {
		chunk, consumed, err := decompressBlock(name, off, data[off:])
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		off += consumed
	}
	return out, nil
}
