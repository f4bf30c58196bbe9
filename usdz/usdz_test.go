package usdz

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// localFileHeader appends one stored, unencrypted local-file-header record
// for name/data onto buf, padding (with the extra field) so the data
// payload starts at a 64-byte-aligned absolute offset, then returns the
// extended buffer.
func localFileHeader(buf []byte, name string, data []byte) []byte {
	headerStart := int64(len(buf))
	fixedLen := int64(30 + len(name))
	dataStart := headerStart + fixedLen
	pad := 0
	if rem := dataStart % Alignment; rem != 0 {
		pad = int(Alignment - rem)
	}

	hdr := make([]byte, 30)
	binary.LittleEndian.PutUint32(hdr[0:4], localFileHeaderSignature)
	// version needed (2), flags (2, unencrypted), method (2, stored)
	binary.LittleEndian.PutUint16(hdr[8:10], storedMethod)
	binary.LittleEndian.PutUint32(hdr[18:22], uint32(len(data)))
	binary.LittleEndian.PutUint32(hdr[22:26], uint32(len(data)))
	binary.LittleEndian.PutUint16(hdr[26:28], uint16(len(name)))
	binary.LittleEndian.PutUint16(hdr[28:30], uint16(pad))

	buf = append(buf, hdr...)
	buf = append(buf, name...)
	buf = append(buf, make([]byte, pad)...)
	buf = append(buf, data...)
	return buf
}

func TestReadSelectsUSDCOverUSDA(t *testing.T) {
	var buf []byte
	buf = localFileHeader(buf, "scene.usda", []byte("#usda 1.0\n"))
	buf = localFileHeader(buf, "scene.usdc", []byte("PXR-USDC fake payload.."))
	buf = localFileHeader(buf, "tex/albedo.png", []byte{0x89, 'P', 'N', 'G'})

	idx, err := Read(buf)
	require.NoError(t, err)
	require.Len(t, idx.Entries, 3)
	assert.Equal(t, "scene.usdc", idx.PrimaryName)
	assert.True(t, idx.PrimaryIsUSDC)
	assert.True(t, idx.SawBothKinds)
	assert.Equal(t, "scene.usda", idx.SecondaryName)

	entry, ok := idx.ByName("tex/albedo.png")
	require.True(t, ok)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, entry.Data(buf))
}

func TestReadRejectsCompressedEntry(t *testing.T) {
	var buf []byte
	buf = localFileHeader(buf, "scene.usda", []byte("#usda 1.0\n"))
	binary.LittleEndian.PutUint16(buf[8:10], 8) // method 8 == deflate

	_, err := Read(buf)
	assert.Error(t, err)
}

func TestReadRejectsEncryptedEntry(t *testing.T) {
	var buf []byte
	buf = localFileHeader(buf, "scene.usda", []byte("#usda 1.0\n"))
	binary.LittleEndian.PutUint16(buf[6:8], encryptedFlag)

	_, err := Read(buf)
	assert.Error(t, err)
}

func TestReadUSDAOnlyArchive(t *testing.T) {
	var buf []byte
	buf = localFileHeader(buf, "scene.usda", []byte("#usda 1.0\n"))

	idx, err := Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "scene.usda", idx.PrimaryName)
	assert.False(t, idx.PrimaryIsUSDC)
	assert.False(t, idx.SawBothKinds)
}
