// Package crate implements the binary reader for USDC ("crate") files:
// section 4.6. The on-disk layout is a fixed-size bootstrap header, a
// table-of-contents naming a handful of fixed sections (tokens, strings,
// fields, fieldsets, paths, specs, value-reps), each independently LZ4-
// compressed and integer-coded, followed by materialization of those
// sections into the same *sdf.Layer the ascii reader produces.
//
// Grounded on loader/gltf/loader.go's ParseBinReader/readChunk (magic +
// version + chunk framing with binary.Read/binary.LittleEndian),
// generalized from a two-chunk GLB layout to a multi-section TOC, the way
// original_source/src/usdc-reader.hh names its own section table. Crate
// write-support is an explicit non-goal (spec.md section 1); this package
// only ever decodes.
package crate

import "github.com/usdgo/usd/diag"

// Magic is the required 8-byte file signature.
const Magic = "PXR-USDC"

// BootstrapSize is the fixed size of the leading bootstrap record: 8-byte
// magic, 8-byte version (3 data bytes + 5 reserved zero bytes), 8-byte TOC
// offset, padded out to the minimum-valid-file size required by section 6.
const BootstrapSize = 88

// SectionName enumerates the fixed section identifiers of section 4.6.
// Naming is abstract per the spec ("implementers may map to actual on-disk
// identifiers"); these sixteen-byte, null-padded ASCII names are this
// implementation's concrete choice.
type SectionName string

const (
	SectionTokens    SectionName = "TOKENS"
	SectionStrings   SectionName = "STRINGS"
	SectionFields    SectionName = "FIELDS"
	SectionFieldSets SectionName = "FIELDSETS"
	SectionPaths     SectionName = "PATHS"
	SectionSpecs     SectionName = "SPECS"
	SectionValueReps SectionName = "VALUEREPS"
)

// sectionNameWidth is the fixed on-disk width of a TOC entry's name field.
const sectionNameWidth = 16

// Bootstrap is the decoded leading record of a crate file.
type Bootstrap struct {
	VersionMajor byte
	VersionMinor byte
	VersionPatch byte
	TocOffset    int64
}

// Section is one TOC entry: a named, contiguous byte range.
type Section struct {
	Name  SectionName
	Start int64
	Size  int64
}

// TOC is the decoded table of contents.
type TOC struct {
	Sections []Section
}

// Find returns the section named n, if present.
func (t TOC) Find(n SectionName) (Section, bool) {
	for _, s := range t.Sections {
		if s.Name == n {
			return s, true
		}
	}
	return Section{}, false
}

// SpecType distinguishes what kind of scene-description object a Spec
// describes, per section 4.6.
type SpecType int

const (
	SpecPrim SpecType = iota
	SpecAttribute
	SpecRelationship
	SpecPseudoRoot
	SpecVariant
	SpecVariantSet
)

func (t SpecType) String() string {
	switch t {
	case SpecPrim:
		return "Prim"
	case SpecAttribute:
		return "Attribute"
	case SpecRelationship:
		return "Relationship"
	case SpecPseudoRoot:
		return "PseudoRoot"
	case SpecVariant:
		return "Variant"
	case SpecVariantSet:
		return "VariantSet"
	default:
		return "Unknown"
	}
}

func errIntegrity(section SectionName, offset int64, format string, args ...interface{}) error {
	return diag.AtBin(diag.KindIntegrity, diag.BinPos{Section: string(section), Offset: offset}, format, args...)
}
