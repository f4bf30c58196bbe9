package crate

import (
	"context"
	"encoding/binary"
	"sync"

	"github.com/google/uuid"
	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
	"golang.org/x/sync/errgroup"
)

// Options configures a Reader, mirroring the relevant fields of the
// top-level LoadOptions (section 6): NumThreads bounds the LoadSections
// worker pool (section 5); <=1 disables parallelism.
type Options struct {
	NumThreads int
}

// field is one decoded FIELDS-section entry: a field-name token paired
// with the ValueRep carrying its payload.
type field struct {
	NameIdx uint32
	Rep     ValueRep
}

// pathEntry is one decoded PATHS-section entry.
type pathEntry struct {
	ParentIdx  int64 // -1 for the pseudo-root
	ElementIdx int64 // index into tokens, the path's last component name
	IsProperty bool
}

// spec is one decoded SPECS-section entry.
type spec struct {
	PathIdx     uint32
	FieldSetIdx uint32
	Type        SpecType
}

// sections holds every decoded (decompressed, int-decoded) section ready
// for spec materialization.
type sections struct {
	tokens    []string
	strings   []string
	fields    []field
	fieldSets [][]uint32 // one []fieldIndex per spec, in SPECS order
	paths     []pathEntry
	specs     []spec
	valueReps []byte
}

// Reader decodes a USDC buffer into an *sdf.Layer.
type Reader struct {
	data []byte
	opts Options

	// RunID is a fresh UUID assigned by New; Read does not attach it to
	// the warnings or errors it returns.
	RunID uuid.UUID
}

// New returns a Reader over a complete in-memory USDC buffer.
func New(data []byte, opts Options) *Reader {
	return &Reader{data: data, opts: opts, RunID: uuid.New()}
}

// ReadBootstrap validates the magic and decodes the fixed leading record.
func (r *Reader) ReadBootstrap() (Bootstrap, error) {
	if len(r.data) < BootstrapSize {
		return Bootstrap{}, diag.New(diag.KindFormat, "usdc file too small: %d bytes, minimum %d", len(r.data), BootstrapSize)
	}
	if string(r.data[:8]) != Magic {
		return Bootstrap{}, diag.New(diag.KindFormat, "bad usdc magic %q", r.data[:8])
	}
	version := r.data[8:16]
	for _, b := range version[3:8] {
		if b != 0 {
			return Bootstrap{}, diag.New(diag.KindFormat, "non-zero reserved version bytes")
		}
	}
	toc := int64(binary.LittleEndian.Uint64(r.data[16:24]))
	if toc < BootstrapSize || toc >= int64(len(r.data)) {
		return Bootstrap{}, errIntegrity("", 16, "toc offset %d out of range", toc)
	}
	return Bootstrap{VersionMajor: version[0], VersionMinor: version[1], VersionPatch: version[2], TocOffset: toc}, nil
}

// ReadTOC decodes the table of contents at boot.TocOffset.
func (r *Reader) ReadTOC(boot Bootstrap) (TOC, error) {
	off := boot.TocOffset
	if off+8 > int64(len(r.data)) {
		return TOC{}, errIntegrity(SectionName("TOC"), off, "truncated toc count")
	}
	count := binary.LittleEndian.Uint64(r.data[off : off+8])
	off += 8
	var t TOC
	entrySize := int64(sectionNameWidth + 8 + 8)
	for i := uint64(0); i < count; i++ {
		if off+entrySize > int64(len(r.data)) {
			return TOC{}, errIntegrity(SectionName("TOC"), off, "truncated toc entry %d", i)
		}
		nameBytes := r.data[off : off+sectionNameWidth]
		name := string(trimZero(nameBytes))
		start := int64(binary.LittleEndian.Uint64(r.data[off+sectionNameWidth : off+sectionNameWidth+8]))
		size := int64(binary.LittleEndian.Uint64(r.data[off+sectionNameWidth+8 : off+entrySize]))
		if start < 0 || size < 0 || start+size > int64(len(r.data)) {
			return TOC{}, errIntegrity(SectionName(name), start, "section out of range (start=%d size=%d)", start, size)
		}
		t.Sections = append(t.Sections, Section{Name: SectionName(name), Start: start, Size: size})
		off += entrySize
	}
	return t, nil
}

func trimZero(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

// LoadSections decompresses every named section concurrently, bounded by
// Options.NumThreads (<=1 runs sequentially), using
// golang.org/x/sync/errgroup the way the spec's state-machine names
// "LoadSections(parallel)" (section 4.10).
func (r *Reader) LoadSections(ctx context.Context, toc TOC) (*sections, error) {
	limit := r.opts.NumThreads
	if limit < 1 {
		limit = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	raw := make(map[SectionName][]byte, len(toc.Sections))
	var mu sync.Mutex

	for _, sec := range toc.Sections {
		sec := sec
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			payload, err := decompressAll(sec.Name, r.data[sec.Start:sec.Start+sec.Size])
			if err != nil {
				return err
			}
			mu.Lock()
			raw[sec.Name] = payload
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &sections{}
	var err error
	if b, ok := raw[SectionTokens]; ok {
		s.tokens, err = decodeStringTable(SectionTokens, b)
		if err != nil {
			return nil, err
		}
	}
	if b, ok := raw[SectionStrings]; ok {
		idxs, _, err := decodeUint32s(SectionStrings, b)
		if err != nil {
			return nil, err
		}
		s.strings = make([]string, len(idxs))
		for i, idx := range idxs {
			if int(idx) >= len(s.tokens) {
				return nil, errIntegrity(SectionStrings, int64(i), "string index %d out of range", idx)
			}
			s.strings[i] = s.tokens[idx]
		}
	}
	if b, ok := raw[SectionFields]; ok {
		s.fields, err = decodeFields(b)
		if err != nil {
			return nil, err
		}
	}
	if b, ok := raw[SectionFieldSets]; ok {
		idxs, _, err := decodeUint32s(SectionFieldSets, b)
		if err != nil {
			return nil, err
		}
		s.fieldSets = splitFieldSets(idxs)
	}
	if b, ok := raw[SectionPaths]; ok {
		s.paths, err = decodePaths(b)
		if err != nil {
			return nil, err
		}
	}
	if b, ok := raw[SectionSpecs]; ok {
		s.specs, err = decodeSpecs(b)
		if err != nil {
			return nil, err
		}
	}
	if b, ok := raw[SectionValueReps]; ok {
		s.valueReps = b
	}
	return s, nil
}

// decodeStringTable decodes TOKENS: a uvarint count followed by that many
// NUL-terminated UTF-8 strings back to back.
func decodeStringTable(name SectionName, data []byte) ([]string, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, errIntegrity(name, 0, "malformed token count")
	}
	off := n
	out := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		start := off
		for off < len(data) && data[off] != 0 {
			off++
		}
		if off >= len(data) {
			return nil, errIntegrity(name, int64(off), "unterminated token %d", i)
		}
		out = append(out, string(data[start:off]))
		off++
	}
	return out, nil
}

// decodeFields decodes FIELDS: a uvarint count, then int-coded name indices
// and int-coded 64-bit ValueRep words, parallel arrays of that count.
func decodeFields(data []byte) ([]field, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, errIntegrity(SectionFields, 0, "malformed field count")
	}
	off := int64(n)
	nameIdxs, consumed, err := decodeUint32s(SectionFields, data[off:])
	if err != nil {
		return nil, err
	}
	off += consumed
	repWords, _, err := decodeInts64(SectionFields, data[off:])
	if err != nil {
		return nil, err
	}
	if uint64(len(nameIdxs)) != count || uint64(len(repWords)) != count {
		return nil, errIntegrity(SectionFields, 0, "field array length mismatch")
	}
	out := make([]field, count)
	for i := range out {
		out[i] = field{NameIdx: nameIdxs[i], Rep: DecodeValueRep(uint64(repWords[i]))}
	}
	return out, nil
}

// splitFieldSets splits a flat FIELDSETS index stream into per-spec groups,
// each terminated by the sentinel 0xFFFFFFFF.
func splitFieldSets(flat []uint32) [][]uint32 {
	var out [][]uint32
	var cur []uint32
	for _, idx := range flat {
		if idx == 0xFFFFFFFF {
			out = append(out, cur)
			cur = nil
			continue
		}
		cur = append(cur, idx)
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// decodePaths decodes PATHS: a uvarint count, then three int-coded int64
// arrays (parent indices, element token indices, is-property flags).
func decodePaths(data []byte) ([]pathEntry, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, errIntegrity(SectionPaths, 0, "malformed path count")
	}
	off := int64(n)
	parents, consumed, err := decodeInts64(SectionPaths, data[off:])
	if err != nil {
		return nil, err
	}
	off += consumed
	elements, consumed, err := decodeInts64(SectionPaths, data[off:])
	if err != nil {
		return nil, err
	}
	off += consumed
	isProp, _, err := decodeInts64(SectionPaths, data[off:])
	if err != nil {
		return nil, err
	}
	if uint64(len(parents)) != count || uint64(len(elements)) != count || uint64(len(isProp)) != count {
		return nil, errIntegrity(SectionPaths, 0, "path array length mismatch")
	}
	out := make([]pathEntry, count)
	for i := range out {
		out[i] = pathEntry{ParentIdx: parents[i], ElementIdx: elements[i], IsProperty: isProp[i] != 0}
	}
	return out, nil
}

// decodeSpecs decodes SPECS: a uvarint count, then three int-coded uint32
// arrays (path indices, fieldset indices, spec types).
func decodeSpecs(data []byte) ([]spec, error) {
	count, n := binary.Uvarint(data)
	if n <= 0 {
		return nil, errIntegrity(SectionSpecs, 0, "malformed spec count")
	}
	off := int64(n)
	pathIdxs, consumed, err := decodeUint32s(SectionSpecs, data[off:])
	if err != nil {
		return nil, err
	}
	off += consumed
	fsIdxs, consumed, err := decodeUint32s(SectionSpecs, data[off:])
	if err != nil {
		return nil, err
	}
	off += consumed
	types, _, err := decodeUint32s(SectionSpecs, data[off:])
	if err != nil {
		return nil, err
	}
	if uint64(len(pathIdxs)) != count || uint64(len(fsIdxs)) != count || uint64(len(types)) != count {
		return nil, errIntegrity(SectionSpecs, 0, "spec array length mismatch")
	}
	out := make([]spec, count)
	for i := range out {
		out[i] = spec{PathIdx: pathIdxs[i], FieldSetIdx: fsIdxs[i], Type: SpecType(types[i])}
	}
	return out, nil
}

// resolvePath reconstructs the full pathutil.Path for paths[idx] by walking
// its parent chain, memoizing as it goes.
func resolvePath(paths []pathEntry, tokens []string, idx int64, cache map[int64]pathutil.Path) (pathutil.Path, error) {
	if idx < 0 {
		return pathutil.Root, nil
	}
	if p, ok := cache[idx]; ok {
		return p, nil
	}
	if int(idx) >= len(paths) {
		return pathutil.Path{}, errIntegrity(SectionPaths, idx, "path index %d out of range", idx)
	}
	e := paths[idx]
	parent, err := resolvePath(paths, tokens, e.ParentIdx, cache)
	if err != nil {
		return pathutil.Path{}, err
	}
	if int(e.ElementIdx) >= len(tokens) {
		return pathutil.Path{}, errIntegrity(SectionPaths, idx, "element token index %d out of range", e.ElementIdx)
	}
	name := tokens[e.ElementIdx]
	var full pathutil.Path
	if e.IsProperty {
		full = parent.AppendProperty(name)
	} else {
		full = parent.AppendChild(name)
	}
	cache[idx] = full
	return full, nil
}

// DecodeValue materializes a ValueRep into a value.Value, reading the
// out-of-line VALUEREPS payload when the value isn't inlined. typeName must
// resolve via TypeNameForID.
func DecodeValue(rep ValueRep, s *sections) (value.Value, error) {
	typeName, ok := TypeNameForID(rep.TypeID)
	if !ok {
		return value.Value{}, errIntegrity(SectionValueReps, int64(rep.Payload), "unknown value type id %d", rep.TypeID)
	}
	if rep.IsInlined && !rep.IsArray {
		return decodeInlineScalar(typeName, rep.Payload, s)
	}
	if int(rep.Payload) > len(s.valueReps) {
		return value.Value{}, errIntegrity(SectionValueReps, int64(rep.Payload), "out-of-line value offset beyond section")
	}
	return decodeOutOfLineValue(typeName, rep.IsArray, rep.IsCompressed, s.valueReps[rep.Payload:])
}

// decodeInlineScalar decodes the handful of scalar types small enough to
// fit in the 28-bit payload: bool, token/string table index, and small
// integers. Wider scalars (double, vectors, matrices) are never inlined.
func decodeInlineScalar(typeName string, payload uint32, s *sections) (value.Value, error) {
	switch typeName {
	case "bool":
		return value.NewScalar("bool", payload != 0)
	case "int":
		return value.NewScalar("int", int32(payload))
	case "uint":
		return value.NewScalar("uint", payload)
	case "token":
		if int(payload) >= len(s.tokens) {
			return value.Value{}, errIntegrity(SectionValueReps, int64(payload), "inline token index out of range")
		}
		return value.NewScalar("token", pathutil.Intern(s.tokens[payload]))
	default:
		return value.Value{}, errIntegrity(SectionValueReps, int64(payload), "type %q is never inlined", typeName)
	}
}

// decodeOutOfLineValue decodes a value.Value out of the VALUEREPS payload
// tail, optionally LZ4-compressed. The wire shape mirrors the ascii
// reader's scalar parsing: fixed-width little-endian fields per type,
// arrays prefixed by a little-endian uint32 element count.
func decodeOutOfLineValue(typeName string, isArray, isCompressed bool, tail []byte) (value.Value, error) {
	if isCompressed {
		var err error
		tail, err = decompressAll(SectionValueReps, tail)
		if err != nil {
			return value.Value{}, err
		}
	}
	dec := newFieldDecoder(tail)
	if isArray {
		return dec.decodeArray(typeName)
	}
	return dec.decodeScalar(typeName)
}

// diagWarnIfFieldUnknown is used by Materialize to downgrade an
// unrecognized field name to a warning instead of a hard failure, per the
// recoverable/fatal split of section 4.11 ("unknown attribute meta key").
func diagWarnIfFieldUnknown(warnings *diag.List, specPath string, name string) {
	warnings.Add("spec %s: unrecognized crate field %q ignored", specPath, name)
}

// Read runs the full state machine of section 4.10: ReadMagic -> ReadTOC ->
// LoadSections(parallel) -> ValidateIndices -> MaterializeSpecs, returning
// the same *sdf.Layer shape the ascii reader builds from USDA text.
func (r *Reader) Read(ctx context.Context, sourceIdentifier string) (*sdf.Layer, *diag.List, error) {
	boot, err := r.ReadBootstrap()
	if err != nil {
		return nil, nil, err
	}
	toc, err := r.ReadTOC(boot)
	if err != nil {
		return nil, nil, err
	}
	secs, err := r.LoadSections(ctx, toc)
	if err != nil {
		return nil, nil, err
	}
	return r.Materialize(secs, sourceIdentifier)
}
