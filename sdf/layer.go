package sdf

import "github.com/usdgo/usd/value"

// UpAxis is the layer-level stage-up convention.
type UpAxis string

const (
	UpAxisX UpAxis = "X"
	UpAxisY UpAxis = "Y"
	UpAxisZ UpAxis = "Z"
)

// UpAxisFromString coerces an authored upAxis string to its canonical form,
// defaulting to Y for anything unrecognized (the USD default).
func UpAxisFromString(s string) UpAxis {
	switch s {
	case "X", "Y", "Z":
		return UpAxis(s)
	default:
		return UpAxisY
	}
}

// LayerMetas carries the recognized stage metas of section 4.5.
type LayerMetas struct {
	SubLayers          []string
	SubLayerOffsets    []*value.LayerOffset
	DefaultPrim        string
	Doc                string
	UpAxis             UpAxis
	HasUpAxis          bool
	MetersPerUnit      float64
	HasMetersPerUnit   bool
	TimeCodesPerSecond float64
	FramesPerSecond    float64
	StartTimeCode      float64
	EndTimeCode        float64
	CustomLayerData    value.Dictionary
	APISchemas         []string
	Extra              map[string]value.MetaVariable
}

// Layer is (metas, rootPrimSpecs), per section 3: the output of exactly one
// reader (ascii, crate, or usdz's selected member) and the input to
// composition.
type Layer struct {
	Metas         LayerMetas
	RootPrimSpecs []*PrimSpec

	// SourceIdentifier names the asset this layer was parsed from (a file
	// path or an in-memory identifier). The composition engine's cycle
	// guard tracks resolved asset paths and does not read this field.
	SourceIdentifier string
}

// NewLayer returns an empty Layer.
func NewLayer(sourceIdentifier string) *Layer {
	return &Layer{SourceIdentifier: sourceIdentifier}
}

// FindPrim walks abs path components from the root, returning the PrimSpec
// at that path if present.
func (l *Layer) FindPrim(components []string) (*PrimSpec, bool) {
	var cur *PrimSpec
	for i, name := range components {
		var next *PrimSpec
		var ok bool
		if i == 0 {
			for _, root := range l.RootPrimSpecs {
				if root.Name == name {
					next, ok = root, true
					break
				}
			}
		} else {
			next, ok = cur.ChildByName(name)
		}
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// DefaultPrimSpec returns the PrimSpec named by Metas.DefaultPrim, or the
// first root PrimSpec if no default is authored, per the reference-
// composition rule of section 4.8.
func (l *Layer) DefaultPrimSpec() (*PrimSpec, bool) {
	if l.Metas.DefaultPrim != "" {
		for _, root := range l.RootPrimSpecs {
			if root.Name == l.Metas.DefaultPrim {
				return root, true
			}
		}
		return nil, false
	}
	if len(l.RootPrimSpecs) > 0 {
		return l.RootPrimSpecs[0], true
	}
	return nil, false
}
