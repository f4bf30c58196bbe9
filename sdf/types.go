// Package sdf implements the composition-agnostic scene description data
// model of section 3: PrimSpec, Property, Layer, and friends. It is
// produced by exactly one of the three readers (ascii, crate, usdz) and is
// thereafter an immutable input to the composition package, mirroring the
// lifecycle rule of section 3.
package sdf

import (
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/value"
)

// Specifier is a PrimSpec's authoring kind.
type Specifier int

const (
	Def Specifier = iota
	Over
	Class
)

func (s Specifier) String() string {
	switch s {
	case Def:
		return "def"
	case Over:
		return "over"
	case Class:
		return "class"
	default:
		return "unknown"
	}
}

// Variability distinguishes a uniform attribute (authored once, no time
// samples) from a varying one.
type Variability int

const (
	Varying Variability = iota
	Uniform
)

// ListEditQualifier governs how a list-valued opinion combines across
// layers during composition.
type ListEditQualifier int

const (
	Explicit ListEditQualifier = iota
	Add
	Prepend
	Append
	Delete
	Reorder
	ResetToExplicit
)

// PrimVar is either a single scalar Value or an ordered TimeSamples map,
// per section 3.
type PrimVar struct {
	IsTimeSamples bool
	Scalar        value.Value
	Samples       value.TimeSamples
}

// AttrMeta carries the first-class attribute metas of section 4.5 plus any
// unknown-but-registered keys.
type AttrMeta struct {
	Interpolation string
	ElementSize   uint
	HasElemSize   bool
	ColorSpace    string
	CustomData    value.Dictionary
	Extra         map[string]value.MetaVariable

	// Connections holds the target paths authored via the ".connect"
	// attribute-name suffix of section 4.5.
	Connections []pathutil.Path
}

// Attribute is (name, typeName, variability, isCustom, isBlocked, primvar,
// metas), per section 3.
type Attribute struct {
	Name        string
	TypeName    string
	Variability Variability
	IsCustom    bool
	IsBlocked   bool
	PrimVar     PrimVar
	Metas       AttrMeta
}

// RelKind distinguishes a Relationship's authored shape.
type RelKind int

const (
	RelNone RelKind = iota
	RelSinglePath
	RelPathList
	RelString
	RelBlocked
)

// Relationship is either none-authored, a single Path, a list of Paths, a
// string placeholder, or blocked, per section 3.
type Relationship struct {
	Kind      RelKind
	Path      pathutil.Path
	Paths     []pathutil.Path
	StringVal string
	ListEdit  ListEditQualifier
}

// Property is either an Attribute or a Relationship plus a list-edit
// qualifier and a custom flag, per section 3.
type Property struct {
	Attribute    *Attribute
	Relationship *Relationship
	ListEdit     ListEditQualifier
	Custom       bool
}

// IsRelationship reports whether this Property wraps a Relationship rather
// than an Attribute.
func (p *Property) IsRelationship() bool { return p.Relationship != nil }

// PrimMetaMap carries the recognized prim metas of section 4.5.
type PrimMetaMap struct {
	Kind            string
	References      []value.Reference
	ReferencesEdit  ListEditQualifier
	Payload         []value.Reference
	PayloadEdit     ListEditQualifier
	Inherits        []pathutil.Path
	InheritsEdit    ListEditQualifier
	Specializes     []pathutil.Path
	SpecializesEdit ListEditQualifier
	VariantSetNames []string
	Variants        map[string]string
	Active          *bool
	Hidden          *bool
	APISchemas      []string
	CustomData      value.Dictionary
	AssetInfo       value.Dictionary
	Doc             string
	Extra           map[string]value.MetaVariable
}

// VariantContent is the (properties, children) pair authored inside one
// variant of a variantSet.
type VariantContent struct {
	Properties    map[string]*Property
	PropertyOrder []string
	Children      []*PrimSpec
}

// NewVariantContent returns an empty, ready-to-populate VariantContent.
func NewVariantContent() *VariantContent {
	return &VariantContent{Properties: make(map[string]*Property)}
}

// AddProperty inserts prop under name, enforcing the property-name
// uniqueness half of invariant (i).
func (vc *VariantContent) AddProperty(name string, prop *Property) bool {
	if _, exists := vc.Properties[name]; exists {
		return false
	}
	vc.Properties[name] = prop
	vc.PropertyOrder = append(vc.PropertyOrder, name)
	return true
}
