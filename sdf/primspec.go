package sdf

import "github.com/usdgo/usd/value"

// PrimSpec is an authored, pre-composition scene node, per section 3:
// (name, specifier, typeName?, properties, metas, children, variantSets).
// Child names and property names are each required to be unique within a
// PrimSpec (invariant i); AddChild/AddProperty enforce this at
// construction time rather than leaving it to a later validation pass.
type PrimSpec struct {
	Name      string
	Specifier Specifier
	TypeName  string // empty for an untyped prim

	Properties    map[string]*Property
	PropertyOrder []string

	Metas PrimMetaMap

	Children    []*PrimSpec
	childByName map[string]*PrimSpec

	// VariantSets maps a variantSet name to its named variants, in
	// authoring order (VariantSetOrder/VariantOrder track that order since
	// Go maps don't).
	VariantSets     map[string]map[string]*VariantContent
	VariantSetOrder []string
	VariantOrder    map[string][]string
}

// New returns an empty PrimSpec named name.
func New(name string, specifier Specifier) *PrimSpec {
	return &PrimSpec{
		Name:         name,
		Specifier:    specifier,
		Properties:   make(map[string]*Property),
		childByName:  make(map[string]*PrimSpec),
		VariantSets:  make(map[string]map[string]*VariantContent),
		VariantOrder: make(map[string][]string),
	}
}

// AddProperty inserts prop under name, reporting false if name is already
// taken (invariant i).
func (p *PrimSpec) AddProperty(name string, prop *Property) bool {
	if _, exists := p.Properties[name]; exists {
		return false
	}
	p.Properties[name] = prop
	p.PropertyOrder = append(p.PropertyOrder, name)
	return true
}

// AddChild appends child, reporting false if a child of the same name
// already exists (invariant i).
func (p *PrimSpec) AddChild(child *PrimSpec) bool {
	if p.childByName == nil {
		p.childByName = make(map[string]*PrimSpec)
	}
	if _, exists := p.childByName[child.Name]; exists {
		return false
	}
	p.childByName[child.Name] = child
	p.Children = append(p.Children, child)
	return true
}

// ChildByName looks up a direct child by name.
func (p *PrimSpec) ChildByName(name string) (*PrimSpec, bool) {
	c, ok := p.childByName[name]
	return c, ok
}

// AddVariant registers a variant named variantName under variantSet,
// preserving both set-declaration order and variant-declaration order
// within the set.
func (p *PrimSpec) AddVariant(variantSet, variantName string, content *VariantContent) {
	if p.VariantSets == nil {
		p.VariantSets = make(map[string]map[string]*VariantContent)
	}
	if p.VariantOrder == nil {
		p.VariantOrder = make(map[string][]string)
	}
	variants, ok := p.VariantSets[variantSet]
	if !ok {
		variants = make(map[string]*VariantContent)
		p.VariantSets[variantSet] = variants
		p.VariantSetOrder = append(p.VariantSetOrder, variantSet)
	}
	if _, exists := variants[variantName]; !exists {
		p.VariantOrder[variantSet] = append(p.VariantOrder[variantSet], variantName)
	}
	variants[variantName] = content
}

// CheckUniqueChildNames verifies invariant (i)'s child-name half: useful as
// a post-hoc check on trees assembled outside AddChild (e.g. by the crate
// reader, which builds PrimSpecs out of declaration order).
func (p *PrimSpec) CheckUniqueChildNames() bool {
	seen := make(map[string]bool, len(p.Children))
	for _, c := range p.Children {
		if seen[c.Name] {
			return false
		}
		seen[c.Name] = true
	}
	return true
}

// CheckPropertyTypesMatch verifies invariant (ii): a Property's stored
// Attribute value type equals its declared type name, ignoring the "[]"
// array suffix.
func (p *PrimSpec) CheckPropertyTypesMatch() bool {
	for _, prop := range p.Properties {
		if prop.Attribute == nil || prop.Attribute.IsBlocked {
			continue
		}
		declared, _ := value.SplitArrayType(prop.Attribute.TypeName)
		var got string
		if prop.Attribute.PrimVar.IsTimeSamples {
			got, _ = prop.Attribute.PrimVar.Samples.ElementType()
			got, _ = value.SplitArrayType(got)
		} else if !prop.Attribute.PrimVar.Scalar.Blocked {
			got = prop.Attribute.PrimVar.Scalar.TypeName
		} else {
			continue
		}
		if got != "" && got != declared {
			return false
		}
	}
	return true
}
