package composition

import (
	"github.com/pkg/errors"
	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
)

// findByPath resolves an absolute prim path within layer, used for inherits
// and specializes targets, which section 4.8 scopes to the composed
// document rather than an external asset.
func findByPath(layer *sdf.Layer, p pathutil.Path) (*sdf.PrimSpec, bool) {
	names := make([]string, len(p.Components))
	for i, c := range p.Components {
		names[i] = c.Name
	}
	return layer.FindPrim(names)
}

// CompositeInherits folds each prim's sdf.PrimMetaMap.Inherits targets into
// it as weaker opinions, then clears the list so the arc is resolved and
// removed per section 4.8's Input/Output contract. Specializes is folded
// identically but kept weaker than plain inherits, the OPEN QUESTION
// DECISIONS symmetry: both are within-document class arcs, specializes
// just loses ties to inherits when both resolve the same property.
func (c *Composer) CompositeInherits(layer *sdf.Layer) (bool, *diag.List, error) {
	warnings := &diag.List{}
	changed := false

	walkPrims(layer, func(prim *sdf.PrimSpec, path pathutil.Path) {
		for _, target := range prim.Metas.Inherits {
			src, ok := findByPath(layer, target)
			if !ok {
				warnings.Add("%s: inherits target %q not found", path, target)
				continue
			}
			mergeWeaker(prim, src)
			changed = true
		}
		if len(prim.Metas.Inherits) > 0 {
			changed = true
		}
		prim.Metas.Inherits = nil
		prim.Metas.InheritsEdit = sdf.Explicit

		for _, target := range prim.Metas.Specializes {
			src, ok := findByPath(layer, target)
			if !ok {
				warnings.Add("%s: specializes target %q not found", path, target)
				continue
			}
			mergeWeaker(prim, src)
			changed = true
		}
		prim.Metas.Specializes = nil
		prim.Metas.SpecializesEdit = sdf.Explicit
	})

	return changed, warnings, nil
}

// CompositeVariant expands each selected variant's content into the
// selecting prim as a weaker opinion (section 4.8 places VariantSets
// between Inherits and References in strength), then removes the
// consumed variantSet so repeated passes converge, per the Input/Output
// "resolved and removed" contract.
func (c *Composer) CompositeVariant(layer *sdf.Layer) (bool, *diag.List, error) {
	warnings := &diag.List{}
	changed := false

	walkPrims(layer, func(prim *sdf.PrimSpec, path pathutil.Path) {
		var remaining []string
		for _, setName := range prim.Metas.VariantSetNames {
			selection, selected := prim.Metas.Variants[setName]
			variants, hasSet := prim.VariantSets[setName]
			if !hasSet {
				remaining = append(remaining, setName)
				continue
			}
			if !selected {
				if def, ok := defaultVariant(variants, prim.VariantOrder[setName]); ok {
					selection = def
				} else {
					remaining = append(remaining, setName)
					continue
				}
			}
			content, ok := variants[selection]
			if !ok {
				warnings.Add("%s: variantSet %q has no variant %q", path, setName, selection)
				remaining = append(remaining, setName)
				continue
			}
			applyVariantContent(prim, content)
			delete(prim.VariantSets, setName)
			changed = true
		}
		prim.Metas.VariantSetNames = remaining
	})

	return changed, warnings, nil
}

func defaultVariant(variants map[string]*sdf.VariantContent, order []string) (string, bool) {
	if len(order) == 0 {
		return "", false
	}
	return order[0], true
}

func applyVariantContent(prim *sdf.PrimSpec, content *sdf.VariantContent) {
	for _, name := range content.PropertyOrder {
		if _, exists := prim.Properties[name]; !exists {
			prim.AddProperty(name, content.Properties[name])
		}
	}
	for _, ch := range content.Children {
		if _, exists := prim.ChildByName(ch.Name); !exists {
			prim.AddChild(ch)
		}
	}
}

// CompositeReferences loads each referenced layer's target prim (the
// reference's explicit prim path, or the referenced layer's default prim,
// section 4.8) and folds it in as a weaker opinion, then clears the list.
func (c *Composer) CompositeReferences(layer *sdf.Layer) (bool, *diag.List, error) {
	return c.compositeArcList(layer,
		func(m *sdf.PrimMetaMap) []value.Reference { return m.References },
		func(m *sdf.PrimMetaMap) { m.References = nil; m.ReferencesEdit = sdf.Explicit },
		"references",
	)
}

// CompositePayload behaves identically to CompositeReferences; section
// 4.8 treats payload as references that may be deferred, and this reader
// always loads them eagerly (deferred/unload-set payloads are a
// Non-goal), so the two arcs share one implementation.
func (c *Composer) CompositePayload(layer *sdf.Layer) (bool, *diag.List, error) {
	return c.compositeArcList(layer,
		func(m *sdf.PrimMetaMap) []value.Reference { return m.Payload },
		func(m *sdf.PrimMetaMap) { m.Payload = nil; m.PayloadEdit = sdf.Explicit },
		"payload",
	)
}

func (c *Composer) compositeArcList(layer *sdf.Layer, get func(*sdf.PrimMetaMap) []value.Reference, clear func(*sdf.PrimMetaMap), kind string) (bool, *diag.List, error) {
	warnings := &diag.List{}
	changed := false
	var firstErr error

	walkPrims(layer, func(prim *sdf.PrimSpec, path pathutil.Path) {
		if firstErr != nil {
			return
		}
		refs := get(&prim.Metas)
		if len(refs) == 0 {
			return
		}
		for _, ref := range refs {
			src, w, err := c.loadReferenceTarget(ref)
			warnings.Extend(w)
			if err != nil {
				firstErr = errors.Wrapf(err, "%s: %s arc", path, kind)
				return
			}
			if src == nil {
				warnings.Add("%s: %s target has no root prim", path, kind)
				continue
			}
			mergeWeaker(prim, src)
			changed = true
		}
		clear(&prim.Metas)
	})

	if firstErr != nil {
		return false, warnings, firstErr
	}
	return changed, warnings, nil
}

// loadReferenceTarget resolves and loads a value.Reference's asset, then
// picks either its explicitly named prim path or the loaded layer's
// default prim, section 4.8's rule for references/payload.
func (c *Composer) loadReferenceTarget(ref value.Reference) (*sdf.PrimSpec, *diag.List, error) {
	resolved := ref.AssetPath.Raw
	if c.Resolver != nil {
		if r := c.Resolver.Resolve(ref.AssetPath.Raw); r != "" {
			resolved = r
		}
	}
	sub, warnings, err := c.Load(resolved)
	if err != nil {
		return nil, warnings, err
	}
	composed, w, err := c.CompositeSublayers(sub, make(map[string]bool), 0)
	if warnings == nil {
		warnings = w
	} else {
		warnings.Extend(w)
	}
	if err != nil {
		return nil, warnings, err
	}

	if ref.PrimPath != nil {
		prim, ok := findByPath(composed, *ref.PrimPath)
		if !ok {
			return nil, warnings, errors.Errorf("referenced prim %q not found in %q", ref.PrimPath.String(), resolved)
		}
		return prim, warnings, nil
	}
	prim, ok := composed.DefaultPrimSpec()
	if !ok {
		return nil, warnings, nil
	}
	return prim, warnings, nil
}
