// Package composition implements the LIVRPS composition engine of section
// 4.8: folding sublayers, references, payloads, inherits, specializes and
// variant selections into a single flattened sdf.Layer.
//
// Grounded on original_source's composition.cc for the algorithm shape
// (a fixpoint loop over independent arc kinds until no pass changes
// anything) and on loader/collada/collada.go's resolve-by-id-with-a-
// visited-set pattern for cycle detection while recursively pulling in
// external layers.
package composition

import (
	"github.com/pkg/errors"
	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/resolver"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/value"
)

// referenceKey identifies a value.Reference for list-op dedup/delete
// purposes by its asset path and, if present, its target prim path.
func referenceKey(r value.Reference) string {
	key := r.AssetPath.Raw
	if r.PrimPath != nil {
		key += r.PrimPath.String()
	}
	return key
}

// MaxFixpointPasses bounds the CompositeReferences/Payload/Inherits/Variant
// loop, section 4.8's "at most 128 passes" guard against runaway or
// mutually-dependent arcs that never settle.
const MaxFixpointPasses = 128

// MaxSublayerDepth bounds sublayer recursion, section 4.8's 1,048,576 guard
// against pathological or cyclic sublayer graphs.
const MaxSublayerDepth = 1048576

// LayerLoader loads another layer by asset identifier. The composition
// package never parses USDA/USDC/USDZ itself — it is handed a loader
// callback so it stays decoupled from the ascii/crate/usdz packages, the
// way loader/collada's Decode takes an io.Reader opener instead of
// hard-coding a filesystem.
type LayerLoader func(resolvedIdentifier string) (*sdf.Layer, *diag.List, error)

// Composer runs the composition algorithm against one root layer.
type Composer struct {
	Resolver *resolver.Resolver
	Load     LayerLoader
}

// New returns a Composer using res for reference/payload/sublayer asset
// resolution and load to materialize a resolved identifier into a Layer.
func New(res *resolver.Resolver, load LayerLoader) *Composer {
	return &Composer{Resolver: res, Load: load}
}

// Compose runs the full section 4.8 pipeline: CompositeSublayers once,
// then a fixpoint of CompositeReferences/Payload/Inherits/Variant (with
// Specializes folded into the inherits pass, per the OPEN QUESTION
// DECISIONS symmetry), returning the flattened layer.
func (c *Composer) Compose(root *sdf.Layer) (*sdf.Layer, *diag.List, error) {
	warnings := &diag.List{}

	layer, w, err := c.CompositeSublayers(root, make(map[string]bool), 0)
	warnings.Extend(w)
	if err != nil {
		return nil, warnings, err
	}

	for pass := 0; pass < MaxFixpointPasses; pass++ {
		changed := false

		var err error
		var w *diag.List
		var did bool

		did, w, err = c.CompositeVariant(layer)
		warnings.Extend(w)
		if err != nil {
			return nil, warnings, err
		}
		changed = changed || did

		did, w, err = c.CompositeInherits(layer)
		warnings.Extend(w)
		if err != nil {
			return nil, warnings, err
		}
		changed = changed || did

		did, w, err = c.CompositeReferences(layer)
		warnings.Extend(w)
		if err != nil {
			return nil, warnings, err
		}
		changed = changed || did

		did, w, err = c.CompositePayload(layer)
		warnings.Extend(w)
		if err != nil {
			return nil, warnings, err
		}
		changed = changed || did

		if !changed {
			return layer, warnings, nil
		}
	}

	warnings.Add("composition did not reach a fixpoint within %d passes", MaxFixpointPasses)
	return layer, warnings, nil
}

// CompositeSublayers recursively resolves and loads layer.Metas.SubLayers,
// strongest-listed-first per section 4.5, folding each weaker sublayer's
// root prims underneath layer's own (stronger) opinions. visiting holds
// the resolved identifiers currently on the load stack, guarding against a
// sublayer cycle (scenario S3); depth bounds pathological nesting.
func (c *Composer) CompositeSublayers(layer *sdf.Layer, visiting map[string]bool, depth int) (*sdf.Layer, *diag.List, error) {
	warnings := &diag.List{}
	if depth > MaxSublayerDepth {
		return nil, warnings, errors.Errorf("sublayer nesting exceeds %d", MaxSublayerDepth)
	}

	out := &sdf.Layer{Metas: layer.Metas, SourceIdentifier: layer.SourceIdentifier}
	out.RootPrimSpecs = append(out.RootPrimSpecs, layer.RootPrimSpecs...)
	out.Metas.SubLayers = nil

	for _, assetPath := range layer.Metas.SubLayers {
		resolved := assetPath
		if c.Resolver != nil {
			if r := c.Resolver.Resolve(assetPath); r != "" {
				resolved = r
			}
		}
		if visiting[resolved] {
			return nil, warnings, errors.Errorf("sublayer cycle detected: %q is already being composed", resolved)
		}

		sub, w, err := c.Load(resolved)
		warnings.Extend(w)
		if err != nil {
			return nil, warnings, errors.Wrapf(err, "loading sublayer %q", assetPath)
		}

		visiting[resolved] = true
		composedSub, w, err := c.CompositeSublayers(sub, visiting, depth+1)
		delete(visiting, resolved)
		warnings.Extend(w)
		if err != nil {
			return nil, warnings, err
		}

		mergeSublayerRoots(out, composedSub)
		if !out.Metas.HasUpAxis && composedSub.Metas.HasUpAxis {
			out.Metas.UpAxis, out.Metas.HasUpAxis = composedSub.Metas.UpAxis, true
		}
		if !out.Metas.HasMetersPerUnit && composedSub.Metas.HasMetersPerUnit {
			out.Metas.MetersPerUnit, out.Metas.HasMetersPerUnit = composedSub.Metas.MetersPerUnit, true
		}
		if out.Metas.DefaultPrim == "" {
			out.Metas.DefaultPrim = composedSub.Metas.DefaultPrim
		}
	}

	return out, warnings, nil
}

// mergeSublayerRoots folds weaker's root prims into stronger, matching by
// name: an existing stronger root absorbs weaker opinions recursively
// (mergeWeaker), a root only present in weaker is appended as-is.
func mergeSublayerRoots(stronger, weaker *sdf.Layer) {
	byName := make(map[string]*sdf.PrimSpec, len(stronger.RootPrimSpecs))
	for _, p := range stronger.RootPrimSpecs {
		byName[p.Name] = p
	}
	for _, w := range weaker.RootPrimSpecs {
		if s, ok := byName[w.Name]; ok {
			mergeWeaker(s, w)
		} else {
			stronger.RootPrimSpecs = append(stronger.RootPrimSpecs, w)
		}
	}
}

// mergeWeaker folds src's properties and children into dst wherever dst
// doesn't already author an opinion, the common "weaker opinion fills
// gaps" rule section 4.8 applies to inherits, references, payloads,
// specializes and sublayers alike.
func mergeWeaker(dst, src *sdf.PrimSpec) {
	if dst.TypeName == "" {
		dst.TypeName = src.TypeName
	}
	if dst.Metas.Doc == "" {
		dst.Metas.Doc = src.Metas.Doc
	}
	if dst.Metas.Kind == "" {
		dst.Metas.Kind = src.Metas.Kind
	}
	dst.Metas.Inherits = applyListOp(dst.Metas.InheritsEdit, src.Metas.Inherits, dst.Metas.Inherits, pathutil.Path.String)
	dst.Metas.Specializes = applyListOp(dst.Metas.SpecializesEdit, src.Metas.Specializes, dst.Metas.Specializes, pathutil.Path.String)
	dst.Metas.References = applyListOp(dst.Metas.ReferencesEdit, src.Metas.References, dst.Metas.References, referenceKey)
	dst.Metas.Payload = applyListOp(dst.Metas.PayloadEdit, src.Metas.Payload, dst.Metas.Payload, referenceKey)
	for name, prop := range src.Properties {
		if _, exists := dst.Properties[name]; !exists {
			dst.AddProperty(name, prop)
		}
	}
	childByName := make(map[string]*sdf.PrimSpec, len(dst.Children))
	for _, ch := range dst.Children {
		childByName[ch.Name] = ch
	}
	for _, sch := range src.Children {
		if dch, ok := childByName[sch.Name]; ok {
			mergeWeaker(dch, sch)
		} else {
			dst.AddChild(sch)
		}
	}
	for set, variants := range src.VariantSets {
		if _, exists := dst.VariantSets[set]; !exists {
			for name, content := range variants {
				dst.AddVariant(set, name, content)
			}
		}
	}
}

// walkPrims invokes fn once for every PrimSpec in the tree rooted at
// layer's root prims, depth-first, parent before children, in a single
// pass (callers loop this at the Compose fixpoint level, not here).
func walkPrims(layer *sdf.Layer, fn func(prim *sdf.PrimSpec, path pathutil.Path)) {
	var walk func(p *sdf.PrimSpec, path pathutil.Path)
	walk = func(p *sdf.PrimSpec, path pathutil.Path) {
		fn(p, path)
		for _, ch := range p.Children {
			walk(ch, path.AppendChild(ch.Name))
		}
	}
	for _, root := range layer.RootPrimSpecs {
		walk(root, pathutil.Root.AppendChild(root.Name))
	}
}
