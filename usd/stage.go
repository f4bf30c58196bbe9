package usd

import (
	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/pathutil"
	"github.com/usdgo/usd/sdf"
)

// Stage is the immutable, fully composed and reconstructed result of
// section 4.9: a tree of typed Prims plus the layer-level metadata that
// survived composition. Once built, a Stage is safe to share across
// readers without synchronization, per section 5's "after composition,
// the Stage is immutable" rule.
type Stage struct {
	Metas     sdf.LayerMetas
	RootPrims []*Prim
}

// FindPrim walks an absolute prim path and returns the Prim there, if any.
func (s *Stage) FindPrim(p pathutil.Path) (*Prim, bool) {
	var cur *Prim
	for i, c := range p.Components {
		var next *Prim
		if i == 0 {
			for _, root := range s.RootPrims {
				if root.Name == c.Name {
					next = root
					break
				}
			}
		} else if cur != nil {
			for _, ch := range cur.Children {
				if ch.Name == c.Name {
					next = ch
					break
				}
			}
		}
		if next == nil {
			return nil, false
		}
		cur = next
	}
	return cur, cur != nil
}

// BuildStage lowers a fully composed Layer into a Stage, per section 4.9.
// A root PrimSpec with Specifier == sdf.Class is never lowered to a Prim —
// it only exists to be an inherits/specializes source (OPEN QUESTION
// DECISIONS) — so it and any subtree beneath it are skipped entirely.
func BuildStage(layer *sdf.Layer, warnings *diag.List) (*Stage, error) {
	stage := &Stage{Metas: layer.Metas}
	for _, root := range layer.RootPrimSpecs {
		if root.Specifier == sdf.Class {
			continue
		}
		prim, err := buildPrim(root, pathutil.Root.AppendChild(root.Name), warnings)
		if err != nil {
			return nil, err
		}
		stage.RootPrims = append(stage.RootPrims, prim)
	}
	return stage, nil
}
