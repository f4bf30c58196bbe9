package usd

import (
	"context"
	"path/filepath"

	"github.com/usdgo/usd/ascii"
	"github.com/usdgo/usd/crate"
	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/usdz"
)

// archiveFS adapts a usdz.Index to resolver.FileExister so a Resolver can
// find a USDZ archive's own bundled assets (sibling textures, sublayers)
// without touching the real filesystem, the way loader/gltf resolves a
// GLB's embedded buffer views without a base directory.
type archiveFS struct {
	idx usdz.Index
}

func (a archiveFS) Exists(path string) bool {
	if _, ok := a.idx.ByName(path); ok {
		return true
	}
	_, ok := a.idx.ByName(filepath.Base(path))
	return ok
}

// archiveLoader returns a composition.LayerLoader that resolves a
// sublayer/reference/payload asset path against the archive's own
// entries before falling back to the real filesystem, so a USDZ scene
// that sublayers another .usda bundled in the same archive composes
// without extra plumbing from the caller.
func archiveLoader(idx usdz.Index, archiveBytes []byte) func(string) (*sdf.Layer, *diag.List, error) {
	return func(resolvedIdentifier string) (*sdf.Layer, *diag.List, error) {
		name := resolvedIdentifier
		entry, ok := idx.ByName(name)
		if !ok {
			name = filepath.Base(resolvedIdentifier)
			entry, ok = idx.ByName(name)
		}
		if !ok {
			return fileLoader(resolvedIdentifier)
		}
		data := entry.Data(archiveBytes)
		if ok, format := IsUSD(data); ok && format == "usdc" {
			r := crate.New(data, crate.Options{})
			return r.Read(context.Background(), name)
		}
		return ascii.Parse(string(data), name)
	}
}
