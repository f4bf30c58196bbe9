// Package resolver implements the asset resolver of section 4.4: resolving
// an asset reference against a search-path list and a current working
// directory to a concrete, readable resource identifier.
package resolver

import (
	"os"
	"path/filepath"

	"github.com/usdgo/usd/pathutil"
)

// FileExister abstracts the filesystem check so callers (tests, the usdz
// in-memory reader) can substitute a virtual listing instead of touching
// disk, the way loader/gltf resolves texture URIs relative to a base
// directory without assuming a real OS filesystem.
type FileExister interface {
	Exists(path string) bool
}

// osFS is the default FileExister, backed by os.Stat.
type osFS struct{}

func (osFS) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Resolver resolves asset references against a current working path and an
// ordered list of search paths.
type Resolver struct {
	CurrentWorkingPath string
	SearchPaths        []string
	FS                 FileExister
}

// New creates a Resolver rooted at cwd, defaulting to the real filesystem.
func New(cwd string, searchPaths ...string) *Resolver {
	return &Resolver{CurrentWorkingPath: cwd, SearchPaths: searchPaths, FS: osFS{}}
}

// Resolve returns a concrete resource identifier for assetPath, or "" if it
// cannot be found on any search path. Search order per section 4.4:
//  1. if assetPath is absolute, test directly;
//  2. join with CurrentWorkingPath;
//  3. each entry of SearchPaths in order.
//
// UDIM asset paths are returned verbatim for downstream tile expansion.
func (r *Resolver) Resolve(assetPath string) string {
	literal, isUDIM := pathutil.SplitUDIM(assetPath)
	if isUDIM {
		return literal
	}

	fs := r.FS
	if fs == nil {
		fs = osFS{}
	}

	if filepath.IsAbs(assetPath) {
		if fs.Exists(assetPath) {
			return assetPath
		}
		return ""
	}

	if r.CurrentWorkingPath != "" {
		candidate := filepath.Join(r.CurrentWorkingPath, assetPath)
		if fs.Exists(candidate) {
			return candidate
		}
	}

	for _, sp := range r.SearchPaths {
		candidate := filepath.Join(sp, assetPath)
		if fs.Exists(candidate) {
			return candidate
		}
	}

	return ""
}

// IsResolved reports whether p is an absolute path. It does not check that
// the path exists, and Resolve itself does not call it.
func (r *Resolver) IsResolved(p string) bool {
	return filepath.IsAbs(p)
}
