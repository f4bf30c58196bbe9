package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeFS map[string]bool

func (f fakeFS) Exists(path string) bool { return f[path] }

func TestResolveJoinsCWD(t *testing.T) {
	r := &Resolver{CurrentWorkingPath: "/scene", FS: fakeFS{"/scene/tex.png": true}}
	assert.Equal(t, "/scene/tex.png", r.Resolve("tex.png"))
}

func TestResolveSearchPaths(t *testing.T) {
	r := &Resolver{SearchPaths: []string{"/a", "/b"}, FS: fakeFS{"/b/tex.png": true}}
	assert.Equal(t, "/b/tex.png", r.Resolve("tex.png"))
}

func TestResolveAbsoluteDirect(t *testing.T) {
	r := &Resolver{FS: fakeFS{"/abs/tex.png": true}}
	assert.Equal(t, "/abs/tex.png", r.Resolve("/abs/tex.png"))
}

func TestResolveMiss(t *testing.T) {
	r := &Resolver{FS: fakeFS{}}
	assert.Equal(t, "", r.Resolve("missing.png"))
}

func TestResolveUDIMVerbatim(t *testing.T) {
	r := &Resolver{FS: fakeFS{}}
	assert.Equal(t, "tex.<UDIM>.png", r.Resolve("tex.<UDIM>.png"))
}

func TestIsResolvedIdempotent(t *testing.T) {
	r := &Resolver{FS: fakeFS{"/abs/tex.png": true}}
	resolved := r.Resolve("/abs/tex.png")
	assert.True(t, r.IsResolved(resolved))
	assert.Equal(t, resolved, r.Resolve(resolved))
}
