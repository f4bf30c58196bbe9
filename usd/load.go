package usd

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/usdgo/usd/ascii"
	"github.com/usdgo/usd/composition"
	"github.com/usdgo/usd/crate"
	"github.com/usdgo/usd/diag"
	"github.com/usdgo/usd/resolver"
	"github.com/usdgo/usd/sdf"
	"github.com/usdgo/usd/usdz"
)

// usdaMagic is the required first line of a USDA document, section 6.
const usdaMagic = "#usda"

// usdcMinSize is section 6's "minimum valid file is 88 bytes" for USDC.
const usdcMinSize = 88

// usdzMinSize is section 6's "118 bytes" minimum (88-byte USDC header plus
// a 30-byte ZIP local header).
const usdzMinSize = 118

// IsUSDA reports whether buf looks like a USDA text document: its first
// non-whitespace bytes are the "#usda" magic.
func IsUSDA(buf []byte) bool {
	trimmed := strings.TrimLeft(string(buf), " \t\r\n")
	return strings.HasPrefix(trimmed, usdaMagic)
}

// IsUSDC reports whether buf starts with the crate magic.
func IsUSDC(buf []byte) bool {
	return len(buf) >= len(crate.Magic) && string(buf[:len(crate.Magic)]) == crate.Magic
}

// IsUSDZ reports whether buf starts with a ZIP local-file-header signature.
func IsUSDZ(buf []byte) bool {
	if len(buf) < 4 {
		return false
	}
	return binary.LittleEndian.Uint32(buf[:4]) == 0x04034b50
}

// IsUSD reports whether buf is any recognized USD format, naming which.
func IsUSD(buf []byte) (bool, string) {
	switch {
	case IsUSDC(buf):
		return true, "usdc"
	case IsUSDZ(buf):
		return true, "usdz"
	case IsUSDA(buf):
		return true, "usda"
	default:
		return false, ""
	}
}

// sizeCheck enforces LoadOptions.MaxAllowedAssetSizeMb (section 5's
// "files larger than the limit fail before any parsing").
func sizeCheck(n int, opts LoadOptions) error {
	if opts.MaxAllowedAssetSizeMb <= 0 {
		return nil
	}
	limit := int64(opts.MaxAllowedAssetSizeMb) * 1024 * 1024
	if int64(n) > limit {
		return diag.New(diag.KindInput, "asset size %d bytes exceeds max_allowed_asset_size_mb (%d MB)", n, opts.MaxAllowedAssetSizeMb)
	}
	return nil
}

// LoadUSDAFromMemory parses a USDA document and composes/reconstructs it
// into a Stage, section 6.
func LoadUSDAFromMemory(data []byte, baseDir string, opts LoadOptions) (*Stage, *diag.List, error) {
	opts = opts.resolved()
	if err := sizeCheck(len(data), opts); err != nil {
		return nil, nil, err
	}
	if !IsUSDA(data) {
		return nil, nil, diag.New(diag.KindFormat, "input is not a USDA document")
	}
	layer, warnings, err := ascii.Parse(string(data), sourceIdentifierFor(baseDir, "mem.usda"))
	if err != nil {
		return nil, warnings, err
	}
	return composeAndBuild(layer, baseDir, opts, warnings)
}

// LoadUSDCFromMemory decodes a crate (USDC) buffer into a Stage.
func LoadUSDCFromMemory(data []byte, filename string, opts LoadOptions) (*Stage, *diag.List, error) {
	opts = opts.resolved()
	if err := sizeCheck(len(data), opts); err != nil {
		return nil, nil, err
	}
	if len(data) < usdcMinSize || !IsUSDC(data) {
		return nil, nil, diag.New(diag.KindFormat, "input is not a USDC document")
	}
	r := crate.New(data, crate.Options{NumThreads: opts.NumThreads})
	layer, warnings, err := r.Read(context.Background(), filename)
	if err != nil {
		return nil, warnings, err
	}
	return composeAndBuild(layer, filepath.Dir(filename), opts, warnings)
}

// LoadUSDZFromMemory indexes a USDZ archive, loads its primary scene (the
// first .usdc, else the first .usda, per section 4.7), and composes it.
// Other archive members are resolvable as assets by the resolver this
// function constructs, scoped to the archive's own entries.
func LoadUSDZFromMemory(data []byte, filename string, opts LoadOptions) (*Stage, *diag.List, error) {
	opts = opts.resolved()
	if err := sizeCheck(len(data), opts); err != nil {
		return nil, nil, err
	}
	if len(data) < usdzMinSize || !IsUSDZ(data) {
		return nil, nil, diag.New(diag.KindFormat, "input is not a USDZ archive")
	}
	idx, err := usdz.Read(data)
	if err != nil {
		return nil, nil, err
	}
	warnings := &diag.List{}
	if idx.SawBothKinds {
		warnings.Add("archive contains both %q and %q; %q wins per the first-usdc heuristic", idx.PrimaryName, idx.SecondaryName, idx.PrimaryName)
	}
	if idx.PrimaryName == "" {
		return nil, warnings, diag.New(diag.KindInput, "USDZ archive has no .usda or .usdc primary scene")
	}

	entry, _ := idx.ByName(idx.PrimaryName)
	sceneBytes := entry.Data(data)

	var layer *sdf.Layer
	var layerWarnings *diag.List
	if idx.PrimaryIsUSDC {
		r := crate.New(sceneBytes, crate.Options{NumThreads: opts.NumThreads})
		layer, layerWarnings, err = r.Read(context.Background(), idx.PrimaryName)
	} else {
		layer, layerWarnings, err = ascii.Parse(string(sceneBytes), idx.PrimaryName)
	}
	warnings.Extend(layerWarnings)
	if err != nil {
		return nil, warnings, err
	}

	res := &resolver.Resolver{CurrentWorkingPath: filepath.Dir(filename), FS: archiveFS{idx: idx}}
	stage, composeWarnings, err := compose(layer, res, archiveLoader(idx, data), opts, nil)
	warnings.Extend(composeWarnings)
	return stage, warnings, err
}

// LoadUSDFromMemory auto-detects USDA/USDC/USDZ by magic and dispatches,
// section 6.
func LoadUSDFromMemory(data []byte, baseDir string, opts LoadOptions) (*Stage, *diag.List, error) {
	ok, format := IsUSD(data)
	if !ok {
		return nil, nil, diag.New(diag.KindFormat, "input does not match any recognized USD magic")
	}
	switch format {
	case "usdc":
		return LoadUSDCFromMemory(data, filepath.Join(baseDir, "mem.usdc"), opts)
	case "usdz":
		return LoadUSDZFromMemory(data, filepath.Join(baseDir, "mem.usdz"), opts)
	default:
		return LoadUSDAFromMemory(data, baseDir, opts)
	}
}

// LoadLayerFromFile reads path off disk and parses it into an uncomposed
// Layer (no composition/reconstruction), by magic-detected format.
func LoadLayerFromFile(path string) (*sdf.Layer, *diag.List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, diag.Wrap(diag.KindInput, err, "reading %q", path)
	}
	ok, format := IsUSD(data)
	if !ok {
		return nil, nil, diag.New(diag.KindFormat, "%q does not match any recognized USD magic", path)
	}
	switch format {
	case "usdc":
		r := crate.New(data, crate.Options{})
		return r.Read(context.Background(), path)
	case "usdz":
		idx, err := usdz.Read(data)
		if err != nil {
			return nil, nil, err
		}
		if idx.PrimaryName == "" {
			return nil, nil, diag.New(diag.KindInput, "%q has no primary scene", path)
		}
		entry, _ := idx.ByName(idx.PrimaryName)
		if idx.PrimaryIsUSDC {
			r := crate.New(entry.Data(data), crate.Options{})
			return r.Read(context.Background(), idx.PrimaryName)
		}
		return ascii.Parse(string(entry.Data(data)), idx.PrimaryName)
	default:
		return ascii.Parse(string(data), path)
	}
}

// LoadUSDFromFile reads path off disk, auto-detects its format, and
// composes/reconstructs it into a Stage — the file-backed counterpart to
// LoadUSDFromMemory used by cmd/tusdcat.
func LoadUSDFromFile(path string, opts LoadOptions) (*Stage, *diag.List, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, diag.Wrap(diag.KindInput, err, "reading %q", path)
	}
	ok, format := IsUSD(data)
	if !ok {
		return nil, nil, diag.New(diag.KindFormat, "%q does not match any recognized USD magic", path)
	}
	baseDir := filepath.Dir(path)
	switch format {
	case "usdc":
		return LoadUSDCFromMemory(data, path, opts)
	case "usdz":
		return LoadUSDZFromMemory(data, path, opts)
	default:
		return LoadUSDAFromMemory(data, baseDir, opts)
	}
}

func sourceIdentifierFor(baseDir, name string) string {
	if baseDir == "" {
		return name
	}
	return filepath.Join(baseDir, name)
}

// fileLoader loads another layer off disk by resolved path, the LayerLoader
// composition.Composer uses for on-disk sublayer/reference/payload arcs.
func fileLoader(resolvedPath string) (*sdf.Layer, *diag.List, error) {
	return LoadLayerFromFile(resolvedPath)
}

func composeAndBuild(layer *sdf.Layer, baseDir string, opts LoadOptions, readWarnings *diag.List) (*Stage, *diag.List, error) {
	res := resolver.New(baseDir)
	return compose(layer, res, fileLoader, opts, readWarnings)
}

func compose(layer *sdf.Layer, res *resolver.Resolver, load composition.LayerLoader, opts LoadOptions, readWarnings *diag.List) (*Stage, *diag.List, error) {
	warnings := &diag.List{}
	warnings.Extend(readWarnings)

	c := composition.New(res, load)
	composed, composeWarnings, err := c.Compose(layer)
	warnings.Extend(composeWarnings)
	if err != nil {
		return nil, warnings, errors.Wrap(err, "composition")
	}
	stage, err := BuildStage(composed, warnings)
	if err != nil {
		return nil, warnings, err
	}
	runID := uuid.New()
	warnings.Add("run %s: composed %d root prim(s)", runID, len(stage.RootPrims))
	return stage, warnings, nil
}
