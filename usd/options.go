package usd

import "runtime"

// LoadOptions configures resource limits and concurrency for every
// LoadUSD*FromMemory entry point, per section 6. It is a plain struct whose
// fields carry yaml tags; no package in this module decodes YAML into it,
// and tusdcat passes DefaultLoadOptions.
type LoadOptions struct {
	MaxMemoryLimitMb      int `yaml:"maxMemoryLimitMb"`
	NumThreads            int `yaml:"numThreads"`
	MaxAllowedAssetSizeMb int `yaml:"maxAllowedAssetSizeMb"`
	MaxImageWidth         int `yaml:"maxImageWidth"`
	MaxImageHeight        int `yaml:"maxImageHeight"`
	MaxImageChannels      int `yaml:"maxImageChannels"`
}

// DefaultLoadOptions returns the permissive defaults used when a caller
// passes a zero-value LoadOptions: no size limit, worker count equal to
// CPU count, generous image bounds.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{
		MaxMemoryLimitMb:      0,
		NumThreads:            runtime.NumCPU(),
		MaxAllowedAssetSizeMb: 0,
		MaxImageWidth:         16384,
		MaxImageHeight:        16384,
		MaxImageChannels:      4,
	}
}

// resolved fills any zero field with its default, so a caller can pass a
// partially-populated LoadOptions (e.g. just NumThreads) without reverting
// every other field to "unlimited".
func (o LoadOptions) resolved() LoadOptions {
	d := DefaultLoadOptions()
	if o.NumThreads > 0 {
		d.NumThreads = o.NumThreads
	}
	if o.MaxMemoryLimitMb > 0 {
		d.MaxMemoryLimitMb = o.MaxMemoryLimitMb
	}
	if o.MaxAllowedAssetSizeMb > 0 {
		d.MaxAllowedAssetSizeMb = o.MaxAllowedAssetSizeMb
	}
	if o.MaxImageWidth > 0 {
		d.MaxImageWidth = o.MaxImageWidth
	}
	if o.MaxImageHeight > 0 {
		d.MaxImageHeight = o.MaxImageHeight
	}
	if o.MaxImageChannels > 0 {
		d.MaxImageChannels = o.MaxImageChannels
	}
	return d
}
