package loader

import (
	"github.com/gracefulearth/tileloader/geom"
	"github.com/gracefulearth/tileloader/halo"
	"github.com/gracefulearth/tileloader/traversal"
)

// Config collects every option needed to construct a System. It is a
// plain struct with a Validate method - no functional-options package, no
// external config library.
type Config struct {
	Reader  Reader
	Metrics Metrics

	// Radii is the per-dimension halo radius, applied identically at every
	// level. Defaults to all zeros if nil.
	Radii []int

	// ViewAvailablePerLevel is the view pool size per level.
	// A zero or missing entry defaults to 1. RequestAllViews submits every
	// index before the caller necessarily starts draining NextView; if a
	// level's pool is smaller than the number of views it can expect to
	// have in flight at once, drain NextView concurrently with submission
	// rather than after it, or size the pool to the level's full tile grid.
	ViewAvailablePerLevel []int

	// ReleaseCountPerLevel is each view's release_target per level. A zero
	// or missing entry defaults to 1.
	ReleaseCountPerLevel []int

	// CacheCapacityPerLevel is the file-tile cache capacity per level,
	// interpreted as a tile count and clamped to the grid volume. A missing
	// entry defaults to 1; a zero entry means "at least min(18, grid
	// volume)".
	CacheCapacityPerLevel []int

	// HaloPolicy fills out-of-bounds halo cells. Required.
	HaloPolicy halo.Policy

	// TraversalPolicy drives RequestAllViews. Defaults to traversal.Naive{}.
	TraversalPolicy traversal.Policy

	// OrderedOutput, when true, makes NextView return views in the order
	// their requests were submitted, per level.
	OrderedOutput bool

	// LogicalTileShapePerLevel, when non-nil at index l, switches level l
	// into adaptive mode: views at that level are tiled at this logical
	// granularity instead of the reader's physical tile_shape(l).
	LogicalTileShapePerLevel     []geom.Shape
	LogicalCacheCapacityPerLevel []int

	// NbCopyThreads sizes each level's copy-stage worker pool. Defaults to 2.
	NbCopyThreads int
}

func (cfg *Config) perLevel(slice []int, level, def int) int {
	if level < len(slice) && slice[level] > 0 {
		return slice[level]
	}
	return def
}

func (cfg *Config) radii(d int) []int {
	if cfg.Radii == nil {
		return make([]int, d)
	}
	return cfg.Radii
}

// UniformRadius builds a Radii vector of length d with the same radius on
// every dimension.
func UniformRadius(d, radius int) []int {
	r := make([]int, d)
	for i := range r {
		r[i] = radius
	}
	return r
}

// Validate checks the configuration for invalid cases: wrong dimension
// lengths, zero tile/view dimensions, tile larger than full, unknown level
// count. Zero capacities are normalized rather than rejected - only a
// negative value, or a fundamentally inconsistent shape, is an error.
func (cfg *Config) Validate() error {
	if cfg.Reader == nil {
		return ErrInvalidConfiguration("Config.Reader is required")
	}
	if cfg.HaloPolicy == nil {
		return ErrInvalidConfiguration("Config.HaloPolicy is required")
	}
	levels := cfg.Reader.NumLevels()
	if levels < 1 {
		return ErrInvalidConfiguration("reader reports zero pyramid levels")
	}
	d := cfg.Reader.NumDims()
	if d < 1 {
		return ErrInvalidConfiguration("reader reports zero dimensions")
	}
	if cfg.Radii != nil && len(cfg.Radii) != d {
		return ErrInvalidConfiguration("Config.Radii length does not match reader dimensionality")
	}
	for l := 0; l < levels; l++ {
		full := cfg.Reader.FullShape(l)
		tile := cfg.Reader.TileShape(l)
		if len(full) != d || len(tile) != d {
			return ErrInvalidConfiguration("reader shape dimensionality mismatch at a level")
		}
		for dd := 0; dd < d; dd++ {
			if full[dd] <= 0 || tile[dd] <= 0 {
				return ErrInvalidConfiguration("zero or negative tile/full dimension")
			}
			if tile[dd] > full[dd] {
				return ErrInvalidConfiguration("tile larger than full extent")
			}
		}
		if l < len(cfg.LogicalTileShapePerLevel) && cfg.LogicalTileShapePerLevel[l] != nil {
			logical := cfg.LogicalTileShapePerLevel[l]
			if len(logical) != d {
				return ErrInvalidConfiguration("logical tile shape dimensionality mismatch")
			}
			for dd := 0; dd < d; dd++ {
				if logical[dd] <= 0 {
					return ErrInvalidConfiguration("zero or negative logical tile dimension")
				}
			}
		}
		for _, slice := range [][]int{cfg.ViewAvailablePerLevel, cfg.ReleaseCountPerLevel, cfg.CacheCapacityPerLevel, cfg.LogicalCacheCapacityPerLevel} {
			if l < len(slice) && slice[l] < 0 {
				return ErrInvalidConfiguration("negative per-level option")
			}
		}
	}
	return nil
}
