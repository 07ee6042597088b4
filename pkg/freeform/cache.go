package freeform

import (
	"encoding/binary"
	"hash/fnv"
	"image"
	"math"
	"slices"

	"github.com/gogpu/gg/cache"
)

// DefaultCacheCapacity is the per-shard entry limit used by NewRenderer when
// capacity is not positive.
const DefaultCacheCapacity = 2

// MaxCachedPixels is the largest raster a Renderer keeps. Bigger rasters,
// such as full-size exports, are rendered on every call. With the cache's 16
// shards this bounds a Renderer to 32·capacity MiB.
const MaxCachedPixels = 1024 * 1024

// Renderer memoizes Render results per (size, points). Resizing a preview
// redraws the same gradient repeatedly, and each pass costs
// width·height·len(points) weight evaluations.
//
// Images returned by a Renderer are shared between callers and must be
// treated as read-only.
type Renderer struct {
	cache *cache.ShardedCache[uint64, *raster]
	hash  func(width, height int, points []ColorPoint) uint64
}

// raster is a cache entry. The inputs are kept to tell hash collisions from
// hits.
type raster struct {
	width, height int
	points        []ColorPoint
	img           *image.RGBA
}

func (r *raster) matches(width, height int, points []ColorPoint) bool {
	return r.width == width && r.height == height && slices.Equal(r.points, points)
}

// NewRenderer creates a Renderer holding up to capacity rasters per shard.
func NewRenderer(capacity int) *Renderer {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &Renderer{
		cache: cache.NewSharded[uint64, *raster](capacity, cache.Uint64Hasher),
		hash:  key,
	}
}

// Render returns the cached raster for the inputs, rendering it on a miss.
func (r *Renderer) Render(width, height int, points []ColorPoint) (*image.RGBA, error) {
	if len(points) == 0 {
		return nil, ErrNoPoints
	}
	width = max(width, 1)
	height = max(height, 1)
	if width*height > MaxCachedPixels {
		return Render(width, height, points)
	}

	// Render cannot fail past the checks above.
	create := func() *raster {
		img, _ := Render(width, height, points)
		return &raster{width: width, height: height, points: slices.Clone(points), img: img}
	}
	k := r.hash(width, height, points)
	e := r.cache.GetOrCreate(k, create)
	if !e.matches(width, height, points) {
		e = create()
		r.cache.Set(k, e)
	}
	return e.img, nil
}

// Len reports the number of cached rasters.
func (r *Renderer) Len() int {
	return r.cache.Len()
}

// key hashes the raster size and the exact point values. Point order is part
// of the key; reordered sets render the same image but are cached apart.
func key(width, height int, points []ColorPoint) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	put(uint64(width))
	put(uint64(height))
	for _, p := range points {
		_, _ = h.Write([]byte{p.Color.R, p.Color.G, p.Color.B, p.Color.A})
		put(math.Float64bits(p.X))
		put(math.Float64bits(p.Y))
	}
	return h.Sum64()
}
