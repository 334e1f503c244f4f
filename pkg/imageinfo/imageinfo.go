// Package imageinfo reads image dimensions from file headers without
// decoding pixel data. JPEG, PNG, GIF, TIFF, BMP and WebP are recognized.
//
// Results can be memoized in a [cache.Cache] keyed by the file's absolute
// path, size and modification time, so repeated runs over the same job
// folder skip re-reading headers.
package imageinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/matzehuels/aizine/pkg/cache"
	"github.com/matzehuels/aizine/pkg/geom"
	"github.com/matzehuels/aizine/pkg/observability"
)

// DefaultTTL is how long probe results stay cached.
const DefaultTTL = 30 * 24 * time.Hour

const keyType = "imageinfo"

// Info describes an image file.
type Info struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Format string `json:"format"`
}

// Orientation classifies the image with the shared aspect rule.
func (i Info) Orientation() geom.Orientation {
	return geom.Classify(float64(i.Width), float64(i.Height))
}

// Prober reads image headers, optionally through a cache.
type Prober struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewProber returns a prober backed by c. A nil cache disables caching;
// a non-positive ttl uses DefaultTTL.
func NewProber(c cache.Cache, ttl time.Duration) *Prober {
	if c == nil {
		c = cache.NewNullCache()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Prober{cache: c, ttl: ttl}
}

// Default returns an uncached prober.
func Default() *Prober {
	return NewProber(nil, 0)
}

// Probe returns the dimensions and format of the image at path.
func (p *Prober) Probe(ctx context.Context, path string) (Info, error) {
	st, err := os.Stat(path)
	if err != nil {
		return Info{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	key := cache.Key(keyType, abs, st.Size(), st.ModTime().UnixNano())

	if data, ok, err := p.cache.Get(ctx, key); err == nil && ok {
		var info Info
		if json.Unmarshal(data, &info) == nil {
			observability.Cache().OnCacheHit(ctx, keyType)
			return info, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, keyType)

	info, err := Read(path)
	if err != nil {
		return Info{}, err
	}
	if data, err := json.Marshal(info); err == nil {
		if p.cache.Set(ctx, key, data, p.ttl) == nil {
			observability.Cache().OnCacheSet(ctx, keyType, len(data))
		}
	}
	return info, nil
}

// Dimensions returns the pixel width and height of the image at path.
func (p *Prober) Dimensions(path string) (int, int, error) {
	info, err := p.Probe(context.Background(), path)
	if err != nil {
		return 0, 0, err
	}
	return info.Width, info.Height, nil
}

// Read decodes the header of the image at path, bypassing any cache.
func Read(path string) (Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return Info{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("decode %s: image has no size", filepath.Base(path))
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}
