package imaging

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Size limits for input images, in pixels per side.
const (
	MinImageSide = 64
	MaxImageSide = 4096

	// MaxWorkingSide is the longest side an image is fitted to before depth
	// estimation.
	MaxWorkingSide = 1024
)

var (
	// ErrImageLoad marks an input image that is missing, unreadable, of an
	// unsupported format, or outside the size limits.
	ErrImageLoad = errors.New("image load failed")

	// ErrDepthEstimation marks a failure to derive a depth field.
	ErrDepthEstimation = errors.New("depth estimation failed")
)

// supportedFormats maps accepted file extensions to a format name.
var supportedFormats = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".webp": "webp",
	".bmp":  "bmp",
	".tiff": "tiff",
	".tif":  "tiff",
}

// FormatOf returns the format name for path's extension, or "" if the
// extension is not accepted.
func FormatOf(path string) string {
	return supportedFormats[strings.ToLower(filepath.Ext(path))]
}

// ImageCache provides thread-safe caching of loaded images to avoid redundant disk reads.
//
// The cache stores validated, orientation-corrected images keyed by their
// file path. It never holds derived data (depth fields, meshes), so runs that
// share a cache share nothing but decoded inputs.
//
// ImageCache is safe for concurrent use by multiple goroutines.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
// For long-running processes handling many images, consider periodic cleanup to
// prevent unbounded memory growth.
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]image.Image
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]image.Image),
	}
}

// Load retrieves an image from the cache or loads it from disk if not cached.
//
// Parameters:
//   - path: Absolute or relative file path to the image. Accepted extensions
//     are .jpg, .jpeg, .png, .webp, .bmp, .tiff and .tif (case-insensitive).
//
// Returns:
//   - image.Image: The decoded image with EXIF orientation applied. 16-bit
//     grayscale files keep their *image.Gray16 type.
//   - error: Wraps ErrImageLoad if the file is missing, has an unsupported
//     extension, cannot be decoded, or has a side outside
//     [MinImageSide, MaxImageSide].
//
// The image is cached using the exact path string provided. Different paths to the
// same file (e.g., relative vs absolute) will result in separate cache entries.
func (c *ImageCache) Load(path string) (image.Image, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := LoadImage(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache, freeing the associated memory.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]image.Image)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
//
// If the path is not in the cache, this method does nothing.
// After eviction, the next Load() call for this path will read from disk.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len reports how many images are cached.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// LoadImage opens and validates an image without caching it.
func LoadImage(path string) (image.Image, error) {
	if FormatOf(path) == "" {
		return nil, fmt.Errorf("%w: unsupported format %q (supported: .jpg .jpeg .png .webp .bmp .tiff .tif)",
			ErrImageLoad, filepath.Ext(path))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageLoad, err)
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode image: %v", ErrImageLoad, err)
	}

	if err := CheckSize(img); err != nil {
		return nil, err
	}
	return img, nil
}

// CheckSize enforces the per-side pixel limits.
func CheckSize(img image.Image) error {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < MinImageSide || h < MinImageSide {
		return fmt.Errorf("%w: image is %dx%d, minimum is %dx%d", ErrImageLoad, w, h, MinImageSide, MinImageSide)
	}
	if w > MaxImageSide || h > MaxImageSide {
		return fmt.Errorf("%w: image is %dx%d, maximum is %dx%d", ErrImageLoad, w, h, MaxImageSide, MaxImageSide)
	}
	return nil
}

// Prepare fits img within maxSide x maxSide, keeping the aspect ratio.
// Images already within bounds are returned unchanged. 16-bit grayscale
// images stay 16-bit; everything else is resampled with Lanczos.
func Prepare(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}

	if g16, ok := img.(*image.Gray16); ok {
		nw, nh := fitSize(w, h, maxSide)
		dst := image.NewGray16(image.Rect(0, 0, nw, nh))
		draw.CatmullRom.Scale(dst, dst.Bounds(), g16, b, draw.Src, nil)
		return dst
	}
	return imaging.Fit(img, maxSide, maxSide, imaging.Lanczos)
}

// fitSize scales w x h so the longer side equals maxSide.
func fitSize(w, h, maxSide int) (int, int) {
	if w >= h {
		nh := int(float64(h)*float64(maxSide)/float64(w) + 0.5)
		return maxSide, max(nh, 1)
	}
	nw := int(float64(w)*float64(maxSide)/float64(h) + 0.5)
	return max(nw, 1), maxSide
}

// ImageInfo contains metadata about a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the format name derived from the file extension.
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the image has an alpha (transparency) channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the image file on disk in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads an image through cache and describes it.
//
// Color depth is determined by the Go image type:
//   - *image.RGBA64, *image.NRGBA64, *image.Gray16 -> "16-bit"
//   - All other types -> "8-bit"
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	img, err := cache.Load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch img.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	}

	bounds := img.Bounds()
	return &ImageInfo{
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		Format:        FormatOf(path),
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
