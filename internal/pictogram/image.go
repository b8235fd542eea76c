package pictogram

import (
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Gray is a grayscale intensity grid with values in [0, 255]
type Gray struct {
	W, H int
	Pix  []float32
}

// NewGray allocates a w*h grid
func NewGray(w, h int) *Gray {
	return &Gray{W: w, H: h, Pix: make([]float32, w*h)}
}

// At returns the intensity at (x, y), clamping coordinates to the grid
func (g *Gray) At(x, y int) float32 {
	if x < 0 {
		x = 0
	} else if x >= g.W {
		x = g.W - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.H {
		y = g.H - 1
	}
	return g.Pix[y*g.W+x]
}

// Set stores v at (x, y)
func (g *Gray) Set(x, y int, v float32) {
	g.Pix[y*g.W+x] = v
}

// Image is a candidate or reference picture. The grayscale grid and the
// feature set are derived lazily and cached, so a reference image loaded once
// per run is only described once.
type Image struct {
	Name string
	Path string
	src  image.Image

	grayOnce sync.Once
	gray     *Gray

	featOnce sync.Once
	features []feature
}

// FromImage wraps a decoded image
func FromImage(name string, img image.Image) *Image {
	return &Image{Name: name, src: img}
}

// Decode reads an encoded image from r
func Decode(name string, r io.Reader) (*Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", name, err)
	}
	return FromImage(name, img), nil
}

// LoadFile decodes an image file; its name is the file name without extension
func LoadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := Decode(nameOf(path), f)
	if err != nil {
		return nil, err
	}
	img.Path = path
	return img, nil
}

// LoadFolder decodes every regular file directly inside dir, sorted by file
// name. Sub-folders are ignored. Files that cannot be decoded are logged and
// skipped.
func LoadFolder(dir string, logger *slog.Logger) ([]*Image, error) {
	if logger == nil {
		logger = slog.Default()
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image folder: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var images []*Image
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		img, err := LoadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable image", "path", path, "error", err)
			continue
		}
		images = append(images, img)
	}

	return images, nil
}

// Bounds returns the source image size
func (img *Image) Bounds() image.Rectangle {
	return img.src.Bounds()
}

// Source returns the decoded image
func (img *Image) Source() image.Image {
	return img.src
}

// Gray returns the image composited over white as a grayscale grid
func (img *Image) Gray() *Gray {
	img.grayOnce.Do(func() {
		img.gray = toGray(img.src)
	})
	return img.gray
}

func (img *Image) descriptors() []feature {
	img.featOnce.Do(func() {
		img.features = describe(img.Gray())
	})
	return img.features
}

// toGray converts to luminance, compositing transparent pixels over white
func toGray(src image.Image) *Gray {
	b := src.Bounds()
	g := NewGray(b.Dx(), b.Dy())

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, gr, bl, a := src.At(x, y).RGBA()
			lum := (0.299*float64(r) + 0.587*float64(gr) + 0.114*float64(bl)) / 257
			lum += (1 - float64(a)/0xffff) * 255
			if lum > 255 {
				lum = 255
			}
			g.Set(x-b.Min.X, y-b.Min.Y, float32(lum))
		}
	}

	return g
}

func nameOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
