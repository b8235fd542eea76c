package pictogram

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blockImage draws a size x size image of 8px blocks with pseudo-random
// colours derived from seed
func blockImage(seed uint32, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	state := seed
	next := func() uint8 {
		state = state*1664525 + 1013904223
		return uint8(state >> 24)
	}

	for by := 0; by < size; by += 8 {
		for bx := 0; bx < size; bx += 8 {
			c := color.RGBA{R: next(), G: next(), B: next(), A: 255}
			for y := by; y < by+8 && y < size; y++ {
				for x := bx; x < bx+8 && x < size; x++ {
					img.Set(x, y, c)
				}
			}
		}
	}
	return img
}

func solidImage(c color.Color, size int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestGray_AtClampsCoordinates(t *testing.T) {
	g := NewGray(2, 2)
	g.Set(0, 0, 10)
	g.Set(1, 1, 40)

	assert.Equal(t, float32(10), g.At(-5, -5))
	assert.Equal(t, float32(40), g.At(9, 9))
	assert.Equal(t, float32(0), g.At(1, 0))
}

func TestImage_GrayCompositesOverWhite(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.NRGBA{A: 0})
	img.Set(1, 0, color.NRGBA{A: 255})

	g := FromImage("alpha", img).Gray()
	assert.InDelta(t, 255, g.At(0, 0), 0.5)
	assert.InDelta(t, 0, g.At(1, 0), 0.5)
}

func TestLoadFolder(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "flame.png"), blockImage(1, 32))
	writePNG(t, filepath.Join(dir, "corrosion.png"), blockImage(2, 32))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an image"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "skipped"), 0o755))
	writePNG(t, filepath.Join(dir, "skipped", "tiny.png"), blockImage(3, 8))

	images, err := LoadFolder(dir, discardLogger())
	require.NoError(t, err)
	require.Len(t, images, 2)

	assert.Equal(t, "corrosion", images[0].Name)
	assert.Equal(t, "flame", images[1].Name)
	assert.Equal(t, filepath.Join(dir, "flame.png"), images[1].Path)
	assert.Equal(t, 32, images[1].Bounds().Dx())
}

func TestLoadFolder_MissingFolder(t *testing.T) {
	_, err := LoadFolder(filepath.Join(t.TempDir(), "absent"), discardLogger())
	assert.Error(t, err)
}

func TestLoadFile_Undecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.png")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}
