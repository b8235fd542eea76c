package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/a3tai/fds-extractor/internal/testpdf"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func buildPDF(pages ...[]string) []byte {
	return testpdf.Build(pages...)
}

func writePDF(t *testing.T, path string, pages ...[]string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, buildPDF(pages...), 0o644))
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

// patternPNG encodes a 48x48 image of pseudo-random 8px blocks
func patternPNG(t *testing.T, seed uint32) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 48, 48))
	state := seed
	for by := 0; by < 48; by += 8 {
		for bx := 0; bx < 48; bx += 8 {
			state = state*1664525 + 1013904223
			c := color.RGBA{R: uint8(state >> 24), G: uint8(state >> 16), B: uint8(state >> 8), A: 255}
			for y := by; y < by+8; y++ {
				for x := bx; x < bx+8; x++ {
					img.Set(x, y, c)
				}
			}
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fakeDocument serves page text from memory
type fakeDocument struct {
	pages  []string
	fail   map[int]error
	closed bool
}

func (d *fakeDocument) NumPages() int { return len(d.pages) }

func (d *fakeDocument) PageText(index int) (string, error) {
	if err, ok := d.fail[index]; ok {
		return "", err
	}
	return d.pages[index], nil
}

func (d *fakeDocument) Close() error {
	d.closed = true
	return nil
}

// fakeOpener maps paths to documents; unknown paths fail to open
type fakeOpener struct {
	docs map[string]*fakeDocument
}

func (o *fakeOpener) Open(path string) (Document, error) {
	doc, ok := o.docs[path]
	if !ok {
		return nil, &OpenError{Op: "open", Path: path, Err: fmt.Errorf("not found")}
	}
	return doc, nil
}
