package folio

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
)

// spyEncoder writes PNG instead of WebP so tests run without libvips. Derivatives are read back
// with image.DecodeConfig, which sniffs the format from content rather than the extension.
type spyEncoder struct {
	calls atomic.Int32
}

func (s *spyEncoder) Encode(w io.Writer, img image.Image, _ int) error {
	s.calls.Add(1)
	return png.Encode(w, img)
}

type failEncoder struct{}

func (failEncoder) Encode(io.Writer, image.Image, int) error {
	return io.ErrShortWrite
}

func gradient(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.NRGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

// writeImage creates a w x h image at root/rel, encoded according to its extension.
func writeImage(t *testing.T, root string, rel string, w, h int) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	img := gradient(w, h)
	switch strings.ToLower(filepath.Ext(p)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		t.Fatalf("encode %s: %v", p, err)
	}
	return p
}

func writeFile(t *testing.T, root string, rel string, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	tmp := t.TempDir()
	return &Config{
		Title:             "Seoul & friends",
		Description:       "recent trips",
		InDir:             filepath.Join(tmp, "in"),
		OutDir:            filepath.Join(tmp, "out"),
		DefaultCollection: DefaultCollection,
		CacheTTL:          DefaultCacheTTL,
		Workers:           2,
		MaxPixels:         DefaultMaxPixels,
		Optimized:         ThumbOpts{X: 200, Y: 200, Quality: 80},
		Thumbnail:         ThumbOpts{X: 40, Y: 40, Quality: 60},
	}
}
