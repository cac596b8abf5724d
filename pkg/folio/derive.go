package folio

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/anthonynsimon/bild/transform"
	"k8s.io/klog/v2"

	"github.com/tstromberg/folio/pkg/metrics"
)

// Encoder writes an image in the derivative format.
type Encoder interface {
	Encode(w io.Writer, img image.Image, quality int) error
}

// Generator produces the optimized and thumbnail derivatives of source images.
type Generator struct {
	Optimized ThumbOpts
	Thumbnail ThumbOpts
	MaxPixels int

	enc    Encoder
	decode func(path string, maxPixels int) (image.Image, error)
}

// NewGenerator returns a generator using the derivative options in c.
func NewGenerator(c *Config, enc Encoder) *Generator {
	return &Generator{
		Optimized: c.Optimized,
		Thumbnail: c.Thumbnail,
		MaxPixels: c.MaxPixels,
		enc:       enc,
		decode:    decodeSource,
	}
}

// Generate makes sure both derivatives of src exist and returns their dimensions.
// Derivatives already on disk are reused without touching the source.
func (g *Generator) Generate(src string, optPath string, thumbPath string) (Dimensions, error) {
	d := Dimensions{}

	opt, optErr := readThumb(optPath)
	thumb, thumbErr := readThumb(thumbPath)

	if optErr == nil && thumbErr == nil {
		klog.V(1).Infof("%s: derivatives exist (%dx%d, %dx%d)", src, opt.X, opt.Y, thumb.X, thumb.Y)
		metrics.DerivativesTotal.WithLabelValues("optimized", "reused").Inc()
		metrics.DerivativesTotal.WithLabelValues("thumbnail", "reused").Inc()
		return Dimensions{Width: opt.X, Height: opt.Y, ThumbnailWidth: thumb.X, ThumbnailHeight: thumb.Y}, nil
	}

	img, err := g.decode(src, g.MaxPixels)
	if err != nil {
		metrics.DerivativeErrorsTotal.WithLabelValues("decode").Inc()
		return d, err
	}

	if optErr == nil {
		metrics.DerivativesTotal.WithLabelValues("optimized", "reused").Inc()
		d.Width, d.Height = opt.X, opt.Y
	} else {
		klog.V(1).Infof("creating %s: %v", optPath, optErr)
		ct, err := g.createThumb(img, optPath, g.Optimized)
		if err != nil {
			return d, err
		}
		metrics.DerivativesTotal.WithLabelValues("optimized", "generated").Inc()
		d.Width, d.Height = ct.X, ct.Y
	}

	if thumbErr == nil {
		metrics.DerivativesTotal.WithLabelValues("thumbnail", "reused").Inc()
		d.ThumbnailWidth, d.ThumbnailHeight = thumb.X, thumb.Y
	} else {
		klog.V(1).Infof("creating %s: %v", thumbPath, thumbErr)
		ct, err := g.createThumb(img, thumbPath, g.Thumbnail)
		if err != nil {
			return d, err
		}
		metrics.DerivativesTotal.WithLabelValues("thumbnail", "generated").Inc()
		d.ThumbnailWidth, d.ThumbnailHeight = ct.X, ct.Y
	}

	return d, nil
}

// createThumb resizes i to fit t and writes it to path. The returned size is the fitted size.
func (g *Generator) createThumb(i image.Image, path string, t ThumbOpts) (*ThumbMeta, error) {
	b := i.Bounds()
	x, y := fit(b.Dx(), b.Dy(), t.X, t.Y)
	if x == 0 || y == 0 {
		return nil, fmt.Errorf("%w: %s: empty image %+v", ErrDecode, path, b)
	}

	klog.V(1).Infof("creating %dx%d derivative %s from %dx%d", x, y, path, b.Dx(), b.Dy())
	rimg := i
	if x != b.Dx() || y != b.Dy() {
		rimg = transform.Resize(i, x, y, transform.Lanczos)
	}

	err := writeAtomic(path, func(w io.Writer) error {
		return g.enc.Encode(w, rimg, t.Quality)
	})
	if err != nil {
		metrics.DerivativeErrorsTotal.WithLabelValues("encode").Inc()
		return nil, fmt.Errorf("%w: %s: %v", ErrEncode, path, err)
	}

	return &ThumbMeta{X: x, Y: y}, nil
}

// fit scales w x h down to fit within maxW x maxH, keeping the aspect ratio.
// Images that already fit are returned unchanged. A zero bound is unconstrained.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if maxW <= 0 {
		maxW = w
	}
	if maxH <= 0 {
		maxH = h
	}
	if w <= maxW && h <= maxH {
		return w, h
	}

	// width is the binding edge when w/maxW >= h/maxH
	if w*maxH >= h*maxW {
		y := int(math.Round(float64(h) * float64(maxW) / float64(w)))
		return maxW, max(y, 1)
	}
	x := int(math.Round(float64(w) * float64(maxH) / float64(h)))
	return max(x, 1), maxH
}

func readThumb(path string) (*ThumbMeta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		klog.Warningf("unable to read %s, regenerating: %v", path, err)
		return nil, fmt.Errorf("unable to decode: %w", err)
	}

	return &ThumbMeta{X: ic.Width, Y: ic.Height}, nil
}

// writeAtomic writes through a temporary file in the destination directory and renames it into
// place, so readers never observe a partial derivative. Concurrent writers of the same path
// produce identical content; the last rename wins.
func writeAtomic(path string, write func(io.Writer) error) error {
	f, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	bw := bufio.NewWriter(f)
	if err := write(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return os.Rename(tmp, path)
}
