package folio

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
	"k8s.io/klog/v2"
)

var (
	vipsMu      sync.Mutex
	vipsStarted bool
)

// StartVips initializes libvips. It is needed by WebPEncoder and enables tolerant decoding.
func StartVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsStarted {
		return
	}

	level := vips.LogLevelWarning
	if klog.V(2).Enabled() {
		level = vips.LogLevelInfo
	}

	vips.LoggingSettings(func(domain string, l vips.LogLevel, msg string) {
		switch l {
		case vips.LogLevelError, vips.LogLevelCritical:
			klog.Errorf("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			klog.Warningf("[%s] %s", domain, msg)
		default:
			klog.V(2).Infof("[%s] %s", domain, msg)
		}
	}, level)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsStarted = true
	klog.Infof("libvips %s started", vips.Version)
}

// ShutdownVips releases libvips. It cannot be restarted in the same process.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsStarted {
		vips.Shutdown()
		vipsStarted = false
	}
}

// VipsAvailable reports whether StartVips has been called.
func VipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsStarted
}

// loadWithVips decodes an image with libvips, which tolerates truncated or slightly damaged files.
// libvips reads pixels lazily, so the size is checked before anything is decoded.
func loadWithVips(path string, maxPixels int) (image.Image, error) {
	params := vips.NewImportParams()
	params.FailOnError.Set(false)

	ref, err := vips.LoadImageFromFile(path, params)
	if err != nil {
		return nil, fmt.Errorf("vips load: %w", err)
	}
	defer ref.Close()

	if err := limitPixels(path, ref.Width(), ref.Height(), maxPixels); err != nil {
		return nil, err
	}

	bs, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export: %w", err)
	}

	return imaging.Decode(bytes.NewReader(bs))
}

// WebPEncoder encodes derivatives as lossy WebP through libvips.
type WebPEncoder struct {
	// Effort is the libvips reduction effort, 0 (fast) to 6 (small).
	Effort int
}

// Encode writes img to w as WebP at the given quality.
func (e WebPEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	if !VipsAvailable() {
		return fmt.Errorf("libvips not started")
	}

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return fmt.Errorf("png: %w", err)
	}

	ref, err := vips.NewImageFromBuffer(buf.Bytes())
	if err != nil {
		return fmt.Errorf("vips import: %w", err)
	}
	defer ref.Close()

	p := vips.NewWebpExportParams()
	p.Quality = quality
	p.ReductionEffort = e.Effort
	p.StripMetadata = true

	bs, _, err := ref.ExportWebp(p)
	if err != nil {
		return fmt.Errorf("vips webp: %w", err)
	}

	_, err = w.Write(bs)
	return err
}
