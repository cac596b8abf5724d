package folio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"os"

	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
	"k8s.io/klog/v2"
)

// checkPixels rejects images whose header declares more than maxPixels pixels.
// A header Go cannot parse is left to the decoders, which check the size again.
func checkPixels(path string, maxPixels int) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		klog.V(1).Infof("unable to read header of %s: %v", path, err)
		return nil
	}

	return limitPixels(path, ic.Width, ic.Height, maxPixels)
}

// limitPixels rejects a w x h image above maxPixels. A zero limit disables the check.
func limitPixels(path string, w, h int, maxPixels int) error {
	if maxPixels > 0 && w*h > maxPixels {
		return fmt.Errorf("%w: %s is %dx%d, limit is %d pixels", ErrTooLarge, path, w, h, maxPixels)
	}
	return nil
}

// decodeSource decodes a source image once, applying EXIF orientation.
// When the Go decoders give up, libvips gets a second, more forgiving attempt.
func decodeSource(path string, maxPixels int) (image.Image, error) {
	if err := checkPixels(path, maxPixels); err != nil {
		return nil, err
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err == nil {
		return img, nil
	}

	if !VipsAvailable() {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}

	klog.V(1).Infof("imaging.Open failed for %s: %v, retrying with libvips", path, err)
	vimg, verr := loadWithVips(path, maxPixels)
	if errors.Is(verr, ErrTooLarge) {
		return nil, verr
	}
	if verr != nil {
		return nil, fmt.Errorf("%w: %s: %v (libvips: %v)", ErrDecode, path, err, verr)
	}
	klog.Warningf("recovered damaged image %s with libvips", path)
	return vimg, nil
}

func decodeBytes(bs []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(bs))
	return img, err
}
