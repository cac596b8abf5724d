package folio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/ajdnik/imghash"
	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
)

// placeholderSize is the long edge, in pixels, of a blur placeholder.
const placeholderSize = 10

// Placeholder returns a tiny blurred PNG of a thumbnail as a data URI.
func Placeholder(thumb []byte) (string, error) {
	img, err := decodeBytes(thumb)
	if err != nil {
		return "", fmt.Errorf("decode thumbnail: %w", err)
	}
	return placeholderFor(img)
}

func placeholderFor(img image.Image) (string, error) {
	b := img.Bounds()
	x, y := fit(b.Dx(), b.Dy(), placeholderSize, placeholderSize)
	if x == 0 || y == 0 {
		return "", fmt.Errorf("empty thumbnail %+v", b)
	}

	small := blur.Gaussian(transform.Resize(img, x, y, transform.Linear), 0.8)

	var buf bytes.Buffer
	if err := imgio.PNGEncoder()(&buf, small); err != nil {
		return "", fmt.Errorf("encode placeholder: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// fingerprintFor is a perceptual hash: visually similar images produce equal fingerprints.
func fingerprintFor(img image.Image) string {
	ph := imghash.NewPHash()
	return fmt.Sprintf("%x", ph.Calculate(img))
}
