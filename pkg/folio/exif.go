package folio

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

var exifDate = "2006:01:02 15:04:05"

// ExifReader extracts camera details from source images with a long-running exiftool process.
type ExifReader struct {
	mu sync.Mutex
	et *exiftool.Exiftool
}

// NewExifReader starts exiftool. It fails when the exiftool binary is not installed.
func NewExifReader() (*ExifReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExifReader{et: et}, nil
}

// Close stops exiftool.
func (r *ExifReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.et.Close()
}

// Read returns the EXIF details of path. Missing fields are left empty.
func (r *ExifReader) Read(path string) (*Exif, error) {
	r.mu.Lock()
	fis := r.et.ExtractMetadata(path)
	r.mu.Unlock()

	if len(fis) == 0 {
		return nil, fmt.Errorf("no metadata for %q", path)
	}
	fi := fis[0]
	if fi.Err != nil {
		return nil, fmt.Errorf("extract fail for %q: %w", path, fi.Err)
	}

	for k, v := range fi.Fields {
		klog.V(3).Infof("%s: %q=%v", path, k, v)
	}

	e := &Exif{}
	var err error

	e.Make, err = fi.GetString("Make")
	if err != nil {
		klog.V(1).Infof("unable to get make for %s: %v", path, err)
	}
	e.Model, _ = fi.GetString("Model")
	e.LensMake, _ = fi.GetString("LensMake")
	e.LensModel, _ = fi.GetString("LensModel")
	e.ISO, _ = fi.GetInt("ISO")
	e.Aperture, _ = fi.GetFloat("ApertureValue")
	e.Speed, _ = fi.GetString("ShutterSpeed")

	e.FocalLength, _ = fi.GetString("FocalLength")
	e.FocalLength = strings.ReplaceAll(e.FocalLength, ".0", "")

	ds, err := fi.GetString("DateTimeOriginal")
	if err != nil {
		klog.V(1).Infof("unable to get date time for %s: %v", path, err)
		return e, nil
	}

	e.Taken, err = time.Parse(exifDate, ds)
	if err != nil {
		klog.Warningf("unable to parse time %q for %s: %v", ds, path, err)
	}
	return e, nil
}
