package folio

import (
	"time"
)

// ThumbMeta describes a derivative on disk.
type ThumbMeta struct {
	X int
	Y int
}

// Dimensions are the pixel sizes of both derivatives of one source image.
type Dimensions struct {
	Width           int
	Height          int
	ThumbnailWidth  int
	ThumbnailHeight int
}

// Exif holds the camera details shown on a photo's detail page.
type Exif struct {
	Taken time.Time `json:"taken,omitempty"`

	Make  string `json:"make,omitempty"`
	Model string `json:"model,omitempty"`

	LensMake  string `json:"lensMake,omitempty"`
	LensModel string `json:"lensModel,omitempty"`

	Aperture    float64 `json:"aperture,omitempty"`
	FocalLength string  `json:"focalLength,omitempty"`
	ISO         int64   `json:"iso,omitempty"`
	Speed       string  `json:"speed,omitempty"`
}

// Photo represents one source image and its derived artifacts.
type Photo struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// SourcePath is relative to the source root, with extension and forward slashes.
	SourcePath    string `json:"sourcePath"`
	OptimizedPath string `json:"optimizedPath"`
	ThumbnailPath string `json:"thumbnailPath"`

	Width           int `json:"width"`
	Height          int `json:"height"`
	ThumbnailWidth  int `json:"thumbnailWidth"`
	ThumbnailHeight int `json:"thumbnailHeight"`

	// BlurPlaceholder is empty when the placeholder could not be generated.
	BlurPlaceholder string `json:"blurPlaceholder,omitempty"`
	Fingerprint     string `json:"fingerprint,omitempty"`

	Exif        *Exif    `json:"exif,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Result is the outcome of processing one source image: either Photo or Err is set.
type Result struct {
	Source string
	Photo  *Photo
	Err    error
}

// OK reports whether the source produced a photo.
func (r Result) OK() bool {
	return r.Err == nil && r.Photo != nil
}

// Collection represents a directory that contains photos, directly or transitively.
type Collection struct {
	ID       string        `json:"id"`
	Path     string        `json:"path"`
	Name     string        `json:"name"`
	Children []*Collection `json:"children,omitempty"`
}

// Leaf reports whether the collection holds photos directly rather than sub-collections.
func (c *Collection) Leaf() bool {
	return len(c.Children) == 0
}
