// Package folio turns a directory tree of photos into optimized derivatives and gallery metadata.
package folio

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrSourceRoot means the source directory is missing or unreadable. It aborts a scan.
	ErrSourceRoot = errors.New("source root unavailable")
	// ErrTokenCollision means two source paths map to the same derivative filenames.
	ErrTokenCollision = errors.New("derivative name collision")
	// ErrDuplicateID means two source files map to the same photo ID.
	ErrDuplicateID = errors.New("duplicate photo id")
	// ErrTooLarge means a source image exceeds the decode pixel cap.
	ErrTooLarge = errors.New("image too large")
	// ErrDecode means a source image could not be decoded.
	ErrDecode = errors.New("decode failed")
	// ErrEncode means a derivative could not be encoded or written.
	ErrEncode = errors.New("encode failed")
	// ErrMissingDerivative means a derivative expected on disk could not be read.
	ErrMissingDerivative = errors.New("missing derivative")
	// ErrNotFound means no photo has the requested ID.
	ErrNotFound = errors.New("photo not found")
)

const (
	// DefaultCollection is shown when no collection, or an unknown one, is requested.
	DefaultCollection = "travel/korea/seoul"
	// DefaultCacheTTL is how long a photo listing is served from memory.
	DefaultCacheTTL = time.Hour
	// DefaultMaxPixels caps the size of a source image we are willing to decode.
	DefaultMaxPixels = 50_000_000
)

// ThumbOpts are derivative options: a bounding box and an encoder quality.
type ThumbOpts struct {
	X       int `mapstructure:"x"`
	Y       int `mapstructure:"y"`
	Quality int `mapstructure:"quality"`
}

// Config holds configuration for folio.
type Config struct {
	InDir       string `mapstructure:"in"`
	OutDir      string `mapstructure:"out"`
	// Title and Description label the gallery in exported manifests.
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`

	DefaultCollection string        `mapstructure:"defaultCollection"`
	CacheTTL          time.Duration `mapstructure:"cacheTTL"`
	Workers           int           `mapstructure:"workers"`
	MaxPixels         int           `mapstructure:"maxPixels"`
	Effort            int           `mapstructure:"effort"`

	Optimized ThumbOpts `mapstructure:"optimized"`
	Thumbnail ThumbOpts `mapstructure:"thumbnail"`

	Exif           bool     `mapstructure:"exif"`
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

var defaults = map[string]any{
	"in":                "photos",
	"out":               "optimized",
	"title":             "folio 📸",
	"description":       "",
	"defaultCollection": DefaultCollection,
	"cacheTTL":          DefaultCacheTTL,
	"workers":           0,
	"maxPixels":         DefaultMaxPixels,
	"effort":            4,
	"optimized.x":       2000,
	"optimized.y":       2000,
	"optimized.quality": 80,
	"thumbnail.x":       400,
	"thumbnail.y":       400,
	"thumbnail.quality": 60,
	"exif":              false,
	"addr":              "localhost:12800",
	"allowedOrigins":    []string{"*"},
}

// LoadConfig reads configuration from an optional YAML file and FOLIO_* environment variables.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.MaxPixels <= 0 {
		c.MaxPixels = DefaultMaxPixels
	}
	if c.DefaultCollection == "" {
		c.DefaultCollection = DefaultCollection
	}
	return c, nil
}
