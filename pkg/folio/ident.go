package folio

import (
	"path"
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	optimizedPrefix = "opt_"
	thumbnailPrefix = "thumb_"
	sidecarPrefix   = "meta_"
	derivativeExt   = ".webp"
)

// Names are the identifiers and derivative locations for one source path.
type Names struct {
	ID     string
	Title  string
	Token  string
	Source string

	Optimized string
	Thumbnail string
	Sidecar   string
}

// Derive maps a root-relative source path to its photo ID, title and derivative paths in outDir.
func Derive(rel string, outDir string) Names {
	rel = filepath.ToSlash(rel)
	id := PhotoID(rel)
	token := SafeToken(rel)
	return Names{
		ID:        id,
		Title:     Title(id),
		Token:     token,
		Source:    rel,
		Optimized: filepath.Join(outDir, OptimizedName(token)),
		Thumbnail: filepath.Join(outDir, ThumbnailName(token)),
		Sidecar:   filepath.Join(outDir, sidecarPrefix+token+".json"),
	}
}

// PhotoID is the relative path without its extension.
func PhotoID(rel string) string {
	rel = filepath.ToSlash(rel)
	return strings.TrimSuffix(rel, path.Ext(rel))
}

// SafeToken flattens a relative path into a filename-safe token: the extension is dropped and
// every character outside [A-Za-z0-9_] becomes an underscore.
//
// The mapping is not injective ("a/b-c" and "a_b/c" share a token), so callers must check
// tokens for collisions before writing derivatives.
func SafeToken(rel string) string {
	return strings.Map(func(r rune) rune {
		if r < utf8.RuneSelf && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '_'
	}, PhotoID(rel))
}

// OptimizedName is the derivative filename of the display-sized image.
func OptimizedName(token string) string {
	return optimizedPrefix + token + derivativeExt
}

// ThumbnailName is the derivative filename of the thumbnail.
func ThumbnailName(token string) string {
	return thumbnailPrefix + token + derivativeExt
}

// IsDerivativeName reports whether name is a bare optimized or thumbnail filename.
func IsDerivativeName(name string) bool {
	if name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || !strings.HasSuffix(name, derivativeExt) {
		return false
	}
	token := ""
	switch {
	case strings.HasPrefix(name, optimizedPrefix):
		token = strings.TrimPrefix(name, optimizedPrefix)
	case strings.HasPrefix(name, thumbnailPrefix):
		token = strings.TrimPrefix(name, thumbnailPrefix)
	default:
		return false
	}
	return strings.TrimSuffix(token, derivativeExt) != ""
}

// Title turns the last segment of an ID into a display name: "old-town_gate" -> "Old Town Gate".
func Title(id string) string {
	words := strings.FieldsFunc(path.Base(id), func(r rune) bool {
		return r == '-' || r == '_'
	})
	for i, w := range words {
		words[i] = capitalize(w)
	}
	return strings.Join(words, " ")
}

func capitalize(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	if r == utf8.RuneError {
		return w
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
}
