package folio

import (
	"context"
	"os"
	"path/filepath"

	"k8s.io/klog/v2"
)

// Library answers gallery queries from the photo cache and the source tree.
type Library struct {
	c     *Config
	cache *Cache
}

// NewLibrary returns a library serving photos from cache.
func NewLibrary(c *Config, cache *Cache) *Library {
	return &Library{c: c, cache: cache}
}

// Gallery is the set of photos shown for one collection.
type Gallery struct {
	Path   string   `json:"path"`
	Photos []*Photo `json:"photos"`
}

// Photos returns every photo.
func (l *Library) Photos(ctx context.Context) ([]*Photo, error) {
	ps, _, err := l.cache.Get(ctx)
	return ps, err
}

// Photo returns the photo with the given ID, or ErrNotFound.
func (l *Library) Photo(ctx context.Context, id string) (*Photo, error) {
	return l.cache.Lookup(ctx, id)
}

// Collections returns the collection tree of the source directory.
func (l *Library) Collections() ([]*Collection, error) {
	return Collections(l.c.InDir)
}

// Resolve returns the collection to show for a requested path: the path itself when it names a
// directory in the source tree, otherwise the configured default.
func (l *Library) Resolve(requested string) string {
	def := l.c.DefaultCollection
	if def == "" {
		def = DefaultCollection
	}

	if requested == "" {
		return def
	}

	rel, ok := cleanCollectionPath(requested)
	if !ok || rel == "." {
		klog.V(1).Infof("invalid collection %q, using %q", requested, def)
		return def
	}

	fi, err := os.Stat(filepath.Join(l.c.InDir, filepath.FromSlash(rel)))
	if err != nil || !fi.IsDir() {
		klog.V(1).Infof("unknown collection %q, using %q", requested, def)
		return def
	}
	return rel
}

// Gallery returns the photos that sit directly in the requested collection.
func (l *Library) Gallery(ctx context.Context, requested string) (*Gallery, error) {
	p := l.Resolve(requested)

	paths, err := CollectionPhotos(l.c.InDir, p)
	if err != nil {
		return nil, err
	}

	all, _, err := l.cache.Get(ctx)
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(paths))
	for _, s := range paths {
		want[s] = true
	}

	g := &Gallery{Path: p, Photos: []*Photo{}}
	for _, ph := range all {
		if want[ph.SourcePath] {
			g.Photos = append(g.Photos, ph)
		}
	}
	return g, nil
}
