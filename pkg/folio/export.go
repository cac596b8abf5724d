package folio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/otiai10/copy"
	"k8s.io/klog/v2"
)

// exportDir is where derivatives land inside an export.
const exportDir = "optimized"

// Site describes the exported gallery.
type Site struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Photos      int    `json:"photos"`
}

// Export writes a self-contained copy of the gallery data to dst: the derivatives, plus
// site.json, photos.json and collections.json manifests that reference them by relative path.
func (l *Library) Export(ctx context.Context, dst string) error {
	ps, err := l.Photos(ctx)
	if err != nil {
		return fmt.Errorf("photos: %w", err)
	}

	cs, err := l.Collections()
	if err != nil {
		return fmt.Errorf("collections: %w", err)
	}

	od := filepath.Join(dst, exportDir)
	klog.Infof("exporting %d photos to %s", len(ps), dst)

	err = copy.Copy(l.c.OutDir, od, copy.Options{
		Skip: func(info os.FileInfo, src, dest string) (bool, error) {
			return strings.HasPrefix(info.Name(), ".tmp-"), nil
		},
	})
	if err != nil {
		return fmt.Errorf("copy: %w", err)
	}

	out := make([]*Photo, 0, len(ps))
	for _, p := range ps {
		e := *p
		e.OptimizedPath = path.Join(exportDir, filepath.Base(p.OptimizedPath))
		e.ThumbnailPath = path.Join(exportDir, filepath.Base(p.ThumbnailPath))
		out = append(out, &e)
	}

	if err := writeJSON(filepath.Join(dst, "photos.json"), out); err != nil {
		return fmt.Errorf("write photos: %w", err)
	}
	if err := writeJSON(filepath.Join(dst, "collections.json"), cs); err != nil {
		return fmt.Errorf("write collections: %w", err)
	}
	site := &Site{Title: l.c.Title, Description: l.c.Description, Photos: len(out)}
	if err := writeJSON(filepath.Join(dst, "site.json"), site); err != nil {
		return fmt.Errorf("write site: %w", err)
	}
	return nil
}

func writeJSON(p string, v any) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	klog.V(1).Infof("writing %s (%d bytes)", p, len(bs))
	return os.WriteFile(p, bs, 0o644)
}
