package folio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

// Collections returns the tree of directories below root that contain photos.
func Collections(root string) ([]*Collection, error) {
	if err := checkRoot(root); err != nil {
		return nil, err
	}
	cs, _, err := scanDir(root, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceRoot, err)
	}
	return cs, nil
}

// scanDir returns the collections below dir, and whether dir itself directly holds images.
func scanDir(dir string, rel string) ([]*Collection, bool, error) {
	des, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return nil, false, err
	}
	sort.Sort(des)

	cs := []*Collection{}
	direct := false

	for _, de := range des {
		name := de.Name()
		if hidden(name) {
			continue
		}

		if de.IsRegular() && eligible(name) {
			direct = true
			continue
		}

		if !de.IsDir() {
			continue
		}

		crel := path.Join(rel, name)
		children, has, err := scanDir(filepath.Join(dir, name), crel)
		if err != nil {
			klog.Warningf("skipping collection %s: %v", crel, err)
			continue
		}

		switch {
		case len(children) > 0:
			cs = append(cs, &Collection{ID: crel, Path: crel, Name: name, Children: children})
		case has:
			cs = append(cs, &Collection{ID: crel, Path: crel, Name: name})
		default:
			klog.V(2).Infof("%s has no photos", crel)
		}
	}

	return cs, direct, nil
}

// cleanCollectionPath normalizes a caller-supplied collection path. ok is false for paths that
// would escape the source root.
func cleanCollectionPath(p string) (string, bool) {
	p = strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
	if p == "" {
		return ".", true
	}
	p = path.Clean(p)
	if !filepath.IsLocal(filepath.FromSlash(p)) {
		return "", false
	}
	return p, true
}

// CollectionPhotos lists the images directly inside one collection directory, relative to root.
// A directory that does not exist has no photos.
func CollectionPhotos(root string, collection string) ([]string, error) {
	paths := []string{}

	rel, ok := cleanCollectionPath(collection)
	if !ok {
		klog.Warningf("rejecting collection path %q", collection)
		return paths, nil
	}

	dir := filepath.Join(root, filepath.FromSlash(rel))
	fi, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !fi.IsDir()) {
		return paths, nil
	}
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	names, err := godirwalk.ReadDirents(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	for _, de := range names {
		if hidden(de.Name()) || !de.IsRegular() || !eligible(de.Name()) {
			continue
		}
		paths = append(paths, path.Join(rel, de.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}
