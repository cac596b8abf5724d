package folio

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/karrick/godirwalk"
	"k8s.io/klog/v2"
)

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var errStopWalk = errors.New("stop walk")

func eligible(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// checkRoot makes sure the source root is a readable directory.
func checkRoot(root string) error {
	fi, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceRoot, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSourceRoot, root)
	}

	f, err := os.Open(root)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSourceRoot, err)
	}
	defer f.Close()

	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrSourceRoot, err)
	}
	return nil
}

// Sources yields the root-relative, slash-separated path of every eligible image below root.
// Each range over the sequence walks the tree again.
func Sources(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if err := checkRoot(root); err != nil {
			yield("", err)
			return
		}

		clean := filepath.Clean(root)
		stopped := false

		err := godirwalk.Walk(clean, &godirwalk.Options{
			Callback: func(path string, de *godirwalk.Dirent) error {
				if path == clean {
					return nil
				}

				if hidden(de.Name()) {
					if de.IsDir() {
						return godirwalk.SkipThis
					}
					return nil
				}

				if !de.IsRegular() || !eligible(de.Name()) {
					return nil
				}

				rel, err := filepath.Rel(clean, path)
				if err != nil {
					return err
				}

				klog.V(2).Infof("found %s", rel)
				if !yield(filepath.ToSlash(rel), nil) {
					stopped = true
					return errStopWalk
				}
				return nil
			},
			ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
				if errors.Is(err, errStopWalk) {
					return godirwalk.Halt
				}
				klog.Warningf("skipping %s: %v", path, err)
				return godirwalk.SkipNode
			},
		})

		if err != nil && !stopped {
			yield("", fmt.Errorf("%w: walk %s: %v", ErrSourceRoot, root, err))
		}
	}
}

// Find returns every eligible image below root, sorted.
func Find(root string) ([]string, error) {
	found := []string{}
	for rel, err := range Sources(root) {
		if err != nil {
			return nil, err
		}
		found = append(found, rel)
	}
	sort.Strings(found)
	return found, nil
}
