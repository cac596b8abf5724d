package folio

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestFind(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{
		"travel/korea/seoul/gate.JPG",
		"travel/korea/seoul/notes.txt",
		"travel/korea/busan/beach.jpeg",
		"portraits/p.png",
		"portraits/.hidden.png",
		"portraits/raw.webp",
		".trash/old.jpg",
		"README",
	} {
		writeFile(t, root, rel, "x")
	}

	got, err := Find(root)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}

	want := []string{
		"portraits/p.png",
		"portraits/raw.webp",
		"travel/korea/busan/beach.jpeg",
		"travel/korea/seoul/gate.JPG",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Find() mismatch (-want +got):\n%s", diff)
	}
}

func TestFindEmpty(t *testing.T) {
	got, err := Find(t.TempDir())
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Find() = %v, want empty", got)
	}
}

func TestFindBadRoot(t *testing.T) {
	tmp := t.TempDir()
	file := writeFile(t, tmp, "file.jpg", "x")

	for _, root := range []string{filepath.Join(tmp, "missing"), file} {
		t.Run(filepath.Base(root), func(t *testing.T) {
			_, err := Find(root)
			if !errors.Is(err, ErrSourceRoot) {
				t.Errorf("Find(%s) error = %v, want %v", root, err, ErrSourceRoot)
			}
		})
	}
}

func TestSourcesStopsEarly(t *testing.T) {
	root := t.TempDir()
	for _, rel := range []string{"a.jpg", "b.jpg", "c/d.jpg", "c/e.jpg"} {
		writeFile(t, root, rel, "x")
	}

	n := 0
	for rel, err := range Sources(root) {
		if err != nil {
			t.Fatalf("Sources: %v", err)
		}
		if rel == "" {
			t.Errorf("empty path yielded")
		}
		n++
		break
	}
	if n != 1 {
		t.Errorf("got %d paths, want 1", n)
	}
}
