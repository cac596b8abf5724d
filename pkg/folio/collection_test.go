package folio

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func collectionTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range []string{
		"travel/korea/seoul/gate.jpg",
		"travel/korea/seoul/palace.png",
		"travel/korea/busan/beach.jpg",
		"travel/japan/notes.txt",
		"portraits/p.png",
		".hidden/h.jpg",
		"cover.jpg",
	} {
		writeFile(t, root, rel, "x")
	}
	return root
}

func TestCollections(t *testing.T) {
	got, err := Collections(collectionTree(t))
	if err != nil {
		t.Fatalf("Collections: %v", err)
	}

	want := []*Collection{
		{ID: "portraits", Path: "portraits", Name: "portraits"},
		{ID: "travel", Path: "travel", Name: "travel", Children: []*Collection{
			{ID: "travel/korea", Path: "travel/korea", Name: "korea", Children: []*Collection{
				{ID: "travel/korea/busan", Path: "travel/korea/busan", Name: "busan"},
				{ID: "travel/korea/seoul", Path: "travel/korea/seoul", Name: "seoul"},
			}},
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Collections() mismatch (-want +got):\n%s", diff)
	}

	if !got[0].Leaf() || got[1].Leaf() {
		t.Errorf("Leaf() wrong: portraits=%v travel=%v", got[0].Leaf(), got[1].Leaf())
	}
}

func TestCollectionsMissingRoot(t *testing.T) {
	_, err := Collections(filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, ErrSourceRoot) {
		t.Errorf("Collections() error = %v, want %v", err, ErrSourceRoot)
	}
}

func TestCollectionPhotos(t *testing.T) {
	root := collectionTree(t)

	tests := []struct {
		collection string
		want       []string
	}{
		{"travel/korea/seoul", []string{"travel/korea/seoul/gate.jpg", "travel/korea/seoul/palace.png"}},
		{"/travel/korea/seoul/", []string{"travel/korea/seoul/gate.jpg", "travel/korea/seoul/palace.png"}},
		{"travel", []string{}},
		{"travel/japan", []string{}},
		{"nowhere", []string{}},
		{"../..", []string{}},
		{"portraits/p.png", []string{}},
		{"", []string{"cover.jpg"}},
	}
	for _, tc := range tests {
		t.Run(tc.collection, func(t *testing.T) {
			got, err := CollectionPhotos(root, tc.collection)
			if err != nil {
				t.Fatalf("CollectionPhotos: %v", err)
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("CollectionPhotos(%q) mismatch (-want +got):\n%s", tc.collection, diff)
			}
		})
	}
}
