package folio

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestFit(t *testing.T) {
	tests := []struct {
		w, h, maxW, maxH int
		wantW, wantH     int
	}{
		{3000, 1500, 2000, 2000, 2000, 1000},
		{1500, 3000, 2000, 2000, 1000, 2000},
		{3000, 1500, 400, 400, 400, 200},
		{100, 50, 2000, 2000, 100, 50},
		{2000, 2000, 2000, 2000, 2000, 2000},
		{3000, 2000, 0, 400, 600, 400},
		{1000, 1, 10, 10, 10, 1},
		{0, 10, 10, 10, 0, 0},
	}
	for _, tc := range tests {
		w, h := fit(tc.w, tc.h, tc.maxW, tc.maxH)
		if w != tc.wantW || h != tc.wantH {
			t.Errorf("fit(%d, %d, %d, %d) = %dx%d, want %dx%d", tc.w, tc.h, tc.maxW, tc.maxH, w, h, tc.wantW, tc.wantH)
		}
	}
}

func TestGenerate(t *testing.T) {
	c := testConfig(t)
	src := writeImage(t, c.InDir, "wide.png", 300, 150)
	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	enc := &spyEncoder{}
	g := NewGenerator(c, enc)
	n := Derive("wide.png", c.OutDir)

	d, err := g.Generate(src, n.Optimized, n.Thumbnail)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := Dimensions{Width: 200, Height: 100, ThumbnailWidth: 40, ThumbnailHeight: 20}
	if d != want {
		t.Errorf("Generate() = %+v, want %+v", d, want)
	}
	if got := enc.calls.Load(); got != 2 {
		t.Errorf("encoder called %d times, want 2", got)
	}

	for _, p := range []string{n.Optimized, n.Thumbnail} {
		tm, err := readThumb(p)
		if err != nil {
			t.Fatalf("readThumb(%s): %v", p, err)
		}
		if tm.X == 0 || tm.Y == 0 {
			t.Errorf("%s is empty", p)
		}
	}

	// a second run reuses what is on disk
	d2, err := g.Generate(src, n.Optimized, n.Thumbnail)
	if err != nil {
		t.Fatalf("Generate again: %v", err)
	}
	if d2 != want {
		t.Errorf("second Generate() = %+v, want %+v", d2, want)
	}
	if got := enc.calls.Load(); got != 2 {
		t.Errorf("encoder called %d times after rerun, want 2", got)
	}

	// only the missing derivative is rebuilt
	if err := os.Remove(n.Thumbnail); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := g.Generate(src, n.Optimized, n.Thumbnail); err != nil {
		t.Fatalf("Generate after remove: %v", err)
	}
	if got := enc.calls.Load(); got != 3 {
		t.Errorf("encoder called %d times after removing thumbnail, want 3", got)
	}
}

func TestGenerateNoUpscale(t *testing.T) {
	c := testConfig(t)
	src := writeImage(t, c.InDir, "tiny.jpg", 30, 10)
	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	n := Derive("tiny.jpg", c.OutDir)
	d, err := NewGenerator(c, &spyEncoder{}).Generate(src, n.Optimized, n.Thumbnail)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := Dimensions{Width: 30, Height: 10, ThumbnailWidth: 30, ThumbnailHeight: 10}
	if d != want {
		t.Errorf("Generate() = %+v, want %+v", d, want)
	}
}

func TestGenerateErrors(t *testing.T) {
	c := testConfig(t)
	if err := os.MkdirAll(c.OutDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	corrupt := writeFile(t, c.InDir, "corrupt.jpg", "definitely not a jpeg")
	big := writeImage(t, c.InDir, "big.png", 20, 20)

	tests := []struct {
		name      string
		src       string
		maxPixels int
		enc       Encoder
		want      error
	}{
		{"corrupt", corrupt, DefaultMaxPixels, &spyEncoder{}, ErrDecode},
		{"too large", big, 100, &spyEncoder{}, ErrTooLarge},
		{"encode", big, DefaultMaxPixels, failEncoder{}, ErrEncode},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := NewGenerator(c, tc.enc)
			g.MaxPixels = tc.maxPixels
			n := Derive(filepath.Base(tc.src), c.OutDir)

			_, err := g.Generate(tc.src, n.Optimized, n.Thumbnail)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Generate() error = %v, want %v", err, tc.want)
			}
			if _, err := os.Stat(n.Optimized); err == nil {
				t.Errorf("%s was written despite the error", n.Optimized)
			}
		})
	}
}

func TestWriteAtomicLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "x.webp")

	err := writeAtomic(p, func(w io.Writer) error {
		_, err := w.Write([]byte("partial"))
		if err != nil {
			return err
		}
		return io.ErrUnexpectedEOF
	})
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("writeAtomic() error = %v", err)
	}

	des, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(des) != 0 {
		t.Errorf("directory has %d entries after failed write, want 0", len(des))
	}
}
