package folio

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestPhotoID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"travel/korea/seoul/gate.jpg", "travel/korea/seoul/gate"},
		{"a.b.png", "a.b"},
		{"noext", "noext"},
		{filepath.Join("x", "y.JPEG"), "x/y"},
	}
	for _, tc := range tests {
		if got := PhotoID(tc.in); got != tc.want {
			t.Errorf("PhotoID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSafeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"travel/korea/seoul-1.jpg", "travel_korea_seoul_1"},
		{"a b/c.d.png", "a_b_c_d"},
		{"snake_case/OK9.webp", "snake_case_OK9"},
		{"서울/궁.jpg", "____"},
	}
	for _, tc := range tests {
		if got := SafeToken(tc.in); got != tc.want {
			t.Errorf("SafeToken(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"travel/korea/old-town_gate", "Old Town Gate"},
		{"DSC_0042", "Dsc 0042"},
		{"x/--a--", "A"},
		{"éclair", "Éclair"},
	}
	for _, tc := range tests {
		if got := Title(tc.in); got != tc.want {
			t.Errorf("Title(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDerive(t *testing.T) {
	n := Derive("travel/korea/seoul/gate.jpg", "out")
	if n.ID != "travel/korea/seoul/gate" {
		t.Errorf("ID = %q", n.ID)
	}
	if want := filepath.Join("out", "opt_travel_korea_seoul_gate.webp"); n.Optimized != want {
		t.Errorf("Optimized = %q, want %q", n.Optimized, want)
	}
	if want := filepath.Join("out", "thumb_travel_korea_seoul_gate.webp"); n.Thumbnail != want {
		t.Errorf("Thumbnail = %q, want %q", n.Thumbnail, want)
	}
	if want := filepath.Join("out", "meta_travel_korea_seoul_gate.json"); n.Sidecar != want {
		t.Errorf("Sidecar = %q, want %q", n.Sidecar, want)
	}
}

func TestPlanRejectsCollisions(t *testing.T) {
	srcs := []string{"a/b-c.jpg", "a/img.jpg", "a/img.png", "a_b/c.jpg"}
	plans, rejected := plan(srcs, "out")

	if len(plans) != 1 || plans[0].Source != "a/img.jpg" {
		t.Fatalf("plans = %+v, want only a/img.jpg", plans)
	}

	want := map[string]error{
		"a/img.png": ErrDuplicateID,
		"a/b-c.jpg": ErrTokenCollision,
		"a_b/c.jpg": ErrTokenCollision,
	}
	if len(rejected) != len(want) {
		t.Fatalf("got %d rejected, want %d: %+v", len(rejected), len(want), rejected)
	}
	for _, r := range rejected {
		if !errors.Is(r.Err, want[r.Source]) {
			t.Errorf("%s: err = %v, want %v", r.Source, r.Err, want[r.Source])
		}
	}
}

func TestIsDerivativeName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"opt_travel_korea_seoul_gate.webp", true},
		{"thumb_a.webp", true},
		{"meta_a.json", false},
		{".tmp-opt_a.webp-123", false},
		{"opt_.webp", false},
		{"opt_a.png", false},
		{"sub/opt_a.webp", false},
		{"../opt_a.webp", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := IsDerivativeName(tc.name); got != tc.want {
			t.Errorf("IsDerivativeName(%q) = %v, want %v", tc.name, got, tc.want)
		}
	}
}
