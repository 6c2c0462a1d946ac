package ingest

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSubjectFromPath(t *testing.T) {
	cases := []struct {
		name string
		root string
		path string
		want string
	}{
		{"subject directory", "/watch", "/watch/dmytro/2026-08-01.png", "dmytro"},
		{"nested under subject", "/watch", "/watch/dmytro/aug/shot.jpg", "dmytro"},
		{"file in root", "/watch", "/watch/dmytro.png", "dmytro"},
		{"root with trailing slash", "/watch/", "/watch/dmytro/shot.png", "dmytro"},
		{"outside root", "/watch", "/elsewhere/dmytro.jpeg", "dmytro"},
		{"no extension", "/watch", "/watch/dmytro", "dmytro"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SubjectFromPath(tc.root, tc.path); got != tc.want {
				t.Errorf("SubjectFromPath(%q, %q) = %q, want %q", tc.root, tc.path, got, tc.want)
			}
		})
	}
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	mustWrite := func(rel string) {
		t.Helper()
		path := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte{0xFF, 0xD8}, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite("dmytro/one.png")
	mustWrite("dmytro/two.jpg")
	mustWrite("other/three.jpeg")
	mustWrite("other/notes.txt")
	mustWrite(".hidden/skip.png")

	files, stats, err := ScanDirectory(root, nil)
	if err != nil {
		t.Fatalf("ScanDirectory: %v", err)
	}
	if stats.Matched != 3 {
		t.Errorf("matched = %d, want 3 (files: %v)", stats.Matched, files)
	}
	if len(files) != 3 {
		t.Errorf("files = %v", files)
	}
	for _, f := range files {
		if filepath.Ext(f) == ".txt" {
			t.Errorf("non-image file matched: %s", f)
		}
	}
}
