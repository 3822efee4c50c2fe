package asset

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFSWriter_WriteFile(t *testing.T) {
	dir := t.TempDir()
	w := NewFSWriter(dir, "https://brazadash.test/")
	url, err := w.WriteFile("reviews/u1", "a.jpg", []byte("img"))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if url != "https://brazadash.test/uploads/reviews/u1/a.jpg" {
		t.Fatalf("url = %q", url)
	}
	got, err := os.ReadFile(filepath.Join(dir, "reviews", "u1", "a.jpg"))
	if err != nil || string(got) != "img" {
		t.Fatalf("file = %q, %v", got, err)
	}
}

func TestFSWriter_RejectsTraversal(t *testing.T) {
	w := NewFSWriter(t.TempDir(), "")
	bad := []struct{ dir, name string }{
		{"../etc", "x.jpg"},
		{"/abs", "x.jpg"},
		{"reviews", "../x.jpg"},
		{"reviews", ""},
	}
	for _, b := range bad {
		if _, err := w.WriteFile(b.dir, b.name, []byte("x")); err == nil {
			t.Errorf("WriteFile(%q, %q) accepted", b.dir, b.name)
		}
	}
}
