package asset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSWriter stores uploads under UploadsDir and serves them from /uploads.
type FSWriter struct {
	UploadsDir    string
	PublicBaseURL string
}

func NewFSWriter(uploadsDir string, publicBaseURL string) *FSWriter {
	return &FSWriter{UploadsDir: uploadsDir, PublicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// WriteFile saves data as dir/filename and returns its public URL. Both parts
// must stay inside UploadsDir.
func (w *FSWriter) WriteFile(dir, filename string, data []byte) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(dir))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid upload dir %q", dir)
	}
	if filename == "" || filename != filepath.Base(filename) || strings.HasPrefix(filename, ".") {
		return "", fmt.Errorf("invalid upload filename %q", filename)
	}
	full := filepath.Join(w.UploadsDir, clean)
	if err := os.MkdirAll(full, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(full, filename), data, 0o644); err != nil {
		return "", err
	}
	return w.buildURL("/uploads/" + filepath.ToSlash(clean) + "/" + filename), nil
}

func (w *FSWriter) buildURL(path string) string {
	if w.PublicBaseURL == "" {
		return path
	}
	return w.PublicBaseURL + path
}
