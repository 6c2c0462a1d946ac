package ingest

import (
	"path/filepath"
	"strings"
)

// SubjectFromPath infers a subject_ref for a screenshot found on disk.
// Files are expected under <root>/<subject>/shot.jpg; a file sitting directly
// in the root falls back to its own name without extension.
func SubjectFromPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	if idx := strings.Index(rel, "/"); idx > 0 {
		return rel[:idx]
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
