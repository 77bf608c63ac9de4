package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"animethreads/internal/fileutil"
)

// WriteJSON encodes v into path, creating parent directories.
func WriteJSON(t testing.TB, path string, v any) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := fileutil.WriteJSONAtomic(path, v); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// ReadJSON decodes path into v and fails the test when the file is missing.
func ReadJSON(t testing.TB, path string, v any) {
	t.Helper()

	exists, err := fileutil.ReadJSON(path, v)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	if !exists {
		t.Fatalf("expected %s to exist", path)
	}
}
