package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteObject seeds the filesystem object store rooted at root with content
// stored under bucket/key.
func WriteObject(t testing.TB, root, bucket, key, content string) {
	t.Helper()

	target := filepath.Join(root, bucket, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", target, err)
	}
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", target, err)
	}
}
