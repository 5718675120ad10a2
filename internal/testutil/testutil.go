// Package testutil provides shared test helpers for building fixture trees.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteTree creates the given relative file paths under root, creating parent
// directories as needed. Each file gets a one-line placeholder body.
func WriteTree(t *testing.T, root string, paths ...string) {
	t.Helper()
	for _, p := range paths {
		abs := filepath.Join(root, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", p, err)
		}
		if err := os.WriteFile(abs, []byte("fixture\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

// WriteDirs creates empty directories under root.
func WriteDirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(d)), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
}
