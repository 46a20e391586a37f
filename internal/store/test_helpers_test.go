package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/scrolldepth/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestCrossing creates a crossing with minimal required fields.
func createTestCrossing(instance, label string, epoch, depth, seq int64) ir.Crossing {
	return ir.Crossing{
		Instance: instance,
		Label:    label,
		Epoch:    epoch,
		Depth:    depth,
		Seq:      seq,
	}
}
