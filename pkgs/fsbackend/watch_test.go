package fsbackend

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWatcherReportsWriteEvent(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "watched.txt")
	assert.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	w, err := NewWatcher(path)
	assert.NoError(t, err)
	defer w.Close()

	assert.NoError(t, os.WriteFile(path, []byte("b"), 0o644))

	select {
	case ev := <-w.Events():
		assert.Equal(t, path, ev.Name)
	case err := <-w.Errors():
		t.Fatalf("unexpected watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("expected a write event within the timeout")
	}
}

func TestNewWatcherErrorsOnMissingPath(t *testing.T) {
	t.Parallel()
	_, err := NewWatcher(filepath.Join(t.TempDir(), "does-not-exist.txt"))
	assert.Error(t, err)
}
