package main

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ivarvong/pyex-sub003/pkgs/pycontext"
)

func TestStripShebangRemovesFirstLineWhenPresent(t *testing.T) {
	t.Parallel()
	src := []byte("#!/usr/bin/env pyrun\nprint('hi')\n")
	assert.Equal(t, []byte("print('hi')\n"), stripShebang(src))
}

func TestStripShebangLeavesOrdinarySourceUntouched(t *testing.T) {
	t.Parallel()
	src := []byte("print('hi')\n")
	assert.Equal(t, src, stripShebang(src))
}

func TestStripShebangWithNoTrailingNewlineReturnsEmpty(t *testing.T) {
	t.Parallel()
	src := []byte("#!/usr/bin/env pyrun")
	assert.Equal(t, []byte{}, stripShebang(src))
}

func TestSaveAndLoadEventsJSONRoundTrip(t *testing.T) {
	t.Parallel()
	events := []pycontext.Event{
		{Seq: 0, Kind: "output", Payload: map[string]interface{}{"text": "hi\n"}},
	}
	path := filepath.Join(t.TempDir(), "events.json")
	assert.NoError(t, saveEvents(path, events))

	loaded, err := loadEvents(path)
	assert.NoError(t, err)
	assert.Equal(t, events[0].Kind, loaded[0].Kind)
	assert.Equal(t, events[0].Payload["text"], loaded[0].Payload["text"])
}

func TestSaveAndLoadEventsCBORRoundTrip(t *testing.T) {
	t.Parallel()
	events := []pycontext.Event{
		{Seq: 0, Kind: "output", Payload: map[string]interface{}{"text": "hi\n"}},
		{Seq: 1, Kind: "suspend", Payload: map[string]interface{}{}},
	}
	path := filepath.Join(t.TempDir(), "events.cbor")
	assert.NoError(t, saveEvents(path, events))

	loaded, err := loadEvents(path)
	assert.NoError(t, err)
	assert.Len(t, loaded, 2)
	assert.Equal(t, "suspend", loaded[1].Kind)
}

func TestGetInputReaderErrorsOnMissingFile(t *testing.T) {
	t.Parallel()
	_, _, err := getInputReader(filepath.Join(t.TempDir(), "does-not-exist.py"))
	assert.Error(t, err)
}

func TestGetInputReaderOpensRealFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "prog.py")
	assert.NoError(t, os.WriteFile(path, []byte("print(1)\n"), 0o644))

	r, closeFn, err := getInputReader(path)
	assert.NoError(t, err)
	assert.NotNil(t, r)
	assert.NoError(t, closeFn())
}

// TestWatchAndRunRerunsOnFileWrite runs watchAndRun against a real file,
// writes to it once the initial run has happened, and confirms a second run
// followed; it stops the loop by signalling the test process itself, since
// watchAndRun only exits on its events channel closing or an OS signal.
func TestWatchAndRunRerunsOnFileWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watched.py")
	assert.NoError(t, os.WriteFile(path, []byte("print(1)\n"), 0o644))

	var runs int64
	done := make(chan error, 1)
	go func() {
		done <- watchAndRun(path, func() error {
			atomic.AddInt64(&runs, 1)
			return nil
		})
	}()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&runs) >= 1
	}, 2*time.Second, 10*time.Millisecond, "expected the initial run before any write")

	assert.NoError(t, os.WriteFile(path, []byte("print(2)\n"), 0o644))

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&runs) >= 2
	}, 2*time.Second, 10*time.Millisecond, "expected a rerun triggered by the write")

	assert.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGTERM))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watchAndRun did not exit after SIGTERM")
	}
}
