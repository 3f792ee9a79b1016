package fsbackend

import "github.com/fsnotify/fsnotify"

// Watcher streams filesystem change notifications for a Local backend's
// root, backing the CLI's --watch flag (re-run on source file change), the
// way a prior cli layer wires optional long-running flags onto a
// otherwise one-shot command.
type Watcher struct {
	w *fsnotify.Watcher
}

// NewWatcher starts watching root for writes/creates/removes/renames.
func NewWatcher(root string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(root); err != nil {
		w.Close()
		return nil, err
	}
	return &Watcher{w: w}, nil
}

// Events exposes the underlying change-event channel; callers select on it
// alongside an error channel from Errors().
func (w *Watcher) Events() <-chan fsnotify.Event { return w.w.Events }

// Errors exposes the underlying watcher error channel.
func (w *Watcher) Errors() <-chan error { return w.w.Errors }

// Close stops the watcher.
func (w *Watcher) Close() error { return w.w.Close() }
