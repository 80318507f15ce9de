package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// fileChangedMsg is sent when a raw data file was written.
type fileChangedMsg struct {
	path string
}

// watchErrMsg is sent when the watcher stops with an error.
type watchErrMsg struct {
	err error
}

// FileWatcher reports writes to the raw data directory.
type FileWatcher struct {
	watcher *fsnotify.Watcher
}

// NewFileWatcher starts watching dir.
func NewFileWatcher(dir string) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	return &FileWatcher{watcher: w}, nil
}

// Close stops watching.
func (w *FileWatcher) Close() error {
	return w.watcher.Close()
}

// wait blocks until the next write or create event.
func (w *FileWatcher) wait() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}
				if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
					return fileChangedMsg{path: ev.Name}
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}
