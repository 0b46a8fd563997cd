package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ritzau/lumen-atlas/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeWritten ChangeType = iota // created, written or renamed into place
	ChangeTypeRemoved                   // removed or renamed away
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeWritten:
		return "written"
	case ChangeTypeRemoved:
		return "removed"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(t))
	}
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// FileWatcher watches a single snapshot file. The parent directory is watched
// so editors that save through rename are still seen.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
}

// NewFileWatcher creates a watcher for the snapshot at path.
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &FileWatcher{
		watcher: watcher,
		path:    abs,
		events:  make(chan ChangeEvent, 100),
	}, nil
}

// Start begins watching. Events stop and the channel closes when ctx is done.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		fw.watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logging.Info("watching snapshot", "path", fw.path)

	go fw.processEvents(ctx)
	return nil
}

// Path returns the absolute path of the watched snapshot.
func (fw *FileWatcher) Path() string {
	return fw.path
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			change, relevant := fw.classify(event)
			if !relevant {
				continue
			}
			logging.Trace("snapshot event", "op", event.Op.String(), "path", event.Name)
			select {
			case fw.events <- change:
			case <-ctx.Done():
				return
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

func (fw *FileWatcher) classify(event fsnotify.Event) (ChangeEvent, bool) {
	if filepath.Clean(event.Name) != fw.path {
		return ChangeEvent{}, false
	}

	change := ChangeEvent{Paths: []string{event.Name}, Timestamp: time.Now()}
	switch {
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		change.Type = ChangeTypeWritten
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		change.Type = ChangeTypeRemoved
	default:
		return ChangeEvent{}, false
	}
	return change, true
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}
