package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/critpath/pkg/logging"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeScenario ChangeType = iota
	ChangeTypeConfig
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeScenario:
		return "scenario"
	case ChangeTypeConfig:
		return "config"
	}
	return fmt.Sprintf("ChangeType(%d)", int(t))
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

// batchWindow groups the several events one save produces
const batchWindow = 100 * time.Millisecond

// FileWatcher watches scenario and config files. Editors often replace a
// file instead of writing it, so the parent directories are watched and
// events are filtered by name.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]ChangeType // absolute path -> kind
	events  chan ChangeEvent
	stop    sync.Once
}

// NewFileWatcher creates a watcher for the given scenario file
func NewFileWatcher(scenario string) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		files:   make(map[string]ChangeType),
		events:  make(chan ChangeEvent, 100),
	}
	if err := fw.Add(scenario, ChangeTypeScenario); err != nil {
		watcher.Close()
		return nil, err
	}
	return fw, nil
}

// Add watches one more file
func (fw *FileWatcher) Add(path string, kind ChangeType) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := fw.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}
	fw.files[abs] = kind
	return nil
}

// Start begins watching for file changes until ctx is done
func (fw *FileWatcher) Start(ctx context.Context) error {
	for path, kind := range fw.files {
		logging.Info("watching file", "path", path, "kind", kind.String())
	}
	go fw.processEvents(ctx)
	return nil
}

// processEvents batches the events of the watched files by type
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.events)
	defer fw.Stop()

	pending := make(map[ChangeType][]string)
	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, kind := range []ChangeType{ChangeTypeScenario, ChangeTypeConfig} {
			if len(pending[kind]) == 0 {
				continue
			}
			select {
			case fw.events <- ChangeEvent{Type: kind, Paths: pending[kind], Timestamp: time.Now()}:
			case <-ctx.Done():
				return
			}
			delete(pending, kind)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			kind, watched := fw.files[filepath.Clean(event.Name)]
			if !watched || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			logging.Trace("file changed", "path", event.Name, "op", event.Op.String())
			pending[kind] = append(pending[kind], event.Name)
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events. It is closed once the
// watcher stops.
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop releases the underlying watcher. Safe to call more than once.
func (fw *FileWatcher) Stop() error {
	var err error
	fw.stop.Do(func() {
		err = fw.watcher.Close()
	})
	return err
}
