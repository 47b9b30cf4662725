// Package watch detects configuration changes on disk.
//
// The detector watches the config directory with fsnotify and emits one
// debounced ChangeEvent per file after a burst of writes settles, so a
// single editor save (which often produces create+write+rename sequences)
// triggers exactly one reconciliation.
package watch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"orgsync/pkg/logging"
)

// Operation classifies what happened to a watched file.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// ChangeEvent is one debounced configuration change.
type ChangeEvent struct {
	Path      string
	Operation Operation
	Timestamp time.Time
}

// Detector watches a configuration directory for YAML changes.
type Detector struct {
	mu sync.Mutex

	configPath       string
	watcher          *fsnotify.Watcher
	debounceInterval time.Duration
	pendingEvents    map[string]*debounceEntry
	stopCh           chan struct{}
	running          bool
}

type debounceEntry struct {
	event ChangeEvent
	timer *time.Timer
}

// NewDetector creates a detector for the given config directory.
func NewDetector(configPath string, debounceInterval time.Duration) *Detector {
	if debounceInterval == 0 {
		debounceInterval = 500 * time.Millisecond
	}
	return &Detector{
		configPath:       configPath,
		debounceInterval: debounceInterval,
		pendingEvents:    make(map[string]*debounceEntry),
		stopCh:           make(chan struct{}),
	}
}

// Start begins watching. Events are delivered on changes until the context
// is cancelled or Stop is called.
func (d *Detector) Start(ctx context.Context, changes chan<- ChangeEvent) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if err := watcher.Add(d.configPath); err != nil {
		watcher.Close()
		d.mu.Unlock()
		return err
	}

	d.watcher = watcher
	d.running = true
	d.stopCh = make(chan struct{})
	d.mu.Unlock()

	go d.processEvents(ctx, changes)

	logging.Info("Watch", "Started watching %s for configuration changes", d.configPath)
	return nil
}

// Stop shuts the detector down and cancels pending debounced events.
func (d *Detector) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}
	d.running = false
	close(d.stopCh)
	d.watcher.Close()

	for key, entry := range d.pendingEvents {
		entry.timer.Stop()
		delete(d.pendingEvents, key)
	}
}

func (d *Detector) processEvents(ctx context.Context, changes chan<- ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			d.Stop()
			return

		case <-d.stopCh:
			return

		case event, ok := <-d.watcher.Events:
			if !ok {
				return
			}
			d.handleFsEvent(event, changes)

		case err, ok := <-d.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("Watch", err, "Filesystem watcher error")
		}
	}
}

func (d *Detector) handleFsEvent(event fsnotify.Event, changes chan<- ChangeEvent) {
	if !isYAMLFile(event.Name) {
		return
	}

	var operation Operation
	switch {
	case event.Op.Has(fsnotify.Create):
		operation = OperationCreate
	case event.Op.Has(fsnotify.Write):
		operation = OperationUpdate
	case event.Op.Has(fsnotify.Remove):
		operation = OperationDelete
	case event.Op.Has(fsnotify.Rename):
		// Rename is treated as delete; the new name triggers a create.
		operation = OperationDelete
	default:
		return
	}

	d.debounceEvent(ChangeEvent{
		Path:      event.Name,
		Operation: operation,
		Timestamp: time.Now(),
	}, changes)
}

// debounceEvent collapses rapid successive changes to the same file into
// one emitted event.
func (d *Detector) debounceEvent(event ChangeEvent, changes chan<- ChangeEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.running {
		return
	}

	key := event.Path
	if entry, ok := d.pendingEvents[key]; ok {
		entry.timer.Stop()
		event.Operation = mergeOperations(entry.event.Operation, event.Operation)
	}

	timer := time.AfterFunc(d.debounceInterval, func() {
		d.mu.Lock()
		entry, ok := d.pendingEvents[key]
		if ok {
			delete(d.pendingEvents, key)
		}
		d.mu.Unlock()

		if ok {
			select {
			case changes <- entry.event:
				logging.Debug("Watch", "Emitted change event: %s %s", entry.event.Operation, entry.event.Path)
			default:
				logging.Warn("Watch", "Change event channel full, dropping event for %s", entry.event.Path)
			}
		}
	})

	d.pendingEvents[key] = &debounceEntry{event: event, timer: timer}
}

// mergeOperations combines two operations on the same file observed within
// one debounce window.
func mergeOperations(previous, next Operation) Operation {
	switch {
	case previous == OperationCreate && next == OperationUpdate:
		return OperationCreate
	case previous == OperationDelete && next == OperationCreate:
		return OperationUpdate
	default:
		return next
	}
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
