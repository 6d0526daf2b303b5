package statusfile

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/Proton-105/liveness-probe/pkg/metrics"
)

// Watcher logs filesystem events that touch the status file, including
// changes made by other processes.
type Watcher struct {
	path string
	log  *slog.Logger
	// notify is called for every event on the status file; used by tests.
	notify func(fsnotify.Op)
}

// NewWatcher creates a Watcher for the status file at path.
func NewWatcher(path string, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}

	return &Watcher{path: filepath.Clean(path), log: log}
}

// Run watches the parent directory of the status file until ctx is cancelled.
// ready, when non-nil, is closed once the watch is registered.
func (w *Watcher) Run(ctx context.Context, ready chan<- struct{}) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	if ready != nil {
		close(ready)
	}

	w.log.Info("status file watcher started", slog.String("path", w.path))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("status file watcher stopped")
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("status file watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	op := opName(event.Op)
	if op == "" {
		return
	}

	metrics.RecordFileEvent(op)

	switch op {
	case "remove":
		w.log.Info("status file removed", slog.String("path", w.path))
	case "create":
		w.log.Debug("status file created", slog.String("path", w.path))
	}

	if w.notify != nil {
		w.notify(event.Op)
	}
}

// opName maps the events relevant to the status file. Rename onto the
// status file shows up as Create; rename away from it as Rename.
func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return "remove"
	case op.Has(fsnotify.Create):
		return "create"
	case op.Has(fsnotify.Write):
		return "write"
	default:
		return ""
	}
}
