package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/quicknote/pkg/core"
	"github.com/aretw0/quicknote/pkg/debounce"
)

// Watch reports changes of namespace files whose name matches pattern
// (doublestar syntax, e.g. "*.json" or "NOTES.json"). Changes made by this
// process are reported too. The channel is closed when ctx is done.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*" + FileExt
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	events := make(chan core.Event, 16)
	w := newWatchWorker(r, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	// The worker never closes the channel itself so a supervisor can restart
	// it on the same channel; the owner closes it once the loop has exited.
	lifecycle.Go(ctx, func(context.Context) error {
		<-w.finished
		close(events)
		return nil
	})
	return events, nil
}

type watchWorker struct {
	*worker.BaseWorker
	repo     *Repository
	pattern  string
	events   chan<- core.Event
	done     chan struct{}
	finished chan struct{}
	watcher  *fsnotify.Watcher
	cancel   context.CancelFunc

	mu         sync.Mutex
	debouncers map[core.Namespace]*debounce.Debouncer
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("fs-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
		done:       make(chan struct{}),
		finished:   make(chan struct{}),
		debouncers: make(map[core.Namespace]*debounce.Debouncer),
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.repo.Path); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.repo.Path, err)
	}

	w.watcher = watcher
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
			"pattern":           w.pattern,
		}
	})
}

// namespaceOf maps an event path to the namespace it belongs to.
// It returns false for temp files, the lock file and non-matching names.
func (w *watchWorker) namespaceOf(path string) (core.Namespace, bool) {
	base := filepath.Base(path)
	if strings.HasPrefix(base, TempFilePrefix) || base == LockFileName {
		return "", false
	}
	if filepath.Ext(base) != FileExt {
		return "", false
	}
	if ok, err := doublestar.Match(w.pattern, base); err != nil || !ok {
		return "", false
	}
	return core.Namespace(strings.TrimSuffix(base, FileExt)), true
}

// processFilesystemEvent filters an fsnotify event and schedules a
// debounced notification for its namespace.
func (w *watchWorker) processFilesystemEvent(ctx context.Context, event fsnotify.Event) bool {
	if w.repo.config.Logger != nil {
		w.repo.config.Logger.Debug("event received", "name", event.Name, "op", event.Op.String())
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	ns, ok := w.namespaceOf(event.Name)
	if !ok {
		return false
	}

	w.mu.Lock()
	d, exists := w.debouncers[ns]
	if !exists {
		d = debounce.New(w.repo.config.WatchDebounce, func() {
			w.sendEvent(ctx, core.Event{
				Type:      core.EventExternalChange,
				Namespace: ns,
				Timestamp: time.Now().UnixMilli(),
			})
		}, debounce.WithLogger(w.repo.config.Logger))
		w.debouncers[ns] = d
	}
	w.mu.Unlock()

	d.Trigger()
	return true
}

func (w *watchWorker) sendEvent(ctx context.Context, e core.Event) {
	w.repo.recordEvent()
	select {
	case w.events <- e:
	case <-w.done:
	case <-ctx.Done():
	}
}

func (w *watchWorker) handleWatcherError(err error) {
	if w.repo.config.Logger != nil {
		w.repo.config.Logger.Error("fsnotify error", "error", err)
	}
	if w.repo.config.ErrorHandler != nil {
		w.repo.config.ErrorHandler(err)
	}
}

// stopDebouncers waits for in-flight notifications so nothing is sent
// after the loop has finished.
func (w *watchWorker) stopDebouncers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, d := range w.debouncers {
		d.StopAndWait(5 * time.Second)
	}
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			logger := w.repo.config.Logger
			if logger == nil {
				err = panicErr
				return
			}
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer close(w.finished)
	defer w.stopDebouncers()
	defer close(w.done)
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			w.processFilesystemEvent(ctx, event)

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.handleWatcherError(wErr)
		}
	}
}
