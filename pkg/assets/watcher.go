package assets

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/jsonhammer/jsonhammer/pkg/observability"
)

// Watcher reports asset paths that change while a run is in progress.
// Index based picks assume a stable listing, so a change is worth a warning.
type Watcher struct {
	ctx     context.Context
	watcher *fsnotify.Watcher
	logger  *observability.HammerLogger
	wg      *sync.WaitGroup

	mutex   sync.Mutex
	watched map[string]struct{}
	changed map[string]struct{}
}

func NewWatcher(ctx context.Context, logger *observability.HammerLogger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		ctx:     ctx,
		watcher: watcher,
		logger:  logger,
		wg:      &sync.WaitGroup{},
		watched: make(map[string]struct{}),
		changed: make(map[string]struct{}),
	}

	w.wg.Add(1)
	go w.do()

	return w, nil
}

// Add starts watching path. Adding the same path twice is a no-op.
func (w *Watcher) Add(path string) {
	path = filepath.Clean(path)

	w.mutex.Lock()
	defer w.mutex.Unlock()
	if _, ok := w.watched[path]; ok {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		w.logger.Debug("watcher: error adding path", "path", path, "err", err)
		return
	}
	w.watched[path] = struct{}{}
}

// Changed reports whether path, or a file directly inside it, has changed
// since it was added.
func (w *Watcher) Changed(path string) bool {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	_, ok := w.changed[filepath.Clean(path)]
	return ok
}

func (w *Watcher) do() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			w.logger.Debug("watcher: context done")
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				w.logger.Debug("watcher: events channel closed")
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			w.record(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				w.logger.Debug("watcher: errors channel closed")
				return
			}
			w.logger.Warn("watcher: error", "err", err)
		}
	}
}

func (w *Watcher) record(event fsnotify.Event) {
	name := filepath.Clean(event.Name)

	w.mutex.Lock()
	path := name
	if _, ok := w.watched[name]; !ok {
		path = filepath.Dir(name)
	}
	_, seen := w.changed[path]
	w.changed[path] = struct{}{}
	w.mutex.Unlock()

	if !seen {
		w.logger.Warn("asset changed during run", "path", filepath.ToSlash(path), "file", filepath.Base(name), "op", event.Op.String())
	}
}

func (w *Watcher) Close() {
	err := w.watcher.Close()
	if err != nil {
		w.logger.Error("watcher: error closing watcher", "err", err)
	}
	w.wg.Wait()
}
