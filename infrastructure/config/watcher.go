package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reloads the limits section of the YAML overlay when the file
// changes on disk
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	current  Limits
	mu       sync.RWMutex
	onChange []func(Limits)
	logger   *zap.Logger
	debounce time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher loads the current limits from path and prepares to watch it
func NewWatcher(path string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	limits, err := readLimits(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load initial limits: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Editors save by rename, which drops a watch on the file itself, so
	// the directory is watched and events are filtered by name.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return &Watcher{
		path:     filepath.Clean(path),
		watcher:  fw,
		current:  limits,
		logger:   logger,
		debounce: 100 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start begins watching for changes
func (w *Watcher) Start() {
	go w.watchLoop()
	w.logger.Info("Configuration watcher started", zap.String("path", w.path))
}

// Stop stops watching. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.watcher.Close()
		w.logger.Info("Configuration watcher stopped")
	})
}

// OnChange registers a callback run after each successful reload
func (w *Watcher) OnChange(handler func(Limits)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = append(w.onChange, handler)
}

// Current returns the last loaded limits
func (w *Watcher) Current() Limits {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

func (w *Watcher) watchLoop() {
	var debounceTimer *time.Timer

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) reload() {
	limits, err := readLimits(w.path)
	if err != nil {
		w.logger.Error("Invalid configuration, keeping current", zap.Error(err))
		return
	}

	w.mu.Lock()
	old := w.current
	if old == limits {
		w.mu.Unlock()
		return
	}
	w.current = limits
	handlers := append([]func(Limits){}, w.onChange...)
	w.mu.Unlock()

	w.logger.Info("Limits reloaded",
		zap.String("path", w.path),
		zap.Int("linkLimit", limits.LinkLimit),
		zap.Int("labelMaxLength", limits.LabelMaxLength),
		zap.Int("thumbnailMaxSize", limits.ThumbnailMaxSize),
	)
	for _, handler := range handlers {
		handler(limits)
	}
}
