package keymap

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/ternarybob/scicalc/internal/logger"
)

const defaultDebounce = 200 * time.Millisecond

// Watcher reloads a keymap when its file changes.
type Watcher struct {
	keymap   *Keymap
	path     string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	// OnReload, when set, is called after every reload attempt.
	OnReload func(err error)

	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
}

// NewWatcher creates a watcher that reloads k from path.
func NewWatcher(k *Keymap, path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve keymap path: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	return &Watcher{
		keymap:   k,
		path:     abs,
		watcher:  fsWatcher,
		debounce: defaultDebounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start begins watching. The parent directory is watched so that editors
// replacing the file by rename are noticed.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	w.running = true
	go w.processEvents()
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	close(w.stopCh)
	w.mu.Unlock()

	err := w.watcher.Close()
	<-w.doneCh
	return err
}

func (w *Watcher) processEvents() {
	defer close(w.doneCh)

	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			// Editors often write in several steps; reload once they settle.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.GetLogger().Warn().Err(err).Str("path", w.path).Msg("Keymap watcher error")
		}
	}
}

func (w *Watcher) reload() {
	overrides, err := LoadFile(w.path)
	if err != nil {
		// Keep the previous bindings; a half-written file is common.
		logger.GetLogger().Warn().Err(err).Str("path", w.path).Msg("Keymap reload failed")
	} else {
		w.keymap.Replace(overrides)
		logger.GetLogger().Info().Str("path", w.path).Msg("Keymap reloaded")
	}

	if w.OnReload != nil {
		w.OnReload(err)
	}
}
