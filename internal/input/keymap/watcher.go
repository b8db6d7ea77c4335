package keymap

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period after the last write before a
// layout file is reloaded.
const DefaultDebounce = 100 * time.Millisecond

// Update is delivered after a watched layout file changes. Exactly one of
// Keymap and Err is set.
type Update struct {
	Path   string
	Keymap *Keymap
	Err    error
}

// Watcher reloads a layout file whenever it changes on disk. Editors often
// replace a file instead of writing it, so the parent directory is watched
// and events are filtered by name.
type Watcher struct {
	mu sync.Mutex

	watcher *fsnotify.Watcher
	loader  *Loader
	path    string
	delay   time.Duration
	timer   *time.Timer

	updates chan Update

	closed   bool
	closeCh  chan struct{}
	closedWg sync.WaitGroup
}

// NewWatcher starts watching path. A delay of zero uses DefaultDebounce.
func NewWatcher(path string, delay time.Duration) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, err
	}
	if delay <= 0 {
		delay = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		watcher: fsw,
		loader:  NewLoader(),
		path:    absPath,
		delay:   delay,
		updates: make(chan Update, 4),
		closeCh: make(chan struct{}),
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Updates returns the channel reloaded keymaps are delivered on.
func (w *Watcher) Updates() <-chan Update {
	return w.updates
}

// Close stops the watcher and closes the update channel.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	close(w.updates)

	return w.watcher.Close()
}

func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(Update{Path: w.path, Err: err})
		}
	}
}

// schedule restarts the debounce timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.reload)
}

func (w *Watcher) reload() {
	km, err := w.loader.LoadFile(w.path)
	if err != nil {
		w.send(Update{Path: w.path, Err: err})
		return
	}
	w.send(Update{Path: w.path, Keymap: km})
}

// send delivers an update unless the watcher is closed. A full channel
// drops the oldest pending update so the latest state wins.
func (w *Watcher) send(u Update) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	for {
		select {
		case w.updates <- u:
			return
		default:
		}
		select {
		case <-w.updates:
		default:
		}
	}
}
