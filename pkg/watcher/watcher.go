package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultPollInterval is how often polling mode stats the watched path.
const DefaultPollInterval = 2 * time.Second

// Common errors.
var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrPermission     = errors.New("permission denied")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounceDuration sets the debounce duration.
func WithDebounceDuration(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounceDuration = d
	}
}

// WithPollInterval sets the polling interval for fallback mode.
func WithPollInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.pollInterval = d
	}
}

// WithOnChange sets the callback invoked when the snapshot source changes.
func WithOnChange(fn func()) WatcherOption {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// WithOnError sets the callback invoked on errors.
func WithOnError(fn func(error)) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// WithForcePoll forces polling mode even if fsnotify is available.
func WithForcePoll(force bool) WatcherOption {
	return func(w *Watcher) {
		w.forcePoll = force
	}
}

// Watcher monitors a snapshot source for changes using fsnotify with a
// polling fallback. The source is either a single snapshot file or a
// directory of candidate sources; in directory mode any write, create,
// rename or remove of a recognized snapshot file counts as a change, since
// the freshest source wins on reload.
type Watcher struct {
	path             string
	debounceDuration time.Duration
	pollInterval     time.Duration
	onChange         func()
	onError          func(error)
	forcePoll        bool
	forcePollEnv     bool
	fsType           FilesystemType

	fsWatcher   *fsnotify.Watcher
	debouncer   *Debouncer
	dirMode     bool
	useFallback bool
	lastMtime   time.Time
	lastSize    int64

	ctx      context.Context
	cancel   context.CancelFunc
	started  bool
	mu       sync.RWMutex
	changeCh chan struct{}
}

// NewWatcher creates a watcher for a snapshot file or source directory.
func NewWatcher(path string, opts ...WatcherOption) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:             absPath,
		debounceDuration: DefaultDebounceDuration,
		pollInterval:     DefaultPollInterval,
		onChange:         func() {},
		onError:          func(error) {},
		changeCh:         make(chan struct{}, 1),
	}

	for _, opt := range opts {
		opt(w)
	}

	w.debouncer = NewDebouncer(w.debounceDuration)

	return w, nil
}

// Start begins watching for changes.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return ErrAlreadyStarted
	}

	w.ctx, w.cancel = context.WithCancel(context.Background())

	// Reset per-start state.
	w.useFallback = false
	w.forcePollEnv = false
	w.dirMode = false
	w.fsType = FSTypeUnknown

	if envBool("CAPGRAPH_FORCE_POLLING") || envBool("CAPGRAPH_FORCE_POLL") {
		w.forcePollEnv = true
	}

	w.fsType = detectFilesystemTypeFunc(w.path)
	if isRemoteFilesystem(w.fsType) {
		w.useFallback = true
	}

	forcePoll := w.forcePoll || w.forcePollEnv
	if forcePoll {
		w.useFallback = true
	}

	info, err := os.Stat(w.path)
	switch {
	case err == nil:
		w.dirMode = info.IsDir()
		w.lastMtime, w.lastSize = w.sourceState()
	case os.IsPermission(err):
		return ErrPermission
	default:
		// The source may appear later; start from zero state.
		w.lastMtime = time.Time{}
		w.lastSize = 0
	}

	if !forcePoll && !w.useFallback {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			// Watching the containing directory survives atomic
			// rename-into-place writes; in directory mode the source
			// dir itself is the watch target.
			dir := w.path
			if !w.dirMode {
				dir = filepath.Dir(w.path)
			}
			if err := fsw.Add(dir); err != nil {
				fsw.Close()
				w.useFallback = true
			} else {
				w.fsWatcher = fsw
				w.useFallback = false
				go w.watchFsnotify()
			}
		} else {
			w.useFallback = true
		}
	} else {
		w.useFallback = true
	}

	if w.useFallback {
		go w.watchPolling()
	}

	w.started = true
	return nil
}

// Stop stops watching.
// The changeCh channel is intentionally not closed: closing would race with
// notifyChange() and wake Changed() receivers in a loop. Stop() runs at
// program exit, so the receiving goroutine dies with the process.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.started {
		return
	}

	if w.cancel != nil {
		w.cancel()
	}

	if w.fsWatcher != nil {
		w.fsWatcher.Close()
		w.fsWatcher = nil
	}

	w.debouncer.Cancel()
	w.started = false
}

// IsPolling returns true if the watcher is using polling mode.
func (w *Watcher) IsPolling() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.useFallback
}

// IsStarted returns true if the watcher is running.
func (w *Watcher) IsStarted() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.started
}

// Changed returns a channel that receives when the source changes.
// This is an alternative to the OnChange callback.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changeCh
}

// Path returns the watched path.
func (w *Watcher) Path() string {
	return w.path
}

// FilesystemType returns the best-effort filesystem classification for the watched path.
func (w *Watcher) FilesystemType() FilesystemType {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.fsType
}

// PollInterval returns the polling interval used when polling mode is active.
func (w *Watcher) PollInterval() time.Duration {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.pollInterval
}

func envBool(name string) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return false
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}

// isSnapshotFile reports whether a directory entry looks like a loadable
// snapshot source. Keep in sync with the loader's extension handling.
func isSnapshotFile(name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".backup") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".db", ".sqlite":
		return true
	}
	return false
}

// relevant reports whether an fsnotify event name concerns the watched
// source.
func (w *Watcher) relevant(eventName string) bool {
	base := filepath.Base(eventName)
	if w.dirMode {
		return isSnapshotFile(base)
	}
	return base == filepath.Base(w.path)
}

// sourceState summarizes the watched source as a (mtime, size) pair. In
// directory mode that is the newest snapshot file's mtime and the sum of
// snapshot file sizes, so both rewrites and add/remove of sources register.
func (w *Watcher) sourceState() (time.Time, int64) {
	if !w.dirMode {
		info, err := os.Stat(w.path)
		if err != nil {
			return time.Time{}, 0
		}
		return info.ModTime(), info.Size()
	}

	entries, err := os.ReadDir(w.path)
	if err != nil {
		return time.Time{}, 0
	}
	var newest time.Time
	var total int64
	for _, e := range entries {
		if e.IsDir() || !isSnapshotFile(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
		total += info.Size()
	}
	return newest, total
}

// watchFsnotify reacts to filesystem events.
func (w *Watcher) watchFsnotify() {
	// Capture channel references to avoid a race with Stop() clearing
	// fsWatcher.
	w.mu.RLock()
	if w.fsWatcher == nil {
		w.mu.RUnlock()
		return
	}
	events := w.fsWatcher.Events
	errs := w.fsWatcher.Errors
	w.mu.RUnlock()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-events:
			if !ok {
				return
			}

			if !w.relevant(event.Name) {
				continue
			}

			switch {
			case event.Op&fsnotify.Remove != 0:
				if w.dirMode {
					// A removed source just changes which file is
					// freshest.
					w.debouncer.Trigger(w.notifyChange)
				} else {
					w.onError(ErrFileRemoved)
				}

			case event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0:
				w.debouncer.Trigger(w.notifyChange)
			}

		case err, ok := <-errs:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// watchPolling compares the source state on a ticker.
func (w *Watcher) watchPolling() {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			if _, err := os.Stat(w.path); err != nil {
				if os.IsNotExist(err) {
					w.mu.RLock()
					hadFile := !w.lastMtime.IsZero()
					w.mu.RUnlock()
					if hadFile {
						w.onError(ErrFileRemoved)
					}
				} else if os.IsPermission(err) {
					w.onError(ErrPermission)
				} else {
					w.onError(err)
				}
				continue
			}

			mtime, size := w.sourceState()

			w.mu.Lock()
			changed := mtime.After(w.lastMtime) || size != w.lastSize
			if changed {
				w.lastMtime = mtime
				w.lastSize = size
			}
			w.mu.Unlock()

			if changed {
				w.debouncer.Trigger(w.notifyChange)
			}
		}
	}
}

// notifyChange invokes the onChange callback and signals the change channel.
func (w *Watcher) notifyChange() {
	w.mu.RLock()
	started := w.started
	w.mu.RUnlock()

	// Best-effort guard against callbacks after Stop(); there is a small
	// race window but callbacks are idempotent.
	if !started {
		return
	}

	w.onChange()

	select {
	case w.changeCh <- struct{}{}:
	default:
	}
}
