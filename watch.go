// FILE: lixenwraith/blockconf/watch.go
package blockconf

import (
	"context"
	"fmt"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultMaxWatchers bounds the number of subscriber channels per file.
const DefaultMaxWatchers = 100

// Watch event markers, sent instead of entry paths.
const (
	EventFileDeleted        = "file_deleted"
	EventPermissionsChanged = "permissions_changed"
	EventReloadError        = "reload_error"
	EventReloadTimeout      = "reload_timeout"
)

// subscriberBuffer is the capacity of each watch channel; events beyond it are dropped.
const subscriberBuffer = 10

// WatchOptions configures file watching behavior
type WatchOptions struct {
	// PollInterval between stat calls (floored at MinPollInterval)
	PollInterval time.Duration

	// Debounce delays a reload until the file stops changing
	Debounce time.Duration

	// MaxWatchers limits concurrent watch channels
	MaxWatchers int

	// ReloadTimeout bounds a single re-parse
	ReloadTimeout time.Duration

	// VerifyPermissions refuses to reload a file whose group/other bits changed
	VerifyPermissions bool
}

// DefaultWatchOptions returns the options used by AutoUpdate and Watch
func DefaultWatchOptions() WatchOptions {
	return WatchOptions{
		PollInterval:      DefaultPollInterval,
		Debounce:          DefaultDebounce,
		MaxWatchers:       DefaultMaxWatchers,
		ReloadTimeout:     DefaultReloadTimeout,
		VerifyPermissions: true,
	}
}

func (o WatchOptions) normalized() WatchOptions {
	if o.PollInterval < MinPollInterval {
		o.PollInterval = MinPollInterval
	}
	if o.MaxWatchers <= 0 {
		o.MaxWatchers = DefaultMaxWatchers
	}
	if o.ReloadTimeout <= 0 {
		o.ReloadTimeout = DefaultReloadTimeout
	}
	return o
}

// fileState is the part of a stat result that signals a change.
type fileState struct {
	modTime time.Time
	size    int64
	mode    os.FileMode
}

func statFile(path string) (fileState, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fileState{}, err
	}
	return fileState{modTime: info.ModTime(), size: info.Size(), mode: info.Mode()}, nil
}

func (s fileState) contentChanged(prev fileState) bool {
	return !s.modTime.Equal(prev.modTime) || s.size != prev.size
}

// watcher polls one file and fans events out to subscribers.
type watcher struct {
	ctx      context.Context
	cancel   context.CancelFunc
	opts     WatchOptions
	filePath string
	last     fileState // owned by the poll goroutine

	running   atomic.Bool
	reloading atomic.Bool

	mu       sync.RWMutex
	subs     map[int64]chan string
	nextSub  int64
	debounce *time.Timer
}

func newWatcher(path string, opts WatchOptions) *watcher {
	ctx, cancel := context.WithCancel(context.Background())
	w := &watcher{
		ctx:      ctx,
		cancel:   cancel,
		opts:     opts,
		filePath: path,
		subs:     make(map[int64]chan string),
	}
	if state, err := statFile(path); err == nil {
		w.last = state
	}
	return w
}

// AutoUpdate reloads the loaded file whenever it changes on disk
func (c *Config) AutoUpdate() {
	c.AutoUpdateWithOptions(DefaultWatchOptions())
}

// AutoUpdateWithOptions is AutoUpdate with custom options.
// It does nothing until a file has been loaded, and keeps an existing watcher
// on the same file.
func (c *Config) AutoUpdateWithOptions(opts WatchOptions) {
	opts = opts.normalized()

	c.mutex.Lock()
	defer c.mutex.Unlock()

	path := c.configFilePath
	if path == "" {
		return
	}
	if c.watcher != nil {
		if c.watcher.filePath == path {
			return
		}
		c.watcher.stop()
	}

	c.watcher = newWatcher(path, opts)
	c.watcher.running.Store(true)
	go c.watcher.run(c)
	c.logger.Debug("watching config file", "path", path, "poll", opts.PollInterval)
}

// StopAutoUpdate stops reloading and closes every watch channel
func (c *Config) StopAutoUpdate() {
	c.mutex.Lock()
	w := c.watcher
	c.watcher = nil
	c.mutex.Unlock()

	if w != nil {
		w.stop()
	}
}

// Watch subscribes to changes of the loaded file. Each event is either the
// slash-separated path of an entry that was added, removed or changed, or
// one of the Event markers. A reload error arrives as "reload_error:<error>".
// Without a loaded file the returned channel is already closed.
func (c *Config) Watch() <-chan string {
	return c.WatchWithOptions(DefaultWatchOptions())
}

// WatchWithOptions is Watch with custom options for a newly started watcher.
func (c *Config) WatchWithOptions(opts WatchOptions) <-chan string {
	c.AutoUpdateWithOptions(opts)

	c.mutex.RLock()
	w := c.watcher
	c.mutex.RUnlock()

	if w == nil {
		return closedChannel()
	}
	return w.subscribe()
}

// WatchFile loads path and moves the watcher to it, keeping its options.
func (c *Config) WatchFile(path string) error {
	opts := DefaultWatchOptions()
	c.mutex.RLock()
	if c.watcher != nil {
		opts = c.watcher.opts
	}
	c.mutex.RUnlock()

	c.StopAutoUpdate()
	if err := c.LoadFile(path); err != nil {
		return fmt.Errorf("failed to load new file for watching: %w", err)
	}
	c.AutoUpdateWithOptions(opts)
	return nil
}

// IsWatching reports whether a watcher is running
func (c *Config) IsWatching() bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.watcher != nil && c.watcher.running.Load()
}

// WatcherCount returns the number of open watch channels
func (c *Config) WatcherCount() int {
	c.mutex.RLock()
	w := c.watcher
	c.mutex.RUnlock()

	if w == nil {
		return 0
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.subs)
}

func (w *watcher) run(c *Config) {
	defer w.running.Store(false)

	ticker := time.NewTicker(w.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.poll(c)
		}
	}
}

// poll compares the file against the last seen state and arms the debounce timer.
func (w *watcher) poll(c *Config) {
	state, err := statFile(w.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			w.broadcast(EventFileDeleted)
		}
		return
	}

	if w.opts.VerifyPermissions && w.last.mode != 0 && state.mode&0077 != w.last.mode&0077 {
		w.broadcast(EventPermissionsChanged)
		return
	}
	if !state.contentChanged(w.last) {
		return
	}
	w.last = state

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	w.debounce = time.AfterFunc(w.opts.Debounce, func() { w.reload(c) })
}

// reload re-parses the file and installs the result only if parsing succeeds.
func (w *watcher) reload(c *Config) {
	if !w.reloading.CompareAndSwap(false, true) {
		return
	}
	defer w.reloading.Store(false)

	ctx, cancel := context.WithTimeout(w.ctx, w.opts.ReloadTimeout)
	defer cancel()

	type outcome struct {
		root *Scope
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		root, err := c.loadFile(ctx, w.filePath)
		done <- outcome{root, err}
	}()

	var res outcome
	select {
	case res = <-done:
	case <-ctx.Done():
		if w.ctx.Err() == nil {
			w.broadcast(EventReloadTimeout)
		}
		return
	}

	if res.err != nil {
		c.logger.Warn("config reload failed", "path", w.filePath, "error", res.err)
		w.broadcast(fmt.Sprintf("%s:%v", EventReloadError, res.err))
		return
	}

	previous := c.Root()
	c.swap(res.root, w.filePath)
	changes := diffPaths(previous.Flatten(), res.root.Flatten())
	c.logger.Info("config reloaded", "path", w.filePath, "changes", len(changes))
	for _, path := range changes {
		w.broadcast(path)
	}
}

// diffPaths lists, sorted, the paths added, removed or changed between two flattened trees.
func diffPaths(before, after map[string][]string) []string {
	var changes []string
	for path, values := range after {
		if prev, ok := before[path]; !ok || !slices.Equal(prev, values) {
			changes = append(changes, path)
		}
	}
	for path := range before {
		if _, ok := after[path]; !ok {
			changes = append(changes, path)
		}
	}
	slices.Sort(changes)
	return changes
}

func (w *watcher) subscribe() <-chan string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if len(w.subs) >= w.opts.MaxWatchers || w.ctx.Err() != nil {
		return closedChannel()
	}

	ch := make(chan string, subscriberBuffer)
	w.nextSub++
	id := w.nextSub
	w.subs[id] = ch

	go func() {
		<-w.ctx.Done()
		w.mu.Lock()
		delete(w.subs, id)
		close(ch)
		w.mu.Unlock()
	}()
	return ch
}

// broadcast delivers event to every subscriber without blocking.
func (w *watcher) broadcast(event string) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, ch := range w.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// stop cancels polling and waits briefly for the poll goroutine to exit.
func (w *watcher) stop() {
	w.cancel()

	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
	w.mu.Unlock()

	for i := 0; i < int(shutdownPollCycles) && w.running.Load(); i++ {
		time.Sleep(SpinWaitInterval)
	}
}

func closedChannel() <-chan string {
	ch := make(chan string)
	close(ch)
	return ch
}
