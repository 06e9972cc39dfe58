package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	sweeperr "github.com/Aman-CERP/filesweep/internal/errors"
	"github.com/Aman-CERP/filesweep/internal/rules"
)

// Monitor watches a directory tree and emits validated change events.
type Monitor struct {
	root      string
	matcher   *rules.Matcher
	opts      Options
	fsWatcher *fsnotify.Watcher
	coalescer *Coalescer

	events chan Event
	errors chan error
	stopCh chan struct{}
	doneCh chan struct{}

	mu          sync.Mutex
	started     bool
	stopped     bool
	outputsOnce sync.Once
	forwardWG   sync.WaitGroup

	droppedEvents atomic.Uint64
}

// NewMonitor creates a monitor for the given directory.
// Fails with a configuration error when the path does not name an existing
// directory, mirroring the precondition that the watch path exists before
// monitoring starts.
func NewMonitor(path string, matcher *rules.Matcher, opts Options) (*Monitor, error) {
	if path == "" {
		return nil, sweeperr.New(sweeperr.ErrCodeWatchPathMissing,
			"watch path is not configured", nil)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, sweeperr.New(sweeperr.ErrCodeWatchPathInvalid,
			fmt.Sprintf("resolve watch path %q", path), err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, sweeperr.New(sweeperr.ErrCodeWatchPathInvalid,
			fmt.Sprintf("watch path %q does not exist", absPath), err)
	}
	if !info.IsDir() {
		return nil, sweeperr.New(sweeperr.ErrCodeWatchPathInvalid,
			fmt.Sprintf("watch path %q is not a directory", absPath), nil)
	}

	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, sweeperr.WatchError("failed to create filesystem watcher", err)
	}

	m := &Monitor{
		root:      absPath,
		matcher:   matcher,
		opts:      opts,
		fsWatcher: fsw,
		events:    make(chan Event, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}

	if opts.CoalesceWindow > 0 {
		m.coalescer = NewCoalescer(opts.CoalesceWindow)
	}

	return m, nil
}

// Start begins receiving native notifications.
// Idempotent: calling Start on a running monitor is a no-op. Returns an
// invalid-state error when the monitor has already been stopped.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return sweeperr.New(sweeperr.ErrCodeWatchClosed,
			"monitor is stopped", nil)
	}
	if m.started {
		return nil
	}

	if m.opts.Recursive {
		if err := m.addRecursive(m.root); err != nil {
			return sweeperr.WatchError(
				fmt.Sprintf("register watch on %q", m.root), err)
		}
	} else {
		if err := m.fsWatcher.Add(m.root); err != nil {
			return sweeperr.WatchError(
				fmt.Sprintf("register watch on %q", m.root), err)
		}
	}

	m.started = true

	if m.coalescer != nil {
		m.forwardWG.Add(1)
		go m.forwardCoalesced()
	}

	go m.run(ctx)
	return nil
}

// run is the single notification-consuming loop. Events flow from fsnotify
// through the matcher onto the bounded output channel; there are no
// per-event goroutines, so delivery order follows notification order.
func (m *Monitor) run(ctx context.Context) {
	defer func() {
		if m.coalescer != nil {
			m.coalescer.Stop()
		}
		m.forwardWG.Wait()
		m.closeOutputs()
		close(m.doneCh)
	}()

	for {
		select {
		case <-ctx.Done():
			m.close()
			return
		case <-m.stopCh:
			return
		case event, ok := <-m.fsWatcher.Events:
			if !ok {
				return
			}
			m.handle(event)
		case err, ok := <-m.fsWatcher.Errors:
			if !ok {
				return
			}
			m.emitError(err)
		}
	}
}

// handle converts and filters a native notification.
func (m *Monitor) handle(event fsnotify.Event) {
	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Op
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		if isDir {
			// Pick up directories created while watching
			if m.opts.Recursive {
				if err := m.addRecursive(event.Name); err != nil {
					m.emitError(sweeperr.Wrap(sweeperr.ErrCodeWatchRegister, err))
				}
			}
			return
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod and unknown ops carry no content change
		return
	}

	if isDir {
		return
	}

	if !m.matcher.Match(event.Name) {
		return
	}

	e := Event{
		Path:      event.Name,
		Op:        op,
		Timestamp: time.Now(),
	}

	if m.coalescer != nil {
		m.coalescer.Add(e)
		return
	}
	m.emit(e)
}

// forwardCoalesced forwards coalesced events to the output channel.
func (m *Monitor) forwardCoalesced() {
	defer m.forwardWG.Done()
	for event := range m.coalescer.Output() {
		m.emit(event)
	}
}

// addRecursive registers root and every directory below it.
func (m *Monitor) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip entries we can't access
		}
		if !d.IsDir() {
			return nil
		}
		return m.fsWatcher.Add(path)
	})
}

// emit delivers an event without ever blocking the notification loop.
// A full buffer drops the event and counts it.
func (m *Monitor) emit(event Event) {
	select {
	case <-m.stopCh:
		return
	default:
	}

	select {
	case m.events <- event:
	default:
		count := m.droppedEvents.Add(1)
		slog.Warn("event buffer full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Op.String()),
			slog.Uint64("total_dropped", count),
		)
	}
}

// emitError delivers a watcher error, dropping when the buffer is full.
func (m *Monitor) emitError(err error) {
	select {
	case m.errors <- err:
	default:
	}
}

// close performs the shutdown transition once.
// Returns true when this call performed it.
func (m *Monitor) close() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return false
	}
	m.stopped = true
	close(m.stopCh)
	_ = m.fsWatcher.Close()
	return true
}

// closeOutputs closes the event and error channels exactly once.
func (m *Monitor) closeOutputs() {
	m.outputsOnce.Do(func() {
		close(m.events)
		close(m.errors)
	})
}

// Stop unregisters from native notifications and releases the underlying
// handle. Idempotent and safe to call even if the monitor never started.
func (m *Monitor) Stop() error {
	m.close()

	m.mu.Lock()
	started := m.started
	m.mu.Unlock()

	if started {
		// The run loop owns output-channel shutdown
		<-m.doneCh
	} else {
		m.closeOutputs()
	}
	return nil
}

// Events returns the channel of validated change events.
// The channel is closed when the monitor stops. A Monitor has exactly one
// consumer; do not share the channel.
func (m *Monitor) Events() <-chan Event {
	return m.events
}

// Errors returns the channel of watcher errors.
// Non-fatal errors are sent here; the monitor continues running.
func (m *Monitor) Errors() <-chan error {
	return m.errors
}

// DroppedEvents returns the number of events dropped due to buffer overflow.
func (m *Monitor) DroppedEvents() uint64 {
	return m.droppedEvents.Load()
}

// Root returns the absolute path being watched.
func (m *Monitor) Root() string {
	return m.root
}
