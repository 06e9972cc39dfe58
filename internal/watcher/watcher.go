// Package watcher turns native filesystem notifications into validated
// change events.
//
// A Monitor wraps fsnotify, applies the configured rules.Matcher, and
// delivers events on a single bounded channel. There is exactly one
// consumer per Monitor by construction; when the buffer fills, events are
// dropped and counted rather than blocking the notification loop. An
// optional Coalescer merges rapid same-path bursts before delivery.
//
// Usage:
//
//	m, err := watcher.NewMonitor(path, matcher, watcher.DefaultOptions())
//	if err != nil {
//	    return err
//	}
//	defer m.Stop()
//
//	if err := m.Start(ctx); err != nil {
//	    return err
//	}
//
//	for event := range m.Events() {
//	    switch event.Op {
//	    case watcher.OpCreate:
//	        // Handle file creation
//	    }
//	}
package watcher

import (
	"time"
)

// Op represents a file system operation type.
type Op int

const (
	// OpCreate indicates a new file was created.
	OpCreate Op = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file was deleted.
	OpDelete
	// OpRename indicates a file was renamed away from its path.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Event represents a validated file system change.
type Event struct {
	// Path is the absolute path of the affected file.
	Path string

	// OldPath is the previous path for rename events, when the platform
	// reports it. Empty otherwise.
	OldPath string

	// Op is the type of file system operation.
	Op Op

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Options configures Monitor behavior.
type Options struct {
	// EventBufferSize is the size of the event channel buffer.
	// Default: 1000
	EventBufferSize int

	// CoalesceWindow merges rapid events for the same path within the
	// window before delivery. Zero disables coalescing.
	CoalesceWindow time.Duration

	// Recursive watches subdirectories as well, including ones created
	// while watching. Default: false
	Recursive bool
}

// DefaultOptions returns the default monitor options.
func DefaultOptions() Options {
	return Options{
		EventBufferSize: 1000,
		CoalesceWindow:  0,
		Recursive:       false,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.EventBufferSize == 0 {
		o.EventBufferSize = DefaultOptions().EventBufferSize
	}
	return o
}
