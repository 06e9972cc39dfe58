// Package mover queues and executes lock-aware file moves.
//
// A Processor owns a FIFO queue and a single worker goroutine. Files are
// enqueued fire-and-forget; every outcome, success or failure, is reported
// on the status stream rather than returned to the caller. The worker
// survives any individual job failure.
package mover

import (
	"time"
)

// Stage identifies a point in a move job's lifecycle.
type Stage int

const (
	// StageDetected is emitted when a file is accepted for processing.
	StageDetected Stage = iota
	// StageMoving is emitted when the worker picks up the job.
	StageMoving
	// StageMoved is the successful terminal stage.
	StageMoved
	// StageBusy is emitted when the target path is already occupied.
	StageBusy
	// StageRetrying is emitted after a lock probe finds the source busy.
	StageRetrying
	// StageFailed is the unsuccessful terminal stage.
	StageFailed
	// StageScanned is emitted once per initial scan with the match count.
	StageScanned
)

// String returns a human-readable representation of the stage.
func (s Stage) String() string {
	switch s {
	case StageDetected:
		return "DETECTED"
	case StageMoving:
		return "MOVING"
	case StageMoved:
		return "MOVED"
	case StageBusy:
		return "BUSY"
	case StageRetrying:
		return "RETRYING"
	case StageFailed:
		return "FAILED"
	case StageScanned:
		return "SCANNED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the stage ends a job's lifecycle.
func (s Stage) Terminal() bool {
	return s == StageMoved || s == StageFailed
}

// Status is a transient progress report for one move job.
// Statuses are emitted and discarded, never stored.
type Status struct {
	// Stage is the lifecycle point being reported.
	Stage Stage

	// Name is the file name without directory.
	Name string

	// Source is the full source path.
	Source string

	// Target is the full target path.
	Target string

	// Attempt is the current attempt number for StageRetrying.
	Attempt int

	// Delay is the pause before the next attempt for StageRetrying.
	Delay time.Duration

	// Message is an optional human-readable description.
	Message string

	// Err is the underlying error for StageFailed, when available.
	Err error

	// Timestamp is when the status was produced.
	Timestamp time.Time
}

// Job is one pending file move. A Job is owned by the queue until dequeued,
// then exclusively by the worker until it reaches a terminal stage.
type Job struct {
	// Source is the full path of the file to move.
	Source string

	// Target is the full destination path (target directory + file name).
	Target string

	// Name is the file name without directory.
	Name string
}
