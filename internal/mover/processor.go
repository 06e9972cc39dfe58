package mover

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	sweeperr "github.com/Aman-CERP/filesweep/internal/errors"
	"github.com/Aman-CERP/filesweep/internal/rules"
	"github.com/Aman-CERP/filesweep/internal/scanner"
)

// Config configures a Processor.
type Config struct {
	// TargetDir is the directory files are moved into. The caller creates
	// it before starting; the processor never creates directories.
	TargetDir string

	// RetryAttempts is the lock-probe budget per job (default: 10).
	RetryAttempts int

	// RetryDelay is the pause between lock probes (default: 100ms).
	RetryDelay time.Duration

	// StatusBufferSize bounds the status channel (default: 256).
	StatusBufferSize int
}

// withDefaults fills zero values.
func (c Config) withDefaults() Config {
	if c.RetryAttempts == 0 {
		c.RetryAttempts = 10
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 100 * time.Millisecond
	}
	if c.StatusBufferSize == 0 {
		c.StatusBufferSize = 256
	}
	return c
}

// Processor owns the move queue and its single worker goroutine.
//
// Enqueue is fire-and-forget: it never returns an error; all outcomes are
// reported on the status stream. A source path already queued or mid-move
// is not enqueued again until its job reaches a terminal stage, so an
// initial scan and a create event for the same file yield one job.
// Shutdown is best effort, no durability: a job already dequeued runs its
// full retry sequence to completion, while jobs still sitting in the queue
// are dropped.
type Processor struct {
	cfg    Config
	queue  *Queue
	policy RetryPolicy
	probe  lockProbe

	statuses chan Status
	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once

	mu      sync.RWMutex
	stopped bool

	// inFlight holds source paths from acceptance to terminal stage.
	pendingMu sync.Mutex
	inFlight  map[string]struct{}
}

// NewProcessor creates a processor and starts its worker goroutine.
func NewProcessor(cfg Config) (*Processor, error) {
	cfg = cfg.withDefaults()

	if cfg.TargetDir == "" {
		return nil, sweeperr.New(sweeperr.ErrCodeTargetInvalid,
			"target directory is not configured", nil)
	}

	p := &Processor{
		cfg:      cfg,
		queue:    NewQueue(),
		policy:   RetryPolicy{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
		probe:    flockProbe,
		statuses: make(chan Status, cfg.StatusBufferSize),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		inFlight: make(map[string]struct{}),
	}

	go p.work()
	return p, nil
}

// Enqueue accepts a source path for moving.
// Never returns an error to the caller: a path that cannot be turned into a
// job is reported as a StageFailed status instead. A path whose job is
// still pending is silently ignored.
func (p *Processor) Enqueue(source string) {
	name := filepath.Base(source)
	if source == "" || name == "." || name == string(filepath.Separator) {
		p.emit(Status{
			Stage:   StageFailed,
			Source:  source,
			Message: fmt.Sprintf("cannot derive a file name from %q", source),
			Err: sweeperr.New(sweeperr.ErrCodeMoveFailed,
				fmt.Sprintf("cannot derive a file name from %q", source), nil),
		})
		return
	}

	p.pendingMu.Lock()
	if _, dup := p.inFlight[source]; dup {
		p.pendingMu.Unlock()
		slog.Debug("duplicate enqueue suppressed", slog.String("source", source))
		return
	}
	p.inFlight[source] = struct{}{}
	p.pendingMu.Unlock()

	job := Job{
		Source: source,
		Target: filepath.Join(p.cfg.TargetDir, name),
		Name:   name,
	}

	p.emit(Status{
		Stage:  StageDetected,
		Name:   job.Name,
		Source: job.Source,
		Target: job.Target,
	})

	p.queue.Push(job)
}

// ScanExisting lists the watch directory once and enqueues every file the
// matcher accepts, then emits a StageScanned summary with the match count.
// A bad watch path is reported as a StageFailed status; the error return
// carries the same failure for callers that want to abort startup on it.
// Runs synchronously: when it returns, every pre-existing match is queued.
func (p *Processor) ScanExisting(ctx context.Context, watchDir string, matcher *rules.Matcher, recursive bool) error {
	results, err := scanner.New(matcher).Scan(ctx, scanner.Options{
		RootDir:   watchDir,
		Recursive: recursive,
	})
	if err != nil {
		p.emit(Status{
			Stage:   StageFailed,
			Source:  watchDir,
			Message: fmt.Sprintf("initial scan of %s failed", watchDir),
			Err:     err,
		})
		return err
	}

	count := 0
	for path := range results {
		p.Enqueue(path)
		count++
	}

	p.emit(Status{
		Stage:   StageScanned,
		Source:  watchDir,
		Message: fmt.Sprintf("initial scan queued %d existing file(s)", count),
	})
	return nil
}

// work is the single worker loop. It blocks on the wake signal while the
// queue is empty and drains the queue completely on each wake, so one
// signal services any number of jobs enqueued before it.
func (p *Processor) work() {
	defer close(p.doneCh)

	for {
		select {
		case <-p.stopCh:
			return
		case <-p.queue.Wake():
		}

		for {
			select {
			case <-p.stopCh:
				// Jobs still queued are abandoned on shutdown
				return
			default:
			}

			job, ok := p.queue.Pop()
			if !ok {
				break
			}
			p.process(job)
		}
	}
}

// process runs one job to a terminal stage. Failures never propagate out
// of the worker loop; the worker stays alive for subsequent jobs.
func (p *Processor) process(job Job) {
	p.emit(Status{
		Stage:  StageMoving,
		Name:   job.Name,
		Source: job.Source,
		Target: job.Target,
	})

	err := moveWithRetry(job, p.policy, p.probe, p.emit)

	// Clear the pending mark before the terminal status goes out, so a
	// consumer reacting to it can enqueue the path again right away.
	p.finish(job)

	if err != nil {
		p.emit(Status{
			Stage:   StageFailed,
			Name:    job.Name,
			Source:  job.Source,
			Target:  job.Target,
			Message: err.Error(),
			Err:     err,
		})
		return
	}

	p.emit(Status{
		Stage:  StageMoved,
		Name:   job.Name,
		Source: job.Source,
		Target: job.Target,
	})
}

// emit delivers a status without blocking the worker indefinitely.
// A full buffer drops the status with a log entry.
func (p *Processor) emit(s Status) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		return
	}

	s.Timestamp = time.Now()
	select {
	case p.statuses <- s:
	default:
		slog.Warn("status buffer full, dropping status",
			slog.String("stage", s.Stage.String()),
			slog.String("name", s.Name),
		)
	}
}

// finish clears a terminal job from the in-flight set, allowing the same
// path to be enqueued again.
func (p *Processor) finish(job Job) {
	p.pendingMu.Lock()
	delete(p.inFlight, job.Source)
	p.pendingMu.Unlock()
}

// jobsInFlight counts jobs accepted but not yet terminal.
func (p *Processor) jobsInFlight() int {
	p.pendingMu.Lock()
	defer p.pendingMu.Unlock()
	return len(p.inFlight)
}

// Statuses returns the stream of processing statuses.
// The channel is closed when the processor stops.
func (p *Processor) Statuses() <-chan Status {
	return p.statuses
}

// Pending returns the number of jobs waiting in the queue.
func (p *Processor) Pending() int {
	return p.queue.Len()
}

// WaitIdle blocks until every accepted job has reached a terminal stage.
// The retry budget is finite, so this always returns on a running
// processor; call it before Stop, since jobs abandoned by shutdown never
// terminate. Cancel the context to give up waiting.
func (p *Processor) WaitIdle(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for {
		if p.jobsInFlight() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Stop shuts the worker down and closes the status stream.
// Idempotent and thread-safe. A job mid-retry completes its full retry
// sequence first; jobs still queued are dropped without processing.
func (p *Processor) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.queue.Signal()
		<-p.doneCh

		p.mu.Lock()
		p.stopped = true
		close(p.statuses)
		p.mu.Unlock()
	})
}
