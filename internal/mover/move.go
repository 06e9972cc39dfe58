package mover

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	sweeperr "github.com/Aman-CERP/filesweep/internal/errors"
)

// lockProbe attempts to acquire an exclusive advisory lock on path.
// It reports whether the file is locked by another process; when the probe
// succeeds, release frees the lock. Injectable for deterministic tests.
type lockProbe func(path string) (locked bool, release func(), err error)

// flockProbe is the production probe built on gofrs/flock.
// An exclusive advisory lock held by another writer is interpreted as
// "the file is still being written".
func flockProbe(path string) (bool, func(), error) {
	fl := flock.New(path)
	acquired, err := fl.TryLock()
	if err != nil {
		return false, nil, err
	}
	if !acquired {
		return true, nil, nil
	}
	return false, func() { _ = fl.Unlock() }, nil
}

// RetryPolicy bounds the lock-probe loop.
type RetryPolicy struct {
	// Attempts is the total number of tries before giving up.
	Attempts int

	// Delay is the pause between tries.
	Delay time.Duration
}

// moveWithRetry relocates source to target, retrying while the attempt
// fails with a retryable error. Progress is reported through emit.
//
// Only a locked source is retryable; every other error is terminal for the
// job. This mirrors the deliberate policy that transient "file in use"
// conditions resolve themselves, while anything else (missing source,
// permissions, full disk) will not improve with waiting.
//
// The retry loop sleeps on the calling goroutine: a persistently locked
// file stalls the single worker for up to Attempts x Delay.
func moveWithRetry(job Job, policy RetryPolicy, probe lockProbe, emit func(Status)) error {
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		err := tryMove(job, probe)
		if err == nil {
			return nil
		}

		if !sweeperr.IsRetryable(err) {
			var se *sweeperr.SweepError
			if errors.As(err, &se) && se.Code == sweeperr.ErrCodeTargetExists {
				emit(Status{
					Stage:   StageBusy,
					Name:    job.Name,
					Source:  job.Source,
					Target:  job.Target,
					Message: se.Message,
				})
			}
			return err
		}

		emit(Status{
			Stage:   StageRetrying,
			Name:    job.Name,
			Source:  job.Source,
			Target:  job.Target,
			Attempt: attempt,
			Delay:   policy.Delay,
			Message: fmt.Sprintf("source locked, attempt %d of %d", attempt, policy.Attempts),
		})
		if attempt < policy.Attempts {
			time.Sleep(policy.Delay)
		}
	}

	return sweeperr.New(sweeperr.ErrCodeRetryExceeded,
		fmt.Sprintf("gave up after %d attempts, %s is still locked",
			policy.Attempts, job.Source), nil).
		WithDetail("attempts", strconv.Itoa(policy.Attempts))
}

// tryMove performs a single move attempt. A source held by another writer
// comes back as a retryable ErrCodeSourceLocked error; everything else is
// terminal.
func tryMove(job Job, probe lockProbe) error {
	if _, err := os.Stat(job.Target); err == nil {
		return sweeperr.New(sweeperr.ErrCodeTargetExists,
			fmt.Sprintf("target %s already exists", job.Target), nil)
	}

	if _, err := os.Stat(job.Source); err != nil {
		return sweeperr.MoveError(
			fmt.Sprintf("source %s is not accessible", job.Source), err)
	}

	locked, release, err := probe(job.Source)
	if err != nil {
		return sweeperr.MoveError(
			fmt.Sprintf("lock probe on %s failed", job.Source), err)
	}
	if locked {
		return sweeperr.New(sweeperr.ErrCodeSourceLocked,
			fmt.Sprintf("%s is locked for writing", job.Source), nil)
	}

	err = rename(job.Source, job.Target)
	release()
	if err != nil {
		return sweeperr.MoveError(
			fmt.Sprintf("move %s to %s", job.Source, job.Target), err)
	}
	return nil
}

// rename moves a file, preferring an atomic rename and falling back to
// copy+delete across volumes.
func rename(source, target string) error {
	err := os.Rename(source, target)
	if err == nil {
		return nil
	}

	if !isCrossDevice(err) {
		return err
	}

	return copyAndDelete(source, target)
}

// isCrossDevice reports whether a rename failed because source and target
// are on different volumes.
func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

// copyAndDelete copies source to target, syncs, then removes the source.
// The target is created exclusively so a concurrent writer cannot be
// silently truncated.
func copyAndDelete(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer func() { _ = in.Close() }()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return fmt.Errorf("copy contents: %w", err)
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		_ = os.Remove(target)
		return fmt.Errorf("sync target: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(target)
		return fmt.Errorf("close target: %w", err)
	}

	if err := os.Remove(source); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}
