package mover

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sweeperr "github.com/Aman-CERP/filesweep/internal/errors"
)

func testJob(t *testing.T, content string) Job {
	t.Helper()
	dir := t.TempDir()
	target := t.TempDir()

	source := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(source, []byte(content), 0o644))

	return Job{
		Source: source,
		Target: filepath.Join(target, "doc.txt"),
		Name:   "doc.txt",
	}
}

// recordingEmit collects emitted statuses synchronously.
func recordingEmit(statuses *[]Status) func(Status) {
	return func(s Status) { *statuses = append(*statuses, s) }
}

func TestMoveWithRetry_UnlockedFileMoves(t *testing.T) {
	job := testJob(t, "payload")
	var statuses []Status

	err := moveWithRetry(job, RetryPolicy{Attempts: 3, Delay: time.Millisecond},
		flockProbe, recordingEmit(&statuses))
	require.NoError(t, err)

	// Then: the file landed at the target and left the source
	data, err := os.ReadFile(job.Target)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
	_, err = os.Stat(job.Source)
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, statuses, "a clean move emits no intermediate statuses")
}

func TestMoveWithRetry_LockedFileRetriesThenFails(t *testing.T) {
	job := testJob(t, "held")

	// Given: another process holds the lock for the whole budget
	fl := flock.New(job.Source)
	require.NoError(t, fl.Lock())
	defer func() { _ = fl.Unlock() }()

	var statuses []Status
	err := moveWithRetry(job, RetryPolicy{Attempts: 4, Delay: time.Millisecond},
		flockProbe, recordingEmit(&statuses))

	// Then: one retry status per attempt, then exhaustion
	require.Error(t, err)
	assert.Equal(t, sweeperr.ErrCodeRetryExceeded, sweeperr.CodeOf(err))
	require.Len(t, statuses, 4)
	for i, s := range statuses {
		assert.Equal(t, StageRetrying, s.Stage)
		assert.Equal(t, i+1, s.Attempt)
		assert.Equal(t, time.Millisecond, s.Delay)
	}

	// And: the source is untouched, nothing was partially moved
	_, err = os.Stat(job.Source)
	assert.NoError(t, err)
	_, err = os.Stat(job.Target)
	assert.True(t, os.IsNotExist(err))
}

func TestMoveWithRetry_LockReleasedMidBudget(t *testing.T) {
	job := testJob(t, "eventually")

	// Given: a probe that reports locked for the first 3 attempts
	calls := 0
	probe := func(path string) (bool, func(), error) {
		calls++
		if calls <= 3 {
			return true, nil, nil
		}
		return flockProbe(path)
	}

	var statuses []Status
	err := moveWithRetry(job, RetryPolicy{Attempts: 10, Delay: time.Millisecond},
		probe, recordingEmit(&statuses))
	require.NoError(t, err)

	// Then: exactly 3 retry statuses preceded the successful move
	require.Len(t, statuses, 3)
	for _, s := range statuses {
		assert.Equal(t, StageRetrying, s.Stage)
	}
	_, err = os.Stat(job.Target)
	assert.NoError(t, err)
}

func TestMoveWithRetry_TargetExistsIsBusyAndTerminal(t *testing.T) {
	job := testJob(t, "source")
	require.NoError(t, os.WriteFile(job.Target, []byte("occupant"), 0o644))

	var statuses []Status
	err := moveWithRetry(job, RetryPolicy{Attempts: 5, Delay: time.Millisecond},
		flockProbe, recordingEmit(&statuses))

	require.Error(t, err)
	assert.Equal(t, sweeperr.ErrCodeTargetExists, sweeperr.CodeOf(err))

	// Then: a single Busy status, no retries
	require.Len(t, statuses, 1)
	assert.Equal(t, StageBusy, statuses[0].Stage)

	// And: neither file was disturbed
	data, err := os.ReadFile(job.Target)
	require.NoError(t, err)
	assert.Equal(t, "occupant", string(data))
	_, err = os.Stat(job.Source)
	assert.NoError(t, err)
}

func TestMoveWithRetry_MissingSourceIsTerminal(t *testing.T) {
	job := testJob(t, "x")
	require.NoError(t, os.Remove(job.Source))

	var statuses []Status
	err := moveWithRetry(job, RetryPolicy{Attempts: 5, Delay: time.Millisecond},
		flockProbe, recordingEmit(&statuses))

	// Then: no retries for a non-lock error
	require.Error(t, err)
	assert.Equal(t, sweeperr.ErrCodeMoveFailed, sweeperr.CodeOf(err))
	assert.Empty(t, statuses)
}

func TestTryMove_LockedSourceIsRetryable(t *testing.T) {
	job := testJob(t, "held")
	probe := func(string) (bool, func(), error) { return true, nil, nil }

	err := tryMove(job, probe)

	// Then: the error carries the retryable lock classification
	require.Error(t, err)
	assert.Equal(t, sweeperr.ErrCodeSourceLocked, sweeperr.CodeOf(err))
	assert.True(t, sweeperr.IsRetryable(err))
}

func TestTryMove_NonLockErrorsAreTerminal(t *testing.T) {
	job := testJob(t, "x")
	require.NoError(t, os.Remove(job.Source))

	err := tryMove(job, flockProbe)

	require.Error(t, err)
	assert.Equal(t, sweeperr.ErrCodeMoveFailed, sweeperr.CodeOf(err))
	assert.False(t, sweeperr.IsRetryable(err))
}

func TestCopyAndDelete(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "src.bin")
	target := filepath.Join(dir, "dst.bin")
	require.NoError(t, os.WriteFile(source, []byte("contents"), 0o600))

	require.NoError(t, copyAndDelete(source, target))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "contents", string(data))
	_, err = os.Stat(source)
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestCopyAndDelete_ExistingTargetRefused(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "src.bin")
	target := filepath.Join(dir, "dst.bin")
	require.NoError(t, os.WriteFile(source, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o644))

	err := copyAndDelete(source, target)
	require.Error(t, err)

	// The occupant is preserved
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "old", string(data))
}
