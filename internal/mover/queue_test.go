package mover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue()

	q.Push(Job{Name: "a"})
	q.Push(Job{Name: "b"})
	q.Push(Job{Name: "c"})

	for _, want := range []string{"a", "b", "c"} {
		job, ok := q.Pop()
		require.True(t, ok)
		assert.Equal(t, want, job.Name)
	}

	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestQueue_Len(t *testing.T) {
	q := NewQueue()
	assert.Equal(t, 0, q.Len())

	q.Push(Job{Name: "a"})
	q.Push(Job{Name: "b"})
	assert.Equal(t, 2, q.Len())

	_, _ = q.Pop()
	assert.Equal(t, 1, q.Len())
}

func TestQueue_WakeCoalesces(t *testing.T) {
	// Given: several pushes before the worker wakes
	q := NewQueue()
	q.Push(Job{Name: "a"})
	q.Push(Job{Name: "b"})
	q.Push(Job{Name: "c"})

	// Then: exactly one wake signal is pending
	select {
	case <-q.Wake():
	default:
		t.Fatal("expected a pending wake signal")
	}

	select {
	case <-q.Wake():
		t.Fatal("wake signals must coalesce to one")
	default:
	}

	// And: a full drain still yields every job
	count := 0
	for {
		_, ok := q.Pop()
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 3, count)
}

func TestQueue_SignalWithoutWork(t *testing.T) {
	q := NewQueue()
	q.Signal()
	q.Signal() // second signal is dropped, not queued

	select {
	case <-q.Wake():
	default:
		t.Fatal("expected a pending wake signal")
	}

	select {
	case <-q.Wake():
		t.Fatal("expected only one pending signal")
	default:
	}
}
