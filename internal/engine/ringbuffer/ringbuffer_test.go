package ringbuffer

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnforcesMinimumCapacity(t *testing.T) {
	rb := New(0, 1)
	assert.Equal(t, uint32(2), rb.Capacity())
}

func TestEmptyBufferInvariants(t *testing.T) {
	rb := New(8, 2)
	assert.Equal(t, uint32(0), rb.AvailableFrames())
	assert.Equal(t, uint32(7), rb.FreeFrames())
	assert.Equal(t, rb.Capacity(), rb.AvailableFrames()+rb.FreeFrames()+1)
}

func TestEnqueueDequeueRoundTrip(t *testing.T) {
	rb := New(8, 1)
	src := []float32{1, 2, 3, 4}
	n := rb.Enqueue(src)
	require.Equal(t, uint32(4), n)
	assert.Equal(t, uint32(4), rb.AvailableFrames())

	dst := make([]float32, 4)
	got := rb.Dequeue(dst)
	require.Equal(t, uint32(4), got)
	assert.Equal(t, src, dst)
	assert.Equal(t, uint32(0), rb.AvailableFrames())
}

func TestEnqueueStopsAtFreeFrames(t *testing.T) {
	rb := New(4, 1) // capacity 4, usable 3
	n := rb.Enqueue([]float32{1, 2, 3, 4, 5})
	assert.Equal(t, uint32(3), n)
	assert.Equal(t, uint32(0), rb.FreeFrames())
}

func TestWraparound(t *testing.T) {
	rb := New(4, 1) // usable capacity 3
	require.Equal(t, uint32(3), rb.Enqueue([]float32{1, 2, 3}))

	dst := make([]float32, 2)
	require.Equal(t, uint32(2), rb.Dequeue(dst))
	assert.Equal(t, []float32{1, 2}, dst)

	// read index is now 2 and write index 3; available should reflect only
	// what remains unread (the next enqueue wraps the write index)
	require.Equal(t, uint32(1), rb.AvailableFrames())

	n := rb.Enqueue([]float32{4, 5, 6})
	assert.Equal(t, uint32(2), n) // only 2 free slots (one reserved)

	dst2 := make([]float32, 3)
	got := rb.Dequeue(dst2)
	require.Equal(t, uint32(3), got)
	assert.Equal(t, []float32{3, 4, 5}, dst2)
}

func TestDequeueStopsAtAvailable(t *testing.T) {
	rb := New(8, 2)
	rb.Enqueue([]float32{1, 1, 2, 2})
	dst := make([]float32, 10)
	got := rb.Dequeue(dst)
	assert.Equal(t, uint32(2), got)
}

// TestConcurrentProducerConsumer exercises the lock-free SPSC contract with
// one producer and one consumer goroutine: every sample must arrive exactly
// once and in the order it was enqueued.
func TestConcurrentProducerConsumer(t *testing.T) {
	rb := New(64, 1)
	const total = 10000

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		next := float32(0)
		for next < total {
			chunk := []float32{next}
			if rb.Enqueue(chunk) == 1 {
				next++
			}
		}
	}()

	received := make([]float32, 0, total)
	go func() {
		defer wg.Done()
		dst := make([]float32, 1)
		for len(received) < total {
			if rb.Dequeue(dst) == 1 {
				received = append(received, dst[0])
			}
		}
	}()

	wg.Wait()

	for i, v := range received {
		assert.Equal(t, float32(i), v, "sample %d delivered out of order", i)
	}
}
