// Package ringbuffer implements the fixed-capacity lock-free single-producer/
// single-consumer ring buffer of interleaved float32 frames described in
// spec §4.2 (component C2). Exactly one goroutine may call Enqueue, and
// exactly one (possibly different) goroutine may call Dequeue; both may run
// concurrently with no locks and no allocation.
package ringbuffer

import "sync/atomic"

// RingBuffer is a fixed-capacity circular buffer of interleaved float32
// frames. One frame of capacity is intentionally left unused so that
// write == read unambiguously means empty.
type RingBuffer struct {
	data     []float32 // frames * channels
	frames   uint32    // capacity in frames
	channels uint32

	// read is owned by the consumer, published with a release-store and
	// observed by the producer with an acquire-load.
	read atomic.Uint32
	// write is owned by the producer, published with a release-store and
	// observed by the consumer with an acquire-load.
	write atomic.Uint32
}

// New constructs a RingBuffer with room for frames multi-channel frames.
// frames must be at least 2 so that the one-slot-empty invariant leaves
// room for at least one real frame.
func New(frames, channels uint32) *RingBuffer {
	if frames < 2 {
		frames = 2
	}
	return &RingBuffer{
		data:     make([]float32, uint64(frames)*uint64(channels)),
		frames:   frames,
		channels: channels,
	}
}

// Capacity returns the constant frame capacity (including the one reserved
// slot never fillable).
func (r *RingBuffer) Capacity() uint32 { return r.frames }

// Channels returns the frame width.
func (r *RingBuffer) Channels() uint32 { return r.channels }

// AvailableFrames returns (write - read) mod capacity: the number of frames
// the consumer may currently dequeue.
func (r *RingBuffer) AvailableFrames() uint32 {
	w := r.write.Load()
	rd := r.read.Load()
	return (w - rd + r.frames) % r.frames
}

// FreeFrames returns capacity - available - 1: the number of frames the
// producer may currently enqueue without overwriting unread data.
func (r *RingBuffer) FreeFrames() uint32 {
	return r.frames - r.AvailableFrames() - 1
}

// Enqueue writes up to min(len(src)/channels, free) frames from src,
// possibly split into two contiguous segments across the wrap, then
// release-stores the new write index. It returns the number of frames
// actually written. src must hold whole frames (len(src) is a multiple of
// r.channels); only the producer goroutine may call this.
func (r *RingBuffer) Enqueue(src []float32) uint32 {
	srcFrames := uint32(len(src)) / r.channels
	free := r.FreeFrames()
	n := srcFrames
	if n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	w := r.write.Load()
	firstSeg := r.frames - w
	if firstSeg > n {
		firstSeg = n
	}
	copy(r.data[uint64(w)*uint64(r.channels):], src[:uint64(firstSeg)*uint64(r.channels)])

	remaining := n - firstSeg
	if remaining > 0 {
		copy(r.data[:uint64(remaining)*uint64(r.channels)], src[uint64(firstSeg)*uint64(r.channels):uint64(n)*uint64(r.channels)])
	}

	newWrite := (w + n) % r.frames
	r.write.Store(newWrite)
	return n
}

// Dequeue reads up to min(len(dst)/channels, available) frames into dst,
// possibly spanning the wrap in two segments, then release-stores the new
// read index. It returns the number of frames actually read. Only the
// consumer goroutine (the OS render/capture callback) may call this; it
// never allocates and never blocks.
func (r *RingBuffer) Dequeue(dst []float32) uint32 {
	dstFrames := uint32(len(dst)) / r.channels
	avail := r.AvailableFrames()
	n := dstFrames
	if n > avail {
		n = avail
	}
	if n == 0 {
		return 0
	}

	rd := r.read.Load()
	firstSeg := r.frames - rd
	if firstSeg > n {
		firstSeg = n
	}
	copy(dst[:uint64(firstSeg)*uint64(r.channels)], r.data[uint64(rd)*uint64(r.channels):])

	remaining := n - firstSeg
	if remaining > 0 {
		copy(dst[uint64(firstSeg)*uint64(r.channels):uint64(n)*uint64(r.channels)], r.data[:uint64(remaining)*uint64(r.channels)])
	}

	newRead := (rd + n) % r.frames
	r.read.Store(newRead)
	return n
}
