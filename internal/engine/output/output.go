// Package output implements the real-time output stream described in
// spec §4.4 (component C4): it binds a device, installs a malgo render
// callback, owns one ring buffer, converts producer-submitted bytes into
// canonical frames, and reports underruns.
//
// Each Stream is an independent value that owns its own malgo context,
// device, and ring buffer; the package keeps no process-wide state and does
// not limit how many Streams are open at once.
package output

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"

	"github.com/plovdev/audioengine/internal/engine/convert"
	"github.com/plovdev/audioengine/internal/engine/devices"
	"github.com/plovdev/audioengine/internal/engine/engineerr"
	"github.com/plovdev/audioengine/internal/engine/format"
	"github.com/plovdev/audioengine/internal/engine/ringbuffer"
)

// secondsOfHeadroom sizes the ring buffer to approximately this many
// seconds of canonical frames at the device's rate, per spec §3.
const secondsOfHeadroom = 5

// ChunkRequestedFunc is the notification half of the optional pull-mode
// ChunkProvider capability from spec §4.4/§6/§9. It is invoked from a
// dedicated worker goroutine — never from the malgo render callback — when
// the ring buffer has dropped below a low-water mark, and it is always
// best-effort: a slow or blocked implementation may simply miss the
// deadline and let the next render callback emit silence instead.
type ChunkRequestedFunc func(requestedBytes int)

// Stream owns a device binding, the producer-side converter, and the ring
// buffer a malgo render callback drains from. It is created by Open and
// destroyed by Close; after Close the Stream is unusable.
type Stream struct {
	ctx    *malgo.AllocatedContext
	device *malgo.Device
	ring   *ringbuffer.RingBuffer
	conv   *convert.Converter

	deviceFormat format.TrackFormat // producer format, before conversion

	running  atomic.Bool
	underrun atomic.Uint64

	mu sync.Mutex

	chunkRequested atomic.Pointer[ChunkRequestedFunc]
	chunkWorkCh    chan int
	chunkDone      chan struct{}
}

// Open resolves deviceID, binds an output unit to it with a canonical
// float32 device-side stream format, creates the ring buffer, selects a
// converter from producerFormat, installs the render callback, and starts
// the unit.
func Open(deviceID string, producerFormat format.TrackFormat) (*Stream, error) {
	if err := producerFormat.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", engineerr.ErrInvalidFormat, err)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %v", engineerr.ErrOpenDeviceFailure, err)
	}

	var resolvedID *malgo.DeviceID
	if deviceID != "" {
		id, err := devices.Resolve(ctx, malgo.Playback, deviceID)
		if err != nil {
			_ = ctx.Uninit()
			ctx.Free()
			return nil, fmt.Errorf("%w: %v", engineerr.ErrDeviceNotFound, err)
		}
		resolvedID = &id
	}

	conv, err := convert.New(producerFormat)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: %v", engineerr.ErrInvalidFormat, err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatF32
	deviceConfig.Playback.Channels = producerFormat.Channels
	deviceConfig.SampleRate = producerFormat.SampleRate
	if resolvedID != nil {
		deviceConfig.Playback.DeviceID = resolvedID.Pointer()
	}

	ringFrames := producerFormat.SampleRate * secondsOfHeadroom
	ring := ringbuffer.New(ringFrames, producerFormat.Channels)

	s := &Stream{
		ctx:          ctx,
		ring:         ring,
		conv:         conv,
		deviceFormat: producerFormat,
		chunkWorkCh:  make(chan int, 1),
		chunkDone:    make(chan struct{}),
	}

	onSendFrames := func(out, _ []byte, frameCount uint32) {
		s.renderCallback(out, frameCount)
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onSendFrames})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: init device: %v", engineerr.ErrOpenDeviceFailure, err)
	}
	s.device = device

	s.running.Store(true)

	if err := device.Start(); err != nil {
		s.running.Store(false)
		device.Uninit()
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: start device: %v", engineerr.ErrOpenDeviceFailure, err)
	}

	go s.chunkWorker()

	return s, nil
}

// renderCallback is invoked on malgo's real-time audio thread. It must
// never allocate, lock a contended mutex, or call into host code; it only
// dequeues already-canonical frames from the lock-free ring buffer and,
// on underrun, posts a best-effort notification to the chunk worker.
func (s *Stream) renderCallback(out []byte, frameCount uint32) {
	dst := bytesAsFloat32(out)
	channels := s.ring.Channels()

	if !s.running.Load() || s.ring.AvailableFrames() < frameCount {
		for i := range dst {
			dst[i] = 0
		}
		s.underrun.Add(1)
		s.notifyChunkRequested(int(frameCount) * int(channels) * 4)
		return
	}

	s.ring.Dequeue(dst)
}

// notifyChunkRequested posts a non-blocking low-water-mark signal to the
// worker goroutine. It never blocks and never itself calls the registered
// callback — that only ever happens on chunkWorker's goroutine, per the
// §9 redesign away from calling host code directly off the audio thread.
func (s *Stream) notifyChunkRequested(requestedBytes int) {
	select {
	case s.chunkWorkCh <- requestedBytes:
	default:
		// A request is already pending; the worker is best-effort and may
		// coalesce or miss this one.
	}
}

func (s *Stream) chunkWorker() {
	for {
		select {
		case n := <-s.chunkWorkCh:
			if cb := s.chunkRequested.Load(); cb != nil {
				(*cb)(n)
			}
		case <-s.chunkDone:
			return
		}
	}
}

// SetChunkRequestedCallback registers the optional pull-mode notification
// callback. It may be called at any time after Open; it is safe to call
// concurrently with the render callback.
func (s *Stream) SetChunkRequestedCallback(cb ChunkRequestedFunc) {
	if cb == nil {
		s.chunkRequested.Store(nil)
		return
	}
	s.chunkRequested.Store(&cb)
}

// Write converts bytes (length must be a multiple of the producer format's
// bytes-per-frame) into canonical frames and enqueues them into the ring
// buffer. It never blocks; it returns the number of frames actually
// written, which may be less than submitted if the buffer is nearly full.
func (s *Stream) Write(bytes []byte) (int, error) {
	if !s.running.Load() {
		return 0, engineerr.ErrStreamClosed
	}
	bpf := s.deviceFormat.BytesPerFrame()
	if bpf == 0 || len(bytes)%bpf != 0 {
		return 0, fmt.Errorf("%w: byte length %d not a multiple of bytes-per-frame %d",
			engineerr.ErrInvalidArgument, len(bytes), bpf)
	}

	samples, err := s.conv.ToFloat32(bytes)
	if err != nil {
		return 0, err
	}
	written := s.ring.Enqueue(samples)
	return int(written), nil
}

// Underruns returns the number of render callbacks that had to emit
// silence because the ring buffer held fewer frames than requested.
func (s *Stream) Underruns() uint64 { return s.underrun.Load() }

// AvailableFrames exposes the ring buffer's current available-frame count,
// mainly for tests and diagnostics.
func (s *Stream) AvailableFrames() uint32 { return s.ring.AvailableFrames() }

// IsRunning reports whether the stream is accepting writes and rendering.
func (s *Stream) IsRunning() bool { return s.running.Load() }

// Close stops the chunk worker, stops and uninitializes the device, and
// releases the malgo context. The ring buffer is left to the garbage
// collector. After Close the Stream is unusable.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running.Store(false)
	close(s.chunkDone)

	if s.device != nil {
		if err := s.device.Stop(); err != nil {
			log.Warn("output: device stop failed", "err", err)
		}
		s.device.Uninit()
		s.device = nil
	}
	if s.ctx != nil {
		if err := s.ctx.Uninit(); err != nil {
			return fmt.Errorf("uninit context: %w", err)
		}
		s.ctx.Free()
		s.ctx = nil
	}
	return nil
}

// bytesAsFloat32 performs a zero-copy reinterpretation of the malgo
// callback's destination buffer as a float32 slice, so the render callback
// can dequeue or zero-fill it in place with no allocation. WARNING: the
// returned slice shares memory with b and is only valid for the duration
// of the callback.
func bytesAsFloat32(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}
