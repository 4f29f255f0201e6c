// Package input implements the blocking input capture stream described in
// spec §4.5 (component C5): it binds a device, installs a malgo capture
// callback, appends captured bytes to an internal mutex-guarded buffer, and
// serves a blocking read API to a consumer thread.
package input

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/malgo"

	"github.com/plovdev/audioengine/internal/engine/devices"
	"github.com/plovdev/audioengine/internal/engine/engineerr"
	"github.com/plovdev/audioengine/internal/engine/format"
)

// secondsOfHeadroom is the minimum amount of PCM the internal buffer is
// sized to hold before the reader has drained any of it, per spec §4.5
// ("buffer the last >= 2 seconds of PCM").
const secondsOfHeadroom = 2

// Stream owns a device binding, a mutex+condvar-guarded byte buffer fed by
// the malgo capture callback, and a blocking Read API. It follows an
// open -> read* -> close lifecycle; each Stream owns its own malgo context
// and device, and the package keeps no process-wide state.
type Stream struct {
	ctx      *malgo.AllocatedContext
	device   *malgo.Device
	f        format.TrackFormat
	deviceID string

	mu   sync.Mutex
	cond *sync.Cond
	buf  []byte

	running atomic.Bool
	started atomic.Bool
}

// Open acquires the system's default input device (or the one indicated by
// deviceID), sets the capture format, installs the capture callback,
// initializes the unit, and returns without starting it: Read starts the
// unit lazily on first call, per spec §4.5.
func Open(deviceID string, f format.TrackFormat) (*Stream, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", engineerr.ErrInvalidFormat, err)
	}

	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: init audio context: %v", engineerr.ErrOpenDeviceFailure, err)
	}

	var resolvedID *malgo.DeviceID
	if deviceID != "" {
		id, err := devices.Resolve(ctx, malgo.Capture, deviceID)
		if err != nil {
			_ = ctx.Uninit()
			ctx.Free()
			return nil, fmt.Errorf("%w: %v", engineerr.ErrDeviceNotFound, err)
		}
		resolvedID = &id
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgoFormatFor(f.Codec)
	deviceConfig.Capture.Channels = f.Channels
	deviceConfig.SampleRate = f.SampleRate
	if resolvedID != nil {
		deviceConfig.Capture.DeviceID = resolvedID.Pointer()
	}

	s := &Stream{
		ctx:      ctx,
		f:        f,
		deviceID: deviceID,
		buf:      make([]byte, 0, int(f.SampleRate)*int(f.Channels)*4*secondsOfHeadroom),
	}
	s.cond = sync.NewCond(&s.mu)

	onRecvFrames := func(_ []byte, in []byte, _ uint32) {
		s.captureCallback(in)
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("%w: init device: %v", engineerr.ErrOpenDeviceFailure, err)
	}
	s.device = device

	return s, nil
}

// captureCallback runs on malgo's real-time capture thread. The mutex is
// held only for the append; contention is expected to be microsecond-scale,
// per spec §4.5.
func (s *Stream) captureCallback(in []byte) {
	if len(in) == 0 {
		return
	}
	s.mu.Lock()
	s.buf = append(s.buf, in...)
	s.mu.Unlock()
	s.cond.Signal()
}

// Read starts the unit on first call, then blocks until data is available
// or the stream is closed, copying min(available, len(dst)) bytes per
// iteration until dst is full or running becomes false. It returns the
// number of bytes copied; a return of 0 means the stream was closed
// concurrently. If Close has already torn the device down — including the
// case where Close runs before the very first Read — Read returns
// ErrStreamClosed instead of touching the nil device.
func (s *Stream) Read(dst []byte) (int, error) {
	s.mu.Lock()
	if s.device == nil {
		s.mu.Unlock()
		return 0, engineerr.ErrStreamClosed
	}
	device := s.device
	s.mu.Unlock()

	if s.started.CompareAndSwap(false, true) {
		s.running.Store(true)
		if err := device.Start(); err != nil {
			s.running.Store(false)
			return 0, fmt.Errorf("%w: start device: %v", engineerr.ErrOpenDeviceFailure, err)
		}
	}

	copied := 0
	s.mu.Lock()
	for copied < len(dst) {
		for len(s.buf) == 0 && s.running.Load() {
			s.cond.Wait()
		}
		if len(s.buf) == 0 && !s.running.Load() {
			break
		}
		n := copy(dst[copied:], s.buf)
		s.buf = s.buf[n:]
		copied += n
	}
	s.mu.Unlock()

	return copied, nil
}

// IsRunning reports whether the capture unit has been started and not yet
// closed.
func (s *Stream) IsRunning() bool { return s.running.Load() }

// Close stops the unit, marks the stream not-running, broadcasts the
// condition variable to release any blocked readers, and releases native
// resources. After Close the stream is unusable.
func (s *Stream) Close() error {
	s.mu.Lock()
	s.running.Store(false)
	device := s.device
	s.device = nil
	s.mu.Unlock()
	s.cond.Broadcast()

	if device != nil {
		if s.started.Load() {
			if err := device.Stop(); err != nil {
				log.Warn("input: device stop failed", "err", err)
			}
		}
		device.Uninit()
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

// malgoFormatFor maps a requested capture TrackFormat's codec onto the
// nearest format miniaudio's capture side natively delivers. miniaudio has
// no distinct big-endian or 64-bit float capture format, so those codecs
// fall back to their closest little-endian/32-bit native equivalent; the
// caller is still responsible for treating the captured bytes as whatever
// TrackFormat it opened with.
func malgoFormatFor(codec format.Codec) malgo.FormatType {
	switch codec {
	case format.PCM8S, format.PCM8U:
		return malgo.FormatU8
	case format.PCM16SLE, format.PCM16SBE, format.PCM16ULE, format.PCM16UBE:
		return malgo.FormatS16
	case format.PCM24SLE, format.PCM24SBE:
		return malgo.FormatS24
	case format.PCM32SLE, format.PCM32SBE:
		return malgo.FormatS32
	case format.F32LE, format.F32BE, format.F64LE, format.F64BE:
		return malgo.FormatF32
	default:
		return malgo.FormatS16
	}
}
