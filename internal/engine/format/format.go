// Package format defines the immutable value types shared across the audio
// engine: the physical sample format matrix (TrackFormat/Codec) and the
// Track aggregate that carries raw bytes plus the format describing them.
package format

import (
	"fmt"

	"github.com/plovdev/audioengine/internal/engine/engineerr"
)

// ByteOrder selects little- or big-endian interpretation of multi-byte
// samples. Physical formats reported by the device enumerator are always
// little-endian per spec; producer/mixer input tracks may be either.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// Codec is the tagged sum of every sample representation the converter
// understands. The converter switches on it once per buffer, never inside a
// per-sample inner loop.
type Codec int

const (
	PCM8S Codec = iota
	PCM8U
	PCM16SLE
	PCM16SBE
	PCM16ULE
	PCM16UBE
	PCM24SLE
	PCM24SBE
	PCM32SLE
	PCM32SBE
	F32LE
	F32BE
	F64LE
	F64BE
)

func (c Codec) String() string {
	switch c {
	case PCM8S:
		return "PCM8S"
	case PCM8U:
		return "PCM8U"
	case PCM16SLE:
		return "PCM16SLE"
	case PCM16SBE:
		return "PCM16SBE"
	case PCM16ULE:
		return "PCM16ULE"
	case PCM16UBE:
		return "PCM16UBE"
	case PCM24SLE:
		return "PCM24SLE"
	case PCM24SBE:
		return "PCM24SBE"
	case PCM32SLE:
		return "PCM32SLE"
	case PCM32SBE:
		return "PCM32SBE"
	case F32LE:
		return "F32LE"
	case F32BE:
		return "F32BE"
	case F64LE:
		return "F64LE"
	case F64BE:
		return "F64BE"
	default:
		return "unknown"
	}
}

// BitsPerSample returns the storage width of one sample for this codec.
func (c Codec) BitsPerSample() int {
	switch c {
	case PCM8S, PCM8U:
		return 8
	case PCM16SLE, PCM16SBE, PCM16ULE, PCM16UBE:
		return 16
	case PCM24SLE, PCM24SBE:
		return 24
	case PCM32SLE, PCM32SBE:
		return 32
	case F32LE, F32BE:
		return 32
	case F64LE, F64BE:
		return 64
	default:
		return 0
	}
}

// Signed reports whether this codec's integer representation is signed.
// FLOAT* codecs are always considered signed.
func (c Codec) Signed() bool {
	switch c {
	case PCM8U, PCM16ULE, PCM16UBE:
		return false
	default:
		return true
	}
}

// IsFloat reports whether this codec stores IEEE-754 floating point samples.
func (c Codec) IsFloat() bool {
	switch c {
	case F32LE, F32BE, F64LE, F64BE:
		return true
	default:
		return false
	}
}

func (c Codec) byteOrder() ByteOrder {
	switch c {
	case PCM16SBE, PCM16UBE, PCM24SBE, PCM32SBE, F32BE, F64BE:
		return BigEndian
	default:
		return LittleEndian
	}
}

// TrackFormat is the immutable description of a track's byte-level physical
// layout. codec must agree with bits_per_sample and signed: FLOAT* implies
// signed; PCM8 typically unsigned; PCM16/24/32 typically signed.
type TrackFormat struct {
	SampleRate uint32
	Channels   uint32
	Codec      Codec
}

// NewTrackFormat validates and constructs a TrackFormat.
func NewTrackFormat(sampleRate, channels uint32, codec Codec) (TrackFormat, error) {
	f := TrackFormat{SampleRate: sampleRate, Channels: channels, Codec: codec}
	if err := f.Validate(); err != nil {
		return TrackFormat{}, err
	}
	return f, nil
}

// Validate checks the struct's invariants per spec.md §3.
func (f TrackFormat) Validate() error {
	if f.SampleRate == 0 {
		return fmt.Errorf("%w: sample_rate must be positive", engineerr.ErrInvalidFormat)
	}
	if f.Channels == 0 {
		return fmt.Errorf("%w: channels must be positive", engineerr.ErrInvalidFormat)
	}
	switch f.Codec {
	case PCM8S, PCM8U, PCM16SLE, PCM16SBE, PCM16ULE, PCM16UBE, PCM24SLE, PCM24SBE,
		PCM32SLE, PCM32SBE, F32LE, F32BE, F64LE, F64BE:
	default:
		return fmt.Errorf("%w: unsupported codec %v", engineerr.ErrInvalidFormat, f.Codec)
	}
	return nil
}

// BitsPerSample is a convenience accessor over f.Codec.BitsPerSample().
func (f TrackFormat) BitsPerSample() int { return f.Codec.BitsPerSample() }

// BytesPerFrame returns ceil(bits_per_sample/8) * channels.
func (f TrackFormat) BytesPerFrame() int {
	bytesPerSample := (f.Codec.BitsPerSample() + 7) / 8
	return bytesPerSample * int(f.Channels)
}

// Equal implements the set-membership equality DeviceInfo.SupportedFormats
// relies on: TrackFormat equality is defined over all fields.
func (f TrackFormat) Equal(other TrackFormat) bool {
	return f == other
}

// Track is a raw byte buffer plus the format describing it and optional
// metadata. Track persistence, metadata schemas, and file container
// encode/decode are external collaborators per spec.md §1; Track here is
// only the in-memory shape the engine's core operates on.
type Track struct {
	Data       []byte
	Format     TrackFormat
	DurationMs int64
	Metadata   map[string]string
}

// NewTrack validates that Data aligns to the format's frame size and
// computes DurationMs.
func NewTrack(data []byte, f TrackFormat) (Track, error) {
	if err := f.Validate(); err != nil {
		return Track{}, err
	}
	bpf := f.BytesPerFrame()
	if bpf == 0 || len(data)%bpf != 0 {
		return Track{}, fmt.Errorf("%w: track data length %d is not a multiple of bytes-per-frame %d",
			engineerr.ErrInvalidArgument, len(data), bpf)
	}
	frames := len(data) / bpf
	durationMs := int64(frames) * 1000 / int64(f.SampleRate)
	return Track{Data: data, Format: f, DurationMs: durationMs}, nil
}

// FrameCount returns the number of multi-channel frames held by the track.
func (t Track) FrameCount() int {
	bpf := t.Format.BytesPerFrame()
	if bpf == 0 {
		return 0
	}
	return len(t.Data) / bpf
}
