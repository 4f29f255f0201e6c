// Package convert implements bidirectional conversion between any supported
// byte-level PCM/float representation and the engine's canonical interleaved
// float32 frame vector (spec §4.1, component C1).
//
// A Converter is created once per TrackFormat — at stream-open or mix time
// — and keeps that format; each ToFloat32/FromFloat32 call switches on the
// Codec once per buffer, never per sample. ToFloat32 and FromFloat32
// allocate one destination slice per call; ToFloat32Into and FromFloat32Into
// write into a slice the caller has already allocated. The render callback
// never calls any of them; it only ever dequeues already-canonical frames
// from the ring buffer.
package convert

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/plovdev/audioengine/internal/engine/engineerr"
	"github.com/plovdev/audioengine/internal/engine/format"
)

// Converter holds the validated TrackFormat its conversions use.
type Converter struct {
	f format.TrackFormat
}

// New resolves a Converter for f. The returned value is reusable across
// many ToFloat32/FromFloat32 calls; callers should resolve once per
// stream-open, not per buffer.
func New(f format.TrackFormat) (*Converter, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Converter{f: f}, nil
}

// ToFloat32 converts bytes (whose length must be a multiple of
// f.BytesPerFrame()) into canonical interleaved float32 samples, nominally
// in [-1.0, 1.0]. The result length is len(bytes) / bytesPerSample.
func (c *Converter) ToFloat32(bytes []byte) ([]float32, error) {
	bpf := c.f.BytesPerFrame()
	if bpf == 0 || len(bytes)%bpf != 0 {
		return nil, fmt.Errorf("%w: byte length %d not a multiple of bytes-per-frame %d",
			engineerr.ErrInvalidArgument, len(bytes), bpf)
	}
	bytesPerSample := (c.f.Codec.BitsPerSample() + 7) / 8
	n := len(bytes) / bytesPerSample
	dst := make([]float32, n)
	ToFloat32Into(bytes, c.f.Codec, dst)
	return dst, nil
}

// FromFloat32 is the inverse of ToFloat32: it converts canonical float32
// samples into the target byte format, hard-clipping out-of-range samples.
func (c *Converter) FromFloat32(samples []float32) ([]byte, error) {
	bytesPerSample := (c.f.Codec.BitsPerSample() + 7) / 8
	dst := make([]byte, len(samples)*bytesPerSample)
	FromFloat32Into(samples, c.f.Codec, dst)
	return dst, nil
}

// ToFloat32Into decodes bytes per codec into the preallocated dst slice,
// which must already be sized len(bytes)/bytesPerSample. It is the
// non-allocating entry point for callers that manage their own buffers;
// Converter.ToFloat32 allocates dst and then calls it.
func ToFloat32Into(bytes []byte, codec format.Codec, dst []float32) {
	switch codec {
	case format.PCM16SLE:
		decodePCM16SLE(bytes, dst)
	case format.F32LE:
		decodeF32LE(bytes, dst)
	case format.PCM8S:
		decodePCM8S(bytes, dst)
	case format.PCM8U:
		decodePCM8U(bytes, dst)
	case format.PCM16SBE:
		decodePCM16(bytes, dst, binary.BigEndian, true)
	case format.PCM16ULE:
		decodePCM16(bytes, dst, binary.LittleEndian, false)
	case format.PCM16UBE:
		decodePCM16(bytes, dst, binary.BigEndian, false)
	case format.PCM24SLE:
		decodePCM24(bytes, dst, binary.LittleEndian)
	case format.PCM24SBE:
		decodePCM24(bytes, dst, binary.BigEndian)
	case format.PCM32SLE:
		decodePCM32(bytes, dst, binary.LittleEndian)
	case format.PCM32SBE:
		decodePCM32(bytes, dst, binary.BigEndian)
	case format.F32BE:
		decodeF32(bytes, dst, binary.BigEndian)
	case format.F64LE:
		decodeF64(bytes, dst, binary.LittleEndian)
	case format.F64BE:
		decodeF64(bytes, dst, binary.BigEndian)
	default:
		decodePCM16(bytes, dst, binary.LittleEndian, true)
	}
}

// FromFloat32Into is the encode-direction counterpart of ToFloat32Into.
func FromFloat32Into(samples []float32, codec format.Codec, dst []byte) {
	switch codec {
	case format.PCM16SLE:
		encodePCM16SLE(samples, dst)
	case format.F32LE:
		encodeF32LE(samples, dst)
	case format.PCM8S:
		encodePCM8S(samples, dst)
	case format.PCM8U:
		encodePCM8U(samples, dst)
	case format.PCM16SBE:
		encodePCM16(samples, dst, binary.BigEndian, true)
	case format.PCM16ULE:
		encodePCM16(samples, dst, binary.LittleEndian, false)
	case format.PCM16UBE:
		encodePCM16(samples, dst, binary.BigEndian, false)
	case format.PCM24SLE:
		encodePCM24(samples, dst, binary.LittleEndian)
	case format.PCM24SBE:
		encodePCM24(samples, dst, binary.BigEndian)
	case format.PCM32SLE:
		encodePCM32(samples, dst, binary.LittleEndian)
	case format.PCM32SBE:
		encodePCM32(samples, dst, binary.BigEndian)
	case format.F32BE:
		encodeF32(samples, dst, binary.BigEndian)
	case format.F64LE:
		encodeF64(samples, dst, binary.LittleEndian)
	case format.F64BE:
		encodeF64(samples, dst, binary.BigEndian)
	default:
		encodePCM16(samples, dst, binary.LittleEndian, true)
	}
}

// --- unrolled dominant cases -------------------------------------------------

func decodePCM16SLE(src []byte, dst []float32) {
	const scale = 1.0 / 32768.0
	for i := range dst {
		v := int16(uint16(src[i*2]) | uint16(src[i*2+1])<<8)
		dst[i] = float32(v) * scale
	}
}

func encodePCM16SLE(src []float32, dst []byte) {
	for i, s := range src {
		v := int16(clampToInt(s, 32767))
		dst[i*2] = byte(v)
		dst[i*2+1] = byte(v >> 8)
	}
}

func decodeF32LE(src []byte, dst []float32) {
	for i := range dst {
		bits := uint32(src[i*4]) | uint32(src[i*4+1])<<8 | uint32(src[i*4+2])<<16 | uint32(src[i*4+3])<<24
		dst[i] = math.Float32frombits(bits)
	}
}

func encodeF32LE(src []float32, dst []byte) {
	for i, s := range src {
		bits := math.Float32bits(clamp(s))
		dst[i*4] = byte(bits)
		dst[i*4+1] = byte(bits >> 8)
		dst[i*4+2] = byte(bits >> 16)
		dst[i*4+3] = byte(bits >> 24)
	}
}

// --- general codec paths -----------------------------------------------------

func decodePCM8S(src []byte, dst []float32) {
	const scale = 1.0 / 128.0
	for i, b := range src {
		dst[i] = float32(int8(b)) * scale
	}
}

func encodePCM8S(src []float32, dst []byte) {
	for i, s := range src {
		dst[i] = byte(int8(clampToInt(s, 127)))
	}
}

func decodePCM8U(src []byte, dst []float32) {
	const scale = 1.0 / 127.0
	for i, b := range src {
		dst[i] = (float32(b) - 128.0) * scale
	}
}

func encodePCM8U(src []float32, dst []byte) {
	for i, s := range src {
		// PCM8U decodes with a 1/127 scale, so it encodes with 127.
		v := int32(float64(clamp(s))*127) + 128
		dst[i] = byte(v)
	}
}

func decodePCM16(src []byte, dst []float32, order binary.ByteOrder, signed bool) {
	for i := range dst {
		u := order.Uint16(src[i*2 : i*2+2])
		if signed {
			dst[i] = float32(int16(u)) / 32768.0
		} else {
			dst[i] = (float32(u) - 32768.0) / 32768.0
		}
	}
}

func encodePCM16(src []float32, dst []byte, order binary.ByteOrder, signed bool) {
	for i, s := range src {
		if signed {
			order.PutUint16(dst[i*2:i*2+2], uint16(int16(clampToInt(s, 32767))))
		} else {
			v := clampToInt(s, 32767) + 32768
			order.PutUint16(dst[i*2:i*2+2], uint16(v))
		}
	}
}

func decodePCM24(src []byte, dst []float32, order binary.ByteOrder) {
	const scale = 1.0 / 8388608.0
	for i := range dst {
		b := src[i*3 : i*3+3]
		var u32 uint32
		if order == binary.LittleEndian {
			u32 = uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
		} else {
			u32 = uint32(b[2]) | uint32(b[1])<<8 | uint32(b[0])<<16
		}
		// sign-extend 24->32
		if u32&0x800000 != 0 {
			u32 |= 0xFF000000
		}
		dst[i] = float32(int32(u32)) * scale
	}
}

func encodePCM24(src []float32, dst []byte, order binary.ByteOrder) {
	for i, s := range src {
		v := clampToInt(s, 8388607)
		b := dst[i*3 : i*3+3]
		if order == binary.LittleEndian {
			b[0] = byte(v)
			b[1] = byte(v >> 8)
			b[2] = byte(v >> 16)
		} else {
			b[2] = byte(v)
			b[1] = byte(v >> 8)
			b[0] = byte(v >> 16)
		}
	}
}

func decodePCM32(src []byte, dst []float32, order binary.ByteOrder) {
	const scale = 1.0 / 2147483648.0
	for i := range dst {
		u := order.Uint32(src[i*4 : i*4+4])
		dst[i] = float32(int32(u)) * scale
	}
}

func encodePCM32(src []float32, dst []byte, order binary.ByteOrder) {
	for i, s := range src {
		v := clampToInt64(s, 2147483647)
		order.PutUint32(dst[i*4:i*4+4], uint32(int32(v)))
	}
}

func decodeF32(src []byte, dst []float32, order binary.ByteOrder) {
	for i := range dst {
		bits := order.Uint32(src[i*4 : i*4+4])
		dst[i] = math.Float32frombits(bits)
	}
}

func encodeF32(src []float32, dst []byte, order binary.ByteOrder) {
	for i, s := range src {
		order.PutUint32(dst[i*4:i*4+4], math.Float32bits(clamp(s)))
	}
}

func decodeF64(src []byte, dst []float32, order binary.ByteOrder) {
	for i := range dst {
		bits := order.Uint64(src[i*8 : i*8+8])
		dst[i] = float32(math.Float64frombits(bits))
	}
}

func encodeF64(src []float32, dst []byte, order binary.ByteOrder) {
	for i, s := range src {
		order.PutUint64(dst[i*8:i*8+8], math.Float64bits(float64(clamp(s))))
	}
}

// clamp hard-clips a sample to the canonical [-1, 1] range before scaling to
// an integer target, per spec §4.1 "reverse conversion clamps to [-1,1]".
func clamp(s float32) float32 {
	if s > 1.0 {
		return 1.0
	}
	if s < -1.0 {
		return -1.0
	}
	return s
}

// clampToInt hard-clips s, scales it by max+1 (the same 2^(bits-1) factor
// the decoders divide by) and limits the result to [-(max+1), max].
func clampToInt(s float32, max int32) int32 {
	c := clamp(s)
	v := int64(float64(c) * (float64(max) + 1))
	if v > int64(max) {
		v = int64(max)
	}
	return int32(v)
}

func clampToInt64(s float32, max int64) int64 {
	c := clamp(s)
	v := int64(float64(c) * (float64(max) + 1))
	if v > max {
		v = max
	}
	return v
}
