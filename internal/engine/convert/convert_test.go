package convert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plovdev/audioengine/internal/engine/format"
)

func mustFormat(t *testing.T, codec format.Codec) format.TrackFormat {
	t.Helper()
	f, err := format.NewTrackFormat(48000, 1, codec)
	require.NoError(t, err)
	return f
}

func TestPCM16SLERoundTrip(t *testing.T) {
	f := mustFormat(t, format.PCM16SLE)
	c, err := New(f)
	require.NoError(t, err)

	original := []byte{0x00, 0x00, 0xFF, 0x7F, 0x00, 0x80, 0x34, 0x12}
	samples, err := c.ToFloat32(original)
	require.NoError(t, err)
	assert.Len(t, samples, 4)

	back, err := c.FromFloat32(samples)
	require.NoError(t, err)
	assert.Equal(t, original, back)
}

func TestF32LERoundTrip(t *testing.T) {
	f := mustFormat(t, format.F32LE)
	c, err := New(f)
	require.NoError(t, err)

	samples := []float32{0, 0.25, 0.5, 0.75, 1.0, -1.0}
	bytes, err := c.FromFloat32(samples)
	require.NoError(t, err)

	back, err := c.ToFloat32(bytes)
	require.NoError(t, err)
	assert.Equal(t, samples, back)
}

func TestPCM8UnsignedZeroIsMidpoint(t *testing.T) {
	f := mustFormat(t, format.PCM8U)
	c, err := New(f)
	require.NoError(t, err)

	samples, err := c.ToFloat32([]byte{128})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, samples[0], 1e-6)
}

func TestPCM24SignExtension(t *testing.T) {
	f := mustFormat(t, format.PCM24SLE)
	c, err := New(f)
	require.NoError(t, err)

	// -1 in 24-bit two's complement, little-endian: 0xFF 0xFF 0xFF, which
	// scales to -1/8388608 (without sign extension it would decode near 2.0).
	samples, err := c.ToFloat32([]byte{0xFF, 0xFF, 0xFF})
	require.NoError(t, err)
	assert.InDelta(t, -1.0/8388608.0, samples[0], 1.0/8388608.0)
}

func TestFromFloat32ClipsOutOfRange(t *testing.T) {
	f := mustFormat(t, format.PCM16SLE)
	c, err := New(f)
	require.NoError(t, err)

	bytes, err := c.FromFloat32([]float32{2.0, -2.0})
	require.NoError(t, err)

	back, err := c.ToFloat32(bytes)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, back[0], 1.0/32768.0)
	assert.InDelta(t, -1.0, back[1], 1.0/32768.0)
}

func TestToFloat32RejectsMisalignedBuffer(t *testing.T) {
	f := mustFormat(t, format.PCM16SLE)
	c, err := New(f)
	require.NoError(t, err)

	f.Channels = 2
	c2, err := New(f)
	require.NoError(t, err)

	_, err = c2.ToFloat32([]byte{0x00, 0x00, 0x00}) // 3 bytes, not a multiple of bytesPerFrame=4
	assert.Error(t, err)

	_ = c
}

func TestEndiannessRoundTrip(t *testing.T) {
	for _, codec := range []format.Codec{
		format.PCM16SBE, format.PCM16ULE, format.PCM16UBE,
		format.PCM24SBE, format.PCM32SLE, format.PCM32SBE,
		format.F32BE, format.F64LE, format.F64BE,
	} {
		codec := codec
		t.Run(codec.String(), func(t *testing.T) {
			f := mustFormat(t, codec)
			c, err := New(f)
			require.NoError(t, err)

			samples := []float32{0, 0.5, -0.5}
			bytes, err := c.FromFloat32(samples)
			require.NoError(t, err)

			back, err := c.ToFloat32(bytes)
			require.NoError(t, err)
			require.Len(t, back, len(samples))
			for i := range samples {
				assert.InDelta(t, samples[i], back[i], 1e-3)
			}
		})
	}
}
