package devices

import (
	"testing"

	"github.com/gen2brain/malgo"
	"github.com/stretchr/testify/assert"

	"github.com/plovdev/audioengine/internal/engine/format"
)

func TestCodecFromMalgo(t *testing.T) {
	cases := []struct {
		in   malgo.FormatType
		want format.Codec
	}{
		{malgo.FormatU8, format.PCM8U},
		{malgo.FormatS16, format.PCM16SLE},
		{malgo.FormatS24, format.PCM24SLE},
		{malgo.FormatS32, format.PCM32SLE},
		{malgo.FormatF32, format.F32LE},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, codecFromMalgo(tc.in))
	}
}

func TestDeviceChannelCountPrefersMax(t *testing.T) {
	detail := malgo.DeviceInfo{MinChannels: 1, MaxChannels: 2}
	assert.Equal(t, uint32(2), deviceChannelCount(detail))
}

func TestDeviceChannelCountFallsBackToMin(t *testing.T) {
	detail := malgo.DeviceInfo{MinChannels: 1, MaxChannels: 0}
	assert.Equal(t, uint32(1), deviceChannelCount(detail))
}
