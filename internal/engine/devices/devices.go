// Package devices implements the one-shot device enumeration and capability
// discovery described in spec §4.3 (component C3), backed by
// github.com/gen2brain/malgo's miniaudio bindings. The enumerator is
// stateless: every call opens a fresh malgo context, snapshots the device
// list, and tears the context down again.
package devices

import (
	"fmt"
	"strconv"

	"github.com/gen2brain/malgo"

	"github.com/plovdev/audioengine/internal/engine/engineerr"
	"github.com/plovdev/audioengine/internal/engine/format"
)

const (
	fallbackVendor = "unknown"
)

// Info describes one enumerated device: its opaque id, human-readable name
// and vendor, channel count, and the set of physical stream formats it
// reports supporting.
type Info struct {
	ID               string
	Name             string
	Vendor           string
	ChannelCount     uint32
	SupportedFormats []format.TrackFormat
	IsDefault        bool
}

// Resolve looks up the malgo device id for a given Info.ID within ctx,
// scoped to either capture or playback devices. Output and Input streams
// call this during open to turn a caller-supplied device id into the
// identifier malgo.InitDevice needs. Info.ID is the device's index within
// its scope's enumeration order at snapshot time (mirroring the teacher's
// DeviceIndex convention). Callers should only invoke Resolve for a
// non-empty id; an empty id means "use the system default" and is handled
// by leaving the device config's DeviceID field unset.
func Resolve(ctx *malgo.AllocatedContext, scope malgo.DeviceType, id string) (malgo.DeviceID, error) {
	raw, err := ctx.Devices(scope)
	if err != nil {
		return malgo.DeviceID{}, fmt.Errorf("enumerate devices: %w", err)
	}
	idx, err := strconv.Atoi(id)
	if err != nil || idx < 0 || idx >= len(raw) {
		return malgo.DeviceID{}, engineerr.ErrDeviceNotFound
	}
	return raw[idx].ID, nil
}

// ListInputDevices returns a fresh snapshot of the system's capture
// devices. Devices with no readable name or no accessible stream
// configuration are omitted.
func ListInputDevices() ([]Info, error) {
	return listDevices(malgo.Capture)
}

// ListOutputDevices returns a fresh snapshot of the system's playback
// devices.
func ListOutputDevices() ([]Info, error) {
	return listDevices(malgo.Playback)
}

func listDevices(scope malgo.DeviceType) ([]Info, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	defer func() {
		_ = ctx.Uninit()
		ctx.Free()
	}()

	raw, err := ctx.Devices(scope)
	if err != nil {
		return nil, fmt.Errorf("enumerate devices: %w", err)
	}

	result := make([]Info, 0, len(raw))
	for idx, dev := range raw {
		name := dev.Name()
		if name == "" {
			continue
		}

		detail, err := ctx.DeviceInfo(scope, dev.ID, malgo.Shared)
		if err != nil {
			continue
		}

		channelCount := deviceChannelCount(detail)
		if channelCount == 0 {
			continue
		}

		info := Info{
			ID:               strconv.Itoa(idx),
			Name:             name,
			Vendor:           deviceVendor(detail),
			ChannelCount:     channelCount,
			IsDefault:        dev.IsDefault != 0,
			SupportedFormats: supportedFormats(detail, channelCount),
		}
		result = append(result, info)
	}

	return result, nil
}

// deviceChannelCount resolves the per-device channel count used to scope
// physical format enumeration. Two variants exist in the source this spec
// was distilled from (report the system default's channel count, or the
// device's own); this engine reports the device's own, per SPEC_FULL.md §6.
func deviceChannelCount(detail malgo.DeviceInfo) uint32 {
	if detail.MaxChannels > 0 {
		return uint32(detail.MaxChannels)
	}
	return uint32(detail.MinChannels)
}

func deviceVendor(_ malgo.DeviceInfo) string {
	// miniaudio does not expose a vendor string uniformly across backends;
	// fall back per spec §4.3 step 3.
	return fallbackVendor
}

// supportedFormats builds the TrackFormat set for one device from its
// native data formats, keeping only those whose channel count matches the
// device's scope channel count, per spec §4.3 step 4.
func supportedFormats(detail malgo.DeviceInfo, scopeChannels uint32) []format.TrackFormat {
	seen := make(map[format.TrackFormat]struct{})
	var out []format.TrackFormat

	for i := uint32(0); i < detail.NativeDataFormatCount; i++ {
		ndf := detail.NativeDataFormats[i]
		if uint32(ndf.Channels) != scopeChannels {
			continue
		}
		codec := codecFromMalgo(ndf.Format)
		tf, err := format.NewTrackFormat(ndf.SampleRate, uint32(ndf.Channels), codec)
		if err != nil {
			continue
		}
		if _, dup := seen[tf]; dup {
			continue
		}
		seen[tf] = struct{}{}
		out = append(out, tf)
	}
	return out
}

// codecFromMalgo maps a miniaudio sample format to the engine's Codec per
// spec §4.1/§4.3: byte order is always little-endian for physical formats,
// codec is inferred from (is_float, bits_per_sample, is_signed).
func codecFromMalgo(f malgo.FormatType) format.Codec {
	switch f {
	case malgo.FormatU8:
		return format.PCM8U
	case malgo.FormatS16:
		return format.PCM16SLE
	case malgo.FormatS24:
		return format.PCM24SLE
	case malgo.FormatS32:
		return format.PCM32SLE
	case malgo.FormatF32:
		return format.F32LE
	default:
		return format.PCM16SLE
	}
}
