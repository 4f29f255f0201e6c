// cmd/wavfile.go
// WAV container plumbing for the play/record/mix subcommands. File format
// decoding/encoding is explicitly outside the engine core, per SPEC_FULL.md
// §3 and §7, so it lives here and nowhere under internal/engine.
package cmd

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/plovdev/audioengine/internal/engine/format"
)

// readWAVTrack decodes path as a 16-bit PCM WAV file and returns it as a
// format.Track in PCM16SLE.
func readWAVTrack(path string) (format.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return format.Track{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return format.Track{}, fmt.Errorf("%s is not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return format.Track{}, fmt.Errorf("decode %s: %w", path, err)
	}

	tf, err := format.NewTrackFormat(uint32(buf.Format.SampleRate), uint32(buf.Format.NumChannels), format.PCM16SLE)
	if err != nil {
		return format.Track{}, fmt.Errorf("track format for %s: %w", path, err)
	}

	data := make([]byte, len(buf.Data)*2)
	for i, sample := range buf.Data {
		s := int16(sample)
		data[2*i] = byte(s)
		data[2*i+1] = byte(s >> 8)
	}

	return format.NewTrack(data, tf)
}

// writeWAVTrack encodes t (which must be PCM16SLE) to path as a WAV file.
func writeWAVTrack(path string, t format.Track) error {
	if t.Format.Codec != format.PCM16SLE {
		return fmt.Errorf("writeWAVTrack: codec %s not supported, want PCM16SLE", t.Format.Codec)
	}
	if len(t.Data)%2 != 0 {
		return fmt.Errorf("writeWAVTrack: odd byte length %d", len(t.Data))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	samples := make([]int, len(t.Data)/2)
	for i := range samples {
		lo := t.Data[2*i]
		hi := t.Data[2*i+1]
		samples[i] = int(int16(uint16(lo) | uint16(hi)<<8))
	}

	buf := &audio.IntBuffer{
		Data: samples,
		Format: &audio.Format{
			SampleRate:  int(t.Format.SampleRate),
			NumChannels: int(t.Format.Channels),
		},
		SourceBitDepth: 16,
	}

	enc := wav.NewEncoder(f, int(t.Format.SampleRate), 16, int(t.Format.Channels), 1)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write wav %s: %w", path, err)
	}
	return enc.Close()
}
