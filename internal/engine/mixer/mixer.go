// Package mixer implements the offline N-to-1 track mixer described in
// spec §4.6 (component C6): resample each input track to the target rate,
// adapt its channel count, sum into an accumulator, normalize on peak, and
// convert back to the target byte format.
package mixer

import (
	"fmt"
	"math"

	"github.com/plovdev/audioengine/internal/engine/convert"
	"github.com/plovdev/audioengine/internal/engine/engineerr"
	"github.com/plovdev/audioengine/internal/engine/format"
)

// NormalizationMode selects between the two peak-normalization variants
// spec §4.6 step 6 allows.
type NormalizationMode int

const (
	// HardKnee scales the whole accumulator by 0.99/peak whenever
	// peak > 1.0. This is the default.
	HardKnee NormalizationMode = iota
	// SoftKnee compresses samples above a 0.9 threshold with a 0.1-wide
	// knee instead of a single linear scale.
	SoftKnee
)

const (
	softKneeThreshold = 0.9
	softKneeWidth     = 0.1
	// minPeakFloor is the lower bound of the hard-knee divisor, the floor
	// the original C++ mixer applies before computing its scale factor.
	// normalize returns before scaling whenever the peak is at most 1.0, so
	// all-silent input never reaches the division.
	minPeakFloor = 0.01
)

// Options configures a Mix call. The zero value selects hard-knee
// normalization.
type Options struct {
	Normalization NormalizationMode
}

// Mix combines tracks into one track in target's format. The result's
// duration equals the longest input track's duration after resampling to
// target's rate.
func Mix(tracks []format.Track, target format.TrackFormat, opts Options) (format.Track, error) {
	if len(tracks) == 0 {
		return format.Track{}, engineerr.ErrEmptyInput
	}
	if err := target.Validate(); err != nil {
		return format.Track{}, fmt.Errorf("%w: %v", engineerr.ErrInvalidFormat, err)
	}

	type processed struct {
		samples []float32 // interleaved at target.Channels
		frames  int
	}

	var adapted []processed
	maxFrames := 0

	for _, tr := range tracks {
		if tr.Format.Channels == 0 || len(tr.Data) == 0 {
			continue
		}
		conv, err := convert.New(tr.Format)
		if err != nil {
			continue
		}
		floatSamples, err := conv.ToFloat32(tr.Data)
		if err != nil {
			continue
		}

		resampled := resample(floatSamples, int(tr.Format.Channels), tr.Format.SampleRate, target.SampleRate)
		chanAdapted := adaptChannels(resampled, int(tr.Format.Channels), int(target.Channels))

		frames := 0
		if target.Channels > 0 {
			frames = len(chanAdapted) / int(target.Channels)
		}
		if frames == 0 {
			continue
		}
		adapted = append(adapted, processed{samples: chanAdapted, frames: frames})
		if frames > maxFrames {
			maxFrames = frames
		}
	}

	if maxFrames == 0 {
		return format.Track{}, engineerr.ErrEmptyInput
	}

	accumulator := make([]float32, maxFrames*int(target.Channels))
	for _, p := range adapted {
		n := len(p.samples)
		if n > len(accumulator) {
			n = len(accumulator)
		}
		for i := 0; i < n; i++ {
			accumulator[i] += p.samples[i]
		}
	}

	normalize(accumulator, opts.Normalization)

	out, err := convert.New(target)
	if err != nil {
		return format.Track{}, fmt.Errorf("%w: %v", engineerr.ErrMixingFailure, err)
	}
	bytes, err := out.FromFloat32(accumulator)
	if err != nil {
		return format.Track{}, fmt.Errorf("%w: %v", engineerr.ErrMixingFailure, err)
	}

	durationMs := int64(maxFrames) * 1000 / int64(target.SampleRate)
	return format.Track{Data: bytes, Format: target, DurationMs: durationMs}, nil
}

// resample performs linear interpolation from inRate to outRate per
// spec §4.6. When the rates already match it returns the input unchanged.
func resample(in []float32, channels int, inRate, outRate uint32) []float32 {
	if inRate == outRate || len(in) == 0 || channels == 0 {
		return in
	}
	inFrames := len(in) / channels
	if inFrames == 0 {
		return nil
	}
	outFrames := int(math.Ceil(float64(inFrames) * float64(outRate) / float64(inRate)))
	out := make([]float32, outFrames*channels)

	ratio := float64(inRate) / float64(outRate)
	for i := 0; i < outFrames; i++ {
		pos := float64(i) * ratio
		idx0 := int(math.Floor(pos))
		if idx0 >= inFrames-1 {
			last := (inFrames - 1) * channels
			copy(out[i*channels:(i+1)*channels], in[last:last+channels])
			continue
		}
		idx1 := idx0 + 1
		frac := float32(pos - math.Floor(pos))
		for ch := 0; ch < channels; ch++ {
			a := in[idx0*channels+ch]
			b := in[idx1*channels+ch]
			out[i*channels+ch] = a + frac*(b-a)
		}
	}
	return out
}

// adaptChannels converts an interleaved buffer from srcChannels to
// dstChannels per spec §4.6 step 3: mono->stereo duplicates, stereo->mono
// averages the pair, and the general N->M case replicates channel
// min(ch, srcChannels-1) into each target channel.
func adaptChannels(in []float32, srcChannels, dstChannels int) []float32 {
	if srcChannels == dstChannels || srcChannels == 0 || dstChannels == 0 {
		return in
	}
	frames := len(in) / srcChannels
	out := make([]float32, frames*dstChannels)

	if srcChannels == 1 && dstChannels == 2 {
		for i := 0; i < frames; i++ {
			v := in[i]
			out[i*2] = v
			out[i*2+1] = v
		}
		return out
	}
	if srcChannels == 2 && dstChannels == 1 {
		for i := 0; i < frames; i++ {
			l := in[i*2]
			r := in[i*2+1]
			out[i] = (l + r) / 2
		}
		return out
	}

	for i := 0; i < frames; i++ {
		for ch := 0; ch < dstChannels; ch++ {
			srcCh := ch
			if srcCh > srcChannels-1 {
				srcCh = srcChannels - 1
			}
			out[i*dstChannels+ch] = in[i*srcChannels+srcCh]
		}
	}
	return out
}

// normalize applies peak-based gain reduction in place per spec §4.6 step 6.
func normalize(samples []float32, mode NormalizationMode) {
	peak := float32(0)
	for _, s := range samples {
		a := s
		if a < 0 {
			a = -a
		}
		if a > peak {
			peak = a
		}
	}
	if peak <= 1.0 {
		return
	}

	switch mode {
	case SoftKnee:
		applySoftKnee(samples)
	default:
		divisor := peak
		if divisor < minPeakFloor {
			divisor = minPeakFloor
		}
		gain := float32(0.99) / divisor
		for i := range samples {
			samples[i] *= gain
		}
	}
}

// applySoftKnee compresses samples whose magnitude exceeds softKneeThreshold
// smoothly over a knee of width softKneeWidth, instead of a single linear
// scale applied to every sample.
func applySoftKnee(samples []float32) {
	threshold := float32(softKneeThreshold)
	width := float32(softKneeWidth)
	for i, s := range samples {
		sign := float32(1)
		a := s
		if a < 0 {
			sign = -1
			a = -a
		}
		if a <= threshold {
			continue
		}
		over := a - threshold
		compressed := threshold + width*(1-float32(math.Exp(float64(-over/width))))
		samples[i] = sign * compressed
	}
}
