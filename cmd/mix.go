// cmd/mix.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plovdev/audioengine/internal/config"
	"github.com/plovdev/audioengine/internal/engine/format"
	"github.com/plovdev/audioengine/internal/engine/mixer"
)

var mixSoftKnee bool

var mixCmd = &cobra.Command{
	Use:   "mix [out.wav] [in1.wav] [in2.wav ...]",
	Short: "Mix N input WAV files down to one, resampled and normalized",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMix,
}

func init() {
	mixCmd.Flags().BoolVar(&mixSoftKnee, "soft-knee", false, "use soft-knee normalization instead of hard-knee")
	rootCmd.AddCommand(mixCmd)
}

func runMix(_ *cobra.Command, args []string) error {
	outPath := args[0]
	inPaths := args[1:]

	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	target, err := format.NewTrackFormat(settings.SampleRate, settings.Channels, format.PCM16SLE)
	if err != nil {
		return fmt.Errorf("target format: %w", err)
	}

	tracks := make([]format.Track, 0, len(inPaths))
	for _, p := range inPaths {
		t, err := readWAVTrack(p)
		if err != nil {
			return err
		}
		tracks = append(tracks, t)
	}

	mode := mixer.HardKnee
	if mixSoftKnee {
		mode = mixer.SoftKnee
	}

	mixed, err := mixer.Mix(tracks, target, mixer.Options{Normalization: mode})
	if err != nil {
		return fmt.Errorf("mix: %w", err)
	}

	return writeWAVTrack(outPath, mixed)
}
