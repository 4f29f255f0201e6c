// cmd/play.go
package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plovdev/audioengine/internal/engine/output"
)

var playCmd = &cobra.Command{
	Use:   "play [file.wav]",
	Short: "Stream a WAV file to an output device",
	Args:  cobra.ExactArgs(1),
	RunE:  runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)
}

func runPlay(_ *cobra.Command, args []string) error {
	track, err := readWAVTrack(args[0])
	if err != nil {
		return err
	}

	stream, err := output.Open(viper.GetString("output_device"), track.Format)
	if err != nil {
		return fmt.Errorf("open output device: %w", err)
	}
	defer stream.Close()

	bpf := track.Format.BytesPerFrame()
	data := track.Data
	for len(data) > 0 {
		n, err := stream.Write(data)
		if err != nil {
			return fmt.Errorf("write: %w", err)
		}
		written := n * bpf
		if written == 0 {
			time.Sleep(10 * time.Millisecond)
			continue
		}
		data = data[written:]
	}

	// Drain the ring buffer before tearing the device down.
	for stream.AvailableFrames() > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if u := stream.Underruns(); u > 0 {
		log.Warn("playback underran", "count", u)
	}
	return nil
}
