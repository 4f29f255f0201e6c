// cmd/record.go
package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plovdev/audioengine/internal/config"
	"github.com/plovdev/audioengine/internal/engine/engineerr"
	"github.com/plovdev/audioengine/internal/engine/format"
	"github.com/plovdev/audioengine/internal/engine/input"
)

var recordCmd = &cobra.Command{
	Use:   "record [file.wav]",
	Short: "Capture from an input device until interrupted and write a WAV file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)
}

func runRecord(_ *cobra.Command, args []string) error {
	settings, err := config.Get()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	tf, err := format.NewTrackFormat(settings.SampleRate, settings.Channels, format.PCM16SLE)
	if err != nil {
		return fmt.Errorf("track format: %w", err)
	}

	stream, err := input.Open(viper.GetString("input_device"), tf)
	if err != nil {
		return fmt.Errorf("open input device: %w", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		<-sigCh
		log.Info("record: stopping, closing stream")
		if err := stream.Close(); err != nil {
			log.Warn("record: close failed", "err", err)
		}
		close(done)
	}()

	var captured []byte
	buf := make([]byte, 4096)
	log.Info("record: capturing, press Ctrl+C to stop")
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			captured = append(captured, buf[:n]...)
		}
		if errors.Is(err, engineerr.ErrStreamClosed) {
			break
		}
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			break
		}
	}
	<-done

	track, err := format.NewTrack(captured, tf)
	if err != nil {
		return fmt.Errorf("build track: %w", err)
	}
	if err := writeWAVTrack(args[0], track); err != nil {
		return err
	}
	log.Info("record: wrote file", "path", args[0], "bytes", len(captured))
	return nil
}
