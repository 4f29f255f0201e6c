// cmd/devices.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/plovdev/audioengine/internal/engine/devices"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List available audio input and output devices",
	RunE:  runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, _ []string) error {
	out, err := devices.ListOutputDevices()
	if err != nil {
		return fmt.Errorf("list output devices: %w", err)
	}
	in, err := devices.ListInputDevices()
	if err != nil {
		return fmt.Errorf("list input devices: %w", err)
	}

	printDeviceList(cmd, "Output devices", out)
	printDeviceList(cmd, "Input devices", in)
	return nil
}

func printDeviceList(cmd *cobra.Command, title string, list []devices.Info) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s:\n", title)
	if len(list) == 0 {
		fmt.Fprintln(w, "  (none found)")
		return
	}
	for _, d := range list {
		def := ""
		if d.IsDefault {
			def = " (default)"
		}
		fmt.Fprintf(w, "  [%s] %s — %d channel(s)%s\n", d.ID, d.Name, d.ChannelCount, def)
		for _, f := range d.SupportedFormats {
			fmt.Fprintf(w, "        %s @ %d Hz, %d ch\n", f.Codec, f.SampleRate, f.Channels)
		}
	}
}
