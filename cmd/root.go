// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/plovdev/audioengine/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "audioengine",
	Short: "Real-time audio device engine",
	Long: `audioengine drives audio output and capture devices through a
lock-free streaming core, and offers an offline track mixer with
resampling, channel adaptation, and peak normalization.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "execution error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("output-device", "o", "", "output device id (\"\" for system default)")
	rootCmd.PersistentFlags().StringP("input-device", "i", "", "input device id (\"\" for system default)")
	rootCmd.PersistentFlags().Uint32P("sample-rate", "r", 48000, "sample rate in Hz")
	rootCmd.PersistentFlags().Uint32P("channels", "c", 2, "channel count")
	rootCmd.PersistentFlags().String("codec", "F32LE", "sample codec (PCM16SLE, F32LE, ...)")
	rootCmd.PersistentFlags().BoolP("debug", "D", false, "enable debug output")

	cobra.CheckErr(viper.BindPFlag("output_device", rootCmd.PersistentFlags().Lookup("output-device")))
	cobra.CheckErr(viper.BindPFlag("input_device", rootCmd.PersistentFlags().Lookup("input-device")))
	cobra.CheckErr(viper.BindPFlag("sample_rate", rootCmd.PersistentFlags().Lookup("sample-rate")))
	cobra.CheckErr(viper.BindPFlag("channels", rootCmd.PersistentFlags().Lookup("channels")))
	cobra.CheckErr(viper.BindPFlag("codec", rootCmd.PersistentFlags().Lookup("codec")))
	cobra.CheckErr(viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")))
}

func initConfig() {
	if err := config.Init(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
}
