// internal/config/config.go
// Package config loads and validates the engine CLI's layered settings:
// command-line flags override the config file, which overrides the
// built-in defaults below.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/plovdev/audioengine/internal/engine/format"
)

const (
	AppName       = "audioengine"
	ConfigType    = "yaml"
	DefaultConfig = `# audioengine configuration

# Device selection ("" selects the system default device)
output_device: ""
input_device: ""

# Producer / consumer format
sample_rate: 48000      # Hz
channels: 2             # 1=mono, 2=stereo
codec: "F32LE"           # one of: PCM8S, PCM8U, PCM16SLE, PCM16SBE, PCM16ULE,
                         # PCM16UBE, PCM24SLE, PCM24SBE, PCM32SLE, PCM32SBE,
                         # F32LE, F32BE, F64LE, F64BE

# Mixer
normalization: "hard"   # "hard" or "soft"

# Output
debug: false            # enable structured diagnostic logging
`
)

// Settings holds all application configuration.
type Settings struct {
	OutputDevice string `mapstructure:"output_device"`
	InputDevice  string `mapstructure:"input_device"`

	SampleRate uint32 `mapstructure:"sample_rate"`
	Channels   uint32 `mapstructure:"channels"`
	Codec      string `mapstructure:"codec"`

	Normalization string `mapstructure:"normalization"`

	Debug bool `mapstructure:"debug"`
}

// Init initializes Viper with defaults and config file.
// Config file search order: current directory, then ~/.config/audioengine/
func Init() error {
	viper.SetDefault("output_device", "")
	viper.SetDefault("input_device", "")
	viper.SetDefault("sample_rate", 48000)
	viper.SetDefault("channels", 2)
	viper.SetDefault("codec", "F32LE")
	viper.SetDefault("normalization", "hard")
	viper.SetDefault("debug", false)

	viper.SetConfigType(ConfigType)
	viper.AddConfigPath(".")

	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	viper.AddConfigPath(filepath.Join(configDir, AppName))

	viper.SetConfigName(".config")
	if err = viper.ReadInConfig(); err != nil {
		viper.SetConfigName("config")
		err = viper.ReadInConfig()
	}

	if err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			xdgConfigPath := filepath.Join(configDir, AppName)
			if err = ensureConfigExists(xdgConfigPath); err != nil {
				return err
			}
			if err = viper.ReadInConfig(); err != nil {
				return fmt.Errorf("read config: %w", err)
			}
		} else {
			return fmt.Errorf("read config: %w", err)
		}
	}

	return nil
}

func ensureConfigExists(configPath string) error {
	configFile := filepath.Join(configPath, "config.yaml")

	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err = os.MkdirAll(configPath, 0755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
		if err = os.WriteFile(configFile, []byte(DefaultConfig), 0644); err != nil {
			return fmt.Errorf("write default config: %w", err)
		}
	}
	return nil
}

// Get returns the current settings.
func Get() (*Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &s, nil
}

var validCodecs = map[string]bool{
	"PCM8S": true, "PCM8U": true,
	"PCM16SLE": true, "PCM16SBE": true, "PCM16ULE": true, "PCM16UBE": true,
	"PCM24SLE": true, "PCM24SBE": true,
	"PCM32SLE": true, "PCM32SBE": true,
	"F32LE": true, "F32BE": true, "F64LE": true, "F64BE": true,
}

// Validate checks that all settings are within acceptable ranges.
func (s *Settings) Validate() error {
	var errs []error

	if s.SampleRate < 8000 || s.SampleRate > 192000 {
		errs = append(errs, fmt.Errorf("sample_rate must be between 8000 and 192000 Hz, got %v", s.SampleRate))
	}
	if s.Channels < 1 || s.Channels > 8 {
		errs = append(errs, fmt.Errorf("channels must be between 1 and 8, got %d", s.Channels))
	}
	if !validCodecs[s.Codec] {
		errs = append(errs, fmt.Errorf("codec must be one of the supported Codec names, got %q", s.Codec))
	}
	if s.Normalization != "hard" && s.Normalization != "soft" {
		errs = append(errs, fmt.Errorf("normalization must be \"hard\" or \"soft\", got %q", s.Normalization))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

var codecByName = map[string]format.Codec{
	"PCM8S": format.PCM8S, "PCM8U": format.PCM8U,
	"PCM16SLE": format.PCM16SLE, "PCM16SBE": format.PCM16SBE,
	"PCM16ULE": format.PCM16ULE, "PCM16UBE": format.PCM16UBE,
	"PCM24SLE": format.PCM24SLE, "PCM24SBE": format.PCM24SBE,
	"PCM32SLE": format.PCM32SLE, "PCM32SBE": format.PCM32SBE,
	"F32LE": format.F32LE, "F32BE": format.F32BE,
	"F64LE": format.F64LE, "F64BE": format.F64BE,
}

// TrackFormat builds the engine's TrackFormat value these settings
// describe.
func (s *Settings) TrackFormat() (format.TrackFormat, error) {
	codec, ok := codecByName[s.Codec]
	if !ok {
		return format.TrackFormat{}, fmt.Errorf("unknown codec %q", s.Codec)
	}
	return format.NewTrackFormat(s.SampleRate, s.Channels, codec)
}
