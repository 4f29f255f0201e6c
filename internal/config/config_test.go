package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"

	"github.com/plovdev/audioengine/internal/engine/format"
)

func resetViper() {
	viper.Reset()
}

func TestInit_WithDefaults(t *testing.T) {
	resetViper()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	configDir := filepath.Join(tmpDir, ".config", AppName)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(DefaultConfig), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if err := Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	tests := []struct {
		key      string
		expected interface{}
	}{
		{"sample_rate", 48000},
		{"channels", 2},
		{"codec", "F32LE"},
		{"normalization", "hard"},
		{"debug", false},
	}

	for _, tt := range tests {
		got := viper.Get(tt.key)
		if got != tt.expected && fmtEqual(got, tt.expected) == false {
			t.Errorf("viper.Get(%q) = %v, want %v", tt.key, got, tt.expected)
		}
	}
}

// fmtEqual compares values with ==, so both the dynamic type and the value
// must match (an int64 from viper does not equal an int expectation).
func fmtEqual(a, b interface{}) bool {
	return a == b
}

func TestGet_ValidatesSettings(t *testing.T) {
	resetViper()
	viper.Set("sample_rate", 48000)
	viper.Set("channels", 2)
	viper.Set("codec", "F32LE")
	viper.Set("normalization", "hard")

	s, err := Get()
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if s.SampleRate != 48000 {
		t.Errorf("SampleRate = %d, want 48000", s.SampleRate)
	}
}

func TestValidate_RejectsOutOfRangeSampleRate(t *testing.T) {
	s := &Settings{SampleRate: 1, Channels: 2, Codec: "F32LE", Normalization: "hard"}
	if err := s.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for sample_rate out of range")
	}
}

func TestValidate_RejectsUnknownCodec(t *testing.T) {
	s := &Settings{SampleRate: 48000, Channels: 2, Codec: "NOPE", Normalization: "hard"}
	if err := s.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for unknown codec")
	}
}

func TestValidate_RejectsUnknownNormalization(t *testing.T) {
	s := &Settings{SampleRate: 48000, Channels: 2, Codec: "F32LE", Normalization: "bogus"}
	if err := s.Validate(); err == nil {
		t.Error("Validate() error = nil, want error for unknown normalization")
	}
}

func TestTrackFormat_BuildsFromSettings(t *testing.T) {
	s := &Settings{SampleRate: 44100, Channels: 2, Codec: "PCM16SLE", Normalization: "hard"}
	tf, err := s.TrackFormat()
	if err != nil {
		t.Fatalf("TrackFormat() error = %v", err)
	}
	if tf.Codec != format.PCM16SLE {
		t.Errorf("TrackFormat().Codec = %v, want PCM16SLE", tf.Codec)
	}
}
