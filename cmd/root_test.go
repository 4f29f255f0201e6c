package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func resetViperForTest() {
	viper.Reset()
}

func TestRootCmd_HasExpectedFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name      string
		shorthand string
	}{
		{"output-device", "o"},
		{"input-device", "i"},
		{"sample-rate", "r"},
		{"channels", "c"},
		{"debug", "D"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("flag %q shorthand = %q, want %q", tt.name, flag.Shorthand, tt.shorthand)
			}
		})
	}
}

func TestRootCmd_Properties(t *testing.T) {
	if rootCmd.Use != "audioengine" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "audioengine")
	}
	if rootCmd.Short == "" {
		t.Error("rootCmd.Short is empty")
	}
	if rootCmd.Long == "" {
		t.Error("rootCmd.Long is empty")
	}
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"devices", "play", "record", "mix"} {
		if !names[want] {
			t.Errorf("rootCmd missing subcommand %q", want)
		}
	}
}

func TestRootCmd_HelpOutput(t *testing.T) {
	resetViperForTest()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() with --help error = %v", err)
	}

	output := buf.String()
	if !bytes.Contains([]byte(output), []byte("audioengine")) {
		t.Errorf("help output should contain 'audioengine'")
	}
	if !bytes.Contains([]byte(output), []byte("--output-device")) {
		t.Errorf("help output should contain '--output-device'")
	}
}

func TestRootCmd_FlagDefaults(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	tests := []struct {
		name         string
		defaultValue string
	}{
		{"output-device", ""},
		{"input-device", ""},
		{"sample-rate", "48000"},
		{"channels", "2"},
		{"codec", "F32LE"},
		{"debug", "false"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flag := flags.Lookup(tt.name)
			if flag == nil {
				t.Fatalf("flag %q not found", tt.name)
			}
			if flag.DefValue != tt.defaultValue {
				t.Errorf("flag %q default = %q, want %q", tt.name, flag.DefValue, tt.defaultValue)
			}
		})
	}
}

func TestRootCmd_FlagDescriptions(t *testing.T) {
	flags := rootCmd.PersistentFlags()

	for _, name := range []string{"output-device", "input-device", "sample-rate", "channels", "codec", "debug"} {
		t.Run(name, func(t *testing.T) {
			flag := flags.Lookup(name)
			if flag == nil {
				t.Fatalf("flag %q not found", name)
			}
			if flag.Usage == "" {
				t.Errorf("flag %q has no description", name)
			}
		})
	}
}

func TestInitConfig(t *testing.T) {
	resetViperForTest()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	configDir := filepath.Join(tmpDir, ".config", "audioengine")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("sample_rate: 44100"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	// Should not panic
	initConfig()

	if viper.GetInt("sample_rate") != 44100 {
		t.Errorf("viper.GetInt(sample_rate) = %d, want 44100", viper.GetInt("sample_rate"))
	}
}

func TestDevicesCmd_Registered(t *testing.T) {
	resetViperForTest()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs([]string{"devices", "--help"})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("Execute() devices --help error = %v", err)
	}
}
