//go:build integration

package input

import (
	"testing"
	"time"

	"github.com/plovdev/audioengine/internal/engine/format"
)

// These tests open a real input device and are skipped by default.
// Run with: go test -tags=integration ./internal/engine/input

func TestOpenReadClose_Integration(t *testing.T) {
	f, err := format.NewTrackFormat(48000, 1, format.PCM16SLE)
	if err != nil {
		t.Fatalf("NewTrackFormat: %v", err)
	}

	s, err := Open("", f)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	dst := make([]byte, 4096)
	go func() {
		time.Sleep(500 * time.Millisecond)
		s.Close()
	}()

	n, err := s.Read(dst)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	t.Logf("read %d bytes before close", n)
}
