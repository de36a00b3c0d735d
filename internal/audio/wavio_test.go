package audio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestWAVRoundTrip(t *testing.T) {
	buf := sineBuffer(0.1, 48000)
	path := filepath.Join(t.TempDir(), "roundtrip.wav")

	if err := SaveWAV(path, buf); err != nil {
		t.Fatalf("SaveWAV: %v", err)
	}
	decoded, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}

	if decoded.SampleRate != buf.SampleRate {
		t.Errorf("sample rate = %d, want %d", decoded.SampleRate, buf.SampleRate)
	}
	if decoded.FrameCount() != buf.FrameCount() {
		t.Fatalf("frame count = %d, want %d", decoded.FrameCount(), buf.FrameCount())
	}

	// Every decoded sample must be within 16-bit quantization error.
	const tolerance = 1.0 / 32768.0
	for i := range buf.Data {
		for ch := 0; ch < 2; ch++ {
			diff := math.Abs(buf.Data[i][ch] - decoded.Data[i][ch])
			if diff > tolerance {
				t.Fatalf("frame %d ch %d: |%v - %v| = %v exceeds quantization error",
					i, ch, buf.Data[i][ch], decoded.Data[i][ch], diff)
			}
		}
	}
}

func TestSaveWAVClampsOutOfRange(t *testing.T) {
	frames := [][2]float64{{2.0, -2.0}, {1.0, -1.0}}
	buf := NewBuffer(frames, 48000)
	path := filepath.Join(t.TempDir(), "clamp.wav")

	if err := SaveWAV(path, buf); err != nil {
		t.Fatalf("SaveWAV: %v", err)
	}
	decoded, err := LoadWAV(path)
	if err != nil {
		t.Fatalf("LoadWAV: %v", err)
	}

	if got, want := decoded.Data[0][0], 32767.0/32768.0; got != want {
		t.Errorf("clamped positive sample = %v, want %v", got, want)
	}
	if got := decoded.Data[0][1]; got != -1.0 {
		t.Errorf("clamped negative sample = %v, want -1.0", got)
	}
	// Exact full-scale values survive unchanged.
	if decoded.Data[1] != decoded.Data[0] {
		t.Errorf("full-scale frame %v should equal clamped frame %v", decoded.Data[1], decoded.Data[0])
	}
}

func TestValidateInput(t *testing.T) {
	t.Run("ValidWAV", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ok.wav")
		if err := SaveWAV(path, sineBuffer(0.01, 48000)); err != nil {
			t.Fatal(err)
		}
		if err := ValidateInput(path); err != nil {
			t.Errorf("ValidateInput: %v", err)
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if err := ValidateInput(filepath.Join(t.TempDir(), "nope.wav")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}
