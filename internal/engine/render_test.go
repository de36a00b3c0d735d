package engine

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	apperrors "github.com/oblinof/AI-Sampler-Sequencer/internal/errors"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/pattern"
)

func constSample(v float64, seconds float64, sampleRate int) *audio.Buffer {
	data := make([][2]float64, int(seconds*float64(sampleRate)))
	for i := range data {
		data[i] = [2]float64{v, v}
	}
	return audio.NewBuffer(data, sampleRate)
}

// A 0.3s sample on steps 0 and 8 at 120 BPM renders to exactly 2.0s of
// audio with sound only inside the two step windows.
func TestRenderPlacement(t *testing.T) {
	sample := constSample(0.5, 0.3, 48000)
	var pat pattern.Pattern
	pat.Toggle(0, pattern.Normal)
	pat.Toggle(8, pattern.Normal)

	out, err := Render(sample, pat, 120)
	if err != nil {
		t.Fatal(err)
	}

	if got, want := out.FrameCount(), 96000; got != want {
		t.Fatalf("render length %d frames, want %d (2.0s)", got, want)
	}

	stepFrames := 6000 // 0.125s at 48kHz
	for i, f := range out.Data {
		inWindow := i < stepFrames || (i >= 8*stepFrames && i < 9*stepFrames)
		if inWindow && f[0] == 0 {
			t.Fatalf("frame %d silent inside a step window", i)
		}
		if !inWindow && f[0] != 0 {
			t.Fatalf("frame %d audible outside the step windows", i)
		}
	}
}

func TestRenderTruncatesToStep(t *testing.T) {
	// the sample is longer than a step; nothing may spill into step 1
	sample := constSample(0.5, 1.0, 48000)
	var pat pattern.Pattern
	pat.Toggle(0, pattern.Normal)

	out, err := Render(sample, pat, 120)
	if err != nil {
		t.Fatal(err)
	}
	if v := out.Data[6000][0]; v != 0 {
		t.Fatalf("sample spilled past its step: frame 6000 = %v", v)
	}
}

func TestRenderReverseStep(t *testing.T) {
	// a rising ramp: reversed placement must start loud and fall
	sample := audio.NewBuffer(make([][2]float64, 6000), 48000)
	for i := range sample.Data {
		v := float64(i) / 6000
		sample.Data[i] = [2]float64{v, v}
	}
	var pat pattern.Pattern
	pat.Toggle(0, pattern.Reverse)

	out, err := Render(sample, pat, 120)
	if err != nil {
		t.Fatal(err)
	}
	if out.Data[0][0] < out.Data[5999][0] {
		t.Fatal("reverse step rendered the forward sample")
	}
	if got, want := out.Data[0][0], float64(5999)/6000; got != want {
		t.Fatalf("reversed first frame = %v, want %v", got, want)
	}
}

func TestRenderEmptySample(t *testing.T) {
	var pat pattern.Pattern
	pat.Toggle(0, pattern.Normal)
	if _, err := Render(nil, pat, 120); !errors.Is(err, apperrors.ErrNoSample) {
		t.Fatalf("Render(nil) = %v, want ErrNoSample", err)
	}
}

func TestExportFilename(t *testing.T) {
	if got := ExportFilename(120); got != "sequence_120bpm.wav" {
		t.Fatalf("filename = %q", got)
	}
	if got := ExportFilename(87.6); got != "sequence_88bpm.wav" {
		t.Fatalf("filename = %q", got)
	}
}

func TestEngineExport(t *testing.T) {
	e := New(48000)
	e.SetLoop(constSample(0.5, 2, 48000))
	e.Select(0, 0.3)
	e.Toggle(0, pattern.Normal)

	path := filepath.Join(t.TempDir(), ExportFilename(120))
	if err := e.Export(path); err != nil {
		t.Fatal(err)
	}

	got, err := audio.LoadWAV(path)
	if err != nil {
		t.Fatal(err)
	}
	if want := 96000; got.FrameCount() != want {
		t.Fatalf("exported %d frames, want %d", got.FrameCount(), want)
	}
}

func TestEngineExportWithoutSample(t *testing.T) {
	e := New(48000)
	path := filepath.Join(t.TempDir(), "out.wav")
	if err := e.Export(path); !errors.Is(err, apperrors.ErrNoSample) {
		t.Fatalf("Export without sample = %v, want ErrNoSample", err)
	}
}
