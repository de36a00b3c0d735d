package engine

import (
	"fmt"
	"math"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	apperrors "github.com/oblinof/AI-Sampler-Sequencer/internal/errors"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/pattern"
)

// Render arranges the sample across one 16-step pass as a plain offline
// mix: each non-empty step places the sample at its step start, truncated
// to one step duration, with the reversed copy substituted for the reverse
// effect. No other effect processing is applied; the rendered file is the
// arrangement, not the processed playback.
func Render(sample *audio.Buffer, pat pattern.Pattern, bpm float64) (*audio.Buffer, error) {
	if sample == nil || sample.FrameCount() == 0 {
		return nil, apperrors.ErrNoSample
	}

	sr := sample.SampleRate
	stepFrames := int(math.Round(pattern.StepDuration(bpm) * float64(sr)))
	out := make([][2]float64, stepFrames*pattern.Steps)

	var reversed *audio.Buffer
	for step := 0; step < pattern.Steps; step++ {
		fx := pat.At(step)
		if fx == pattern.None {
			continue
		}
		src := sample
		if fx == pattern.Reverse {
			if reversed == nil {
				reversed = sample.Reverse()
			}
			src = reversed
		}
		base := step * stepFrames
		n := src.FrameCount()
		if n > stepFrames {
			n = stepFrames
		}
		for i := 0; i < n; i++ {
			out[base+i][0] += src.Data[i][0]
			out[base+i][1] += src.Data[i][1]
		}
	}
	return audio.NewBuffer(out, sr), nil
}

// ExportFilename is the download name of a rendered sequence.
func ExportFilename(bpm float64) string {
	return fmt.Sprintf("sequence_%dbpm.wav", int(math.Round(bpm)))
}

// Export renders the engine's current sample, pattern and tempo to a WAV
// file at path.
func (e *Engine) Export(path string) error {
	e.mu.Lock()
	sample := e.sample
	pat := e.pat
	bpm := e.tempo
	e.mu.Unlock()

	buf, err := Render(sample, pat, bpm)
	if err != nil {
		return err
	}
	if err := audio.SaveWAV(path, buf); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
