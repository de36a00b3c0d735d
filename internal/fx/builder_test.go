package fx

import (
	"math"
	"testing"

	"github.com/gopxl/beep/v2"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/pattern"
)

type scheduled struct {
	frame    int64
	streamer beep.Streamer
}

// recorder captures scheduled events instead of mixing them.
type recorder struct {
	sampleRate int
	events     []scheduled
}

func (r *recorder) ScheduleAt(frame int64, s beep.Streamer) {
	r.events = append(r.events, scheduled{frame: frame, streamer: s})
}

func (r *recorder) SampleRate() int { return r.sampleRate }

// drain pulls a streamer to exhaustion and returns all frames.
func drain(s beep.Streamer) [][2]float64 {
	var out [][2]float64
	buf := make([][2]float64, 512)
	for {
		n, ok := s.Stream(buf)
		out = append(out, buf[:n]...)
		if !ok {
			return out
		}
	}
}

func testSample(seconds float64, sampleRate int) *audio.Buffer {
	frames := make([][2]float64, int(seconds*float64(sampleRate)))
	for i := range frames {
		t := float64(i) / float64(sampleRate)
		v := 0.5 * math.Sin(2*math.Pi*330*t)
		frames[i] = [2]float64{v, v}
	}
	return audio.NewBuffer(frames, sampleRate)
}

func buildStep(t *testing.T, fx pattern.Effect, tempo float64) *recorder {
	t.Helper()
	rec := &recorder{sampleRate: 48000}
	b := NewBuilder(rec)
	sample := testSample(0.5, 48000)
	b.Build(StepContext{
		Effect:      fx,
		TriggerTime: 1.0,
		Tempo:       tempo,
		Sample:      sample,
		Reversed:    sample.Reverse(),
	})
	return rec
}

func TestBuildStutter(t *testing.T) {
	// At 120 BPM the repeat spacing is (60/120)/8 = 0.0625s = 3000 frames.
	rec := buildStep(t, pattern.Stutter, 120)

	if len(rec.events) != stutterRepeats {
		t.Fatalf("stutter scheduled %d events, want %d", len(rec.events), stutterRepeats)
	}
	const spacing = 3000
	base := rec.events[0].frame
	for i, ev := range rec.events {
		if want := base + int64(i*spacing); ev.frame != want {
			t.Errorf("repeat %d at frame %d, want %d", i, ev.frame, want)
		}
		if got := len(drain(ev.streamer)); got != spacing {
			t.Errorf("repeat %d plays %d frames, want %d", i, got, spacing)
		}
	}
}

func TestBuildGlitch(t *testing.T) {
	rec := buildStep(t, pattern.Glitch, 120)

	if len(rec.events) != glitchRepeats {
		t.Fatalf("glitch scheduled %d events, want %d", len(rec.events), glitchRepeats)
	}
	// 50ms at 48kHz
	const spacing = 2400
	base := rec.events[0].frame
	var prevPeak float64 = math.Inf(1)
	for i, ev := range rec.events {
		if want := base + int64(i*spacing); ev.frame != want {
			t.Errorf("repeat %d at frame %d, want %d", i, ev.frame, want)
		}
		frames := drain(ev.streamer)
		if len(frames) != spacing {
			t.Errorf("repeat %d plays %d frames, want %d", i, len(frames), spacing)
		}
		peak := 0.0
		for _, f := range frames {
			peak = math.Max(peak, math.Abs(f[0]))
		}
		if peak >= prevPeak {
			t.Errorf("repeat %d peak %v not below previous %v", i, peak, prevPeak)
		}
		prevPeak = peak
	}
}

func TestDrySuppression(t *testing.T) {
	// Glitch and stutter must never route the primary source to the bus:
	// every scheduled streamer is strictly shorter than the full sample.
	for _, fx := range []pattern.Effect{pattern.Glitch, pattern.Stutter} {
		t.Run(fx.String(), func(t *testing.T) {
			rec := buildStep(t, fx, 120)
			full := testSample(0.5, 48000).FrameCount()
			for i, ev := range rec.events {
				if got := len(drain(ev.streamer)); got >= full {
					t.Errorf("event %d streams %d frames, the full source (%d) leaked through", i, got, full)
				}
			}
		})
	}
}

func TestBuildMissingSampleIsNoOp(t *testing.T) {
	rec := &recorder{sampleRate: 48000}
	b := NewBuilder(rec)

	b.Build(StepContext{Effect: pattern.Normal, TriggerTime: 0, Tempo: 120})
	b.Build(StepContext{Effect: pattern.Reverb, TriggerTime: 0, Tempo: 120})
	b.Build(StepContext{
		Effect:      pattern.Reverse,
		TriggerTime: 0,
		Tempo:       120,
		Sample:      testSample(0.1, 48000),
	})

	if len(rec.events) != 0 {
		t.Fatalf("builder scheduled %d events without a sample, want 0", len(rec.events))
	}
}

func TestBuildDelayRoutesDrySeparately(t *testing.T) {
	rec := buildStep(t, pattern.Delay, 120)
	if len(rec.events) != 2 {
		t.Fatalf("delay scheduled %d events, want dry + wet", len(rec.events))
	}
	if rec.events[0].frame != rec.events[1].frame {
		t.Error("dry and wet paths should start at the same frame")
	}
}

func TestBuildEverySingleChainEffect(t *testing.T) {
	single := []pattern.Effect{
		pattern.Normal, pattern.Reverse, pattern.Reverb, pattern.PingPong,
		pattern.TapeStop, pattern.Lowpass, pattern.Highpass, pattern.Bandpass,
		pattern.FilterSweep, pattern.Phaser, pattern.PitchUp, pattern.PitchDown,
		pattern.Vibrato, pattern.AutoPan, pattern.Gate, pattern.Bitcrusher,
		pattern.StereoWiden,
	}
	for _, fx := range single {
		t.Run(fx.String(), func(t *testing.T) {
			rec := buildStep(t, fx, 120)
			if len(rec.events) != 1 {
				t.Fatalf("scheduled %d events, want 1", len(rec.events))
			}
			if frames := drain(rec.events[0].streamer); len(frames) == 0 {
				t.Fatal("scheduled chain streams no audio")
			}
		})
	}
}

func TestBuildTriggerFrame(t *testing.T) {
	rec := buildStep(t, pattern.Normal, 120)
	if got, want := rec.events[0].frame, int64(48000); got != want {
		t.Fatalf("trigger frame = %d, want %d (1.0s at 48kHz)", got, want)
	}
}

func TestPitchRates(t *testing.T) {
	sample := testSample(0.5, 48000)

	t.Run("PitchUpShortens", func(t *testing.T) {
		rec := buildStep(t, pattern.PitchUp, 120)
		frames := drain(rec.events[0].streamer)
		want := int(float64(sample.FrameCount()) / pitchUpRate)
		if math.Abs(float64(len(frames)-want)) > 2 {
			t.Errorf("pitchUp output %d frames, want about %d", len(frames), want)
		}
	})

	t.Run("PitchDownLengthens", func(t *testing.T) {
		rec := buildStep(t, pattern.PitchDown, 120)
		frames := drain(rec.events[0].streamer)
		want := int(float64(sample.FrameCount()) / pitchDownRate)
		if math.Abs(float64(len(frames)-want)) > 2 {
			t.Errorf("pitchDown output %d frames, want about %d", len(frames), want)
		}
	})

	t.Run("TapeStopEndsAtRamp", func(t *testing.T) {
		rec := buildStep(t, pattern.TapeStop, 120)
		frames := drain(rec.events[0].streamer)
		want := int(tapeStopSpan * 0.5 * 48000)
		if len(frames) != want {
			t.Errorf("tapeStop output %d frames, want %d", len(frames), want)
		}
	})
}
