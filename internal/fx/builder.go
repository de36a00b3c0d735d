package fx

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/pattern"
)

// Glitch and stutter retrigger counts. Glitch spacing is a fixed 50ms;
// stutter spacing derives from the tempo (an eighth of a beat).
const (
	glitchRepeats  = 3
	glitchSliceSec = 0.05
	stutterRepeats = 4
)

// Output is where finished effect graphs are scheduled. The master bus
// implements it; tests substitute a recorder.
type Output interface {
	ScheduleAt(frame int64, s beep.Streamer)
	SampleRate() int
}

// StepContext carries everything needed to realize one triggered step. It
// is created fresh per trigger and discarded once scheduled; later pattern
// edits never alter an already-built graph.
type StepContext struct {
	Effect      pattern.Effect
	TriggerTime float64 // absolute bus-clock seconds
	Tempo       float64 // beats per minute
	Sample      *audio.Buffer
	Reversed    *audio.Buffer
}

// Builder realizes effect recipes as streamer chains on an Output. The
// reverb impulse response is synthesized lazily, once per session.
type Builder struct {
	out    Output
	irOnce sync.Once
	ir     *ImpulseResponse
}

// NewBuilder creates a Builder scheduling onto out.
func NewBuilder(out Output) *Builder {
	return &Builder{out: out}
}

// impulse returns the session impulse response, synthesizing it on first use.
func (b *Builder) impulse() *ImpulseResponse {
	b.irOnce.Do(func() {
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		b.ir = NewImpulseResponse(b.out.SampleRate(), rng)
	})
	return b.ir
}

// Build wires the effect graph for one step and schedules it at the step's
// trigger time. A missing sample buffer is a silent no-op: no nodes are
// created and the step is simply skipped.
func (b *Builder) Build(ctx StepContext) {
	if ctx.Sample == nil || ctx.Sample.FrameCount() == 0 {
		return
	}
	if ctx.Effect == pattern.Reverse && (ctx.Reversed == nil || ctx.Reversed.FrameCount() == 0) {
		return
	}

	sr := b.out.SampleRate()
	frame := b.frameAt(ctx.TriggerTime)
	beat := 60.0 / ctx.Tempo
	stepFrames := int(math.Round(pattern.StepDuration(ctx.Tempo) * float64(sr)))

	switch ctx.Effect {
	case pattern.None:
		// empty slot, nothing to schedule

	case pattern.Normal:
		b.out.ScheduleAt(frame, newSource(ctx.Sample))

	case pattern.Reverse:
		b.out.ScheduleAt(frame, newSource(ctx.Reversed))

	case pattern.Reverb:
		wet := convolveBuffer(ctx.Sample, b.impulse())
		b.out.ScheduleAt(frame, newSource(wet))

	case pattern.Delay:
		// Dry path routes to the bus on its own; the delay line carries
		// only the wet signal.
		delayFrames := int(math.Round(0.75 * beat * float64(sr)))
		b.out.ScheduleAt(frame, newSource(ctx.Sample))
		b.out.ScheduleAt(frame, newFeedbackDelay(newSource(ctx.Sample), delayFrames, 0.4, 0.5))

	case pattern.PingPong:
		delayFrames := int(math.Round(beat / 2 * float64(sr)))
		b.out.ScheduleAt(frame, newPingPong(newSource(ctx.Sample), delayFrames))

	case pattern.Glitch:
		// Retriggered slices only; the primary source never reaches the bus.
		sliceFrames := int(glitchSliceSec * float64(sr))
		for i := 0; i < glitchRepeats; i++ {
			g := 1 - float64(i)/float64(glitchRepeats)
			slice := newSlice(ctx.Sample, i*sliceFrames, sliceFrames)
			b.out.ScheduleAt(frame+int64(i*sliceFrames), gain(slice, g))
		}

	case pattern.Stutter:
		// Same slice from the buffer start, retriggered back to back.
		spacing := beat / 8
		spacingFrames := int(math.Round(spacing * float64(sr)))
		for i := 0; i < stutterRepeats; i++ {
			slice := newSlice(ctx.Sample, 0, spacingFrames)
			b.out.ScheduleAt(frame+int64(i*spacingFrames), slice)
		}

	case pattern.TapeStop:
		ramp := tapeStopSpan * ctx.Sample.Duration()
		limit := int(ramp * float64(sr))
		b.out.ScheduleAt(frame, newVarRate(ctx.Sample, tapeStopRate(ramp), limit))

	case pattern.Lowpass:
		b.out.ScheduleAt(frame, newLowpass(newSource(ctx.Sample), sr))

	case pattern.Highpass:
		b.out.ScheduleAt(frame, newHighpass(newSource(ctx.Sample), sr))

	case pattern.Bandpass:
		b.out.ScheduleAt(frame, newBandpass(newSource(ctx.Sample), sr))

	case pattern.FilterSweep:
		b.out.ScheduleAt(frame, newFilterSweep(newSource(ctx.Sample), 100, 8000, 3, ctx.Sample.FrameCount(), sr))

	case pattern.Phaser:
		b.out.ScheduleAt(frame, newPhaser(newSource(ctx.Sample), 1000, 800, 2, sr))

	case pattern.PitchUp:
		b.out.ScheduleAt(frame, newVarRate(ctx.Sample, constRate(pitchUpRate), 0))

	case pattern.PitchDown:
		b.out.ScheduleAt(frame, newVarRate(ctx.Sample, constRate(pitchDownRate), 0))

	case pattern.Vibrato:
		b.out.ScheduleAt(frame, newVarRate(ctx.Sample, vibratoRate(vibratoHz, vibratoCents), 0))

	case pattern.AutoPan:
		b.out.ScheduleAt(frame, newAutoPan(newSource(ctx.Sample), 2*ctx.Tempo/60, sr))

	case pattern.Gate:
		b.out.ScheduleAt(frame, newGate(newSource(ctx.Sample), stepFrames))

	case pattern.Bitcrusher:
		b.out.ScheduleAt(frame, newBitcrusher(newSource(ctx.Sample)))

	case pattern.StereoWiden:
		b.out.ScheduleAt(frame, newHaasWiden(newSource(ctx.Sample), sr/100))
	}
}

func (b *Builder) frameAt(seconds float64) int64 {
	return int64(math.Round(seconds * float64(b.out.SampleRate())))
}
