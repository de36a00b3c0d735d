// Package engine owns the playback session: the loaded loop, the sample
// selection, the pattern, the transport state machine and the step
// scheduler driving the effect builder.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
	apperrors "github.com/oblinof/AI-Sampler-Sequencer/internal/errors"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/fx"
	"github.com/oblinof/AI-Sampler-Sequencer/internal/pattern"
)

const stepsPerCycle = pattern.Steps

// minSelectionSec is the shortest selectable region. Anything shorter is
// treated as a stray click and clears the selection instead.
const minSelectionSec = 0.010

// Engine is one sampler session. All mutating methods are safe for
// concurrent use; the scheduler goroutine shares the same mutex.
type Engine struct {
	mu sync.Mutex

	bus     *fx.Bus
	builder *fx.Builder
	sched   *Scheduler
	rng     *rand.Rand

	loop     *audio.Buffer // full generated loop, nil until loaded
	sample   *audio.Buffer // selected region
	reversed *audio.Buffer // reversed copy, same frame count

	pat     pattern.Pattern
	tempo   float64
	playing bool
	cancel  context.CancelFunc

	// currentStep is the most recently scheduled slot, -1 when stopped.
	currentStep atomic.Int32
}

// New creates a stopped engine at the given sample rate and 120 BPM.
func New(sampleRate int) *Engine {
	e := &Engine{
		bus:   fx.NewBus(sampleRate),
		tempo: 120,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	e.builder = fx.NewBuilder(e.bus)
	e.sched = NewScheduler(e.bus, e.stepDuration, e.fireStep)
	e.currentStep.Store(-1)
	return e
}

// Bus exposes the master bus streamer for the audio device.
func (e *Engine) Bus() *fx.Bus { return e.bus }

// SetLoop installs a freshly generated loop and clears the selection.
func (e *Engine) SetLoop(buf *audio.Buffer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loop = buf
	e.sample = nil
	e.reversed = nil
}

// Loop returns the current loop, nil when none is loaded.
func (e *Engine) Loop() *audio.Buffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loop
}

// Select extracts the [start, end) region of the loop as the active sample
// and precomputes its reversed copy. A span under 10 ms clears the
// selection instead. Selecting with no loop loaded is a no-op.
func (e *Engine) Select(start, end float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop == nil {
		return
	}
	if end-start < minSelectionSec {
		e.sample = nil
		e.reversed = nil
		return
	}
	e.sample = e.loop.Extract(start, end)
	e.reversed = e.sample.Reverse()
}

// Sample returns the selected region, nil when nothing is selected.
func (e *Engine) Sample() *audio.Buffer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sample
}

// SetTempo changes the tempo. Steps already scheduled keep their trigger
// times; the new step duration applies from the next scheduled step.
func (e *Engine) SetTempo(bpm float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tempo = bpm
}

// Tempo returns the session tempo in BPM.
func (e *Engine) Tempo() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tempo
}

// Toggle sets or clears the effect on one pattern step.
func (e *Engine) Toggle(step int, fx pattern.Effect) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pat.Toggle(step, fx)
}

// Randomize replaces the pattern with a random non-empty one.
func (e *Engine) Randomize() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pat.Randomize(e.rng)
}

// Pattern returns a copy of the pattern.
func (e *Engine) Pattern() pattern.Pattern {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pat
}

// SetPattern replaces the whole pattern.
func (e *Engine) SetPattern(p pattern.Pattern) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pat = p
}

// Playing reports whether the transport is running.
func (e *Engine) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

// CurrentStep returns the most recently scheduled step, -1 when stopped.
func (e *Engine) CurrentStep() int {
	return int(e.currentStep.Load())
}

// Play starts the transport from step zero. Playing without a selected
// sample returns ErrNoSample. Calling Play while already playing restarts
// the cycle from step zero.
func (e *Engine) Play() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sample == nil {
		return apperrors.ErrNoSample
	}
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.playing = true
	e.sched.Start()
	go e.run(ctx)
	return nil
}

// Stop halts scheduling of new steps. Audio already handed to the bus
// plays out on its own.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return
	}
	e.playing = false
	e.cancel()
	e.cancel = nil
	e.currentStep.Store(-1)
}

// run is the scheduler driver. It polls on a fixed wall-clock cadence and
// exits when the transport stops.
func (e *Engine) run(ctx context.Context) {
	ticker := time.NewTicker(TickInterval)
	defer ticker.Stop()
	e.tick()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick()
		}
	}
}

func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return
	}
	e.sched.Tick()
}

// stepDuration is the scheduler's view of the current step length. Called
// with e.mu held by the scheduler's owner.
func (e *Engine) stepDuration() float64 {
	return pattern.StepDuration(e.tempo)
}

// fireStep resolves one slot at its trigger time and builds its audio.
// The slot's effect is read here, at scheduling time; later pattern edits
// do not alter steps already handed to the bus.
func (e *Engine) fireStep(step int, when float64) {
	e.currentStep.Store(int32(step))
	fxID := e.pat.At(step)
	if fxID == pattern.None {
		return
	}
	e.builder.Build(fx.StepContext{
		Effect:      fxID,
		TriggerTime: when,
		Tempo:       e.tempo,
		Sample:      e.sample,
		Reversed:    e.reversed,
	})
}
