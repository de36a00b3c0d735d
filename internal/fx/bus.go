package fx

import (
	"math"
	"sync"

	"github.com/gopxl/beep/v2"
)

// Compressor profile of the master bus: a near-limiting curve so that
// overlapping or boosted step effects cannot clip the output.
const (
	busThresholdDB = -30.0
	busRatio       = 20.0
	busAttackSec   = 0.003
	busReleaseSec  = 0.25
)

// Bus is the shared master bus. All effect graphs terminate here: a mixer
// feeding a dynamics compressor. The number of frames streamed through the
// bus is the session's audio clock.
type Bus struct {
	mu         sync.Mutex
	mixer      beep.Mixer
	comp       *compressor
	sampleRate int
	frames     int64
}

// NewBus creates the master bus for one audio session.
func NewBus(sampleRate int) *Bus {
	b := &Bus{sampleRate: sampleRate}
	b.comp = newCompressor(&b.mixer, sampleRate)
	return b
}

// SampleRate returns the bus sample rate.
func (b *Bus) SampleRate() int { return b.sampleRate }

// Now returns the audio-clock time in seconds: frames streamed so far
// divided by the sample rate. Monotonic while the bus is being pulled.
func (b *Bus) Now() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(b.frames) / float64(b.sampleRate)
}

// ScheduleAt adds a streamer to the bus so that its first frame plays at
// the absolute clock frame. Frames in the past play immediately. Once
// scheduled, an event runs autonomously; it cannot be retracted.
func (b *Bus) ScheduleAt(frame int64, s beep.Streamer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delay := frame - b.frames
	if delay > 0 {
		s = beep.Seq(beep.Silence(int(delay)), s)
	}
	b.mixer.Add(s)
}

// Stream implements beep.Streamer. The mixer streams silence when no
// events are active, so the clock advances for as long as the speaker
// pulls the bus.
func (b *Bus) Stream(samples [][2]float64) (n int, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	n, ok = b.comp.Stream(samples)
	b.frames += int64(n)
	return n, ok
}

func (b *Bus) Err() error { return nil }

// compressor is a stereo dynamics compressor with a hard knee and an
// envelope follower over the peak of both channels.
type compressor struct {
	src         beep.Streamer
	attackCoef  float64
	releaseCoef float64
	env         float64
}

func newCompressor(src beep.Streamer, sampleRate int) *compressor {
	sr := float64(sampleRate)
	return &compressor{
		src:         src,
		attackCoef:  math.Exp(-1 / (busAttackSec * sr)),
		releaseCoef: math.Exp(-1 / (busReleaseSec * sr)),
	}
}

func (c *compressor) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = c.src.Stream(samples)
	for i := range samples[:n] {
		peak := math.Max(math.Abs(samples[i][0]), math.Abs(samples[i][1]))
		if peak > c.env {
			c.env = c.attackCoef*c.env + (1-c.attackCoef)*peak
		} else {
			c.env = c.releaseCoef*c.env + (1-c.releaseCoef)*peak
		}
		g := c.gain(c.env)
		samples[i][0] *= g
		samples[i][1] *= g
	}
	return n, ok
}

func (c *compressor) Err() error { return nil }

// gain computes the hard-knee gain reduction for an envelope level.
func (c *compressor) gain(env float64) float64 {
	if env <= 0 {
		return 1
	}
	levelDB := 20 * math.Log10(env)
	if levelDB <= busThresholdDB {
		return 1
	}
	overDB := levelDB - busThresholdDB
	reductionDB := overDB * (1 - 1/busRatio)
	return math.Pow(10, -reductionDB/20)
}
