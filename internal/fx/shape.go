package fx

import (
	"math"

	"github.com/gopxl/beep/v2"
)

// Gate envelope breakpoints, as fractions of one step duration.
const (
	gateRampUpEnd   = 0.05
	gateHoldEnd     = 0.45
	gateRampDownEnd = 0.50
)

// gateEnvelope applies the rhythmic gate: gain ramps 0 to 1 over the first
// 5% of a step, holds until 45%, ramps back to 0 by 50%, and stays silent
// for the rest of the stream.
type gateEnvelope struct {
	src        beep.Streamer
	stepFrames float64
	frame      int
}

func newGate(src beep.Streamer, stepFrames int) *gateEnvelope {
	if stepFrames < 1 {
		stepFrames = 1
	}
	return &gateEnvelope{src: src, stepFrames: float64(stepFrames)}
}

func (g *gateEnvelope) gain(t float64) float64 {
	switch {
	case t < gateRampUpEnd:
		return t / gateRampUpEnd
	case t < gateHoldEnd:
		return 1
	case t < gateRampDownEnd:
		return (gateRampDownEnd - t) / (gateRampDownEnd - gateHoldEnd)
	default:
		return 0
	}
}

func (g *gateEnvelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = g.src.Stream(samples)
	for i := range samples[:n] {
		env := g.gain(float64(g.frame) / g.stepFrames)
		samples[i][0] *= env
		samples[i][1] *= env
		g.frame++
	}
	return n, ok
}

func (g *gateEnvelope) Err() error { return nil }

// autoPan sweeps equal-power stereo panning with a sine oscillator. The
// oscillator lives only as long as the stream.
type autoPan struct {
	src        beep.Streamer
	lfoHz      float64
	sampleRate float64
	frame      int
}

func newAutoPan(src beep.Streamer, lfoHz float64, sampleRate int) *autoPan {
	return &autoPan{src: src, lfoHz: lfoHz, sampleRate: float64(sampleRate)}
}

func (a *autoPan) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = a.src.Stream(samples)
	for i := range samples[:n] {
		t := float64(a.frame) / a.sampleRate
		pan := math.Sin(2 * math.Pi * a.lfoHz * t) // -1 .. 1
		theta := (pan + 1) * math.Pi / 4
		samples[i][0] *= math.Cos(theta)
		samples[i][1] *= math.Sin(theta)
		a.frame++
	}
	return n, ok
}

func (a *autoPan) Err() error { return nil }

// Bitcrusher parameters: 4-bit amplitude quantization through a lookup
// table over the full signed 16-bit domain, with a sample-and-hold rate
// reduction at normalized frequency 0.1.
const (
	crushBits     = 4
	crushNormFreq = 0.1
)

// bitcrusher quantizes the waveform through a waveshaper table built once
// per invocation, holding each output value for 1/crushNormFreq frames.
type bitcrusher struct {
	src        beep.Streamer
	table      []float64
	holdPeriod int
	counter    int
	held       [2]float64
}

func newBitcrusher(src beep.Streamer) *bitcrusher {
	levels := float64(int(1) << (crushBits - 1)) // quantization steps per polarity
	table := make([]float64, 65536)
	for i := range table {
		v := float64(i-32768) / 32768.0
		table[i] = math.Floor(v*levels) / levels
	}
	return &bitcrusher{
		src:        src,
		table:      table,
		holdPeriod: int(math.Round(1 / crushNormFreq)),
	}
}

func (b *bitcrusher) shape(v float64) float64 {
	idx := int((clampUnit(v) + 1) * 32768)
	if idx > 65535 {
		idx = 65535
	}
	return b.table[idx]
}

func (b *bitcrusher) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = b.src.Stream(samples)
	for i := range samples[:n] {
		if b.counter%b.holdPeriod == 0 {
			b.held = [2]float64{b.shape(samples[i][0]), b.shape(samples[i][1])}
		}
		samples[i] = b.held
		b.counter++
	}
	return n, ok
}

func (b *bitcrusher) Err() error { return nil }

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
