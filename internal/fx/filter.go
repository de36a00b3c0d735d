package fx

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/filter/biquad"
	"github.com/cwbudde/algo-dsp/dsp/filter/design"
	"github.com/gopxl/beep/v2"
)

// Fixed filter parameters of the static filter effects.
const (
	lowpassHz   = 800.0
	highpassHz  = 4000.0
	bandpassHz  = 1500.0
	bandpassQ   = 5.0
	butterworth = 0.7071067811865476
)

// sectionFilter runs one designed biquad section per channel. Used by the
// static lowpass/highpass effects where the coefficients never change.
type sectionFilter struct {
	src         beep.Streamer
	left, right *biquad.Section
}

func newLowpass(src beep.Streamer, sampleRate int) *sectionFilter {
	coeffs := design.Lowpass(lowpassHz, butterworth, float64(sampleRate))
	return &sectionFilter{src: src, left: biquad.NewSection(coeffs), right: biquad.NewSection(coeffs)}
}

func newHighpass(src beep.Streamer, sampleRate int) *sectionFilter {
	coeffs := design.Highpass(highpassHz, butterworth, float64(sampleRate))
	return &sectionFilter{src: src, left: biquad.NewSection(coeffs), right: biquad.NewSection(coeffs)}
}

func (f *sectionFilter) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.src.Stream(samples)
	for i := range samples[:n] {
		samples[i][0] = f.left.ProcessSample(samples[i][0])
		samples[i][1] = f.right.ProcessSample(samples[i][1])
	}
	return n, ok
}

func (f *sectionFilter) Err() error { return nil }

// biquadState is one direct-form-I biquad per channel with coefficients we
// can recompute per sample, for the swept and modulated filters.
type biquadState struct {
	b0, b1, b2, a1, a2 float64
	x1l, x2l, y1l, y2l float64
	x1r, x2r, y1r, y2r float64
}

func (b *biquadState) process(l, r float64) (float64, float64) {
	yl := b.b0*l + b.b1*b.x1l + b.b2*b.x2l - b.a1*b.y1l - b.a2*b.y2l
	b.x2l, b.x1l = b.x1l, l
	b.y2l, b.y1l = b.y1l, yl

	yr := b.b0*r + b.b1*b.x1r + b.b2*b.x2r - b.a1*b.y1r - b.a2*b.y2r
	b.x2r, b.x1r = b.x1r, r
	b.y2r, b.y1r = b.y1r, yr
	return yl, yr
}

// setLowpass computes lowpass coefficients for freq/q.
func (b *biquadState) setLowpass(freq, q, sampleRate float64) {
	wc := 2 * math.Pi * freq / sampleRate
	cosw := math.Cos(wc)
	alpha := math.Sin(wc) / (2 * q)

	a0 := 1 + alpha
	b.b0 = (1 - cosw) / 2 / a0
	b.b1 = (1 - cosw) / a0
	b.b2 = (1 - cosw) / 2 / a0
	b.a1 = -2 * cosw / a0
	b.a2 = (1 - alpha) / a0
}

// setBandpass computes constant-peak bandpass coefficients for freq/q.
func (b *biquadState) setBandpass(freq, q, sampleRate float64) {
	wc := 2 * math.Pi * freq / sampleRate
	cosw := math.Cos(wc)
	alpha := math.Sin(wc) / (2 * q)

	a0 := 1 + alpha
	b.b0 = alpha / a0
	b.b1 = 0
	b.b2 = -alpha / a0
	b.a1 = -2 * cosw / a0
	b.a2 = (1 - alpha) / a0
}

// setAllpass computes allpass coefficients for freq/q.
func (b *biquadState) setAllpass(freq, q, sampleRate float64) {
	wc := 2 * math.Pi * freq / sampleRate
	cosw := math.Cos(wc)
	alpha := math.Sin(wc) / (2 * q)

	a0 := 1 + alpha
	b.b0 = (1 - alpha) / a0
	b.b1 = -2 * cosw / a0
	b.b2 = (1 + alpha) / a0
	b.a1 = -2 * cosw / a0
	b.a2 = (1 - alpha) / a0
}

// bandpassFilter is the fixed bandpass effect (1500 Hz, Q=5).
type bandpassFilter struct {
	src beep.Streamer
	bq  biquadState
}

func newBandpass(src beep.Streamer, sampleRate int) *bandpassFilter {
	f := &bandpassFilter{src: src}
	f.bq.setBandpass(bandpassHz, bandpassQ, float64(sampleRate))
	return f
}

func (f *bandpassFilter) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.src.Stream(samples)
	for i := range samples[:n] {
		samples[i][0], samples[i][1] = f.bq.process(samples[i][0], samples[i][1])
	}
	return n, ok
}

func (f *bandpassFilter) Err() error { return nil }

// filterSweep is a lowpass whose cutoff ramps exponentially from startHz to
// endHz across sweepFrames, recomputed per sample.
type filterSweep struct {
	src         beep.Streamer
	bq          biquadState
	sampleRate  float64
	startHz     float64
	ratio       float64 // endHz / startHz
	q           float64
	sweepFrames int
	frame       int
}

func newFilterSweep(src beep.Streamer, startHz, endHz, q float64, sweepFrames, sampleRate int) *filterSweep {
	if sweepFrames < 1 {
		sweepFrames = 1
	}
	f := &filterSweep{
		src:         src,
		sampleRate:  float64(sampleRate),
		startHz:     startHz,
		ratio:       endHz / startHz,
		sweepFrames: sweepFrames,
	}
	f.q = q
	f.bq.setLowpass(startHz, q, f.sampleRate)
	return f
}

func (f *filterSweep) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.src.Stream(samples)
	for i := range samples[:n] {
		t := float64(f.frame) / float64(f.sweepFrames)
		if t > 1 {
			t = 1
		}
		freq := f.startHz * math.Pow(f.ratio, t)
		f.bq.setLowpass(freq, f.q, f.sampleRate)
		samples[i][0], samples[i][1] = f.bq.process(samples[i][0], samples[i][1])
		f.frame++
	}
	return n, ok
}

func (f *filterSweep) Err() error { return nil }

// phaser cascades two allpass stages whose center frequency is swept by a
// sine oscillator. The oscillator's lifetime is bounded by the source: it
// stops sweeping when the stream ends.
type phaser struct {
	src        beep.Streamer
	stages     [2]biquadState
	sampleRate float64
	baseHz     float64
	depthHz    float64
	lfoHz      float64
	frame      int
}

func newPhaser(src beep.Streamer, baseHz, depthHz, lfoHz float64, sampleRate int) *phaser {
	p := &phaser{
		src:        src,
		sampleRate: float64(sampleRate),
		baseHz:     baseHz,
		depthHz:    depthHz,
		lfoHz:      lfoHz,
	}
	for i := range p.stages {
		p.stages[i].setAllpass(baseHz, butterworth, p.sampleRate)
	}
	return p
}

func (p *phaser) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = p.src.Stream(samples)
	for i := range samples[:n] {
		t := float64(p.frame) / p.sampleRate
		freq := p.baseHz + p.depthHz*math.Sin(2*math.Pi*p.lfoHz*t)
		if freq < 20 {
			freq = 20
		}
		l, r := samples[i][0], samples[i][1]
		for s := range p.stages {
			p.stages[s].setAllpass(freq, butterworth, p.sampleRate)
			l, r = p.stages[s].process(l, r)
		}
		samples[i][0], samples[i][1] = l, r
		p.frame++
	}
	return n, ok
}

func (p *phaser) Err() error { return nil }
