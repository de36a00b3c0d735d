package fx

import (
	"math"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
)

// Playback-rate constants of the pitch and tape effects.
const (
	pitchUpRate    = 1.5
	pitchDownRate  = 0.75
	tapeStopFloor  = 0.01
	tapeStopSpan   = 0.75 // fraction of the buffer duration the ramp covers
	vibratoHz      = 5.0
	vibratoCents   = 15.0
)

// rateFunc maps elapsed output time in seconds to a playback rate.
type rateFunc func(t float64) float64

// varRate reads a buffer at a time-varying playback rate with linear
// interpolation between frames. The stream ends when the read head passes
// the end of the buffer, or after limitFrames output frames if set.
type varRate struct {
	data        [][2]float64
	pos         float64
	rate        rateFunc
	sampleRate  float64
	frame       int
	limitFrames int // 0 = no limit
}

func newVarRate(buf *audio.Buffer, rate rateFunc, limitFrames int) *varRate {
	return &varRate{
		data:        buf.Data,
		rate:        rate,
		sampleRate:  float64(buf.SampleRate),
		limitFrames: limitFrames,
	}
}

// constRate is the static playback-rate multiplier of pitchUp/pitchDown.
func constRate(r float64) rateFunc {
	return func(float64) float64 { return r }
}

// tapeStopRate ramps exponentially from 1.0 down to tapeStopFloor across
// rampSeconds of output time.
func tapeStopRate(rampSeconds float64) rateFunc {
	return func(t float64) float64 {
		if t >= rampSeconds {
			return tapeStopFloor
		}
		return math.Pow(tapeStopFloor, t/rampSeconds)
	}
}

// vibratoRate modulates pitch detune by a sine of +/- cents at lfoHz.
func vibratoRate(lfoHz, cents float64) rateFunc {
	return func(t float64) float64 {
		detune := cents * math.Sin(2*math.Pi*lfoHz*t)
		return math.Pow(2, detune/1200)
	}
}

func (v *varRate) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if v.limitFrames > 0 && v.frame >= v.limitFrames {
			return i, i > 0
		}
		idx := int(v.pos)
		if idx >= len(v.data)-1 {
			return i, i > 0
		}
		frac := v.pos - float64(idx)
		a, b := v.data[idx], v.data[idx+1]
		samples[i] = [2]float64{
			a[0] + (b[0]-a[0])*frac,
			a[1] + (b[1]-a[1])*frac,
		}

		t := float64(v.frame) / v.sampleRate
		v.pos += v.rate(t)
		v.frame++
	}
	return len(samples), true
}

func (v *varRate) Err() error { return nil }
