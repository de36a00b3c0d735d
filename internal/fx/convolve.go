package fx

import (
	"github.com/maddyblue/go-dsp/fft"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
)

// convolveBuffer renders the reverb wet signal: each channel of the sample
// convolved with the matching impulse response channel. The result carries
// the full tail (sample length + IR length - 1 frames).
func convolveBuffer(buf *audio.Buffer, ir *ImpulseResponse) *audio.Buffer {
	n := len(buf.Data)
	left := make([]float64, n)
	right := make([]float64, n)
	for i, frame := range buf.Data {
		left[i] = frame[0]
		right[i] = frame[1]
	}

	wetL := fastConvolve(left, ir.Left)
	wetR := fastConvolve(right, ir.Right)

	frames := make([][2]float64, len(wetL))
	for i := range frames {
		frames[i] = [2]float64{wetL[i], wetR[i]}
	}
	return audio.NewBuffer(frames, buf.SampleRate)
}

// fastConvolve computes the linear convolution of x and h via the FFT.
func fastConvolve(x, h []float64) []float64 {
	outLen := len(x) + len(h) - 1
	if len(x) == 0 || len(h) == 0 {
		return nil
	}

	px := make([]float64, outLen)
	ph := make([]float64, outLen)
	copy(px, x)
	copy(ph, h)

	fx := fft.FFTReal(px)
	fh := fft.FFTReal(ph)
	for i := range fx {
		fx[i] *= fh[i]
	}
	out := fft.IFFT(fx)

	res := make([]float64, outLen)
	for i := range res {
		res[i] = real(out[i])
	}
	return res
}
