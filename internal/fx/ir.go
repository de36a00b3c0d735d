package fx

import (
	"math"
	"math/rand"
)

// irSeconds is the synthetic reverb tail length.
const irSeconds = 2.0

// ImpulseResponse is the synthesized reverb impulse: two independent
// channels of decaying noise. It is generated once per audio session and
// read-shared by every reverb invocation.
type ImpulseResponse struct {
	Left  []float64
	Right []float64
}

// NewImpulseResponse synthesizes the impulse response at the given sample
// rate. Noise amplitude decays with (1 - position)^3 and each channel is
// normalized to unit energy, so convolved output stays comparable in level
// to the dry signal.
func NewImpulseResponse(sampleRate int, rng *rand.Rand) *ImpulseResponse {
	frames := int(irSeconds * float64(sampleRate))
	ir := &ImpulseResponse{
		Left:  make([]float64, frames),
		Right: make([]float64, frames),
	}
	for i := 0; i < frames; i++ {
		decay := 1 - float64(i)/float64(frames)
		shape := decay * decay * decay
		ir.Left[i] = (rng.Float64()*2 - 1) * shape
		ir.Right[i] = (rng.Float64()*2 - 1) * shape
	}
	normalize(ir.Left)
	normalize(ir.Right)
	return ir
}

func normalize(ch []float64) {
	var energy float64
	for _, v := range ch {
		energy += v * v
	}
	if energy == 0 {
		return
	}
	scale := 1 / math.Sqrt(energy)
	for i := range ch {
		ch[i] *= scale
	}
}
