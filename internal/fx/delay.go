package fx

import (
	"github.com/gopxl/beep/v2"
)

// delayTailPeriods is how many delay periods keep running after the source
// ends. At 0.4 feedback the residual after 6 repeats is below 0.5%.
const delayTailPeriods = 6

// tailSource streams its underlying source, then zero-pads for tail more
// frames so delay lines can ring out after the source ends.
type tailSource struct {
	src  beep.Streamer
	done bool
	tail int
}

func (t *tailSource) Stream(samples [][2]float64) (n int, ok bool) {
	for n < len(samples) && !t.done {
		m, more := t.src.Stream(samples[n:])
		n += m
		if !more {
			t.done = true
		}
	}
	for n < len(samples) && t.tail > 0 {
		samples[n] = [2]float64{}
		n++
		t.tail--
	}
	return n, n > 0
}

func (t *tailSource) Err() error { return t.src.Err() }

// feedbackDelay is a feedback delay line producing the wet signal only;
// the dry path is routed to the bus separately.
type feedbackDelay struct {
	in       *tailSource
	ring     [][2]float64
	pos      int
	feedback float64
	wet      float64
}

func newFeedbackDelay(src beep.Streamer, delayFrames int, feedback, wet float64) *feedbackDelay {
	if delayFrames < 1 {
		delayFrames = 1
	}
	return &feedbackDelay{
		in:       &tailSource{src: src, tail: delayFrames * delayTailPeriods},
		ring:     make([][2]float64, delayFrames),
		feedback: feedback,
		wet:      wet,
	}
}

func (d *feedbackDelay) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = d.in.Stream(samples)
	for i := range samples[:n] {
		in := samples[i]
		delayed := d.ring[d.pos]
		d.ring[d.pos] = [2]float64{
			in[0] + delayed[0]*d.feedback,
			in[1] + delayed[1]*d.feedback,
		}
		d.pos = (d.pos + 1) % len(d.ring)
		samples[i] = [2]float64{delayed[0] * d.wet, delayed[1] * d.wet}
	}
	return n, ok
}

func (d *feedbackDelay) Err() error { return nil }

// pingPong bounces the signal between two delay lines: the left line feeds
// the right, the right feeds back into the delayed left, at 0.5 feedback.
// Output is the dry input plus the cross-fed wet signal, remerged in stereo.
type pingPong struct {
	in    *tailSource
	left  []float64
	right []float64
	pos   int
}

func newPingPong(src beep.Streamer, delayFrames int) *pingPong {
	if delayFrames < 1 {
		delayFrames = 1
	}
	return &pingPong{
		in:    &tailSource{src: src, tail: delayFrames * 8},
		left:  make([]float64, delayFrames),
		right: make([]float64, delayFrames),
	}
}

func (p *pingPong) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = p.in.Stream(samples)
	for i := range samples[:n] {
		in := samples[i]
		dl := p.left[p.pos]
		dr := p.right[p.pos]
		p.left[p.pos] = in[0] + dr*0.5
		p.right[p.pos] = in[1] + dl*0.5
		p.pos = (p.pos + 1) % len(p.left)
		samples[i] = [2]float64{in[0] + dl, in[1] + dr}
	}
	return n, ok
}

func (p *pingPong) Err() error { return nil }

// haasWiden delays the left channel against the unmodified right channel,
// widening the stereo image.
type haasWiden struct {
	in   *tailSource
	left []float64
	pos  int
}

func newHaasWiden(src beep.Streamer, delayFrames int) *haasWiden {
	if delayFrames < 1 {
		delayFrames = 1
	}
	return &haasWiden{
		in:   &tailSource{src: src, tail: delayFrames},
		left: make([]float64, delayFrames),
	}
}

func (h *haasWiden) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = h.in.Stream(samples)
	for i := range samples[:n] {
		in := samples[i]
		delayedLeft := h.left[h.pos]
		h.left[h.pos] = in[0]
		h.pos = (h.pos + 1) % len(h.left)
		samples[i] = [2]float64{delayedLeft, in[1]}
	}
	return n, ok
}

func (h *haasWiden) Err() error { return nil }
