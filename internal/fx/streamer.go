// Package fx builds the per-step effect graphs of the sequencer. Every
// effect is realized as a chain of beep.Streamer stages rooted at a sample
// playback source and terminating at the shared master bus.
package fx

import (
	"github.com/gopxl/beep/v2"

	"github.com/oblinof/AI-Sampler-Sequencer/internal/audio"
)

// source streams the frames of a sample buffer once, then ends.
type source struct {
	data [][2]float64
	pos  int
}

// newSource plays the whole buffer.
func newSource(buf *audio.Buffer) *source {
	return &source{data: buf.Data}
}

// newSlice plays length frames starting at offset. The slice is clamped to
// the buffer bounds.
func newSlice(buf *audio.Buffer, offset, length int) *source {
	if offset < 0 {
		offset = 0
	}
	if offset > len(buf.Data) {
		offset = len(buf.Data)
	}
	end := offset + length
	if end > len(buf.Data) {
		end = len(buf.Data)
	}
	return &source{data: buf.Data[offset:end]}
}

func (s *source) Stream(samples [][2]float64) (n int, ok bool) {
	if s.pos >= len(s.data) {
		return 0, false
	}
	n = copy(samples, s.data[s.pos:])
	s.pos += n
	return n, true
}

func (s *source) Err() error { return nil }

// gain scales a streamer by a constant factor.
func gain(src beep.Streamer, g float64) beep.Streamer {
	return beep.StreamerFunc(func(samples [][2]float64) (n int, ok bool) {
		n, ok = src.Stream(samples)
		for i := range samples[:n] {
			samples[i][0] *= g
			samples[i][1] *= g
		}
		return n, ok
	})
}
