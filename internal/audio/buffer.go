package audio

// Buffer is an immutable stereo sample buffer. Frames are [left, right]
// pairs of float64 values in [-1, 1]. Once constructed a Buffer is never
// mutated; derived buffers (reversed, extracted range) are fresh copies.
type Buffer struct {
	Data       [][2]float64
	SampleRate int
}

// NewBuffer wraps frames and a sample rate in a Buffer. The frames slice is
// taken over by the buffer and must not be modified by the caller afterward.
func NewBuffer(frames [][2]float64, sampleRate int) *Buffer {
	return &Buffer{Data: frames, SampleRate: sampleRate}
}

// FrameCount returns the number of stereo frames.
func (b *Buffer) FrameCount() int {
	return len(b.Data)
}

// Duration returns the buffer length in seconds.
func (b *Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Data)) / float64(b.SampleRate)
}

// Reverse returns a new buffer with the frames in reverse order. The
// reversed buffer always has the same frame count as the original.
func (b *Buffer) Reverse() *Buffer {
	rev := make([][2]float64, len(b.Data))
	for i, frame := range b.Data {
		rev[len(b.Data)-1-i] = frame
	}
	return &Buffer{Data: rev, SampleRate: b.SampleRate}
}

// Extract copies the sub-range [from, to) in seconds into a new buffer.
// The range is clamped to the buffer bounds; an inverted or empty range
// yields an empty buffer.
func (b *Buffer) Extract(from, to float64) *Buffer {
	start := int(from * float64(b.SampleRate))
	end := int(to * float64(b.SampleRate))
	if start < 0 {
		start = 0
	}
	if end > len(b.Data) {
		end = len(b.Data)
	}
	if start >= end {
		return &Buffer{Data: nil, SampleRate: b.SampleRate}
	}
	frames := make([][2]float64, end-start)
	copy(frames, b.Data[start:end])
	return &Buffer{Data: frames, SampleRate: b.SampleRate}
}

// Mono mixes the buffer down to a single channel (average of L and R).
func (b *Buffer) Mono() []float64 {
	out := make([]float64, len(b.Data))
	for i, frame := range b.Data {
		out[i] = (frame[0] + frame[1]) / 2
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
