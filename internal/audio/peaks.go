package audio

// Peak is one min/max pair of a waveform overview.
type Peak struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Peaks reduces the buffer to n min/max pairs of the mono mix, for drawing
// a waveform overview. Returns nil for an empty buffer or n <= 0.
func Peaks(buf *Buffer, n int) []Peak {
	if buf == nil || len(buf.Data) == 0 || n <= 0 {
		return nil
	}
	if n > len(buf.Data) {
		n = len(buf.Data)
	}
	peaks := make([]Peak, n)
	frames := len(buf.Data)
	for i := 0; i < n; i++ {
		start := i * frames / n
		end := (i + 1) * frames / n
		if end <= start {
			end = start + 1
		}
		p := Peak{Min: 1, Max: -1}
		for _, frame := range buf.Data[start:end] {
			v := (frame[0] + frame[1]) / 2
			if v < p.Min {
				p.Min = v
			}
			if v > p.Max {
				p.Max = v
			}
		}
		peaks[i] = p
	}
	return peaks
}
