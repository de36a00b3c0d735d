package audio

import (
	"encoding/base64"
	"fmt"
)

// Stream format delivered by the generation backend: interleaved signed
// 16-bit little-endian stereo at 48 kHz.
const (
	StreamSampleRate = 48000
	StreamChannels   = 2
	bytesPerSample   = 2
	bytesPerFrame    = StreamChannels * bytesPerSample
)

// DecodeBase64Chunks decodes a sequence of base64-encoded PCM chunks, as
// received from the generation backend, into one contiguous byte slice.
func DecodeBase64Chunks(chunks []string) ([]byte, error) {
	var raw []byte
	for i, chunk := range chunks {
		data, err := base64.StdEncoding.DecodeString(chunk)
		if err != nil {
			return nil, fmt.Errorf("decode chunk %d: %w", i, err)
		}
		raw = append(raw, data...)
	}
	return raw, nil
}

// DecodePCM16 de-interleaves raw s16le stereo PCM into a Buffer, scaling
// samples by 1/32768 into [-1, 1). Trailing bytes that do not complete a
// frame are dropped.
func DecodePCM16(raw []byte, sampleRate int) *Buffer {
	frameCount := len(raw) / bytesPerFrame
	frames := make([][2]float64, frameCount)
	for i := 0; i < frameCount; i++ {
		off := i * bytesPerFrame
		l := int16(uint16(raw[off]) | uint16(raw[off+1])<<8)
		r := int16(uint16(raw[off+2]) | uint16(raw[off+3])<<8)
		frames[i] = [2]float64{float64(l) / 32768.0, float64(r) / 32768.0}
	}
	return &Buffer{Data: frames, SampleRate: sampleRate}
}
