package audio

import (
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	apperrors "github.com/oblinof/AI-Sampler-Sequencer/internal/errors"
)

// SaveWAV writes the buffer to path as a canonical 16-bit PCM WAV file.
// Samples are clamped to [-1, 1] before scaling; negative values scale by
// 0x8000 and non-negative by 0x7FFF so the full signed 16-bit range is used
// without overflow.
func SaveWAV(path string, buf *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create wav: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, buf.SampleRate, 16, StreamChannels, 1)
	intBuf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: StreamChannels,
			SampleRate:  buf.SampleRate,
		},
		Data:           make([]int, len(buf.Data)*StreamChannels),
		SourceBitDepth: 16,
	}
	for i, frame := range buf.Data {
		intBuf.Data[i*2] = pcmSample(frame[0])
		intBuf.Data[i*2+1] = pcmSample(frame[1])
	}
	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// pcmSample converts one float sample to a signed 16-bit value.
func pcmSample(v float64) int {
	v = clamp(v, -1, 1)
	if v < 0 {
		return int(v * 0x8000)
	}
	return int(v * 0x7FFF)
}

// LoadWAV reads a 16-bit PCM WAV file into a Buffer, scaling samples by
// 1/32768. Mono files are duplicated onto both channels.
func LoadWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: %s is not a valid WAV file", apperrors.ErrUnsupportedFormat, path)
	}
	if err := dec.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("seek pcm data: %w", err)
	}

	format := dec.Format()
	bitDepth := int(dec.SampleBitDepth())
	if bitDepth != 16 {
		return nil, fmt.Errorf("%w: %d-bit WAV, expected 16-bit", apperrors.ErrUnsupportedFormat, bitDepth)
	}
	nchannels := format.NumChannels
	if nchannels != 1 && nchannels != 2 {
		return nil, fmt.Errorf("%w: %d channels, expected mono or stereo", apperrors.ErrUnsupportedFormat, nchannels)
	}

	nbytes := int(dec.PCMLen())
	nsamples := nbytes / bytesPerSample
	intBuf := &goaudio.IntBuffer{
		Format:         format,
		Data:           make([]int, nsamples),
		SourceBitDepth: 16,
	}
	if _, err := dec.PCMBuffer(intBuf); err != nil {
		return nil, fmt.Errorf("read pcm data: %w", err)
	}

	frameCount := nsamples / nchannels
	frames := make([][2]float64, frameCount)
	for i := 0; i < frameCount; i++ {
		if nchannels == 1 {
			v := float64(intBuf.Data[i]) / 32768.0
			frames[i] = [2]float64{v, v}
		} else {
			frames[i] = [2]float64{
				float64(intBuf.Data[i*2]) / 32768.0,
				float64(intBuf.Data[i*2+1]) / 32768.0,
			}
		}
	}
	return &Buffer{Data: frames, SampleRate: format.SampleRate}, nil
}
