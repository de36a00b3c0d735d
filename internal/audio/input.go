package audio

import (
	"fmt"
	"os"

	apperrors "github.com/oblinof/AI-Sampler-Sequencer/internal/errors"
)

const (
	MaxFileSize = 100 * 1024 * 1024 // 100MB
)

// ValidateInput checks that path points to a WAV file we can load as a
// source loop: it must exist, fit the size cap, and start with the RIFF
// magic bytes.
func ValidateInput(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("%w: %s", apperrors.ErrFileNotFound, path)
	}
	if err != nil {
		return fmt.Errorf("stat file: %w", err)
	}

	if info.Size() > MaxFileSize {
		return fmt.Errorf("%w: maximum size is 100MB", apperrors.ErrFileTooLarge)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrCorruptedFile, err)
	}
	defer f.Close()

	header := make([]byte, 12)
	n, err := f.Read(header)
	if err != nil || n < 12 {
		return fmt.Errorf("%w: could not read file header", apperrors.ErrCorruptedFile)
	}

	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return fmt.Errorf("%w: please provide a WAV file", apperrors.ErrUnsupportedFormat)
	}

	return nil
}
