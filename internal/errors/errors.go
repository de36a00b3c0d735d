package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrNoSample          = errors.New("no sample loaded")
	ErrNoAudioReceived   = errors.New("generation produced no audio")
	ErrBackendTimeout    = errors.New("generation backend timed out")
	ErrRenderFailed      = errors.New("could not render sequence")
	ErrFileNotFound      = errors.New("file not found")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrFileTooLarge      = errors.New("file exceeds size limit")
	ErrCorruptedFile     = errors.New("file corrupted or unreadable")
)

// GenerationError represents a failure while talking to the music
// generation backend.
type GenerationError struct {
	Stage   string // "connect", "stream", "decode", "save"
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation failed at %s: %s", e.Stage, e.Message)
	}
	return fmt.Sprintf("generation failed at %s", e.Stage)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// NewGenerationError creates a GenerationError
func NewGenerationError(stage, message string, cause error) *GenerationError {
	return &GenerationError{
		Stage:   stage,
		Message: message,
		Cause:   cause,
	}
}
