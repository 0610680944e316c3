package bullets

import (
	"errors"
	"fmt"
)

// ErrNoBullets is returned when model output yields zero parseable bullets.
var ErrNoBullets = errors.New("no bullets found in generated text")

// GenerationError represents a failure of the text generation call itself
// (missing client, network failure, provider error).
type GenerationError struct {
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("generation error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("generation error: %s", e.Message)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}
