// Package services implements the generation gateway: thin capability
// interfaces over the configured text, speech and image providers. The
// gateway receives fully-formed prompts, performs the remote call, and
// normalizes every failure to a GenerationError. It never retries; retry
// policy belongs to callers.
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jwebster45206/adventure-engine/pkg/chat"
)

// GenerationErrorKind classifies a generation failure.
type GenerationErrorKind string

const (
	KindProvider GenerationErrorKind = "provider" // remote API rejected or errored
	KindTimeout  GenerationErrorKind = "timeout"
	KindParse    GenerationErrorKind = "parse" // malformed/unparseable response
)

// GenerationError is the normalized failure type for all gateway calls.
type GenerationError struct {
	Kind   GenerationErrorKind
	Detail string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (%s): %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.Detail)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// genError builds a GenerationError, upgrading context deadline errors to
// the timeout kind.
func genError(kind GenerationErrorKind, detail string, err error) *GenerationError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &GenerationError{Kind: kind, Detail: detail, Err: err}
}

// TextGenerator generates narrative text from a fully-formed message
// array.
type TextGenerator interface {
	GenerateText(ctx context.Context, messages []chat.ChatMessage) (string, error)
}

// SpeechGenerator converts narration text to audio bytes.
type SpeechGenerator interface {
	GenerateSpeech(ctx context.Context, text string) ([]byte, error)
}

// ImageGenerator renders an image for a scene description.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, description string) ([]byte, error)
}
