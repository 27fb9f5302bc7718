package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for different categories
var (
	// ErrTransport - request never completed (connect failure, non-2xx status)
	ErrTransport = errors.New("transport failure")

	// ErrBackendStream - backend declared a failure inside the stream itself
	ErrBackendStream = errors.New("backend stream error")

	// ErrNotFound - resource not found (story, chapter, session)
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput - invalid input (bad request body, unknown model)
	ErrInvalidInput = errors.New("invalid input")

	// ErrTransient - transient error (rate limit, timeout, network blip)
	ErrTransient = errors.New("transient error")

	// ErrInternal - internal error
	ErrInternal = errors.New("internal error")
)

// StreamError is the typed failure synthesized from an error frame. It
// carries everything the backend reported so the surface layer can show the
// real cause instead of a generic message.
type StreamError struct {
	Message   string          `json:"message"`
	Traceback string          `json:"traceback,omitempty"`
	Status    int             `json:"status,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func (e *StreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("backend stream error (status %d): %s", e.Status, e.Message)
	}
	return "backend stream error: " + e.Message
}

func (e *StreamError) Unwrap() error {
	return ErrBackendStream
}

// failureMarkers distinguish a real backend failure from a cosmetic parse
// hiccup. An error frame whose message matches none of these is logged and
// skipped; one that matches aborts the conversation.
var failureMarkers = []string{"status:", "error", "failed", "traceback"}

// HasFailureMarker reports whether msg looks like a genuine backend failure.
// Matching is case-insensitive.
func HasFailureMarker(msg string) bool {
	lowered := strings.ToLower(msg)
	for _, marker := range failureMarkers {
		if strings.Contains(lowered, marker) {
			return true
		}
	}
	return false
}

// Wrap wraps an error with context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// NotFound wraps error as not found
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// InvalidInput wraps error as invalid input
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Transient wraps error as transient
func Transient(message string) error {
	return fmt.Errorf("%s: %w", message, ErrTransient)
}

// Internal wraps error as internal
func Internal(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInternal)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}
