package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasFailureMarker(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"Generation failed", true},
		{"FAILED to reach model", true},
		{"status: 500", true},
		{"Status: 503 upstream unavailable", true},
		{"Traceback (most recent call last)", true},
		{"internal error occurred", true},
		{"model warmed up slowly", false},
		{"", false},
		{"everything fine", false},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, HasFailureMarker(tc.msg), "msg=%q", tc.msg)
	}
}

func TestStreamError_Error(t *testing.T) {
	withStatus := &StreamError{Message: "boom", Status: 500}
	assert.Equal(t, "backend stream error (status 500): boom", withStatus.Error())

	noStatus := &StreamError{Message: "boom"}
	assert.Equal(t, "backend stream error: boom", noStatus.Error())
}

func TestStreamError_Unwrap(t *testing.T) {
	err := fmt.Errorf("turn failed: %w", &StreamError{Message: "boom"})
	assert.True(t, errors.Is(err, ErrBackendStream))

	var streamErr *StreamError
	assert.True(t, errors.As(err, &streamErr))
	assert.Equal(t, "boom", streamErr.Message)
}

func TestMapError_Categories(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"not found", errors.New("story does not exist"), ErrNotFound},
		{"rate limit", errors.New("429 Too Many Requests"), ErrTransient},
		{"quota", errors.New("quota exceeded"), ErrTransient},
		{"bad request", errors.New("bad request: missing field"), ErrInvalidInput},
		{"timeout", errors.New("i/o timeout"), ErrTransient},
		{"connection", errors.New("connection refused"), ErrTransport},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, errors.Is(MapError(tc.in), tc.want))
		})
	}
}

func TestMapError_PassThrough(t *testing.T) {
	assert.Nil(t, MapError(nil))

	// Cancellation stays recognizable for the silent-abort check.
	wrapped := fmt.Errorf("send: %w", context.Canceled)
	assert.Equal(t, wrapped, MapError(wrapped))

	streamErr := &StreamError{Message: "boom"}
	assert.Equal(t, error(streamErr), MapError(streamErr))

	unknown := errors.New("something odd")
	assert.Equal(t, unknown, MapError(unknown))
}

func TestMapError_DeadlineBecomesTransient(t *testing.T) {
	mapped := MapError(context.DeadlineExceeded)
	assert.True(t, errors.Is(mapped, ErrTransient))
	assert.False(t, IsSilent(mapped))
}

func TestIsSilent(t *testing.T) {
	assert.True(t, IsSilent(context.Canceled))
	assert.True(t, IsSilent(fmt.Errorf("chat: %w", context.Canceled)))
	assert.False(t, IsSilent(nil))
	assert.False(t, IsSilent(errors.New("real failure")))
	assert.False(t, IsSilent(context.DeadlineExceeded))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Transient("rate limited")))
	assert.False(t, IsRetryable(context.Canceled))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(NotFound("story gone")))
}

func TestCategoryHelpers(t *testing.T) {
	assert.True(t, IsCategory(NotFound("x"), ErrNotFound))
	assert.True(t, IsCategory(InvalidInput("x"), ErrInvalidInput))
	assert.True(t, IsCategory(Internal("x"), ErrInternal))
	assert.False(t, IsCategory(nil, ErrInternal))
}
