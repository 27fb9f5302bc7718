package stream

import (
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

func readAllFrames(t *testing.T, r io.Reader) []string {
	t.Helper()

	var frames []string
	fr := NewFrameReader(r)
	for {
		frame, err := fr.Next()
		if err == io.EOF {
			return frames
		}
		assert.NoError(t, err)
		frames = append(frames, frame)
	}
}

func TestFrameReader_SplitsOnBlankLines(t *testing.T) {
	input := "data: {\"content\":\"a\"}\n\ndata: {\"content\":\"b\"}\n\n"

	frames := readAllFrames(t, strings.NewReader(input))
	assert.Equal(t, []string{`data: {"content":"a"}`, `data: {"content":"b"}`}, frames)
}

func TestFrameReader_MultiLineFrame(t *testing.T) {
	input := "event: message\ndata: {\"content\":\"a\"}\n\n"

	frames := readAllFrames(t, strings.NewReader(input))
	assert.Equal(t, []string{"event: message\ndata: {\"content\":\"a\"}"}, frames)
}

func TestFrameReader_DiscardsUnterminatedTail(t *testing.T) {
	input := "data: {\"content\":\"a\"}\n\ndata: {\"content\":\"tr"

	frames := readAllFrames(t, strings.NewReader(input))
	assert.Equal(t, []string{`data: {"content":"a"}`}, frames)
}

func TestFrameReader_IgnoresExtraBlankLines(t *testing.T) {
	input := "\n\ndata: one\n\n\n\ndata: two\n\n"

	frames := readAllFrames(t, strings.NewReader(input))
	assert.Equal(t, []string{"data: one", "data: two"}, frames)
}

func TestFrameReader_CRLF(t *testing.T) {
	input := "data: one\r\n\r\ndata: two\r\n\r\n"

	frames := readAllFrames(t, strings.NewReader(input))
	assert.Equal(t, []string{"data: one", "data: two"}, frames)
}

func TestFrameReader_ChunkBoundaryInvariance(t *testing.T) {
	input := "data: {\"content\":\"hello\"}\n\ndata: {\"content\":\" world\"}\n\ndata: [DONE]\n\n"

	whole := readAllFrames(t, strings.NewReader(input))
	byteAtATime := readAllFrames(t, iotest.OneByteReader(strings.NewReader(input)))
	halfReads := readAllFrames(t, iotest.HalfReader(strings.NewReader(input)))

	assert.Equal(t, whole, byteAtATime)
	assert.Equal(t, whole, halfReads)
}

func TestDataPayload(t *testing.T) {
	payload, ok := DataPayload(`data: {"content":"x"}`)
	assert.True(t, ok)
	assert.Equal(t, `{"content":"x"}`, payload)

	payload, ok = DataPayload("data:no-space")
	assert.True(t, ok)
	assert.Equal(t, "no-space", payload)

	_, ok = DataPayload("event: message")
	assert.False(t, ok)

	_, ok = DataPayload(": heartbeat")
	assert.False(t, ok)
}
