package stream

import (
	"bufio"
	"io"
	"strings"
)

const (
	maxFrameLine = 8 << 20

	dataPrefix = "data:"

	// DoneSentinel is the literal payload that terminates a stream.
	DoneSentinel = "[DONE]"
)

// FrameReader decodes a byte stream into complete frames. A frame is a run of
// non-blank lines terminated by a blank line; partial trailing data is
// buffered across reads until the next chunk arrives, so frame boundaries are
// independent of how the transport chunks the bytes. When the stream closes,
// any unterminated buffered lines are discarded: they cannot form a complete
// frame.
type FrameReader struct {
	scanner *bufio.Scanner
}

func NewFrameReader(r io.Reader) *FrameReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxFrameLine)
	return &FrameReader{scanner: scanner}
}

// Next returns the next complete frame, or io.EOF once the underlying reader
// is exhausted. Consecutive blank lines between frames are ignored.
func (fr *FrameReader) Next() (string, error) {
	var lines []string
	for fr.scanner.Scan() {
		line := strings.TrimRight(fr.scanner.Text(), "\r")
		if line == "" {
			if len(lines) == 0 {
				continue
			}
			return strings.Join(lines, "\n"), nil
		}
		lines = append(lines, line)
	}
	if err := fr.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// DataPayload extracts the payload of a `data: ...` frame. The second return
// is false for frames without the data prefix, which callers must skip.
func DataPayload(frame string) (string, bool) {
	if !strings.HasPrefix(frame, dataPrefix) {
		return "", false
	}
	payload := strings.TrimPrefix(frame, dataPrefix)
	if strings.HasPrefix(payload, " ") {
		payload = payload[1:]
	}
	return payload, true
}
