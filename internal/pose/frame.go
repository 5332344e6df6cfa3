package pose

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

// Frame is one keypoint frame as read from an NDJSON stream.
type Frame struct {
	Index     int         `json:"frame"`
	Keypoints KeypointSet `json:"keypoints"`
	// Detected is false when the estimator found nobody in the frame.
	Detected bool `json:"-"`
}

type frameLine struct {
	Index     *int            `json:"frame"`
	Keypoints json.RawMessage `json:"keypoints"`
}

// FrameReader reads Frames from newline-delimited JSON. Each line is either
// an object {"frame": n, "keypoints": [...]} or a bare keypoint array.
// Blank lines are skipped.
type FrameReader struct {
	scanner *bufio.Scanner
	next    int
	line    int
}

// NewFrameReader wraps r.
func NewFrameReader(r io.Reader) *FrameReader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &FrameReader{scanner: scanner}
}

// Next returns the next frame, or io.EOF when the stream is exhausted.
func (fr *FrameReader) Next() (Frame, error) {
	for fr.scanner.Scan() {
		fr.line++
		data := fr.scanner.Bytes()
		if len(bytes.TrimSpace(data)) == 0 {
			continue
		}

		frame, err := ParseFrame(data, fr.next)
		if err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", fr.line, err)
		}
		fr.next = frame.Index + 1
		return frame, nil
	}
	if err := fr.scanner.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}

// ParseFrame decodes a single frame message. defaultIndex is used when the
// message carries no "frame" field.
func ParseFrame(data []byte, defaultIndex int) (Frame, error) {
	data = bytes.TrimSpace(data)
	frame := Frame{Index: defaultIndex}
	if len(data) == 0 {
		return Frame{}, fmt.Errorf("empty frame")
	}

	var raw []byte
	if data[0] == '[' {
		raw = data
	} else {
		var line frameLine
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &line); err != nil {
			return Frame{}, fmt.Errorf("decode frame: %w", err)
		}
		if line.Index != nil {
			frame.Index = *line.Index
		}
		raw = line.Keypoints
	}

	if len(raw) == 0 || string(raw) == "null" || string(raw) == "[]" {
		return frame, nil
	}
	if err := frame.Keypoints.UnmarshalJSON(raw); err != nil {
		return Frame{}, err
	}
	frame.Detected = true
	return frame, nil
}
