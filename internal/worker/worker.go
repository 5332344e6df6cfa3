package worker

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/andresmejia3/formcheck/internal/pose"
	"github.com/andresmejia3/formcheck/internal/types"
	"github.com/andresmejia3/formcheck/internal/utils"
	jsoniter "github.com/json-iterator/go"
)

// Response status bytes written by the worker script
const (
	statusOK    = 0
	statusError = 1
)

// maxResponseSize guards against a corrupted length header
const maxResponseSize = 16 * 1024 * 1024

// Estimator turns an encoded frame into keypoints. detected is false when
// the model found nobody in the frame.
type Estimator interface {
	Estimate(frame []byte) (kps pose.KeypointSet, detected bool, err error)
	Close()
}

// Error is a failure reported by the worker script itself (as opposed to a
// broken pipe or crashed process).
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return "python worker error: " + e.Message
}

// Config controls how a pose worker is launched.
type Config struct {
	Script      string
	ReadTimeout time.Duration
}

// PythonWorker drives a pose-estimation subprocess over a length-prefixed protocol.
type PythonWorker struct {
	ID          int
	Cmd         *utils.SafeCommand
	Stdin       io.WriteCloser
	DataPipe    io.ReadCloser
	ReadTimeout time.Duration
}

// NewPythonWorker starts the worker script. The child writes responses to
// FD 3 so its stdout/stderr can carry logs freely.
func NewPythonWorker(ctx context.Context, id int, cfg Config) (*PythonWorker, error) {
	py := utils.NewSafeCommand(ctx, "python3", "-u", cfg.Script)

	// Create a side-channel pipe (FD 3) for clean data transfer
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	py.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := py.StdinPipe()
	if err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := py.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("worker %d failed to start: %w", id, err)
	}

	// Close the write-end in the parent so only the child holds it
	w.Close()

	return &PythonWorker{
		ID:          id,
		Cmd:         py,
		Stdin:       stdin,
		DataPipe:    r,
		ReadTimeout: cfg.ReadTimeout,
	}, nil
}

// Communicate sends one request and returns the raw response payload.
// Protocol: [uint32 length][body] in both directions, big endian.
func (w *PythonWorker) Communicate(data []byte) ([]byte, error) {
	if err := binary.Write(w.Stdin, binary.BigEndian, uint32(len(data))); err != nil {
		return nil, err
	}
	if _, err := w.Stdin.Write(data); err != nil {
		return nil, err
	}

	if w.ReadTimeout > 0 {
		if d, ok := w.DataPipe.(interface{ SetReadDeadline(time.Time) error }); ok {
			_ = d.SetReadDeadline(time.Now().Add(w.ReadTimeout))
		}
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(w.DataPipe, header); err != nil {
		return nil, err // This is where we catch the interpreter crashing on startup
	}

	respLen := binary.BigEndian.Uint32(header)
	if respLen > maxResponseSize {
		return nil, fmt.Errorf("response of %d bytes exceeds limit", respLen)
	}
	respBody := make([]byte, respLen)
	_, err := io.ReadFull(w.DataPipe, respBody)
	return respBody, err
}

// Estimate sends an encoded frame and decodes the keypoints.
// Payload: [status byte] then either JSON PoseResponse (OK) or
// [uint32 length][message] (error).
func (w *PythonWorker) Estimate(frame []byte) (pose.KeypointSet, bool, error) {
	var kps pose.KeypointSet

	resp, err := w.Communicate(frame)
	if err != nil {
		return kps, false, err
	}
	if len(resp) == 0 {
		return kps, false, errors.New("empty response from worker")
	}

	switch resp[0] {
	case statusOK:
		var pr types.PoseResponse
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(resp[1:], &pr); err != nil {
			return kps, false, fmt.Errorf("malformed pose response: %w", err)
		}
		// The script may report a failure as {"error": "..."} with an OK status
		if pr.Error != "" {
			return kps, false, &Error{Message: pr.Error}
		}
		if len(pr.Keypoints) == 0 {
			return kps, false, nil
		}
		kps, err = pose.FromSlice(pr.Keypoints)
		if err != nil {
			return kps, false, err
		}
		return kps, true, nil

	case statusError:
		body := resp[1:]
		if len(body) < 4 {
			return kps, false, &Error{Message: "truncated error message"}
		}
		msgLen := binary.BigEndian.Uint32(body[:4])
		if int(msgLen) > len(body)-4 {
			msgLen = uint32(len(body) - 4)
		}
		return kps, false, &Error{Message: string(body[4 : 4+msgLen])}

	default:
		return kps, false, fmt.Errorf("unknown worker status byte %d", resp[0])
	}
}

// Close shuts the worker down and waits for the process to exit.
func (w *PythonWorker) Close() {
	w.Stdin.Close()
	w.DataPipe.Close()
	if w.Cmd != nil {
		w.Cmd.Wait()
	}
}
