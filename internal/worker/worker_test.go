package worker

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"testing"

	"github.com/andresmejia3/formcheck/internal/pose"
)

// MockCloser wraps a bytes.Buffer to satisfy io.ReadCloser and io.WriteCloser interfaces.
// This allows us to use in-memory buffers as if they were OS Pipes.
type MockCloser struct {
	*bytes.Buffer
}

func (m *MockCloser) Close() error { return nil }

// newMockWorker returns a worker whose data pipe already holds payload.
func newMockWorker(payload []byte) (*PythonWorker, *MockCloser) {
	stdinMock := &MockCloser{Buffer: new(bytes.Buffer)}
	dataPipeMock := &MockCloser{Buffer: new(bytes.Buffer)}

	binary.Write(dataPipeMock, binary.BigEndian, uint32(len(payload)))
	dataPipeMock.Write(payload)

	return &PythonWorker{
		ID:       1,
		Stdin:    stdinMock,
		DataPipe: dataPipeMock,
		// Cmd is nil because we aren't testing process management, just the protocol
	}, stdinMock
}

func TestEstimate(t *testing.T) {
	payload := new(bytes.Buffer)
	payload.WriteByte(statusOK)
	payload.WriteString(`{"keypoints":[{"x":10.5,"y":20,"score":0.9},{"x":11,"y":19,"score":0.3}]}`)

	w, stdinMock := newMockWorker(payload.Bytes())

	inputFrame := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	kps, detected, err := w.Estimate(inputFrame)
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}

	// Verify Go sent the correct data TO Python
	sentData := stdinMock.Bytes()
	if len(sentData) != 4+len(inputFrame) {
		t.Errorf("Expected %d bytes sent, got %d", 4+len(inputFrame), len(sentData))
	}
	if binary.BigEndian.Uint32(sentData[:4]) != uint32(len(inputFrame)) {
		t.Errorf("Bad length header: %X", sentData[:4])
	}

	if !detected {
		t.Fatal("Expected a detected pose")
	}
	nose := kps.At(pose.Nose)
	if math.Abs(nose.X-10.5) > 1e-9 || nose.Score != 0.9 {
		t.Errorf("Unexpected nose keypoint %+v", nose)
	}
	if kps.At(pose.LeftEye).Score != 0.3 {
		t.Errorf("Expected left eye score 0.3, got %f", kps.At(pose.LeftEye).Score)
	}
	// Missing trailing keypoints are padded with zero confidence
	if kps.At(pose.RightAnkle).Score != 0 {
		t.Errorf("Expected padded ankle, got %+v", kps.At(pose.RightAnkle))
	}
}

func TestEstimate_NoPose(t *testing.T) {
	payload := append([]byte{statusOK}, []byte(`{"keypoints":[]}`)...)
	w, _ := newMockWorker(payload)

	_, detected, err := w.Estimate([]byte("frame"))
	if err != nil {
		t.Fatalf("Estimate failed: %v", err)
	}
	if detected {
		t.Error("Expected no pose for an empty keypoint list")
	}
}

func TestEstimate_Error(t *testing.T) {
	// Protocol: [Status:1] [MsgLen] [Msg]
	payload := new(bytes.Buffer)
	payload.WriteByte(statusError)

	errMsg := "Python Exception: Import Error"
	binary.Write(payload, binary.BigEndian, uint32(len(errMsg)))
	payload.WriteString(errMsg)

	w, _ := newMockWorker(payload.Bytes())

	_, _, err := w.Estimate([]byte("frame"))
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if err.Error() != "python worker error: "+errMsg {
		t.Errorf("Expected error message '%s', got '%v'", "python worker error: "+errMsg, err)
	}
	var werr *Error
	if !errors.As(err, &werr) {
		t.Errorf("Expected *worker.Error, got %T", err)
	}
}

func TestEstimate_ErrorObject(t *testing.T) {
	payload := append([]byte{statusOK}, []byte(`{"error":"model not loaded"}`)...)
	w, _ := newMockWorker(payload)

	_, _, err := w.Estimate([]byte("frame"))
	var werr *Error
	if !errors.As(err, &werr) || werr.Message != "model not loaded" {
		t.Errorf("Expected worker error 'model not loaded', got %v", err)
	}
}

func TestEstimate_ErrorWinsOverEmptyKeypoints(t *testing.T) {
	payload := append([]byte{statusOK}, []byte(`{"keypoints":[],"error":"cuda out of memory"}`)...)
	w, _ := newMockWorker(payload)

	_, detected, err := w.Estimate([]byte("frame"))
	if detected {
		t.Error("Expected no detection on a failed frame")
	}
	var werr *Error
	if !errors.As(err, &werr) || werr.Message != "cuda out of memory" {
		t.Errorf("Expected worker error, got %v", err)
	}
}

func TestEstimate_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
	}{
		{"empty body", []byte{}},
		{"unknown status", []byte{7, 1, 2}},
		{"bad json", append([]byte{statusOK}, []byte("{not json")...)},
		{"too many keypoints", append([]byte{statusOK}, []byte(`{"keypoints":[`+repeatKeypoint(18)+`]}`)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newMockWorker(tt.payload)
			if _, _, err := w.Estimate([]byte("frame")); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestCommunicate_TruncatedPipe(t *testing.T) {
	w := &PythonWorker{
		Stdin:    &MockCloser{Buffer: new(bytes.Buffer)},
		DataPipe: &MockCloser{Buffer: bytes.NewBuffer([]byte{0, 0})},
	}
	if _, err := w.Communicate([]byte("frame")); err == nil {
		t.Error("Expected error reading a truncated header")
	}
}

func repeatKeypoint(n int) string {
	var b bytes.Buffer
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(`{"x":1,"y":1,"score":1}`)
	}
	return b.String()
}
