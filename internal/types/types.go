package types

import "github.com/andresmejia3/formcheck/internal/pose"

// FrameTask represents a single encoded video frame sent to a pose worker
type FrameTask struct {
	Index int
	Data  []byte
}

// PoseResponse matches the JSON body a pose worker returns for one frame.
// An empty Keypoints list means nobody was found in the frame. A non-empty
// Error means estimation failed.
type PoseResponse struct {
	Keypoints []pose.Keypoint `json:"keypoints"`
	Error     string          `json:"error,omitempty"`
}
