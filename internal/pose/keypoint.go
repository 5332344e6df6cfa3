package pose

import (
	"fmt"

	"github.com/andresmejia3/formcheck/internal/geometry"
	jsoniter "github.com/json-iterator/go"
)

// Landmark is the index of a body landmark in the 17-point COCO layout used
// by MoveNet and similar single-person pose models.
type Landmark int

const (
	Nose Landmark = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
)

// NumKeypoints is the fixed size of a KeypointSet.
const NumKeypoints = 17

var landmarkNames = [NumKeypoints]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

func (l Landmark) String() string {
	if l < 0 || int(l) >= NumKeypoints {
		return fmt.Sprintf("landmark(%d)", int(l))
	}
	return landmarkNames[l]
}

// Keypoint is a single detected landmark in source frame pixel coordinates.
type Keypoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
	Name  string  `json:"name,omitempty"`
}

// Point drops the confidence score.
func (k Keypoint) Point() geometry.Point {
	return geometry.Point{X: k.X, Y: k.Y}
}

// KeypointSet holds one frame's landmarks, addressed by Landmark.
// Landmarks the model could not place keep their slot with a low score.
type KeypointSet [NumKeypoints]Keypoint

// At returns the keypoint for landmark l.
func (s *KeypointSet) At(l Landmark) Keypoint {
	return s[l]
}

// AllAbove reports whether every listed landmark has a score strictly greater than threshold.
func (s *KeypointSet) AllAbove(threshold float64, landmarks ...Landmark) bool {
	for _, l := range landmarks {
		if !(s[l].Score > threshold) {
			return false
		}
	}
	return true
}

// FromSlice builds a KeypointSet from a model's keypoint list.
// Short lists are padded with zero-score keypoints; lists longer than
// NumKeypoints are rejected because their layout cannot be trusted.
func FromSlice(kps []Keypoint) (KeypointSet, error) {
	var set KeypointSet
	if len(kps) > NumKeypoints {
		return set, fmt.Errorf("expected at most %d keypoints, got %d", NumKeypoints, len(kps))
	}
	copy(set[:], kps)
	for i := range set {
		if set[i].Name == "" {
			set[i].Name = landmarkNames[i]
		}
	}
	return set, nil
}

// UnmarshalJSON accepts a JSON array of keypoints.
func (s *KeypointSet) UnmarshalJSON(data []byte) error {
	var kps []Keypoint
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &kps); err != nil {
		return fmt.Errorf("decode keypoints: %w", err)
	}
	set, err := FromSlice(kps)
	if err != nil {
		return err
	}
	*s = set
	return nil
}

// MarshalJSON encodes the set as a JSON array.
func (s KeypointSet) MarshalJSON() ([]byte, error) {
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(s[:])
}
