package form

// ClassificationThreshold is the keypoint score every required landmark must
// exceed before an exercise rule is applied. It is shared by all exercises.
const ClassificationThreshold = 0.45

// Messages that are not tied to a specific exercise.
const (
	MsgMoveIntoFrame   = "Move into frame"
	MsgDetectionFailed = "Pose detection failed"
)

// Result is the outcome of evaluating one frame.
type Result struct {
	Feedback string `json:"feedback"`
	Correct  bool   `json:"correct"`
}

// Fallback is returned when a frame cannot be classified: the exercise is
// unknown or a required keypoint is not confident enough.
func Fallback() Result {
	return Result{Feedback: MsgMoveIntoFrame}
}

// NoPose is the result for a frame in which the estimator found nobody.
func NoPose() Result {
	return Fallback()
}

// DetectionFailed is the result for a frame the estimator failed to process.
func DetectionFailed() Result {
	return Result{Feedback: MsgDetectionFailed}
}

// IsFallback reports whether r carries no classification.
func (r Result) IsFallback() bool {
	return !r.Correct && (r.Feedback == MsgMoveIntoFrame || r.Feedback == MsgDetectionFailed)
}
