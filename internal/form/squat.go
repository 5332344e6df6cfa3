package form

import (
	"math"

	"github.com/andresmejia3/formcheck/internal/geometry"
	"github.com/andresmejia3/formcheck/internal/pose"
)

const (
	MsgSquatCorrect    = "Squat form correct!"
	MsgSquatBendKnees  = "Bend knees more (don't stand straight)!"
	MsgSquatKneesAnkle = "Keep knees over ankles!"
)

const (
	squatMinThigh      = 60.0
	squatMaxThigh      = 120.0
	squatKneeOffsetMax = 40.0 // px
)

// squatEvaluator checks both legs: hip-knee-ankle angle inside the squat
// band and each knee stacked over its ankle.
type squatEvaluator struct{}

func (squatEvaluator) Exercise() Exercise { return Squat }

func (squatEvaluator) SuccessMessage() string { return MsgSquatCorrect }

func (squatEvaluator) Required() []pose.Landmark {
	return []pose.Landmark{
		pose.LeftHip, pose.LeftKnee, pose.LeftAnkle,
		pose.RightHip, pose.RightKnee, pose.RightAnkle,
	}
}

func (squatEvaluator) Classify(kps *pose.KeypointSet) Result {
	hipL, kneeL, ankleL := kps[pose.LeftHip], kps[pose.LeftKnee], kps[pose.LeftAnkle]
	hipR, kneeR, ankleR := kps[pose.RightHip], kps[pose.RightKnee], kps[pose.RightAnkle]

	thighL := geometry.Angle(hipL.Point(), kneeL.Point(), ankleL.Point())
	thighR := geometry.Angle(hipR.Point(), kneeR.Point(), ankleR.Point())

	depthOK := inClosed(thighL, squatMinThigh, squatMaxThigh) && inClosed(thighR, squatMinThigh, squatMaxThigh)
	kneesOK := math.Abs(kneeL.X-ankleL.X) < squatKneeOffsetMax && math.Abs(kneeR.X-ankleR.X) < squatKneeOffsetMax

	switch {
	case !depthOK:
		return Result{Feedback: MsgSquatBendKnees}
	case !kneesOK:
		return Result{Feedback: MsgSquatKneesAnkle}
	default:
		return Result{Feedback: MsgSquatCorrect, Correct: true}
	}
}

// inClosed reports lo <= v <= hi. NaN is never inside.
func inClosed(v, lo, hi float64) bool {
	return v >= lo && v <= hi
}

// inOpen reports lo < v < hi. NaN is never inside.
func inOpen(v, lo, hi float64) bool {
	return v > lo && v < hi
}
