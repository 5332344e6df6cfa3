package form

import (
	"math"

	"github.com/andresmejia3/formcheck/internal/geometry"
	"github.com/andresmejia3/formcheck/internal/pose"
)

const (
	MsgPressCorrect    = "Shoulder press form correct!"
	MsgPressVertical   = "Keep arms vertical!"
	MsgPressElbowAngle = "Elbow angle incorrect, press up/down!"
)

const (
	pressMaxDrift    = 40.0 // px between stacked joints
	pressMinElbowDeg = 80.0
	pressMaxElbowDeg = 170.0
)

type shoulderPressEvaluator struct{}

func (shoulderPressEvaluator) Exercise() Exercise { return ShoulderPress }

func (shoulderPressEvaluator) SuccessMessage() string { return MsgPressCorrect }

func (shoulderPressEvaluator) Required() []pose.Landmark {
	return armLandmarks()
}

func (shoulderPressEvaluator) Classify(kps *pose.KeypointSet) Result {
	shoulderL, elbowL, wristL := kps[pose.LeftShoulder], kps[pose.LeftElbow], kps[pose.LeftWrist]
	shoulderR, elbowR, wristR := kps[pose.RightShoulder], kps[pose.RightElbow], kps[pose.RightWrist]

	vertical := armVertical(shoulderL, elbowL, wristL) && armVertical(shoulderR, elbowR, wristR)

	angleL := geometry.Angle(shoulderL.Point(), elbowL.Point(), wristL.Point())
	angleR := geometry.Angle(shoulderR.Point(), elbowR.Point(), wristR.Point())
	bendOK := inOpen(angleL, pressMinElbowDeg, pressMaxElbowDeg) && inOpen(angleR, pressMinElbowDeg, pressMaxElbowDeg)

	switch {
	case !vertical:
		return Result{Feedback: MsgPressVertical}
	case !bendOK:
		return Result{Feedback: MsgPressElbowAngle}
	default:
		return Result{Feedback: MsgPressCorrect, Correct: true}
	}
}

// armVertical reports whether wrist, elbow and shoulder are stacked within
// pressMaxDrift pixels horizontally.
func armVertical(shoulder, elbow, wrist pose.Keypoint) bool {
	return math.Abs(wrist.X-elbow.X) < pressMaxDrift && math.Abs(elbow.X-shoulder.X) < pressMaxDrift
}

func armLandmarks() []pose.Landmark {
	return []pose.Landmark{
		pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist,
		pose.RightShoulder, pose.RightElbow, pose.RightWrist,
	}
}
