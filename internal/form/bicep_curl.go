package form

import (
	"math"

	"github.com/andresmejia3/formcheck/internal/geometry"
	"github.com/andresmejia3/formcheck/internal/pose"
)

const (
	MsgCurlCorrect = "Bicep curl form correct!"
	MsgCurlBend    = "Turn sideways, elbows must bend to 90° for a correct curl!"
)

const (
	curlTargetDeg    = 90.0
	curlToleranceDeg = 15.0
)

type bicepCurlEvaluator struct{}

func (bicepCurlEvaluator) Exercise() Exercise { return BicepCurl }

func (bicepCurlEvaluator) SuccessMessage() string { return MsgCurlCorrect }

func (bicepCurlEvaluator) Required() []pose.Landmark {
	return armLandmarks()
}

func (bicepCurlEvaluator) Classify(kps *pose.KeypointSet) Result {
	elbowL := geometry.Angle(kps[pose.LeftShoulder].Point(), kps[pose.LeftElbow].Point(), kps[pose.LeftWrist].Point())
	elbowR := geometry.Angle(kps[pose.RightShoulder].Point(), kps[pose.RightElbow].Point(), kps[pose.RightWrist].Point())

	// Both elbows must sit near a right angle
	if math.Abs(elbowL-curlTargetDeg) < curlToleranceDeg && math.Abs(elbowR-curlTargetDeg) < curlToleranceDeg {
		return Result{Feedback: MsgCurlCorrect, Correct: true}
	}
	return Result{Feedback: MsgCurlBend}
}
