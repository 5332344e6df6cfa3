package form

import (
	"math"

	"github.com/andresmejia3/formcheck/internal/geometry"
	"github.com/andresmejia3/formcheck/internal/pose"
)

const (
	MsgPlankCorrect  = "Perfect plank! Body and legs are straight."
	MsgPlankGetDown  = "Bend down to plank position!"
	MsgPlankHipsSag  = "Don't let your hips sag—keep body straight!"
	MsgPlankHipsHigh = "Don't raise your hips too high!"
	MsgPlankLegs     = "Keep your legs straight in plank!"
	MsgPlankAdjust   = "Adjust position for a better plank!"
)

const (
	plankMinHipDeg    = 160.0
	plankMaxHipDeg    = 175.0
	plankMinKneeDeg   = 170.0
	plankMaxKneeDeg   = 180.0
	plankUprightRatio = 2.0
)

// plankEvaluator only inspects the right side of the body. The left chain
// is symmetric but is not checked.
type plankEvaluator struct{}

func (plankEvaluator) Exercise() Exercise { return Plank }

func (plankEvaluator) SuccessMessage() string { return MsgPlankCorrect }

func (plankEvaluator) Required() []pose.Landmark {
	return []pose.Landmark{pose.RightShoulder, pose.RightHip, pose.RightKnee, pose.RightAnkle}
}

func (plankEvaluator) Classify(kps *pose.KeypointSet) Result {
	shoulder, hip := kps[pose.RightShoulder], kps[pose.RightHip]
	knee, ankle := kps[pose.RightKnee], kps[pose.RightAnkle]

	hipAngle := geometry.Angle(shoulder.Point(), hip.Point(), ankle.Point())
	kneeAngle := geometry.Angle(hip.Point(), knee.Point(), ankle.Point())

	// Torso closer to vertical than horizontal means the user is still standing
	upright := math.Abs(shoulder.Y-hip.Y) > math.Abs(shoulder.X-hip.X)*plankUprightRatio

	switch {
	case upright:
		return Result{Feedback: MsgPlankGetDown}
	case inClosed(hipAngle, plankMinHipDeg, plankMaxHipDeg) && inClosed(kneeAngle, plankMinKneeDeg, plankMaxKneeDeg):
		return Result{Feedback: MsgPlankCorrect, Correct: true}
	case hipAngle < plankMinHipDeg:
		return Result{Feedback: MsgPlankHipsSag}
	case hipAngle > plankMaxHipDeg:
		return Result{Feedback: MsgPlankHipsHigh}
	case kneeAngle < plankMinKneeDeg:
		return Result{Feedback: MsgPlankLegs}
	default:
		// Reached only when an angle is degenerate
		return Result{Feedback: MsgPlankAdjust}
	}
}
