package render

import (
	"image/color"

	"github.com/andresmejia3/formcheck/internal/form"
	"github.com/andresmejia3/formcheck/internal/geometry"
	"github.com/andresmejia3/formcheck/internal/pose"
)

// VisibilityThreshold is the looser score used only for drawing keypoints
// and skeleton edges. Classification uses form.ClassificationThreshold.
const VisibilityThreshold = 0.4

var (
	ColorCorrect   = color.RGBA{R: 0x49, G: 0xff, B: 0x6a, A: 0xff}
	ColorIncorrect = color.RGBA{R: 0xff, G: 0x32, B: 0x32, A: 0xff}
	ColorNeutral   = color.RGBA{R: 0x24, G: 0xe6, B: 0xea, A: 0xff}
)

// Joint is a filled circle.
type Joint struct {
	Center geometry.Point
	Radius float64
	Color  color.RGBA
}

// Limb is a stroked polyline.
type Limb struct {
	Path  []geometry.Point
	Width float64
	Color color.RGBA
}

// Overlay is everything drawn on top of one frame.
type Overlay struct {
	Limbs   []Limb
	Joints  []Joint
	Caption string
	// CaptionColor follows correctness: green when correct, red otherwise.
	CaptionColor color.RGBA
}

type chainStyle struct {
	chains      [][]pose.Landmark
	jointRadius float64
	lineWidth   float64
}

var exerciseChains = map[form.Exercise]chainStyle{
	form.Squat: {
		chains: [][]pose.Landmark{
			{pose.LeftHip, pose.LeftKnee, pose.LeftAnkle},
			{pose.RightHip, pose.RightKnee, pose.RightAnkle},
		},
		jointRadius: 8,
		lineWidth:   6,
	},
	form.ShoulderPress: armChains,
	form.BicepCurl:     armChains,
	form.Plank: {
		chains: [][]pose.Landmark{
			{pose.RightShoulder, pose.RightHip, pose.RightKnee, pose.RightAnkle},
		},
		jointRadius: 7,
		lineWidth:   5,
	},
}

var armChains = chainStyle{
	chains: [][]pose.Landmark{
		{pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist},
		{pose.RightShoulder, pose.RightElbow, pose.RightWrist},
	},
	jointRadius: 7,
	lineWidth:   5,
}

// skeletonEdges are the adjacent landmark pairs of the 17-point layout.
var skeletonEdges = [][2]pose.Landmark{
	{pose.Nose, pose.LeftEye},
	{pose.LeftEye, pose.RightEye},
	{pose.RightEye, pose.LeftEar},
	{pose.LeftEar, pose.RightEar},
	{pose.Nose, pose.LeftShoulder},
	{pose.Nose, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftElbow},
	{pose.LeftElbow, pose.LeftWrist},
	{pose.RightShoulder, pose.RightElbow},
	{pose.RightElbow, pose.RightWrist},
	{pose.LeftShoulder, pose.RightShoulder},
	{pose.LeftShoulder, pose.LeftHip},
	{pose.RightShoulder, pose.RightHip},
	{pose.LeftHip, pose.RightHip},
	{pose.LeftHip, pose.LeftKnee},
	{pose.LeftKnee, pose.LeftAnkle},
	{pose.RightHip, pose.RightKnee},
	{pose.RightKnee, pose.RightAnkle},
}

const (
	fallbackRadius = 5
	skeletonWidth  = 2
)

// Plan computes the overlay for a frame. A classified frame highlights the
// exercise's joints in the result color; an unclassified frame shows every
// visible keypoint as a neutral dot. Visible skeleton edges are always drawn.
func Plan(ex form.Exercise, kps *pose.KeypointSet, r form.Result) Overlay {
	o := Overlay{Caption: r.Feedback, CaptionColor: resultColor(r)}
	if kps == nil {
		return o
	}

	style, known := exerciseChains[ex]
	if known && !r.IsFallback() {
		c := resultColor(r)
		for _, chain := range style.chains {
			path := make([]geometry.Point, 0, len(chain))
			for _, l := range chain {
				path = append(path, kps[l].Point())
				o.Joints = append(o.Joints, Joint{Center: kps[l].Point(), Radius: style.jointRadius, Color: c})
			}
			o.Limbs = append(o.Limbs, Limb{Path: path, Width: style.lineWidth, Color: c})
		}
	} else {
		for _, k := range kps {
			if k.Score > VisibilityThreshold {
				o.Joints = append(o.Joints, Joint{Center: k.Point(), Radius: fallbackRadius, Color: ColorNeutral})
			}
		}
	}

	for _, e := range skeletonEdges {
		a, b := kps[e[0]], kps[e[1]]
		if a.Score > VisibilityThreshold && b.Score > VisibilityThreshold {
			o.Limbs = append(o.Limbs, Limb{
				Path:  []geometry.Point{a.Point(), b.Point()},
				Width: skeletonWidth,
				Color: ColorNeutral,
			})
		}
	}
	return o
}

func resultColor(r form.Result) color.RGBA {
	if r.Correct {
		return ColorCorrect
	}
	return ColorIncorrect
}
