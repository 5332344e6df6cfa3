package geometry

import "math"

// Point is a 2D location in frame pixel coordinates.
type Point struct {
	X float64
	Y float64
}

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dot returns the dot product of p and q treated as vectors.
func (p Point) Dot(q Point) float64 {
	return p.X*q.X + p.Y*q.Y
}

// Cross returns the z component of the cross product of p and q.
func (p Point) Cross(q Point) float64 {
	return p.X*q.Y - p.Y*q.X
}

// Norm returns the length of p treated as a vector.
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// Angle returns the angle ABC in degrees, in the range [0, 180].
//
// If A or C coincides with the vertex B the angle is undefined and Angle
// returns NaN. Every comparison against NaN is false, so callers that check
// an angle against a range treat a degenerate angle as out of range.
func Angle(a, b, c Point) float64 {
	ba := a.Sub(b)
	bc := c.Sub(b)

	if ba.Norm() == 0 || bc.Norm() == 0 {
		return math.NaN()
	}

	// atan2 of |cross| and dot stays in [0, π] and is exact for collinear points
	cross := math.Abs(ba.Cross(bc))
	return math.Atan2(cross, ba.Dot(bc)) * 180 / math.Pi
}

// IsDegenerate reports whether an angle returned by Angle is the degenerate sentinel.
func IsDegenerate(angle float64) bool {
	return math.IsNaN(angle)
}
