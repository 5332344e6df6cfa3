package geometry

import (
	"math"
	"testing"
)

func TestAngle(t *testing.T) {
	tests := []struct {
		name    string
		a, b, c Point
		want    float64
	}{
		{
			name: "Right angle",
			a:    Point{100, 100},
			b:    Point{100, 150},
			c:    Point{150, 150},
			want: 90,
		},
		{
			name: "Collinear with vertex between",
			a:    Point{0, 0},
			b:    Point{5, 5},
			c:    Point{10, 10},
			want: 180,
		},
		{
			name: "Collinear with vertex outside",
			a:    Point{5, 0},
			b:    Point{0, 0},
			c:    Point{10, 0},
			want: 0,
		},
		{
			name: "Equilateral triangle",
			a:    Point{0, 0},
			b:    Point{1, 0},
			c:    Point{0.5, math.Sqrt(3) / 2},
			want: 60,
		},
		{
			name: "Obtuse",
			a:    Point{-1, 1},
			b:    Point{0, 0},
			c:    Point{1, 0},
			want: 135,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Angle(tt.a, tt.b, tt.c)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Angle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAngleSymmetryAndRange(t *testing.T) {
	triangles := [][3]Point{
		{{0, 0}, {3, 4}, {10, -2}},
		{{100, 200}, {140, 260}, {90, 330}},
		{{-5, 7}, {2, 2}, {9, 11}},
		{{1e-3, 0}, {0, 0}, {0, 1e-3}},
		{{400, 104}, {200, 105}, {100, 100}},
	}

	for _, tri := range triangles {
		ab := Angle(tri[0], tri[1], tri[2])
		cb := Angle(tri[2], tri[1], tri[0])
		if math.Abs(ab-cb) > 1e-9 {
			t.Errorf("Angle not symmetric for %v: %v vs %v", tri, ab, cb)
		}
		if ab < 0 || ab > 180 {
			t.Errorf("Angle out of range for %v: %v", tri, ab)
		}
	}
}

func TestAngleDegenerate(t *testing.T) {
	cases := [][3]Point{
		{{1, 1}, {1, 1}, {5, 5}}, // A == B
		{{5, 5}, {1, 1}, {1, 1}}, // C == B
		{{2, 2}, {2, 2}, {2, 2}}, // all coincide
	}

	for _, c := range cases {
		got := Angle(c[0], c[1], c[2])
		if !IsDegenerate(got) {
			t.Errorf("Expected degenerate angle for %v, got %v", c, got)
		}
	}
}

func TestAngleCollinearIsExact(t *testing.T) {
	cases := []struct {
		a, b, c Point
		want    float64
	}{
		{Point{0, 0}, Point{5, 5}, Point{10, 10}, 180},
		{Point{100, 200}, Point{100, 260}, Point{100, 320}, 180},
		{Point{3, 7}, Point{1, 1}, Point{2, 4}, 0},
		{Point{-2, 0}, Point{0, 0}, Point{7, 0}, 180},
	}

	for _, c := range cases {
		if got := Angle(c.a, c.b, c.c); got != c.want {
			t.Errorf("Angle(%v, %v, %v) = %v, want exactly %v", c.a, c.b, c.c, got, c.want)
		}
	}
}

func TestAngleNearlyParallel(t *testing.T) {
	a := Point{1e8, 1e8 + 1}
	b := Point{0, 0}
	c := Point{3e8, 3e8 + 3}

	got := Angle(a, b, c)
	if math.IsNaN(got) {
		t.Fatal("Angle returned NaN for non-degenerate input")
	}
	if got > 1e-3 {
		t.Errorf("Expected ~0 degrees, got %v", got)
	}
}
