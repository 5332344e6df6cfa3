package form

import "strings"

// Exercise identifies one of the supported exercises.
type Exercise string

const (
	Squat         Exercise = "Squat"
	ShoulderPress Exercise = "Shoulder Press"
	BicepCurl     Exercise = "Bicep Curl"
	Plank         Exercise = "Plank"
)

// Exercises returns the supported exercises in menu order.
func Exercises() []Exercise {
	return []Exercise{Squat, ShoulderPress, BicepCurl, Plank}
}

// ParseExercise resolves a user-supplied exercise name such as a query
// parameter. Matching is case-insensitive and treats '-' and '_' as spaces.
// An exact name wins; otherwise the input must be a substring of exactly one
// exercise name ("press" selects Shoulder Press, "curl" selects Bicep Curl).
func ParseExercise(s string) (Exercise, bool) {
	needle := normalizeName(s)
	if needle == "" {
		return "", false
	}

	for _, ex := range Exercises() {
		if normalizeName(string(ex)) == needle {
			return ex, true
		}
	}

	var match Exercise
	matches := 0
	for _, ex := range Exercises() {
		if strings.Contains(normalizeName(string(ex)), needle) {
			match = ex
			matches++
		}
	}
	if matches != 1 {
		return "", false
	}
	return match, true
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return strings.Join(strings.Fields(s), " ")
}
