package form

import (
	"sort"

	"github.com/andresmejia3/formcheck/internal/pose"
)

// Evaluator holds the form rule for a single exercise.
//
// Classify is only called once every Required landmark has passed the
// confidence gate. It must be a pure function of its input.
type Evaluator interface {
	Exercise() Exercise
	Required() []pose.Landmark
	SuccessMessage() string
	Classify(kps *pose.KeypointSet) Result
}

// Registry maps exercises to their evaluators.
type Registry struct {
	evaluators map[Exercise]Evaluator
	threshold  float64
}

// NewRegistry returns an empty registry gated at ClassificationThreshold.
func NewRegistry() *Registry {
	return &Registry{
		evaluators: make(map[Exercise]Evaluator),
		threshold:  ClassificationThreshold,
	}
}

// DefaultRegistry returns a registry with every built-in exercise.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(squatEvaluator{})
	r.Register(shoulderPressEvaluator{})
	r.Register(bicepCurlEvaluator{})
	r.Register(plankEvaluator{})
	return r
}

// Register adds or replaces the evaluator for e.Exercise().
func (r *Registry) Register(e Evaluator) {
	r.evaluators[e.Exercise()] = e
}

// Lookup returns the evaluator for ex.
func (r *Registry) Lookup(ex Exercise) (Evaluator, bool) {
	e, ok := r.evaluators[ex]
	return e, ok
}

// Exercises lists registered exercises sorted by name.
func (r *Registry) Exercises() []Exercise {
	out := make([]Exercise, 0, len(r.evaluators))
	for ex := range r.evaluators {
		out = append(out, ex)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Evaluate classifies a frame for ex. Unknown exercises and frames missing a
// confident required keypoint produce Fallback.
func (r *Registry) Evaluate(ex Exercise, kps *pose.KeypointSet) Result {
	if kps == nil {
		return Fallback()
	}
	e, ok := r.evaluators[ex]
	if !ok {
		return Fallback()
	}
	if !kps.AllAbove(r.threshold, e.Required()...) {
		return Fallback()
	}
	return e.Classify(kps)
}

var defaultRegistry = DefaultRegistry()

// Evaluate classifies a frame using the built-in exercises.
func Evaluate(ex Exercise, kps *pose.KeypointSet) Result {
	return defaultRegistry.Evaluate(ex, kps)
}

// Lookup returns the built-in evaluator for ex.
func Lookup(ex Exercise) (Evaluator, bool) {
	return defaultRegistry.Lookup(ex)
}
