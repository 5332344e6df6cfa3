package session

import (
	"time"

	"github.com/andresmejia3/formcheck/internal/form"
	"github.com/google/uuid"
)

// Cue is a one-shot feedback effect fired when correctness changes.
type Cue string

const (
	CueNone    Cue = ""
	CueSuccess Cue = "success" // incorrect -> correct
	CueError   Cue = "error"   // correct -> incorrect
)

// Observation is what the tracker reports back for one frame.
type Observation struct {
	Frame  int         `json:"frame"`
	Result form.Result `json:"result"`
	Cue    Cue         `json:"cue,omitempty"`
	// Alarm is true while the latest frame was classified and found incorrect.
	Alarm bool `json:"alarm"`
}

// Reply is the flat per-frame message sent to live clients and printed by
// the CLI in JSON mode.
type Reply struct {
	Frame    int    `json:"frame"`
	Feedback string `json:"feedback"`
	Correct  bool   `json:"correct"`
	Cue      Cue    `json:"cue"`
	Alarm    bool   `json:"alarm"`
}

// Reply flattens the observation for the wire.
func (o Observation) Reply() Reply {
	return Reply{
		Frame:    o.Frame,
		Feedback: o.Result.Feedback,
		Correct:  o.Result.Correct,
		Cue:      o.Cue,
		Alarm:    o.Alarm,
	}
}

// Tracker owns the cross-frame state of one exercise session: the previous
// frame's correctness and running statistics. Evaluation itself stays in
// package form; the tracker only sees its results.
//
// A Tracker is not safe for concurrent use. Feed it frames in order.
type Tracker struct {
	ID       uuid.UUID
	Exercise form.Exercise
	Started  time.Time

	lastCorrect bool
	alarm       bool
	frames      int
	stats       Summary
	streak      int
}

// NewTracker starts a session for ex.
func NewTracker(ex form.Exercise) *Tracker {
	t := &Tracker{
		ID:       uuid.New(),
		Exercise: ex,
		Started:  time.Now().UTC(),
	}
	t.stats.Feedback = make(map[string]int)
	return t
}

// Observe records the result for the next frame and returns the cue to fire.
// Frames are numbered from 0 in call order.
func (t *Tracker) Observe(r form.Result) Observation {
	frame := t.frames
	return t.ObserveFrame(frame, r)
}

// ObserveFrame is Observe with an explicit frame index, for pipelines that
// skip frames.
func (t *Tracker) ObserveFrame(frame int, r form.Result) Observation {
	t.frames = frame + 1

	cue := CueNone
	switch {
	case r.Correct && !t.lastCorrect:
		cue = CueSuccess
	case !r.Correct && t.lastCorrect:
		cue = CueError
	}
	t.lastCorrect = r.Correct
	t.alarm = !r.Correct && !r.IsFallback()

	t.record(r, cue)

	return Observation{Frame: frame, Result: r, Cue: cue, Alarm: t.alarm}
}

// LastCorrect reports whether the most recent frame was correct.
func (t *Tracker) LastCorrect() bool {
	return t.lastCorrect
}

// Alarm reports whether the most recent frame was classified as incorrect.
func (t *Tracker) Alarm() bool {
	return t.alarm
}

// Reset clears the edge-trigger state, as when the user stops and restarts
// the exercise. Statistics are kept.
func (t *Tracker) Reset() {
	t.lastCorrect = false
	t.alarm = false
	t.streak = 0
}

// Summary returns a snapshot of the session statistics.
func (t *Tracker) Summary() Summary {
	s := t.stats
	s.Feedback = make(map[string]int, len(t.stats.Feedback))
	for k, v := range t.stats.Feedback {
		s.Feedback[k] = v
	}
	return s
}

func (t *Tracker) record(r form.Result, cue Cue) {
	t.stats.Frames++
	t.stats.Feedback[r.Feedback]++
	if !r.IsFallback() {
		t.stats.Classified++
	}
	if cue != CueNone {
		t.stats.Transitions++
	}

	if r.Correct {
		t.stats.Correct++
		t.streak++
		if t.streak > t.stats.LongestStreak {
			t.stats.LongestStreak = t.streak
		}
	} else {
		t.streak = 0
	}
}
