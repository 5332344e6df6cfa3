package session

import "sort"

// Summary aggregates a session's frame results.
type Summary struct {
	Frames        int            `json:"frames"`
	Classified    int            `json:"classified"`
	Correct       int            `json:"correct"`
	Transitions   int            `json:"transitions"`
	LongestStreak int            `json:"longest_streak"`
	Feedback      map[string]int `json:"feedback"`
}

// CorrectRatio is the share of classified frames that were correct.
func (s Summary) CorrectRatio() float64 {
	if s.Classified == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Classified)
}

// FeedbackCount is one row of TopFeedback.
type FeedbackCount struct {
	Message string
	Count   int
}

// TopFeedback returns feedback messages ordered by frequency, ties broken by message.
func (s Summary) TopFeedback() []FeedbackCount {
	out := make([]FeedbackCount, 0, len(s.Feedback))
	for msg, n := range s.Feedback {
		out = append(out, FeedbackCount{Message: msg, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Message < out[j].Message
	})
	return out
}
