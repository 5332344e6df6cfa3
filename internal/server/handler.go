package server

import (
	"errors"
	"fmt"

	"github.com/andresmejia3/formcheck/internal/form"
	"github.com/andresmejia3/formcheck/internal/pose"
	"github.com/andresmejia3/formcheck/internal/store"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// ExerciseInfo describes one supported exercise.
type ExerciseInfo struct {
	Name      string   `json:"name"`
	Keypoints []string `json:"keypoints"`
	Threshold float64  `json:"threshold"`
	Success   string   `json:"success"`
}

// EvaluateRequest is the body of POST /api/v1/evaluate.
type EvaluateRequest struct {
	Exercise  string          `json:"exercise" validate:"required"`
	Keypoints []pose.Keypoint `json:"keypoints" validate:"max=17"`
}

// SessionDetail is a stored session with its transition timeline.
type SessionDetail struct {
	store.Session
	Transitions []store.FrameResult `json:"timeline"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) listExercises(c *fiber.Ctx) error {
	var out []ExerciseInfo
	for _, ex := range form.Exercises() {
		e, ok := s.registry.Lookup(ex)
		if !ok {
			continue
		}
		info := ExerciseInfo{
			Name:      string(ex),
			Threshold: form.ClassificationThreshold,
			Success:   e.SuccessMessage(),
		}
		for _, l := range e.Required() {
			info.Keypoints = append(info.Keypoints, l.String())
		}
		out = append(out, info)
	}
	return c.JSON(out)
}

func (s *Server) evaluate(c *fiber.Ctx) error {
	var req EvaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return &Error{fiber.StatusBadRequest, fmt.Errorf("invalid request body: %w", err)}
	}
	if err := s.validate.Struct(req); err != nil {
		return &Error{fiber.StatusBadRequest, err}
	}

	kps, err := pose.FromSlice(req.Keypoints)
	if err != nil {
		return &Error{fiber.StatusBadRequest, err}
	}

	// An unknown exercise is not a request error: it evaluates to the fallback result.
	ex, ok := form.ParseExercise(req.Exercise)
	if !ok {
		ex = form.Exercise(req.Exercise)
	}
	return c.JSON(s.registry.Evaluate(ex, &kps))
}

func (s *Server) listSessions(c *fiber.Ctx) error {
	if s.store == nil {
		return ErrStoreUnavailable
	}
	limit := c.QueryInt("limit", 20)
	sessions, err := s.store.ListSessions(c.UserContext(), limit)
	if err != nil {
		return err
	}
	if sessions == nil {
		sessions = []store.Session{}
	}
	return c.JSON(sessions)
}

func (s *Server) getSession(c *fiber.Ctx) error {
	if s.store == nil {
		return ErrStoreUnavailable
	}
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return ErrInvalidSessionID
	}

	sess, err := s.store.GetSession(c.UserContext(), id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrSessionNotFound
	}
	if err != nil {
		return err
	}
	transitions, err := s.store.GetTransitions(c.UserContext(), id)
	if err != nil {
		return err
	}
	if transitions == nil {
		transitions = []store.FrameResult{}
	}
	return c.JSON(SessionDetail{Session: sess, Transitions: transitions})
}
