package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Error is a handler failure that maps to a specific HTTP status.
type Error struct {
	Code int
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{code, errors.New(err)}
}

var (
	ErrStoreUnavailable = NewError(fiber.StatusServiceUnavailable, "session store not configured")
	ErrSessionNotFound  = NewError(fiber.StatusNotFound, "session not found")
	ErrUnknownExercise  = NewError(fiber.StatusBadRequest, "unknown exercise")
	ErrInvalidSessionID = NewError(fiber.StatusBadRequest, "invalid session id")
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func errorHandler(log *logrus.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		var respErr *Error
		var fiberErr *fiber.Error
		switch {
		case errors.As(err, &respErr):
			code = respErr.Code
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
		}

		fields := logrus.Fields{
			"request_id": requestID(c),
			"error":      err.Error(),
			"code":       code,
			"path":       c.Path(),
		}
		if code >= fiber.StatusInternalServerError {
			log.WithFields(fields).Error("request failed")
		} else {
			log.WithFields(fields).Warn("request rejected")
		}

		return c.Status(code).JSON(ErrorResponse{Error: err.Error(), RequestID: requestID(c)})
	}
}
