package server

import (
	"context"
	"time"

	"github.com/andresmejia3/formcheck/internal/form"
	"github.com/andresmejia3/formcheck/internal/pose"
	"github.com/andresmejia3/formcheck/internal/publish"
	"github.com/andresmejia3/formcheck/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	liveExerciseKey = "exercise"
	maxReadTimeout  = 60 * time.Second
	writeTimeout    = 10 * time.Second
	publishTimeout  = time.Second
)

type liveDropped struct {
	Frame   int  `json:"frame"`
	Dropped bool `json:"dropped"`
}

type liveError struct {
	Frame int    `json:"frame"`
	Error string `json:"error"`
}

// upgradeLive validates the exercise before the websocket handshake.
func (s *Server) upgradeLive(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	ex, ok := form.ParseExercise(c.Query("exercise"))
	if !ok {
		return ErrUnknownExercise
	}
	if _, ok := s.registry.Lookup(ex); !ok {
		return ErrUnknownExercise
	}
	c.Locals(liveExerciseKey, ex)
	c.Locals("request_id", requestID(c))
	return c.Next()
}

func (s *Server) liveHandler() fiber.Handler {
	return websocket.New(s.handleLive)
}

func (s *Server) handleLive(c *websocket.Conn) {
	ex, _ := c.Locals(liveExerciseKey).(form.Exercise)
	tracker := session.NewTracker(ex)
	limiter := rate.NewLimiter(rate.Limit(s.maxFPS), s.burst)

	log := s.log.WithFields(logrus.Fields{
		"session":    tracker.ID.String(),
		"exercise":   string(ex),
		"request_id": c.Locals("request_id"),
	})
	log.Info("live client connected")
	defer func() {
		sum := tracker.Summary()
		log.WithFields(logrus.Fields{
			"frames":      sum.Frames,
			"correct":     sum.Correct,
			"transitions": sum.Transitions,
		}).Info("live client disconnected")
	}()

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	frame := 0
	for {
		if err := c.SetReadDeadline(time.Now().Add(maxReadTimeout)); err != nil {
			log.Errorf("Error setting read deadline: %v", err)
			return
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Errorf("live websocket error: %v", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		idx := frame
		frame++

		var reply any
		if !limiter.Allow() {
			reply = liveDropped{Frame: idx, Dropped: true}
		} else if f, err := pose.ParseFrame(message, idx); err != nil {
			reply = liveError{Frame: idx, Error: err.Error()}
		} else {
			reply = s.observe(tracker, idx, f)
		}

		if err := c.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			log.Errorf("Error setting write deadline: %v", err)
			return
		}
		if err := c.WriteJSON(reply); err != nil {
			log.Errorf("Error writing JSON response: %v", err)
			return
		}
	}
}

// observe evaluates one live frame, advances the tracker and publishes the event.
// The frame index reported is the server's count, not any index in the message.
func (s *Server) observe(t *session.Tracker, idx int, f pose.Frame) session.Reply {
	r := form.NoPose()
	if f.Detected {
		r = s.registry.Evaluate(t.Exercise, &f.Keypoints)
	}
	obs := t.ObserveFrame(idx, r)

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	_ = s.publisher.Publish(ctx, publish.Event{
		Session:  t.ID.String(),
		Exercise: string(t.Exercise),
		Frame:    obs.Frame,
		Feedback: r.Feedback,
		Correct:  r.Correct,
		Cue:      string(obs.Cue),
		Alarm:    obs.Alarm,
	})

	return obs.Reply()
}
