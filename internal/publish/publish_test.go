package publish

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/andresmejia3/formcheck/internal/form"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type mockClient struct {
	channel string
	message []byte
	err     error
	closed  bool
}

func (m *mockClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	m.channel = channel
	m.message, _ = message.([]byte)
	cmd := redis.NewIntCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
	} else {
		cmd.SetVal(1)
	}
	return cmd
}

func (m *mockClient) Close() error {
	m.closed = true
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestChannel(t *testing.T) {
	tests := map[form.Exercise]string{
		form.Squat:         "formcheck:feedback:squat",
		form.ShoulderPress: "formcheck:feedback:shoulder-press",
		form.BicepCurl:     "formcheck:feedback:bicep-curl",
		form.Plank:         "formcheck:feedback:plank",
	}
	for ex, want := range tests {
		if got := Channel(ex); got != want {
			t.Errorf("Channel(%q) = %q, want %q", ex, got, want)
		}
	}
}

func TestRedisPublish(t *testing.T) {
	mock := &mockClient{}
	r := &Redis{client: mock, log: quietLogger()}

	ev := Event{Session: "s1", Exercise: "Bicep Curl", Frame: 4, Feedback: form.MsgCurlCorrect, Correct: true, Cue: "success"}
	if err := r.Publish(context.Background(), ev); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	if mock.channel != "formcheck:feedback:bicep-curl" {
		t.Errorf("Unexpected channel %q", mock.channel)
	}

	var got Event
	if err := jsoniter.Unmarshal(mock.message, &got); err != nil {
		t.Fatalf("Payload is not JSON: %v", err)
	}
	if got != ev {
		t.Errorf("Expected %+v, got %+v", ev, got)
	}

	if err := r.Close(); err != nil || !mock.closed {
		t.Error("Expected Close to close the client")
	}
}

func TestRedisPublishError(t *testing.T) {
	mock := &mockClient{err: errors.New("connection refused")}
	r := &Redis{client: mock, log: quietLogger()}

	if err := r.Publish(context.Background(), Event{Exercise: "Plank"}); err == nil {
		t.Error("Expected error, got nil")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), Event{}); err != nil {
		t.Errorf("Nop.Publish returned %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("Nop.Close returned %v", err)
	}
}
