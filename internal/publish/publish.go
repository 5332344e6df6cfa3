package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/andresmejia3/formcheck/internal/form"
	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ChannelPrefix is prepended to the exercise slug to form the channel name.
const ChannelPrefix = "formcheck:feedback:"

// Event is one evaluated live frame.
type Event struct {
	Session  string `json:"session"`
	Exercise string `json:"exercise"`
	Frame    int    `json:"frame"`
	Feedback string `json:"feedback"`
	Correct  bool   `json:"correct"`
	Cue      string `json:"cue,omitempty"`
	Alarm    bool   `json:"alarm"`
}

// Publisher fans feedback events out to other consumers.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Channel returns the channel name for an exercise, e.g.
// "formcheck:feedback:shoulder-press".
func Channel(ex form.Exercise) string {
	return ChannelPrefix + strings.ReplaceAll(strings.ToLower(string(ex)), " ", "-")
}

type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Redis publishes events as JSON on a per-exercise channel.
type Redis struct {
	client redisClient
	log    *logrus.Logger
}

// RedisOptions are the connection settings for NewRedis.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// NewRedis connects and pings the server. A failed ping is returned as an
// error so callers can fall back to Nop.
func NewRedis(ctx context.Context, opts RedisOptions, log *logrus.Logger) (*Redis, error) {
	log.Info(fmt.Sprintf("Connecting to Redis at %s...", opts.Address))

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if _, err := client.Ping(ctx).Result(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	log.Info("Successfully connected to Redis")

	return &Redis{client: client, log: log}, nil
}

func (r *Redis) Publish(ctx context.Context, ev Event) error {
	payload, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(ev)
	if err != nil {
		return err
	}
	channel := Channel(form.Exercise(ev.Exercise))
	if err := r.client.Publish(ctx, channel, payload).Err(); err != nil {
		r.log.WithFields(logrus.Fields{"channel": channel, "error": err.Error()}).Warn("publish failed")
		return err
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error { return nil }
