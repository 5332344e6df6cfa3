package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults applied when the environment leaves a setting empty.
const (
	DefaultPort       = "3000"
	DefaultLogDir     = "./storage/logs"
	DefaultLiveMaxFPS = 30
	DefaultPoseScript = "python/pose_worker.py"
	DefaultDatabase   = "postgres://localhost:5432/formcheck"
)

// Config is the process-wide settings read from .env and the environment.
type Config struct {
	AppEnv           string
	AppPort          string
	LogDir           string
	DatabaseURL      string
	RedisAddress     string
	RedisPassword    string
	RedisDB          int
	LiveMaxFPS       float64
	PoseWorkerScript string
}

// Load reads .env when present and then the process environment.
// A missing .env file is not an error.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment only.
func FromEnv() (*Config, error) {
	cfg := &Config{
		AppEnv:           os.Getenv("APP_ENV"),
		AppPort:          getenv("APP_PORT", DefaultPort),
		LogDir:           getenv("LOG_DIR", DefaultLogDir),
		DatabaseURL:      DatabaseURL(),
		RedisAddress:     os.Getenv("REDIS_ADDRESS"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		LiveMaxFPS:       DefaultLiveMaxFPS,
		PoseWorkerScript: getenv("POSE_WORKER_SCRIPT", DefaultPoseScript),
	}

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		cfg.RedisDB = db
	}

	if v := os.Getenv("LIVE_MAX_FPS"); v != "" {
		fps, err := strconv.ParseFloat(v, 64)
		if err != nil || fps <= 0 {
			return nil, fmt.Errorf("invalid LIVE_MAX_FPS %q", v)
		}
		cfg.LiveMaxFPS = fps
	}

	return cfg, nil
}

// DatabaseURL resolves the connection string: DATABASE_URL first, then the
// POSTGRES_* variables, then a local default.
func DatabaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	if host := os.Getenv("POSTGRES_HOST"); host != "" {
		u := url.URL{
			Scheme: "postgres",
			Host:   net.JoinHostPort(host, getenv("POSTGRES_PORT", "5432")),
			Path:   "/" + os.Getenv("POSTGRES_DB"),
		}
		user := os.Getenv("POSTGRES_USER")
		if pass := os.Getenv("POSTGRES_PASSWORD"); pass != "" {
			u.User = url.UserPassword(user, pass)
		} else if user != "" {
			u.User = url.User(user)
		}
		return u.String()
	}
	return DefaultDatabase
}

// IsTest reports whether the process runs under APP_ENV=test.
func (c *Config) IsTest() bool {
	return c.AppEnv == "test"
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
