package logger

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

type Fields = logrus.Fields

// Options controls where log lines go.
type Options struct {
	Env   string
	Dir   string
	Level logrus.Level
}

// New returns the process logger, building it on first use.
func New(opts Options) *logrus.Logger {
	once.Do(func() {
		logger = build(opts, os.Stderr)
	})
	return logger
}

// Get returns the process logger, or a stderr logger when New was never called.
func Get() *logrus.Logger {
	return New(Options{Env: os.Getenv("APP_ENV"), Level: logrus.InfoLevel})
}

func build(opts Options, stderr io.Writer) *logrus.Logger {
	l := logrus.New()
	level := opts.Level
	if level == 0 {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	l.SetFormatter(&formatter.Formatter{
		NoColors:        false,
		TimestampFormat: "02 Jan 06 - 15:04",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
		},
	})

	writers := []io.Writer{stderr}
	if opts.Env != "test" && opts.Dir != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, fmt.Sprintf("formcheck-%s.log", time.Now().Format("2006-01-02"))),
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}

	l.SetOutput(io.MultiWriter(writers...))
	l.SetReportCaller(true)
	return l
}

func Debug(fields Fields, msg string) {
	Get().WithFields(fields).Debug(msg)
}

func Info(fields Fields, msg string) {
	Get().WithFields(fields).Info(msg)
}

func Warn(fields Fields, msg string) {
	Get().WithFields(fields).Warn(msg)
}

func Error(fields Fields, msg string) {
	Get().WithFields(fields).Error(msg)
}
