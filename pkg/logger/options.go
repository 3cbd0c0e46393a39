package logger

import (
	"io"
	"log/slog"
)

// settings holds Init-time configuration.
type settings struct {
	writer io.Writer
	level  slog.Level
}

// Option applies a configuration option to Init.
type Option func(*settings)

// WithWriter directs log output to w instead of stdout.
func WithWriter(w io.Writer) Option {
	return func(s *settings) {
		if w != nil {
			s.writer = w
		}
	}
}

// WithLevel sets the initial logging level.
func WithLevel(level slog.Level) Option {
	return func(s *settings) {
		s.level = level
	}
}
