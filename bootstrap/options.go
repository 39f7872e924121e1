package bootstrap

import (
	"io"
	"time"

	"github.com/kbukum/profilewizard/logger"
)

const defaultGracefulTimeout = 15 * time.Second

// Option tunes an App. Options do not depend on the config type.
type Option func(*settings)

type settings struct {
	log             *logger.Logger
	gracefulTimeout time.Duration
	summary         io.Writer
}

// WithLogger replaces the logger built from the config's logging section.
func WithLogger(l *logger.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithGracefulTimeout bounds the OnStop hooks and component shutdown together.
func WithGracefulTimeout(d time.Duration) Option {
	return func(s *settings) { s.gracefulTimeout = d }
}

// WithSummaryOutput sets where the startup summary is written. Without it the
// summary is discarded.
func WithSummaryOutput(w io.Writer) Option {
	return func(s *settings) { s.summary = w }
}
