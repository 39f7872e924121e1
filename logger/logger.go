package logger

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Logger is a structured logger backed by zerolog. The zero value is not
// usable; obtain one from Get, NewWriter or NewNop.
type Logger struct {
	zl zerolog.Logger
}

var (
	mu     sync.RWMutex
	global *Logger
)

// Init replaces the process-wide logger. Loggers handed out by Get before
// Init keep writing to the previous sink.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	l := build(cfg, sink(cfg.Output))
	mu.Lock()
	global = l
	mu.Unlock()
}

// GetGlobalLogger returns the process-wide logger, building one from the
// default configuration if Init was never called.
func GetGlobalLogger() *Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		var cfg Config
		cfg.ApplyDefaults()
		global = build(cfg, sink(cfg.Output))
	}
	return global
}

// Get returns the process-wide logger tagged with a component name.
func Get(component string) *Logger {
	return GetGlobalLogger().WithComponent(component)
}

// NewWriter returns a JSON logger writing to w at the given level. Unknown
// levels fall back to info.
func NewWriter(w io.Writer, level string) *Logger {
	return &Logger{zl: zerolog.New(w).Level(parseLevel(level))}
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

func build(cfg Config, w io.Writer) *Logger {
	if cfg.Format == FormatConsole {
		w = zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor, TimeFormat: "15:04:05"}
	}
	zc := zerolog.New(w).Level(parseLevel(cfg.Level)).With()
	if cfg.ServiceName != "" {
		zc = zc.Str(FieldService, cfg.ServiceName)
	}
	if !cfg.NoTimestamp {
		zc = zc.Timestamp()
	}
	if cfg.Caller {
		// one extra frame for the Logger method wrapping zerolog.Event.Msg
		zc = zc.CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1)
	}
	return &Logger{zl: zc.Logger()}
}

func sink(output string) io.Writer {
	if output == OutputStdout {
		return os.Stdout
	}
	return os.Stderr
}

func parseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		return zerolog.InfoLevel
	}
	return lvl
}

// WithComponent returns a child logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{zl: l.zl.With().Str(FieldComponent, name).Logger()}
}

// WithFields returns a child logger carrying fields on every entry.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l *Logger) Debug(msg string, fields ...map[string]any) { emit(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...map[string]any)  { emit(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...map[string]any)  { emit(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...map[string]any) { emit(l.zl.Error(), msg, fields) }

// Info logs through the process-wide logger.
func Info(msg string, fields ...map[string]any) { GetGlobalLogger().Info(msg, fields...) }

// Warn logs through the process-wide logger.
func Warn(msg string, fields ...map[string]any) { GetGlobalLogger().Warn(msg, fields...) }

func emit(e *zerolog.Event, msg string, fields []map[string]any) {
	if e == nil {
		return
	}
	for _, f := range fields {
		e.Fields(f)
	}
	e.Msg(msg)
}
