package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level represents the logging level
type Level int

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string ("debug", "info", ...) to a Level.
// Unknown values fall back to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	default:
		return INFO
	}
}

// Config configures the logger and its file rotation
type Config struct {
	// Filename is the file to write logs to; "", "-" and "stdout" mean stdout
	Filename string

	MaxSize    int // megabytes before rotation
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	LocalTime  bool

	// Level is the minimum logging level
	Level Level

	// Output overrides the destination (tests)
	Output io.Writer
}

// DefaultConfig returns rotation defaults for the given file
func DefaultConfig(filename string) Config {
	return Config{
		Filename:   filename,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
		LocalTime:  true,
		Level:      INFO,
	}
}

// Logger writes levelled lines with key=value fields
type Logger struct {
	out     *log.Logger
	level   *levelVar
	fields  map[string]any
	rotator *lumberjack.Logger
}

type levelVar struct {
	mu sync.RWMutex
	l  Level
}

func (v *levelVar) get() Level {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.l
}

func (v *levelVar) set(l Level) {
	v.mu.Lock()
	v.l = l
	v.mu.Unlock()
}

// NewWithConfig creates a logger from cfg
func NewWithConfig(cfg Config) (*Logger, error) {
	l := &Logger{
		level:  &levelVar{l: cfg.Level},
		fields: map[string]any{},
	}

	switch {
	case cfg.Output != nil:
		l.out = log.New(cfg.Output, "", 0)
	case cfg.Filename == "" || cfg.Filename == "-" || cfg.Filename == "stdout":
		l.out = log.New(os.Stdout, "", 0)
	default:
		dir := filepath.Dir(cfg.Filename)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
		l.rotator = &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  cfg.LocalTime,
		}
		l.out = log.New(l.rotator, "", 0)
	}

	return l, nil
}

// New creates a rotating file logger, falling back to stdout
func New(logfile string) *Logger {
	l, err := NewWithConfig(DefaultConfig(logfile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to create log file %s: %v. Falling back to stdout.\n", logfile, err)
		l, _ = NewWithConfig(Config{Output: os.Stdout, Level: INFO})
	}
	return l
}

// Rotate forces a rotation of the log file
func (l *Logger) Rotate() error {
	if l.rotator != nil {
		return l.rotator.Rotate()
	}
	return nil
}

func (l *Logger) Close() error {
	if l.rotator != nil {
		return l.rotator.Close()
	}
	return nil
}

// SetLevel changes the level for this logger and every logger derived from it
func (l *Logger) SetLevel(level Level) {
	l.level.set(level)
}

// SetOutput redirects output, disabling rotation
func (l *Logger) SetOutput(w io.Writer) {
	l.out.SetOutput(w)
	l.rotator = nil
}

func (l *Logger) derive(extra map[string]any) *Logger {
	fields := make(map[string]any, len(l.fields)+len(extra))
	for k, v := range l.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return &Logger{out: l.out, level: l.level, fields: fields, rotator: l.rotator}
}

func (l *Logger) WithField(key string, value any) *Logger {
	return l.derive(map[string]any{key: value})
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	return l.derive(fields)
}

func (l *Logger) WithError(err error) *Logger {
	return l.WithField("error", err)
}

// WithUserID tags entries with the session user
func (l *Logger) WithUserID(userID int64) *Logger {
	return l.WithField("user_id", userID)
}

// WithComponent tags entries with the emitting subsystem (transport, router, ...)
func (l *Logger) WithComponent(name string) *Logger {
	return l.WithField("component", name)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

func (l *Logger) log(level Level, msg string, args ...any) {
	if level < l.level.get() {
		return
	}

	message := msg
	if len(args) > 0 {
		message = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(time.Now().Format("2006-01-02 15:04:05.000"))
	b.WriteString("] ")
	b.WriteString(level.String())
	b.WriteString(": ")
	b.WriteString(message)

	if len(l.fields) > 0 {
		keys := make([]string, 0, len(l.fields))
		for k := range l.fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(" | ")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(formatValue(l.fields[k]))
		}
	}

	l.out.Println(b.String())
}

// Printf lets the logger stand in where a printf-style logger is expected
func (l *Logger) Printf(format string, args ...any) {
	l.log(INFO, format, args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(DEBUG, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(INFO, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(WARN, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(ERROR, msg, args...) }

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
)

func init() {
	defaultLogger, _ = NewWithConfig(Config{Output: os.Stdout, Level: INFO})
}

// SetDefault replaces the package-level logger
func SetDefault(l *Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}

func GetDefault() *Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

func Info(msg string, args ...any)  { GetDefault().Info(msg, args...) }
func Warn(msg string, args ...any)  { GetDefault().Warn(msg, args...) }
func Error(msg string, args ...any) { GetDefault().Error(msg, args...) }
func Debug(msg string, args ...any) { GetDefault().Debug(msg, args...) }

func WithField(key string, value any) *Logger {
	return GetDefault().WithField(key, value)
}

func WithFields(fields map[string]any) *Logger {
	return GetDefault().WithFields(fields)
}

func WithError(err error) *Logger {
	return GetDefault().WithError(err)
}

func WithComponent(name string) *Logger {
	return GetDefault().WithComponent(name)
}

func WithUserID(userID int64) *Logger {
	return GetDefault().WithUserID(userID)
}
