package icall

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// LogLevel represents different levels of logging detail
type LogLevel int

const (
	LogLevelSilent LogLevel = iota
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

// ParseLogLevel maps a verbosity count (the number of -v flags) to a level.
func ParseLogLevel(verbosity int) LogLevel {
	switch {
	case verbosity <= 0:
		return LogLevelSilent
	case verbosity == 1:
		return LogLevelInfo
	case verbosity == 2:
		return LogLevelDebug
	default:
		return LogLevelTrace
	}
}

// Logger provides leveled logging for audit runs.
type Logger struct {
	level  LogLevel
	writer io.Writer
	prefix string
}

type loggerKey struct{}

// NewLogger creates a new logger with the specified level and output,
// defaulting to stderr.
func NewLogger(level LogLevel, writer io.Writer) *Logger {
	if writer == nil {
		writer = os.Stderr
	}
	return &Logger{
		level:  level,
		writer: writer,
	}
}

// Level returns the level of the logger.
func (l *Logger) Level() LogLevel {
	return l.level
}

// WithPrefix returns a new logger with an additional prefix
func (l *Logger) WithPrefix(prefix string) *Logger {
	newPrefix := prefix
	if l.prefix != "" {
		newPrefix = l.prefix + " " + prefix
	}
	return &Logger{
		level:  l.level,
		writer: l.writer,
		prefix: newPrefix,
	}
}

// Info logs informational messages.
func (l *Logger) Info(format string, args ...any) {
	if l.level >= LogLevelInfo {
		l.log("•", format, args...)
	}
}

// Debug logs debug messages.
func (l *Logger) Debug(format string, args ...any) {
	if l.level >= LogLevelDebug {
		l.log("→", format, args...)
	}
}

// Trace logs per-item messages, visible only in trace mode.
func (l *Logger) Trace(format string, args ...any) {
	if l.level >= LogLevelTrace {
		l.log("·", format, args...)
	}
}

// Step logs a completed processing step with optional details.
func (l *Logger) Step(step string, details ...string) {
	if l.level >= LogLevelInfo {
		msg := step
		if len(details) > 0 {
			msg += ": " + strings.Join(details, ", ")
		}
		l.log("✓", "%s", msg)
	}
}

// Warning logs warning messages
func (l *Logger) Warning(format string, args ...any) {
	if l.level >= LogLevelInfo {
		l.log("⚠", format, args...)
	}
}

// Error logs error messages
func (l *Logger) Error(format string, args ...any) {
	if l.level >= LogLevelInfo {
		l.log("✗", format, args...)
	}
}

func (l *Logger) log(symbol, format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	prefix := ""
	if l.prefix != "" {
		prefix = "[" + l.prefix + "] "
	}
	fmt.Fprintf(l.writer, "%s %s%s\n", symbol, prefix, message)
	if f, ok := l.writer.(interface{ Flush() error }); ok {
		_ = f.Flush()
	}
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext retrieves a logger from the context, returning a silent
// logger if none exists.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerKey{}).(*Logger); ok {
		return logger
	}
	return NewLogger(LogLevelSilent, io.Discard)
}

// ProgressTracker reports progress of a long running operation at most
// once per interval, and every item at trace level. It is not safe for
// concurrent use.
type ProgressTracker struct {
	name      string
	total     int
	current   int
	startTime time.Time
	lastLog   time.Time
	interval  time.Duration
	logger    *Logger
	done      bool
}

// NewProgressTracker creates a new progress tracker using the logger
// of ctx.
func NewProgressTracker(ctx context.Context, name string, total int) *ProgressTracker {
	logger := FromContext(ctx)

	interval := time.Second
	if total > 1000 {
		interval = 3 * time.Second
	}

	now := time.Now()
	pt := &ProgressTracker{
		name:      name,
		total:     total,
		startTime: now,
		lastLog:   now,
		interval:  interval,
		logger:    logger,
	}

	if total > 10 {
		logger.Info("starting %s (%d items)", name, total)
	}

	return pt
}

// Update counts one more processed item.
func (pt *ProgressTracker) Update(item string) {
	pt.current++
	pt.logger.Trace("%s (%d/%d): %s", pt.name, pt.current, pt.total, item)

	now := time.Now()
	if pt.current >= pt.total || now.Sub(pt.lastLog) < pt.interval {
		return
	}
	pt.lastLog = now

	percent := float64(pt.current) / float64(pt.total) * 100
	pt.logger.Info("▶ %s: %d/%d (%.0f%%)", pt.name, pt.current, pt.total, percent)
}

// Complete marks the operation as finished; only the first call logs.
func (pt *ProgressTracker) Complete() {
	if pt.done {
		return
	}
	pt.done = true
	elapsed := time.Since(pt.startTime)
	pt.logger.Step(fmt.Sprintf("%s complete", pt.name), fmt.Sprintf("%d items in %v", pt.current, elapsed.Truncate(10*time.Millisecond)))
}
