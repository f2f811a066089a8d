// Package log provides structured logging with dialog session context.
//
// Two logger variants are available:
//   - Logger: Non-sugared zap.Logger for core paths (structured fields)
//   - SugaredLogger: Printf-style logging for CLI/debug surfaces
//
// Use Logger.Sugar() to obtain a SugaredLogger when needed.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Meta identifies the component and session a logger reports for.
// Empty fields are omitted from log entries.
type Meta struct {
	App        string
	SessionID  string
	Mode       string
	TraceLevel int
}

// Logger provides structured logging with session context.
type Logger struct {
	zap   *zap.Logger
	level zapcore.Level
}

// SugaredLogger provides printf-style logging for CLI and debug surfaces.
type SugaredLogger struct {
	sugar *zap.SugaredLogger
}

// LevelForTrace maps a peer trace level to the minimum enabled zap level:
// 0 logs warnings and errors, 1 adds info, 2 and above add debug.
func LevelForTrace(trace int) zapcore.Level {
	switch {
	case trace <= 0:
		return zapcore.WarnLevel
	case trace == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// NewLogger creates a new logger with session context.
// Output defaults to os.Stderr.
func NewLogger(meta Meta) *Logger {
	return newLoggerWithWriter(meta, os.Stderr)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{zap: zap.NewNop(), level: zapcore.FatalLevel}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
}

// WithOutput returns a new logger with a different output writer.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		l.level,
	)
	return &Logger{
		zap:   l.zap.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core { return core })),
		level: l.level,
	}
}

// newLoggerWithWriter creates a logger writing to the specified writer.
func newLoggerWithWriter(meta Meta, w io.Writer) *Logger {
	level := LevelForTrace(meta.TraceLevel)
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(w),
		level,
	)

	var contextFields []zap.Field
	if meta.App != "" {
		contextFields = append(contextFields, zap.String("app", meta.App))
	}
	if meta.SessionID != "" {
		contextFields = append(contextFields, zap.String("session_id", meta.SessionID))
	}
	if meta.Mode != "" {
		contextFields = append(contextFields, zap.String("mode", meta.Mode))
	}

	return &Logger{zap: zap.New(core).With(contextFields...), level: level}
}

// WithSession returns a child logger tagged with a session id and mode.
func (l *Logger) WithSession(sessionID, mode string) *Logger {
	return &Logger{
		zap:   l.zap.With(zap.String("session_id", sessionID), zap.String("mode", mode)),
		level: l.level,
	}
}

// Enabled reports whether entries at the given trace level are written.
func (l *Logger) Enabled(trace int) bool {
	return l.zap.Core().Enabled(LevelForTrace(trace))
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields map[string]any) {
	l.zap.Debug(message, zap.Any("fields", fields))
}

// Info logs an info message.
func (l *Logger) Info(message string, fields map[string]any) {
	l.zap.Info(message, zap.Any("fields", fields))
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields map[string]any) {
	l.zap.Warn(message, zap.Any("fields", fields))
}

// Error logs an error message.
func (l *Logger) Error(message string, fields map[string]any) {
	l.zap.Error(message, zap.Any("fields", fields))
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

// Sugar returns a SugaredLogger for printf-style logging.
func (l *Logger) Sugar() *SugaredLogger {
	return &SugaredLogger{sugar: l.zap.Sugar()}
}

// Debugf logs a debug message with printf-style formatting.
func (s *SugaredLogger) Debugf(template string, args ...any) {
	s.sugar.Debugf(template, args...)
}

// Infof logs an info message with printf-style formatting.
func (s *SugaredLogger) Infof(template string, args ...any) {
	s.sugar.Infof(template, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (s *SugaredLogger) Warnf(template string, args ...any) {
	s.sugar.Warnf(template, args...)
}

// Errorf logs an error message with printf-style formatting.
func (s *SugaredLogger) Errorf(template string, args ...any) {
	s.sugar.Errorf(template, args...)
}

// With returns a SugaredLogger with additional context fields.
func (s *SugaredLogger) With(args ...any) *SugaredLogger {
	return &SugaredLogger{sugar: s.sugar.With(args...)}
}
