// Package logging provides structured, slog-backed logging for the registry
// services. Entries carry the citizen and admin identifiers the audit trail
// is keyed by, so log lines can be correlated with registry records.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       LogLevel `json:"level"`
	Format      string   `json:"format"` // "json" or "text"
	Output      string   `json:"output"` // "stdout", "stderr", or file path
	EnableFile  bool     `json:"enable_file"`
	FilePath    string   `json:"file_path"`
	EnableAsync bool     `json:"enable_async"`
}

// DefaultLogConfig returns the configuration used when none is supplied.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       LevelInfo,
		Format:      "json",
		Output:      "stdout",
		EnableFile:  false,
		FilePath:    "/var/log/eca-system/app.log",
		EnableAsync: true,
	}
}

// Entry is one structured log record.
type Entry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Component string         `json:"component,omitempty"`
	CitizenID *int64         `json:"citizen_id,omitempty"`
	AdminID   *int           `json:"admin_id,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Error     string         `json:"error,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
	Caller    string         `json:"caller,omitempty"`
}

// Logger writes structured entries through slog, optionally via an async
// buffer so request handlers never block on log IO.
type Logger struct {
	config  LogConfig
	slogger *slog.Logger
	file    *os.File
	asyncCh chan Entry
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewLogger(config LogConfig) (*Logger, error) {
	ctx, cancel := context.WithCancel(context.Background())
	l := &Logger{config: config, ctx: ctx, cancel: cancel}

	var writer io.Writer
	switch config.Output {
	case "stdout", "":
		writer = os.Stdout
	case "stderr":
		writer = os.Stderr
	default:
		if err := l.openFile(config.Output); err != nil {
			cancel()
			return nil, err
		}
		writer = l.file
	}
	if config.EnableFile && l.file == nil && config.FilePath != "" {
		if err := l.openFile(config.FilePath); err != nil {
			cancel()
			return nil, err
		}
		writer = io.MultiWriter(writer, l.file)
	}

	opts := &slog.HandlerOptions{Level: slogLevel(config.Level)}
	var handler slog.Handler
	if config.Format == "text" {
		handler = slog.NewTextHandler(writer, opts)
	} else {
		handler = slog.NewJSONHandler(writer, opts)
	}
	l.slogger = slog.New(handler)

	if config.EnableAsync {
		l.asyncCh = make(chan Entry, 1000)
		l.wg.Add(1)
		go l.asyncWorker()
	}
	return l, nil
}

func (l *Logger) openFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	l.file = f
	return nil
}

func (l *Logger) asyncWorker() {
	defer l.wg.Done()
	for {
		select {
		case e := <-l.asyncCh:
			l.write(e)
		case <-l.ctx.Done():
			for {
				select {
				case e := <-l.asyncCh:
					l.write(e)
				default:
					return
				}
			}
		}
	}
}

func (l *Logger) write(e Entry) {
	attrs := make([]slog.Attr, 0, 8+len(e.Fields))
	if e.Component != "" {
		attrs = append(attrs, slog.String("component", e.Component))
	}
	if e.CitizenID != nil {
		attrs = append(attrs, slog.Int64("citizen_id", *e.CitizenID))
	}
	if e.AdminID != nil {
		attrs = append(attrs, slog.Int("admin_id", *e.AdminID))
	}
	if e.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", e.RequestID))
	}
	if e.Error != "" {
		attrs = append(attrs, slog.String("error", e.Error))
	}
	if e.Caller != "" {
		attrs = append(attrs, slog.String("caller", e.Caller))
	}
	for k, v := range e.Fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	l.slogger.LogAttrs(context.Background(), slogLevel(levelFromString(e.Level)), e.Message, attrs...)
}

// Close drains the async buffer and releases the log file.
func (l *Logger) Close() error {
	l.cancel()
	if l.config.EnableAsync {
		l.wg.Wait()
	}
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// WithComponent returns a logger that stamps every entry with the component
// name, e.g. "scan", "registration", "resolution".
func (l *Logger) WithComponent(component string) *ComponentLogger {
	return &ComponentLogger{logger: l, component: component}
}

type ComponentLogger struct {
	logger    *Logger
	component string
}

func (cl *ComponentLogger) Debug(msg string, fields ...Field) {
	cl.logger.log(LevelDebug, cl.component, msg, "", fields...)
}

func (cl *ComponentLogger) Info(msg string, fields ...Field) {
	cl.logger.log(LevelInfo, cl.component, msg, "", fields...)
}

func (cl *ComponentLogger) Warn(msg string, fields ...Field) {
	cl.logger.log(LevelWarn, cl.component, msg, "", fields...)
}

func (cl *ComponentLogger) Error(msg string, err error, fields ...Field) {
	cl.logger.log(LevelError, cl.component, msg, errString(err), fields...)
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, "", msg, "", fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, "", msg, "", fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, "", msg, "", fields...) }

func (l *Logger) Error(msg string, err error, fields ...Field) {
	l.log(LevelError, "", msg, errString(err), fields...)
}

// Fatal logs and exits. Only main should call this.
func (l *Logger) Fatal(msg string, err error, fields ...Field) {
	l.log(LevelFatal, "", msg, errString(err), fields...)
	l.Close()
	os.Exit(1)
}

func (l *Logger) log(level LogLevel, component, msg, errStr string, fields ...Field) {
	if level < l.config.Level {
		return
	}

	e := Entry{
		Timestamp: time.Now(),
		Level:     levelToString(level),
		Message:   msg,
		Component: component,
		Error:     errStr,
	}
	for _, f := range fields {
		switch f.Key {
		case "citizen_id":
			if id, ok := f.Value.(int64); ok {
				e.CitizenID = &id
				continue
			}
		case "admin_id":
			if id, ok := f.Value.(int); ok {
				e.AdminID = &id
				continue
			}
		case "request_id":
			if id, ok := f.Value.(string); ok {
				e.RequestID = id
				continue
			}
		}
		if e.Fields == nil {
			e.Fields = make(map[string]any)
		}
		e.Fields[f.Key] = f.Value
	}
	if level >= LevelWarn {
		if _, file, line, ok := runtime.Caller(3); ok {
			e.Caller = fmt.Sprintf("%s:%d", filepath.Base(file), line)
		}
	}

	if l.config.EnableAsync {
		select {
		case l.asyncCh <- e:
		default:
			// Buffer full, fall back to a synchronous write.
			l.write(e)
		}
	} else {
		l.write(e)
	}
}

// Field is a structured log attribute.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }
func Any(key string, value any) Field                { return Field{Key: key, Value: value} }

func CitizenID(id int64) Field { return Field{Key: "citizen_id", Value: id} }
func AdminID(id int) Field     { return Field{Key: "admin_id", Value: id} }

func Error(err error) Field { return Field{Key: "error", Value: errString(err)} }

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func slogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError, LevelFatal:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func levelToString(level LogLevel) string {
	switch level {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "INFO"
	}
}

func levelFromString(level string) LogLevel {
	switch level {
	case "DEBUG":
		return LevelDebug
	case "WARN":
		return LevelWarn
	case "ERROR":
		return LevelError
	case "FATAL":
		return LevelFatal
	default:
		return LevelInfo
	}
}

// ParseLevel maps config strings ("debug", "info", "warn", "error") to a
// LogLevel, defaulting to info.
func ParseLevel(s string) LogLevel {
	switch s {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}
