// Package logging provides the daemon's structured logger: a
// zerolog.Logger tagged by component, adapted from the field-adapter
// pattern in neper-stars-houston/log/zerolog.go (zerologAdapter /
// addField) but built around the daemon's own Field type so callers
// never import zerolog directly.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Field is one structured key/value attached to a log line.
type Field struct {
	Key   string
	Value any
}

func Str(key, value string) Field    { return Field{key, value} }
func Int(key string, value int) Field { return Field{key, value} }
func Uint32(key string, value uint32) Field { return Field{key, value} }
func Bool(key string, value bool) Field { return Field{key, value} }
func Err(err error) Field            { return Field{"error", err} }

// Logger wraps zerolog.Logger with the daemon's component-tagging
// convention (spec.md §7's "log lines tagged with component").
type Logger struct {
	z zerolog.Logger
}

// Init opens (creating if absent) a daily log file under
// dataDir/logs and returns a Logger that tees to both that file and
// stderr, mirroring the teacher's setupLogging (utils.go) dual-sink
// approach. The returned io.Closer must be closed on shutdown.
func Init(dataDir string, debug bool) (Logger, io.Closer, error) {
	dir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return Logger{}, nil, fmt.Errorf("logging: mkdir %s: %w", dir, err)
	}
	path := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".log")
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return Logger{}, nil, fmt.Errorf("logging: open %s: %w", path, err)
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	z := zerolog.New(io.MultiWriter(console, f)).Level(level).With().Timestamp().Logger()
	return Logger{z: z}, f, nil
}

// Component returns a child logger tagged with component, so log
// lines from the daemon loop, persistence layer, and transport layer
// are distinguishable in one stream.
func (l Logger) Component(name string) Logger {
	return Logger{z: l.z.With().Str("component", name).Logger()}
}

func (l Logger) Debug(msg string, fields ...Field) { l.emit(l.z.Debug(), msg, fields) }
func (l Logger) Info(msg string, fields ...Field)  { l.emit(l.z.Info(), msg, fields) }
func (l Logger) Warn(msg string, fields ...Field)  { l.emit(l.z.Warn(), msg, fields) }
func (l Logger) Error(msg string, fields ...Field) { l.emit(l.z.Error(), msg, fields) }

func (l Logger) emit(event *zerolog.Event, msg string, fields []Field) {
	for _, f := range fields {
		event = addField(event, f)
	}
	event.Msg(msg)
}

// addField type-switches the field's dynamic value onto the matching
// zerolog.Event setter, falling back to Interface for anything else —
// grounded on zerologAdapter's addField helper.
func addField(event *zerolog.Event, f Field) *zerolog.Event {
	switch v := f.Value.(type) {
	case string:
		return event.Str(f.Key, v)
	case int:
		return event.Int(f.Key, v)
	case int64:
		return event.Int64(f.Key, v)
	case uint32:
		return event.Uint32(f.Key, v)
	case uint64:
		return event.Uint64(f.Key, v)
	case float64:
		return event.Float64(f.Key, v)
	case bool:
		return event.Bool(f.Key, v)
	case error:
		return event.AnErr(f.Key, v)
	default:
		return event.Interface(f.Key, v)
	}
}
