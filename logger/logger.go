// Package logger defines the logging interface used across the streamr
// engine. Every degrade path (decode failures, normalizer fallbacks, dropped
// records) reports through it, so callers can route the noise wherever they
// want. NewZapLogger provides a production-ready default.
package logger

type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type NoopLogger struct{}

func (NoopLogger) Debug(string, map[string]any) {}
func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Warn(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}
