package bayeux

import "github.com/sirupsen/logrus"

// Logger is the logging port used throughout the session, registry, and
// transport. It is intentionally small so that any structured logger can
// back it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	WithError(error) Logger
	WithField(key string, value any) Logger
}

type nullLogger struct{}

func (*nullLogger) Debug(msg string, args ...any) {}
func (*nullLogger) Info(msg string, args ...any)  {}
func (*nullLogger) Warn(msg string, args ...any)  {}
func (*nullLogger) Error(msg string, args ...any) {}

func (l *nullLogger) WithError(error) Logger             { return l }
func (l *nullLogger) WithField(string, any) Logger        { return l }

func newNullLogger() Logger {
	return &nullLogger{}
}

type wrappedFieldLogger struct {
	logrus.FieldLogger
}

// WithLogrusLogger adapts a logrus.FieldLogger to the Logger port.
func WithLogrusLogger(l logrus.FieldLogger) Option {
	return func(o *Options) {
		o.Logger = &wrappedFieldLogger{l}
	}
}

func (w *wrappedFieldLogger) Debug(msg string, args ...any) {
	w.FieldLogger.Debug(append([]any{msg}, args...)...)
}

func (w *wrappedFieldLogger) Info(msg string, args ...any) {
	w.FieldLogger.Info(append([]any{msg}, args...)...)
}

func (w *wrappedFieldLogger) Warn(msg string, args ...any) {
	w.FieldLogger.Warn(append([]any{msg}, args...)...)
}

func (w *wrappedFieldLogger) Error(msg string, args ...any) {
	w.FieldLogger.Error(append([]any{msg}, args...)...)
}

func (w *wrappedFieldLogger) WithError(err error) Logger {
	return &wrappedFieldLogger{w.FieldLogger.WithError(err)}
}

func (w *wrappedFieldLogger) WithField(key string, value any) Logger {
	return &wrappedFieldLogger{w.FieldLogger.WithField(key, value)}
}
