//go:build go1.21
// +build go1.21

package bayeux

import "log/slog"

type wrappedSlog struct {
	*slog.Logger
}

func (w *wrappedSlog) WithError(err error) Logger {
	return w.WithField("error", err)
}

func (w *wrappedSlog) WithField(key string, value any) Logger {
	return &wrappedSlog{w.With(slog.Any(key, value))}
}

// WithSlogLogger adapts a log/slog.Logger to the Logger port.
func WithSlogLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = &wrappedSlog{logger}
	}
}
