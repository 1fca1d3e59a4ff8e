package bayeux

import (
	"net/http"
	"time"

	"github.com/chanmux/bayeux/transport"
)

// Options configures a ClientSession. The zero value is not usable;
// construct one with NewOptions, which applies sane defaults, then apply
// functional Options to override fields.
type Options struct {
	URL             string
	Header          http.Header
	BayeuxVersion   string
	ConnectionTypes []string

	ConnectTimeout   time.Duration
	IdleTimeout      time.Duration
	MaxNetworkDelay  time.Duration
	MaxMessageSize   int64
	BackoffBase      time.Duration
	BackoffCap       time.Duration
	DisconnectGrace  time.Duration

	Logger    Logger
	Scheduler transport.Scheduler
}

// Option mutates an Options during construction.
type Option func(*Options)

// defaultOptions mirrors the constants a CometD-style client ships with:
// a one-second base backoff doubling up to thirty seconds, and network
// delays generous enough for a loaded server's long-poll response.
func defaultOptions() *Options {
	return &Options{
		BayeuxVersion:    "1.0",
		ConnectionTypes:  []string{ConnectionTypeWebSocket},
		ConnectTimeout:   10 * time.Second,
		IdleTimeout:      0,
		MaxNetworkDelay:  10 * time.Second,
		BackoffBase:      time.Second,
		BackoffCap:       30 * time.Second,
		DisconnectGrace:  2 * time.Second,
		Logger:           newNullLogger(),
	}
}

// NewOptions builds an Options for url with every default applied, then
// lets opts override them in order.
func NewOptions(url string, opts ...Option) *Options {
	o := defaultOptions()
	o.URL = url
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithHeader attaches additional headers (cookies, auth) to every connect
// attempt.
func WithHeader(h http.Header) Option {
	return func(o *Options) { o.Header = h }
}

// WithBayeuxVersion overrides the advertised protocol version, "1.0" by
// default.
func WithBayeuxVersion(version string) Option {
	return func(o *Options) { o.BayeuxVersion = version }
}

// WithConnectionTypes overrides the supported connection types advertised
// during handshake.
func WithConnectionTypes(types ...string) Option {
	return func(o *Options) { o.ConnectionTypes = types }
}

// WithMaxNetworkDelay overrides how long a non-meta-connect exchange waits
// before timing out.
func WithMaxNetworkDelay(d time.Duration) Option {
	return func(o *Options) { o.MaxNetworkDelay = d }
}

// WithBackoff overrides the base and cap of the exponential reconnect
// backoff applied on top of the server's advised interval.
func WithBackoff(base, cap time.Duration) Option {
	return func(o *Options) { o.BackoffBase, o.BackoffCap = base, cap }
}

// WithDisconnectGrace overrides how long Disconnect waits for the server's
// /meta/disconnect reply before forcing the session to Disconnected anyway.
func WithDisconnectGrace(d time.Duration) Option {
	return func(o *Options) { o.DisconnectGrace = d }
}

// WithScheduler injects a shared Scheduler instead of letting the transport
// create its own.
func WithScheduler(s transport.Scheduler) Option {
	return func(o *Options) { o.Scheduler = s }
}
