package transport

import (
	"fmt"
	"net/http"
	"time"

	"github.com/chanmux/bayeux/message"
)

// SendListener receives the two callbacks a Transport makes for a batch of
// messages handed to Send: OnSending once, right before the batch reaches
// the wire, and OnReply exactly once per message in the batch.
//
// Split into two methods rather than one combined callback because
// OnSending fires once per batch while OnReply fires once per message, and
// conflating them would force every caller to distinguish the two cases by
// hand.
type SendListener interface {
	// OnSending is called after every message in the batch has a
	// registered exchange, but before the transport writes the batch.
	OnSending(batch []*message.Message)
	// OnReply is called with the reply matching one message from the
	// batch, or with a nil reply and a non-nil err if the exchange timed
	// out or the transport was aborted before a reply arrived.
	OnReply(msg *message.Message, err error)
}

// PushListener receives messages the server sent that do not correlate to
// any pending exchange (event deliveries on subscribed channels).
type PushListener func(batch []*message.Message)

// Options carries the transport-agnostic tunables: timeouts and size limits
// a ClientSession applies regardless of which Transport realization is in
// use.
type Options struct {
	// URL is the Bayeux endpoint to connect to.
	URL string
	// Header carries additional headers (or cookies) to send on connect.
	Header http.Header
	// ConnectTimeout bounds how long establishing the underlying connection
	// may take; WebSocketTransport dials on the first Send, not in Init.
	ConnectTimeout time.Duration
	// IdleTimeout closes a connection that receives no frames for this
	// long; zero disables idle closing.
	IdleTimeout time.Duration
	// MaxMessageSize caps the size of a single inbound frame; zero means
	// unbounded.
	MaxMessageSize int64
	// MaxNetworkDelay bounds how long a non-meta-connect exchange waits for
	// a reply before it times out.
	MaxNetworkDelay time.Duration
	// Scheduler provides the timer/goroutine pool used to expire
	// exchanges. A nil value causes the transport to create its own.
	Scheduler Scheduler
}

// RejectedError is returned when the server refuses the WebSocket upgrade
// outright; WebSocketTransport returns it from the Send that dials. CloseCode
// is zero when the rejection happened at the HTTP level, before any
// WebSocket close frame was possible.
type RejectedError struct {
	StatusCode int
	CloseCode  int
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("websocket upgrade rejected (http status %d, close code %d)", e.StatusCode, e.CloseCode)
}

// Transport is the boundary between a ClientSession and the wire. A
// ClientSession drives exactly one Transport at a time; WebSocketTransport
// is the only realization shipped in this module, but the interface is
// deliberately narrow enough that an HTTP long-polling implementation could
// satisfy it too.
//
// Grounded on the shape of fayec's transport package, which keeps
// connection establishment (Init), capability negotiation (Accept), and
// message delivery (Send) as distinct concerns rather than folding them
// into a single Dial call.
type Transport interface {
	// Init prepares the transport to connect, but does not necessarily
	// connect yet; WebSocketTransport connects lazily on the first Send.
	Init(opts *Options) error
	// Accept reports whether this transport can be used for the given
	// Bayeux protocol version.
	Accept(bayeuxVersion string) bool
	// Send delivers messages as one batch, invoking listener once per
	// message plus one OnSending call for the batch. push is invoked for
	// frames that do not correlate to any message in this or any other
	// pending batch.
	Send(listener SendListener, messages []*message.Message, push PushListener) error
	// Abort fails every pending exchange with ErrExchangeAborted and
	// drops the underlying connection, but leaves the transport usable
	// for a subsequent Send (which reconnects).
	Abort()
	// Reset clears any transport-level state accumulated from a failed
	// connection (cookies, negotiated extensions) so the next Init starts
	// clean.
	Reset()
	// Terminate permanently shuts the transport down; no further Send
	// will succeed.
	Terminate()
}
