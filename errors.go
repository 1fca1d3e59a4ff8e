package bayeux

import "fmt"

type sentinel string

func (s sentinel) Error() string {
	return string(s)
}

const (
	// ErrAborted names an aborted transport. Pending exchanges failed by
	// Transport.Abort receive transport.ErrExchangeAborted; nothing in this
	// package returns ErrAborted.
	ErrAborted = sentinel("transport aborted")
	// ErrExchangeExpired names an exchange whose timer fired before a reply
	// arrived. Such exchanges receive transport.ErrExchangeTimeout; nothing
	// in this package returns ErrExchangeExpired.
	ErrExchangeExpired = sentinel("exchange expired")
	// ErrDuplicateExchange is a programming error: two exchanges were
	// registered for the same message id.
	ErrDuplicateExchange = sentinel("duplicate exchange registration")
	// ErrChannelReleased is returned by every operation on a released
	// Channel.
	ErrChannelReleased = sentinel("channel has been released")
	// ErrExtensionRegistered is returned when registering an extension
	// name that is already in use.
	ErrExtensionRegistered = sentinel("extension name already registered")
	// ErrNotConnected is returned by operations that require an active
	// session.
	ErrNotConnected = sentinel("client session is not connected")
	// ErrWebSocketUnsupported names a WebSocket upgrade permanently
	// rejected by the server. Nothing in this package returns it: Handshake
	// reports a rejected upgrade as an UpgradeRejectedError.
	ErrWebSocketUnsupported = sentinel("websocket upgrade rejected; transport unsupported")
	// ErrMessageVetoed is returned when an outgoing message is dropped by
	// an extension's OutgoingHook before it ever reaches the transport.
	ErrMessageVetoed = sentinel("message vetoed by extension")
	// ErrMissingVersion is returned when building a handshake message
	// without a Bayeux protocol version.
	ErrMissingVersion = sentinel("handshake requires a non-empty version")
	// ErrNoConnectionTypes is returned when building a handshake message
	// with no supported connection types.
	ErrNoConnectionTypes = sentinel("handshake requires at least one supported connection type")
)

// ReplyFailureError wraps a Bayeux-level failure: the server answered, but
// set successful=false, typically with an explanation in its error field.
type ReplyFailureError struct {
	Channel Channel
	Reason  string
}

func (e *ReplyFailureError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: not successful", e.Channel)
	}
	return fmt.Sprintf("%s: %s", e.Channel, e.Reason)
}

// HandshakeError wraps a failure that occurred during /meta/handshake.
type HandshakeError struct{ Err error }

func (e *HandshakeError) Error() string { return fmt.Sprintf("handshake failed: %s", e.Err) }
func (e *HandshakeError) Unwrap() error { return e.Err }

// ConnectError wraps a failure that occurred during /meta/connect.
type ConnectError struct{ Err error }

func (e *ConnectError) Error() string { return fmt.Sprintf("connect failed: %s", e.Err) }
func (e *ConnectError) Unwrap() error { return e.Err }

// SubscribeError wraps a failure that occurred while subscribing.
type SubscribeError struct {
	Channel Channel
	Err     error
}

func (e *SubscribeError) Error() string {
	return fmt.Sprintf("subscribe to %q failed: %s", e.Channel, e.Err)
}
func (e *SubscribeError) Unwrap() error { return e.Err }

// UnsubscribeError wraps a failure that occurred while unsubscribing.
type UnsubscribeError struct {
	Channel Channel
	Err     error
}

func (e *UnsubscribeError) Error() string {
	return fmt.Sprintf("unsubscribe from %q failed: %s", e.Channel, e.Err)
}
func (e *UnsubscribeError) Unwrap() error { return e.Err }

// PublishError wraps a failure that occurred while publishing.
type PublishError struct {
	Channel Channel
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish to %q failed: %s", e.Channel, e.Err)
}
func (e *PublishError) Unwrap() error { return e.Err }

// DisconnectError wraps a failure that occurred during /meta/disconnect.
type DisconnectError struct{ Err error }

func (e *DisconnectError) Error() string {
	if e.Err == nil {
		return "disconnect failed"
	}
	return fmt.Sprintf("disconnect failed: %s", e.Err)
}
func (e *DisconnectError) Unwrap() error { return e.Err }

// TimeoutError is returned (wrapped in a DisconnectError) by Disconnect when
// no /meta/disconnect reply arrives within the grace period. An exchange
// whose timer fires receives transport.ErrExchangeTimeout instead.
type TimeoutError struct{ Reason string }

func (e *TimeoutError) Error() string { return fmt.Sprintf("timeout: %s", e.Reason) }

// TransportError wraps a connect/IO failure reported by a Transport.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("transport %s: %s", e.Op, e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }

// UpgradeRejectedError is returned when the server refuses the WebSocket
// upgrade. It carries enough of the HTTP/WS close context for the caller to
// decide whether to fall back to another transport.
type UpgradeRejectedError struct {
	StatusCode int
	CloseCode  int
}

func (e *UpgradeRejectedError) Error() string {
	return fmt.Sprintf("websocket upgrade rejected (http status %d, close code %d)", e.StatusCode, e.CloseCode)
}

// InvalidChannelError is returned when a channel path fails validation.
type InvalidChannelError struct{ Channel Channel }

func (e *InvalidChannelError) Error() string {
	return fmt.Sprintf("channel %q is not a valid channel path", e.Channel)
}

// BadStateError is returned by the connection state machine on an invalid
// transition.
type BadStateError struct {
	Current StateRepresentation
	Event   Event
}

func (e *BadStateError) Error() string {
	return fmt.Sprintf("event %q is invalid in state %s", e.Event, e.Current)
}

// UnknownEventError is returned when ProcessEvent is given an event the
// state machine does not recognize.
type UnknownEventError struct{ Event Event }

func (e *UnknownEventError) Error() string { return fmt.Sprintf("unknown event %q", e.Event) }
