package message

import (
	"encoding/json"
	"strings"
	"time"
)

// Meta channels recognized by this package.
//
// See also: https://docs.cometd.org/current/reference/#_bayeux_meta_channels
const (
	MetaHandshake   Channel = "/meta/handshake"
	MetaConnect     Channel = "/meta/connect"
	MetaDisconnect  Channel = "/meta/disconnect"
	MetaSubscribe   Channel = "/meta/subscribe"
	MetaUnsubscribe Channel = "/meta/unsubscribe"

	emptyChannel Channel = ""
)

// Connection types a client may advertise during handshake. This module
// only ever offers ConnectionTypeWebSocket, but the constants are kept for
// messages exchanged with servers that echo them back.
const (
	ConnectionTypeWebSocket      string = "websocket"
	ConnectionTypeLongPolling    string = "long-polling"
	ConnectionTypeCallbackPolling = "callback-polling"
)

const timestampFmt = "2006-01-02T15:04:05.000Z07:00"

// Message represents a single Bayeux protocol message, sent or received.
//
// See also: https://docs.cometd.org/current/reference/#_bayeux_message_fields
type Message struct {
	// ID correlates a reply to the request that produced it. Set by the
	// sender; echoed verbatim by the receiver.
	ID string `json:"id,omitempty"`
	// Channel is the channel the message was sent on or is destined for.
	Channel Channel `json:"channel"`
	// ClientID identifies the session, assigned by the server during the
	// handshake.
	ClientID string `json:"clientId,omitempty"`
	// Data carries the opaque application payload of a publish or a
	// broadcast delivery.
	Data json.RawMessage `json:"data,omitempty"`
	// Successful indicates whether a request succeeded. Required on every
	// reply to a meta channel and to a publish.
	Successful bool `json:"successful,omitempty"`
	// AuthSuccessful may be set on a handshake reply.
	AuthSuccessful bool `json:"authSuccessful,omitempty"`
	// Error carries a human-readable failure reason when Successful is
	// false.
	Error string `json:"error,omitempty"`
	// Advice carries server-side hints about reconnection cadence. See
	// Advice below.
	Advice *Advice `json:"advice,omitempty"`
	// Ext is the extension payload, read and written by registered
	// extensions. See ExtensionChain.
	Ext map[string]any `json:"ext,omitempty"`
	// Version and MinimumVersion are exchanged during handshake.
	Version        string `json:"version,omitempty"`
	MinimumVersion string `json:"minimumVersion,omitempty"`
	// SupportedConnectionTypes is sent with a handshake request.
	SupportedConnectionTypes []string `json:"supportedConnectionTypes,omitempty"`
	// ConnectionType is sent with a connect request.
	ConnectionType string `json:"connectionType,omitempty"`
	// Subscription names the channel(s) a subscribe/unsubscribe request or
	// reply concerns.
	Subscription Channel `json:"subscription,omitempty"`
	// Timestamp is an optional ISO-8601 timestamp.
	Timestamp string `json:"timestamp,omitempty"`
}

// IsMeta reports whether the message travels on a /meta/ channel.
func (m *Message) IsMeta() bool {
	return m.Channel.Type() == MetaChannel
}

// IsPublishReply reports whether the message is a reply to a publish: a
// non-meta channel carrying the Successful flag rather than a Data payload
// destined for delivery. Per the wire protocol a publish reply and a
// broadcast delivery share a channel, so the two are told apart by the
// presence of Data: a broadcast always carries Data, a publish reply never
// does.
func (m *Message) IsPublishReply() bool {
	return !m.IsMeta() && len(m.Data) == 0
}

// GetExt returns the Ext map, instantiating it first if create is true and
// it is currently nil.
func (m *Message) GetExt(create bool) map[string]any {
	if m.Ext == nil && create {
		m.Ext = make(map[string]any)
	}
	return m.Ext
}

// TimestampAsTime parses Timestamp using the Bayeux ISO-8601 profile.
func (m *Message) TimestampAsTime() (time.Time, error) {
	return time.Parse(timestampFmt, m.Timestamp)
}

// Advice represents the advice field, used by the server to steer the
// client's reconnection behavior.
//
// See also: https://docs.cometd.org/current/reference/#_bayeux_advice
type Advice struct {
	// Reconnect is one of "retry", "handshake", or "none".
	Reconnect string `json:"reconnect,omitempty"`
	// Timeout is the time, in milliseconds, the server will hold a
	// /meta/connect request open before replying.
	Timeout int `json:"timeout,omitempty"`
	// Interval is the minimum time, in milliseconds, the client should wait
	// between /meta/connect requests.
	Interval int `json:"interval,omitempty"`
	// MultipleClients indicates the server suspects more than one client
	// instance is sharing this session.
	MultipleClients bool `json:"multiple-clients,omitempty"`
	// Hosts lists alternate hosts the client may retry against.
	Hosts []string `json:"hosts,omitempty"`
}

const (
	// ReconnectRetry tells the client to retry the last /meta/connect after
	// Interval with the same clientId.
	ReconnectRetry = "retry"
	// ReconnectHandshake tells the client its session is gone; it must
	// re-handshake before reconnecting.
	ReconnectHandshake = "handshake"
	// ReconnectNone tells the client to give up.
	ReconnectNone = "none"
)

// ShouldRetry reports whether the advice says to retry the connect.
func (a *Advice) ShouldRetry() bool {
	return a == nil || a.Reconnect == "" || a.Reconnect == ReconnectRetry
}

// ShouldHandshake reports whether the advice demands a fresh handshake.
func (a *Advice) ShouldHandshake() bool {
	return a != nil && a.Reconnect == ReconnectHandshake
}

// MustStop reports whether the advice forbids any further reconnection
// attempt.
func (a *Advice) MustStop() bool {
	return a != nil && a.Reconnect == ReconnectNone
}

// IntervalDuration returns Interval as a time.Duration, defaulting to 0.
func (a *Advice) IntervalDuration() time.Duration {
	if a == nil {
		return 0
	}
	return time.Duration(a.Interval) * time.Millisecond
}

// TimeoutDuration returns Timeout as a time.Duration, defaulting to 0.
func (a *Advice) TimeoutDuration() time.Duration {
	if a == nil {
		return 0
	}
	return time.Duration(a.Timeout) * time.Millisecond
}

// Channel is a Bayeux channel path such as "/foo/bar", "/meta/connect", or
// "/service/chat".
//
// See also: https://docs.cometd.org/current/reference/#_concepts_channels
type Channel string

// ChannelType classifies a Channel into one of the three kinds defined by
// the protocol.
type ChannelType string

const (
	// MetaChannel is any channel under /meta/.
	MetaChannel ChannelType = "meta"
	// ServiceChannel is any channel under /service/.
	ServiceChannel ChannelType = "service"
	// BroadcastChannel is every other channel.
	BroadcastChannel ChannelType = "broadcast"
)

const (
	metaPrefix    = "/meta/"
	servicePrefix = "/service/"
)

// Type classifies the channel.
func (c Channel) Type() ChannelType {
	s := string(c)
	switch {
	case strings.HasPrefix(s, metaPrefix):
		return MetaChannel
	case strings.HasPrefix(s, servicePrefix):
		return ServiceChannel
	default:
		return BroadcastChannel
	}
}

// HasWildcard reports whether the channel ends in a single or double
// wildcard segment.
//
// See also: https://docs.cometd.org/current/reference/#_concepts_channels_wild
func (c Channel) HasWildcard() bool {
	return strings.HasSuffix(string(c), "*")
}

// IsValid does a best-effort syntactic check of the channel path.
func (c Channel) IsValid() bool {
	s := string(c)
	if !strings.HasPrefix(s, "/") {
		return false
	}
	if strings.Contains(s, "*") && !c.HasWildcard() {
		return false
	}
	return true
}

// Match reports whether other matches this channel, honoring wildcards.
func (c Channel) Match(other Channel) bool {
	if !c.HasWildcard() {
		return c == other
	}
	self := string(c)
	index := strings.LastIndexByte(self, '/')
	if index == -1 {
		return false
	}
	prefix := self[:index]
	o := string(other)
	if !strings.HasPrefix(o, prefix) {
		return false
	}
	switch self[index+1:] {
	case "*":
		return strings.Count(o[index+1:], "/") == 0
	case "**":
		return true
	default:
		return false
	}
}
