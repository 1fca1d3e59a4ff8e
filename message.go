package bayeux

import "github.com/chanmux/bayeux/message"

// Message, Channel, and Advice are re-exported from the message package so
// that callers of this package never need to import it directly; the split
// exists so transport/transport.go and transport/websocket can share the
// wire types without importing this package (which itself depends on
// transport).
type (
	Message     = message.Message
	Channel     = message.Channel
	ChannelType = message.ChannelType
	Advice      = message.Advice
)

const (
	MetaHandshake   = message.MetaHandshake
	MetaConnect     = message.MetaConnect
	MetaDisconnect  = message.MetaDisconnect
	MetaSubscribe   = message.MetaSubscribe
	MetaUnsubscribe = message.MetaUnsubscribe

	MetaChannel      = message.MetaChannel
	ServiceChannel   = message.ServiceChannel
	BroadcastChannel = message.BroadcastChannel

	ConnectionTypeWebSocket       = message.ConnectionTypeWebSocket
	ConnectionTypeLongPolling     = message.ConnectionTypeLongPolling
	ConnectionTypeCallbackPolling = message.ConnectionTypeCallbackPolling

	ReconnectRetry     = message.ReconnectRetry
	ReconnectHandshake = message.ReconnectHandshake
	ReconnectNone      = message.ReconnectNone
)
