package bayeux

import (
	"encoding/json"
	"strconv"
	"strings"
)

// newHandshakeMessage builds a /meta/handshake request. It validates the
// version string and the connection type list the way a prior
// HandshakeRequestBuilder did.
func newHandshakeMessage(version string, connectionTypes []string) (*Message, error) {
	if len(version) == 0 {
		return nil, &HandshakeError{ErrMissingVersion}
	}
	pieces := strings.SplitN(version, ".", 2)
	if _, err := strconv.Atoi(pieces[0]); err != nil {
		return nil, &HandshakeError{err}
	}
	if len(connectionTypes) == 0 {
		return nil, &HandshakeError{ErrNoConnectionTypes}
	}
	return &Message{
		Channel:                  MetaHandshake,
		Version:                  version,
		SupportedConnectionTypes: connectionTypes,
	}, nil
}

func newConnectMessage(clientID, connectionType string) *Message {
	return &Message{
		Channel:        MetaConnect,
		ClientID:       clientID,
		ConnectionType: connectionType,
	}
}

func newSubscribeMessage(clientID string, channel Channel) *Message {
	return &Message{
		Channel:      MetaSubscribe,
		ClientID:     clientID,
		Subscription: channel,
	}
}

func newUnsubscribeMessage(clientID string, channel Channel) *Message {
	return &Message{
		Channel:      MetaUnsubscribe,
		ClientID:     clientID,
		Subscription: channel,
	}
}

func newDisconnectMessage(clientID string) *Message {
	return &Message{
		Channel:  MetaDisconnect,
		ClientID: clientID,
	}
}

func newPublishMessage(clientID string, channel Channel, data any) (*Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, &PublishError{channel, err}
	}
	return &Message{
		Channel:  channel,
		ClientID: clientID,
		Data:     raw,
	}, nil
}
