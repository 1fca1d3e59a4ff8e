package bayeux

import "testing"

func TestNewHandshakeMessage(t *testing.T) {
	msg, err := newHandshakeMessage("1.0", []string{ConnectionTypeWebSocket})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if msg.Channel != MetaHandshake {
		t.Fatalf("expected channel %s, got %s", MetaHandshake, msg.Channel)
	}
	if msg.Version != "1.0" {
		t.Fatalf("expected version 1.0, got %s", msg.Version)
	}
}

func TestNewHandshakeMessageRejectsEmptyVersion(t *testing.T) {
	if _, err := newHandshakeMessage("", []string{ConnectionTypeWebSocket}); err == nil {
		t.Fatal("expected an error for an empty version")
	}
}

func TestNewHandshakeMessageRejectsNonNumericVersion(t *testing.T) {
	if _, err := newHandshakeMessage("abc", []string{ConnectionTypeWebSocket}); err == nil {
		t.Fatal("expected an error for a non-numeric version")
	}
}

func TestNewHandshakeMessageRejectsNoConnectionTypes(t *testing.T) {
	if _, err := newHandshakeMessage("1.0", nil); err == nil {
		t.Fatal("expected an error with no connection types")
	}
}

func TestNewConnectMessage(t *testing.T) {
	msg := newConnectMessage("client-1", ConnectionTypeWebSocket)
	if msg.Channel != MetaConnect || msg.ClientID != "client-1" || msg.ConnectionType != ConnectionTypeWebSocket {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestNewSubscribeMessage(t *testing.T) {
	msg := newSubscribeMessage("client-1", "/foo/bar")
	if msg.Channel != MetaSubscribe || msg.Subscription != "/foo/bar" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestNewUnsubscribeMessage(t *testing.T) {
	msg := newUnsubscribeMessage("client-1", "/foo/bar")
	if msg.Channel != MetaUnsubscribe || msg.Subscription != "/foo/bar" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestNewDisconnectMessage(t *testing.T) {
	msg := newDisconnectMessage("client-1")
	if msg.Channel != MetaDisconnect || msg.ClientID != "client-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestNewPublishMessage(t *testing.T) {
	msg, err := newPublishMessage("client-1", "/foo/bar", map[string]string{"hello": "world"})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if msg.Channel != "/foo/bar" || msg.ClientID != "client-1" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if string(msg.Data) != `{"hello":"world"}` {
		t.Fatalf("unexpected data: %s", msg.Data)
	}
}

func TestNewPublishMessageRejectsUnmarshalable(t *testing.T) {
	if _, err := newPublishMessage("client-1", "/foo/bar", make(chan int)); err == nil {
		t.Fatal("expected an error marshaling an unmarshalable payload")
	}
}
