package message

import "testing"

func TestChannelType(t *testing.T) {
	cases := []struct {
		channel Channel
		want    ChannelType
	}{
		{"/meta/connect", MetaChannel},
		{"/service/chat", ServiceChannel},
		{"/foo/bar", BroadcastChannel},
	}
	for _, tc := range cases {
		if got := tc.channel.Type(); got != tc.want {
			t.Errorf("Type(%q) = %s, want %s", tc.channel, got, tc.want)
		}
	}
}

func TestChannelMatch(t *testing.T) {
	cases := []struct {
		pattern Channel
		other   Channel
		want    bool
	}{
		{"/foo/*", "/foo/bar", true},
		{"/foo/*", "/foo/bar/baz", false},
		{"/foo/**", "/foo/bar/baz", true},
		{"/foo/bar", "/foo/bar", true},
		{"/foo/bar", "/foo/baz", false},
	}
	for _, tc := range cases {
		if got := tc.pattern.Match(tc.other); got != tc.want {
			t.Errorf("Match(%q, %q) = %v, want %v", tc.pattern, tc.other, got, tc.want)
		}
	}
}

func TestChannelIsValid(t *testing.T) {
	cases := []struct {
		channel Channel
		want    bool
	}{
		{"/foo/bar", true},
		{"/foo/*", true},
		{"/foo/**", true},
		{"foo/bar", false},
		{"/foo/ba*r", false},
	}
	for _, tc := range cases {
		if got := tc.channel.IsValid(); got != tc.want {
			t.Errorf("IsValid(%q) = %v, want %v", tc.channel, got, tc.want)
		}
	}
}

func TestMessageIsMeta(t *testing.T) {
	m := &Message{Channel: MetaHandshake}
	if !m.IsMeta() {
		t.Fatal("expected /meta/handshake to be meta")
	}
	m.Channel = "/foo/bar"
	if m.IsMeta() {
		t.Fatal("expected /foo/bar to not be meta")
	}
}

func TestMessageIsPublishReply(t *testing.T) {
	reply := &Message{Channel: "/foo/bar", Successful: true}
	if !reply.IsPublishReply() {
		t.Fatal("expected a successful reply with no data to be a publish reply")
	}
	broadcast := &Message{Channel: "/foo/bar", Data: []byte(`{"x":1}`)}
	if broadcast.IsPublishReply() {
		t.Fatal("expected a message carrying data to not be a publish reply")
	}
}

func TestMessageGetExt(t *testing.T) {
	m := &Message{}
	if ext := m.GetExt(false); ext != nil {
		t.Fatal("expected GetExt(false) on a fresh message to return nil")
	}
	ext := m.GetExt(true)
	if ext == nil {
		t.Fatal("expected GetExt(true) to create the map")
	}
	ext["foo"] = "bar"
	if m.Ext["foo"] != "bar" {
		t.Fatal("expected mutation through the returned map to stick")
	}
}

func TestAdviceDefaults(t *testing.T) {
	var a *Advice
	if !a.ShouldRetry() {
		t.Fatal("expected nil advice to default to retry")
	}
	if a.ShouldHandshake() {
		t.Fatal("expected nil advice to not demand handshake")
	}
	if a.MustStop() {
		t.Fatal("expected nil advice to not demand stop")
	}
	if a.IntervalDuration() != 0 || a.TimeoutDuration() != 0 {
		t.Fatal("expected nil advice to default every duration to zero")
	}
}

func TestAdviceReconnectModes(t *testing.T) {
	handshake := &Advice{Reconnect: ReconnectHandshake}
	if !handshake.ShouldHandshake() {
		t.Fatal("expected reconnect=handshake to demand handshake")
	}

	none := &Advice{Reconnect: ReconnectNone}
	if !none.MustStop() {
		t.Fatal("expected reconnect=none to demand stop")
	}
	if none.ShouldRetry() {
		t.Fatal("expected reconnect=none to not retry")
	}
}
