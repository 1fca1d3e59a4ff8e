// Package bayeux provides a client for the Bayeux protocol over a
// WebSocket transport, covering the handshake/connect/subscribe/publish
// lifecycle CometD-compatible servers expect.
//
// Create a session bound to a transport and hand shake with it:
//
//	t := websocket.New()
//	session := bayeux.NewClientSession(t, bayeux.NewOptions("wss://example.com/cometd"))
//	if err := session.Handshake(); err != nil {
//		log.Fatal(err)
//	}
//
// Subscribe to a channel by adding a Listener to it:
//
//	ch := session.GetChannel("/foo/bar")
//	ch.Subscribe(bayeux.NewFuncListener(func(channel bayeux.Channel, msg *bayeux.Message) {
//		fmt.Println(channel, string(msg.Data))
//	}))
//
// Publish to a channel:
//
//	ch.Publish(map[string]any{"hello": "world"})
//
// Extensions observe or mutate every message flowing through the session,
// in both directions, and may veto a message by returning false:
//
//	session.AddExtension("example", bayeux.Hooks{
//		Outgoing: func(m *bayeux.Message) bool {
//			m.GetExt(true)["example"] = true
//			return true
//		},
//	})
package bayeux
