// Package wstestserver runs a minimal in-process Bayeux server over
// WebSocket, for exercising ClientSession and the websocket transport
// without a real CometD deployment.
//
// Grounded on a prior v2/internal/gobayeuxtest.Server, which served the
// same protocol surface over an http.RoundTripper; this version speaks
// WebSocket frames instead of HTTP request/response bodies, since that is
// the only transport this module ships.
package wstestserver

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/chanmux/bayeux/message"
)

var chars = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789")

func generateID(n int) string {
	out := make([]rune, n)
	for i := range out {
		out[i] = chars[rand.Intn(len(chars))]
	}
	return string(out)
}

// Server is a single-connection Bayeux-over-WebSocket test server.
type Server struct {
	*httptest.Server

	upgrader websocket.Upgrader

	mu             sync.Mutex
	subs           map[string][]message.Channel
	handshakeError bool
	rejectUpgrade  bool
	advice         *message.Advice
}

// Option configures a Server at construction time.
type Option func(*Server)

// WithHandshakeError makes every /meta/handshake request fail.
func WithHandshakeError() Option {
	return func(s *Server) { s.handshakeError = true }
}

// WithUpgradeRejected makes the server refuse the WebSocket upgrade itself,
// for exercising transport.RejectedError.
func WithUpgradeRejected() Option {
	return func(s *Server) { s.rejectUpgrade = true }
}

// WithAdvice overrides the advice attached to every handshake/connect
// reply.
func WithAdvice(a *message.Advice) Option {
	return func(s *Server) { s.advice = a }
}

// New starts a test server listening on an ephemeral local port. Call
// Close when done.
func New(opts ...Option) *Server {
	s := &Server{
		subs: make(map[string][]message.Channel),
		advice: &message.Advice{
			Reconnect: message.ReconnectRetry,
			Timeout:   30000,
			Interval:  0,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// WSURL returns the server's address rewritten to the ws:// scheme.
func (s *Server) WSURL() string {
	return "ws" + s.Server.URL[len("http"):]
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if s.rejectUpgrade {
		http.Error(w, "upgrade rejected", http.StatusForbidden)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var batch []*message.Message
		if err := json.Unmarshal(data, &batch); err != nil {
			continue
		}
		replies := s.process(batch)
		out, err := json.Marshal(replies)
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			return
		}
	}
}

func (s *Server) process(batch []*message.Message) []*message.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	var replies []*message.Message
	for _, msg := range batch {
		switch msg.Channel {
		case message.MetaHandshake:
			if s.handshakeError {
				replies = append(replies, &message.Message{
					Channel:    message.MetaHandshake,
					ID:         msg.ID,
					Successful: false,
					Error:      "invalid handshake",
				})
				continue
			}
			replies = append(replies, &message.Message{
				Channel:                  message.MetaHandshake,
				ID:                       msg.ID,
				Version:                  msg.Version,
				SupportedConnectionTypes: msg.SupportedConnectionTypes,
				ClientID:                 generateID(10),
				Successful:               true,
				AuthSuccessful:           true,
				Advice:                   s.advice,
			})
		case message.MetaConnect:
			for _, ch := range s.subs[msg.ClientID] {
				replies = append(replies, &message.Message{
					Channel:    ch,
					ID:         generateID(5),
					ClientID:   msg.ClientID,
					Data:       json.RawMessage(`{}`),
					Successful: true,
				})
			}
			replies = append(replies, &message.Message{
				Channel:    message.MetaConnect,
				ID:         msg.ID,
				ClientID:   msg.ClientID,
				Successful: true,
				Advice:     s.advice,
			})
		case message.MetaSubscribe:
			reply := &message.Message{
				Channel:      message.MetaSubscribe,
				ID:           msg.ID,
				ClientID:     msg.ClientID,
				Successful:   true,
				Subscription: msg.Subscription,
			}
			for _, ch := range s.subs[msg.ClientID] {
				if ch == msg.Subscription {
					reply.Successful = false
					reply.Error = "already subscribed"
				}
			}
			if reply.Successful {
				s.subs[msg.ClientID] = append(s.subs[msg.ClientID], msg.Subscription)
			}
			replies = append(replies, reply)
		case message.MetaUnsubscribe:
			reply := &message.Message{
				Channel:      message.MetaUnsubscribe,
				ID:           msg.ID,
				ClientID:     msg.ClientID,
				Successful:   true,
				Subscription: msg.Subscription,
			}
			found := false
			var remaining []message.Channel
			for _, ch := range s.subs[msg.ClientID] {
				if ch == msg.Subscription {
					found = true
					continue
				}
				remaining = append(remaining, ch)
			}
			s.subs[msg.ClientID] = remaining
			if !found {
				reply.Successful = false
				reply.Error = "not subscribed"
			}
			replies = append(replies, reply)
		case message.MetaDisconnect:
			delete(s.subs, msg.ClientID)
			replies = append(replies, &message.Message{
				Channel:    message.MetaDisconnect,
				ID:         msg.ID,
				ClientID:   msg.ClientID,
				Successful: true,
			})
		default:
			// a publish: echo back an empty successful reply.
			replies = append(replies, &message.Message{
				Channel:    msg.Channel,
				ID:         msg.ID,
				ClientID:   msg.ClientID,
				Successful: true,
			})
		}
	}
	return replies
}
