package bayeux

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chanmux/bayeux/transport"
)

// ClientSession drives the Bayeux handshake/connect/subscribe/publish
// lifecycle over a single Transport, owning the channel registry and
// extension chain every other public type in this package hangs off of.
//
// Generalized from a single HTTP-long-poll-only connect loop into a
// transport-agnostic one driven through the transport.Transport interface,
// with a full six-state connection machine and an extension/registry model
// layered on top.
type ClientSession struct {
	opts      *Options
	transport transport.Transport
	state     *ConnectionStateMachine
	registry  *ChannelRegistry
	extensions *ExtensionChain
	backoff   *reconnectBackoff
	logger    Logger

	msgSeq uint64

	mu        sync.Mutex
	clientID  string
	advice    *Advice
	connLoop  chan struct{} // closed to stop the meta-connect loop
	loopDone  chan struct{}
	connected chan struct{} // closed once after the first successful connect
	connectedOnce sync.Once
	lastConnectErr error
}

// NewClientSession builds a session bound to t, ready for Handshake. t must
// already be constructed (e.g. websocket.New); Handshake calls t.Init.
func NewClientSession(t transport.Transport, opts *Options) *ClientSession {
	if opts == nil {
		opts = NewOptions("")
	}
	s := &ClientSession{
		opts:      opts,
		transport: t,
		state:     NewConnectionStateMachine(),
		extensions: NewExtensionChain(),
		logger:    opts.Logger,
		connected: make(chan struct{}),
	}
	s.registry = NewChannelRegistry(s)
	s.backoff = newReconnectBackoff(opts.BackoffBase, opts.BackoffCap)
	return s
}

// State returns the session's current ConnectionStateMachine state.
func (s *ClientSession) State() StateRepresentation {
	return s.state.CurrentState()
}

// IsConnected reports whether the session is currently in the Connected
// state.
func (s *ClientSession) IsConnected() bool {
	return s.state.IsConnected()
}

// GetChannel returns the interned RegisteredChannel for path, creating it
// if this is the first reference to it.
func (s *ClientSession) GetChannel(path Channel) *RegisteredChannel {
	return s.registry.Get(path)
}

// AddExtension registers a named extension. It returns false if name is
// already registered.
func (s *ClientSession) AddExtension(name string, hooks Hooks) bool {
	return s.extensions.Register(name, hooks) == nil
}

// RemoveExtension unregisters name, reporting whether it was present.
func (s *ClientSession) RemoveExtension(name string) bool {
	return s.extensions.Unregister(name)
}

// SetLogger replaces the session's Logger port.
func (s *ClientSession) SetLogger(l Logger) {
	if l == nil {
		l = newNullLogger()
	}
	s.mu.Lock()
	s.logger = l
	s.mu.Unlock()
}

func (s *ClientSession) getClientID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientID
}

func (s *ClientSession) setClientID(id string) {
	s.mu.Lock()
	s.clientID = id
	s.mu.Unlock()
}

func (s *ClientSession) nextMessageID() string {
	n := atomic.AddUint64(&s.msgSeq, 1)
	return fmt.Sprintf("%d", n)
}

func (s *ClientSession) setAdvice(a *Advice) {
	s.mu.Lock()
	if a != nil {
		s.advice = a
	}
	s.mu.Unlock()
}

func (s *ClientSession) getAdvice() *Advice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advice
}

// Handshake initializes the transport, sends /meta/handshake, and on
// success starts the meta-connect loop. It blocks until the first
// /meta/connect completes, returning that connect's error if it failed, or
// until the handshake itself fails.
func (s *ClientSession) Handshake() error {
	topts := &transport.Options{
		URL:             s.opts.URL,
		Header:          s.opts.Header,
		ConnectTimeout:  s.opts.ConnectTimeout,
		IdleTimeout:     s.opts.IdleTimeout,
		MaxNetworkDelay: s.opts.MaxNetworkDelay,
		MaxMessageSize:  s.opts.MaxMessageSize,
		Scheduler:       s.opts.Scheduler,
	}
	if err := s.transport.Init(topts); err != nil {
		var rej *transport.RejectedError
		if errors.As(err, &rej) {
			return &HandshakeError{&UpgradeRejectedError{rej.StatusCode, rej.CloseCode}}
		}
		return &HandshakeError{err}
	}
	if !s.transport.Accept(s.opts.BayeuxVersion) {
		return &HandshakeError{fmt.Errorf("transport does not support bayeux version %s", s.opts.BayeuxVersion)}
	}

	if err := s.doHandshake(); err != nil {
		var rej *transport.RejectedError
		if errors.As(err, &rej) {
			return &HandshakeError{&UpgradeRejectedError{rej.StatusCode, rej.CloseCode}}
		}
		return err
	}

	s.startConnectLoop()

	<-s.connected
	s.mu.Lock()
	err := s.lastConnectErr
	s.mu.Unlock()
	return err
}

// doHandshake sends /meta/handshake and advances the state machine on
// success. It is used both by the public Handshake and by the connect loop
// when the server's advice demands a rehandshake mid-session.
func (s *ClientSession) doHandshake() error {
	if err := s.state.ProcessEvent(eventHandshakeSent); err != nil {
		return err
	}

	msg, err := newHandshakeMessage(s.opts.BayeuxVersion, s.opts.ConnectionTypes)
	if err != nil {
		return err
	}
	reply, err := s.sendOne(msg)
	if err != nil {
		return &HandshakeError{err}
	}
	if !reply.Successful {
		return &HandshakeError{&ReplyFailureError{MetaHandshake, reply.Error}}
	}

	s.setClientID(reply.ClientID)
	s.setAdvice(reply.Advice)
	s.backoff.reset()
	if err := s.state.ProcessEvent(eventHandshakeOK); err != nil {
		return &HandshakeError{err}
	}
	return nil
}

// startConnectLoop launches the background goroutine that repeatedly sends
// /meta/connect, honoring the server's advice and backing off on failure,
// until Disconnect stops it or the advice says to stop.
func (s *ClientSession) startConnectLoop() {
	s.mu.Lock()
	s.connLoop = make(chan struct{})
	s.loopDone = make(chan struct{})
	stop := s.connLoop
	done := s.loopDone
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.connectLoop(stop)
	}()
}

func (s *ClientSession) connectLoop(stop <-chan struct{}) {
	failing := false
	for {
		select {
		case <-stop:
			return
		default:
		}

		msg := newConnectMessage(s.getClientID(), ConnectionTypeWebSocket)
		reply, err := s.sendOne(msg)

		if err == nil && !reply.Successful {
			err = &ReplyFailureError{MetaConnect, reply.Error}
		}

		if err != nil {
			s.reportConnectResult(err)
			failing = true
			advice := s.getAdvice()
			if advice.MustStop() {
				s.state.ProcessEvent(eventTransportLost)
				return
			}
			if advice.ShouldHandshake() {
				s.state.ProcessEvent(eventRehandshake)
				if rhErr := s.doHandshake(); rhErr != nil {
					s.logger.WithError(rhErr).Error("rehandshake failed")
					s.sleep(stop, nextConnectDelay(advice, s.backoff, true))
					continue
				}
				failing = false
				continue
			}
			delay := nextConnectDelay(advice, s.backoff, failing)
			s.sleep(stop, delay)
			continue
		}

		failing = false
		s.setAdvice(reply.Advice)
		if err := s.state.ProcessEvent(eventConnectOK); err != nil {
			s.logger.WithError(err).Warn("connect-ok rejected by state machine")
		}
		s.reportConnectResult(nil)

		advice := s.getAdvice()
		delay := nextConnectDelay(advice, s.backoff, false)
		s.sleep(stop, delay)
	}
}

func (s *ClientSession) sleep(stop <-chan struct{}, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-stop:
	}
}

func (s *ClientSession) reportConnectResult(err error) {
	s.connectedOnce.Do(func() {
		s.mu.Lock()
		s.lastConnectErr = err
		s.mu.Unlock()
		close(s.connected)
	})
}

// Disconnect sends /meta/disconnect and stops the connect loop. It waits up
// to Options.DisconnectGrace for the server's reply before forcing the
// state machine to Disconnected regardless.
func (s *ClientSession) Disconnect() error {
	s.mu.Lock()
	stop := s.connLoop
	done := s.loopDone
	s.mu.Unlock()
	if stop != nil {
		close(stop)
	}

	if err := s.state.ProcessEvent(eventDisconnectSent); err != nil {
		return &DisconnectError{err}
	}

	replyCh := make(chan error, 1)
	go func() {
		msg := newDisconnectMessage(s.getClientID())
		reply, err := s.sendOne(msg)
		if err == nil && !reply.Successful {
			err = &ReplyFailureError{MetaDisconnect, reply.Error}
		}
		replyCh <- err
	}()

	var sendErr error
	select {
	case sendErr = <-replyCh:
	case <-time.After(s.opts.DisconnectGrace):
		sendErr = &TimeoutError{Reason: "no /meta/disconnect reply within grace period"}
	}

	s.transport.Terminate()
	if done != nil {
		<-done
	}
	s.state.ProcessEvent(eventDisconnectOK)

	if sendErr != nil {
		return &DisconnectError{sendErr}
	}
	return nil
}

// sendSubscribe is called by RegisteredChannel.Subscribe for the first
// subscriber on a channel.
func (s *ClientSession) sendSubscribe(path Channel) error {
	msg := newSubscribeMessage(s.getClientID(), path)
	reply, err := s.sendOne(msg)
	if err != nil {
		return err
	}
	if !reply.Successful {
		return &ReplyFailureError{path, reply.Error}
	}
	return nil
}

// sendUnsubscribe is called by RegisteredChannel.Unsubscribe when its last
// subscriber leaves.
func (s *ClientSession) sendUnsubscribe(path Channel) error {
	msg := newUnsubscribeMessage(s.getClientID(), path)
	reply, err := s.sendOne(msg)
	if err != nil {
		return err
	}
	if !reply.Successful {
		return &ReplyFailureError{path, reply.Error}
	}
	return nil
}

// sendPublish is called by RegisteredChannel.Publish.
func (s *ClientSession) sendPublish(path Channel, data any) error {
	msg, err := newPublishMessage(s.getClientID(), path, data)
	if err != nil {
		return err
	}
	reply, err := s.sendOne(msg)
	if err != nil {
		return err
	}
	if !reply.Successful {
		return &ReplyFailureError{path, reply.Error}
	}
	return nil
}

// replyResult carries the outcome of one outstanding exchange back to the
// goroutine that issued it.
type replyResult struct {
	msg *Message
	err error
}

// sessionListener adapts a single sendOne call to the transport.SendListener
// contract, running the incoming extension chain on every reply before
// handing it back to the waiting goroutine.
type sessionListener struct {
	session *ClientSession
	ch      chan replyResult
}

func (l *sessionListener) OnSending(batch []*Message) {
	l.session.logger.Debug("sending", "channel", string(batch[0].Channel), "id", batch[0].ID)
}

func (l *sessionListener) OnReply(msg *Message, err error) {
	if err == nil && msg != nil {
		if !l.session.extensions.RunIncoming(msg) {
			err = ErrMessageVetoed
			msg = nil
		}
	}
	l.ch <- replyResult{msg, err}
}

// sendOne runs the outgoing extension chain over msg, assigns it a fresh
// message id, and sends it through the transport, blocking until the
// transport reports a reply, a timeout, or an abort.
func (s *ClientSession) sendOne(msg *Message) (*Message, error) {
	if !s.extensions.RunOutgoing(msg) {
		return nil, ErrMessageVetoed
	}
	msg.ID = s.nextMessageID()

	l := &sessionListener{session: s, ch: make(chan replyResult, 1)}
	if err := s.transport.Send(l, []*Message{msg}, s.onPush); err != nil {
		return nil, &TransportError{Op: string(msg.Channel), Err: err}
	}
	res := <-l.ch
	return res.msg, res.err
}

// onPush handles frames pushed by the server that do not correlate to any
// pending exchange: broadcast deliveries on subscribed channels.
func (s *ClientSession) onPush(batch []*Message) {
	for _, msg := range batch {
		if s.extensions.RunIncoming(msg) {
			s.registry.dispatch(msg)
		}
	}
}
