// Package websocket implements transport.Transport over a single
// long-lived WebSocket connection, dialed lazily on the first Send.
package websocket

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"
	"github.com/gorilla/websocket"
	"golang.org/x/net/publicsuffix"

	"github.com/chanmux/bayeux/message"
	"github.com/chanmux/bayeux/transport"
)

// Transport implements transport.Transport using gorilla/websocket.
//
// Grounded on thesyncim-fayec's transport/websocket package for the
// overall dial/read-loop/write shape, reworked so that: outbound frames
// are serialized through a single writer goroutine fed by an
// eapache/queue.Queue instead of writing under a connection mutex, replies
// are correlated through transport.ExchangeTable instead of per-channel
// subscriber maps, and cookies persist across reconnects via an
// http.CookieJar seeded with golang.org/x/net/publicsuffix.
type Transport struct {
	mu       sync.Mutex
	opts     *transport.Options
	dialer   *websocket.Dialer
	jar      http.CookieJar
	wsURL    string

	conn      *websocket.Conn
	connected bool

	exchanges *transport.ExchangeTable
	scheduler transport.Scheduler
	ownsSched bool

	push transport.PushListener

	queueMu sync.Mutex
	queue   *queue.Queue
	wake    chan struct{}
	writeWG sync.WaitGroup

	closed    chan struct{}
	closeOnce sync.Once

	rejected      int32 // atomic bool; set once the upgrade is permanently refused
	lastAdviceMS  int64 // atomic: most recently advised connect timeout, in ms
}

var _ transport.Transport = (*Transport)(nil)

// New returns an unconfigured Transport. Call Init before Send.
func New() *Transport {
	return &Transport{
		exchanges: transport.NewExchangeTable(),
		queue:     queue.New(),
		wake:      make(chan struct{}, 1),
		closed:    make(chan struct{}),
	}
}

// schedulerWorkers sizes a transport-owned scheduler's worker pool at a
// quarter of the available cores, floored at 1, matching the default a
// CometD WebSocketTransport picks when the embedder doesn't supply its own.
func schedulerWorkers() int {
	if n := runtime.NumCPU() / 4; n > 1 {
		return n
	}
	return 1
}

// Init stores opts, prepares the dialer and cookie jar, and rewrites the
// scheme of opts.URL to ws/wss. It does not dial; the connection is
// established lazily by the first Send.
func (t *Transport) Init(opts *transport.Options) error {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return fmt.Errorf("bayeux/transport/websocket: invalid url: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return fmt.Errorf("bayeux/transport/websocket: unsupported scheme %q", u.Scheme)
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.opts = opts
	t.wsURL = u.String()
	t.jar = jar
	t.dialer = &websocket.Dialer{
		HandshakeTimeout: opts.ConnectTimeout,
		Jar:              jar,
	}
	if opts.Scheduler != nil {
		t.scheduler = opts.Scheduler
	} else {
		t.scheduler = transport.NewDefaultScheduler(schedulerWorkers())
		t.ownsSched = true
	}
	t.mu.Unlock()
	return nil
}

// Accept reports whether this transport supports the given Bayeux protocol
// version. It permanently returns false once the server has rejected the
// WebSocket upgrade.
func (t *Transport) Accept(bayeuxVersion string) bool {
	if atomic.LoadInt32(&t.rejected) != 0 {
		return false
	}
	return strings.HasPrefix(bayeuxVersion, "1.")
}

// Send writes messages as a single JSON frame, after registering one
// exchange per message so each reply (or timeout) reaches listener exactly
// once. push, if non-nil, replaces the handler used for frames that do not
// correlate to any pending exchange.
func (t *Transport) Send(listener transport.SendListener, messages []*message.Message, push transport.PushListener) error {
	t.mu.Lock()
	select {
	case <-t.closed:
		t.mu.Unlock()
		return fmt.Errorf("bayeux/transport/websocket: transport terminated")
	default:
	}
	if push != nil {
		t.push = push
	}
	if !t.connected {
		if err := t.connectLocked(); err != nil {
			t.mu.Unlock()
			return err
		}
	}
	t.mu.Unlock()

	for _, msg := range messages {
		ex := &transport.Exchange{
			ID:      msg.ID,
			Message: msg,
			Reply: func(reply *message.Message, err error) {
				listener.OnReply(reply, err)
			},
		}
		t.exchanges.RegisterWithDeadline(ex, t.scheduler, t.deadlineFor(msg), func(done *transport.Exchange) {
			done.Reply(nil, transport.ErrExchangeTimeout)
		})
	}

	listener.OnSending(messages)

	payload, err := json.Marshal(messages)
	if err != nil {
		t.failPending(messages, err)
		return err
	}
	t.enqueue(payload)
	return nil
}

func (t *Transport) deadlineFor(msg *message.Message) time.Duration {
	d := t.opts.MaxNetworkDelay
	if msg.Channel == message.MetaConnect {
		if ms := atomic.LoadInt64(&t.lastAdviceMS); ms > 0 {
			d += time.Duration(ms) * time.Millisecond
		}
	}
	return d
}

func (t *Transport) failPending(messages []*message.Message, err error) {
	for _, msg := range messages {
		if ex, ok := t.exchanges.Complete(msg.ID); ok {
			ex.Timer.Cancel()
			ex.Reply(nil, err)
		}
	}
}

// connectLocked dials the server. Callers must hold t.mu.
func (t *Transport) connectLocked() error {
	header := t.opts.Header
	conn, resp, err := t.dialer.Dial(t.wsURL, header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			atomic.StoreInt32(&t.rejected, 1)
			return &transport.RejectedError{StatusCode: resp.StatusCode}
		}
		return err
	}
	if t.opts.MaxMessageSize > 0 {
		conn.SetReadLimit(t.opts.MaxMessageSize)
	}
	t.conn = conn
	t.connected = true
	t.writeWG.Add(1)
	go t.writeLoop()
	go t.readLoop(conn)
	return nil
}

// enqueue appends payload to the outbound queue and wakes the writer.
func (t *Transport) enqueue(payload []byte) {
	t.queueMu.Lock()
	t.queue.Add(payload)
	t.queueMu.Unlock()
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// writeLoop is the single goroutine permitted to call WriteMessage, so that
// no caller ever blocks holding a lock while the network write completes.
func (t *Transport) writeLoop() {
	defer t.writeWG.Done()
	for {
		t.queueMu.Lock()
		for t.queue.Length() > 0 {
			payload := t.queue.Remove().([]byte)
			t.queueMu.Unlock()

			t.mu.Lock()
			conn := t.conn
			t.mu.Unlock()
			if conn == nil {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
			t.queueMu.Lock()
		}
		t.queueMu.Unlock()

		select {
		case <-t.wake:
		case <-t.closed:
			return
		}
	}
}

// readLoop is the single goroutine permitted to call ReadMessage on conn.
// Every frame is a JSON array of messages per the wire protocol.
func (t *Transport) readLoop(conn *websocket.Conn) {
	t.mu.Lock()
	idle := t.opts.IdleTimeout
	t.mu.Unlock()
	for {
		if idle > 0 {
			conn.SetReadDeadline(time.Now().Add(idle))
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.handleConnLost(err)
			return
		}
		var batch []*message.Message
		if err := json.Unmarshal(data, &batch); err != nil {
			continue
		}

		var pushed []*message.Message
		for _, msg := range batch {
			if msg.Advice != nil && msg.Advice.Timeout > 0 {
				atomic.StoreInt64(&t.lastAdviceMS, int64(msg.Advice.Timeout))
			}
			ex, ok := t.exchanges.Complete(msg.ID)
			if ok {
				ex.Timer.Cancel()
				ex.Reply(msg, nil)
				continue
			}
			// A meta or publish-reply with no matching exchange arrived after
			// its timer already fired; it is expired, not an event. Dropping
			// it here (rather than pushing it) keeps a late reply from ever
			// producing a second notification for the same message id.
			if msg.IsMeta() || msg.IsPublishReply() {
				continue
			}
			pushed = append(pushed, msg)
		}
		if len(pushed) > 0 {
			t.mu.Lock()
			push := t.push
			t.mu.Unlock()
			if push != nil {
				push(pushed)
			}
		}
	}
}

func (t *Transport) handleConnLost(err error) {
	t.mu.Lock()
	t.connected = false
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	for _, ex := range t.exchanges.Drain() {
		ex.Timer.Cancel()
		ex.Reply(nil, fmt.Errorf("bayeux/transport/websocket: connection lost: %w", err))
	}
}

// Abort fails every pending exchange and drops the connection, but leaves
// the transport usable: the next Send reconnects.
func (t *Transport) Abort() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.connected = false
	t.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	for _, ex := range t.exchanges.Drain() {
		ex.Timer.Cancel()
		ex.Reply(nil, transport.ErrExchangeAborted)
	}
}

// Reset clears accumulated cookie-jar state so the next Init starts clean.
func (t *Transport) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.opts != nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err == nil {
			t.jar = jar
			t.dialer.Jar = jar
		}
	}
}

// Terminate permanently shuts the transport down.
func (t *Transport) Terminate() {
	t.Abort()
	t.closeOnce.Do(func() {
		close(t.closed)
	})
	t.writeWG.Wait()
	t.mu.Lock()
	ownsSched := t.ownsSched
	sched := t.scheduler
	t.mu.Unlock()
	if ownsSched && sched != nil {
		sched.Shutdown()
	}
}
