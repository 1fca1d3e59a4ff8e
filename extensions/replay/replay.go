// Package replay implements the Salesforce Streaming API replay extension:
// it tracks the last replay id seen on each subscribed channel so a
// reconnecting client can resume from where it left off instead of
// replaying the whole history or missing events.
package replay

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/chanmux/bayeux"
)

const (
	// ExtensionName is the name this extension registers under and the key
	// it reads/writes in a message's ext object.
	ExtensionName string = "replay"
	eventKey      string = "event"
	replayIDKey   string = "replayId"

	unsupported int32 = iota
	supported
)

// Extension tracks per-channel replay ids and advertises/consumes the
// "replay" ext key the way Salesforce's Streaming API expects.
//
// Grounded on a prior extensions/replay package, adapted from a
// Registered/Incoming/Outgoing MessageExtender interface to this module's
// veto-capable Hooks.
type Extension struct {
	supportedByServer *int32
	replayStore       IDStorer
}

// IDStorer stores and manages the channels and replay IDs for a bayeux
// server that supports the replay extension.
type IDStorer interface {
	Set(channel string, replayID int)
	Get(channel string) (int, bool)
	Delete(channel string)
	AsMap() map[string]int
}

// New creates an extension instance backed by store.
func New(store IDStorer) *Extension {
	defaultVal := unsupported
	return &Extension{supportedByServer: &defaultVal, replayStore: store}
}

// Hooks returns the Hooks this extension implements, ready to pass to
// ClientSession.AddExtension.
func (e *Extension) Hooks() bayeux.Hooks {
	return bayeux.Hooks{
		Incoming: e.incoming,
		Outgoing: e.outgoing,
	}
}

func (e *Extension) outgoing(msg *bayeux.Message) bool {
	switch msg.Channel {
	case bayeux.MetaHandshake:
		ext := msg.GetExt(true)
		ext[ExtensionName] = true
	case bayeux.MetaSubscribe:
		if e.isSupported() {
			ext := msg.GetExt(true)
			ext[ExtensionName] = e.replayStore.AsMap()
		}
	}
	return true
}

func (e *Extension) incoming(msg *bayeux.Message) bool {
	switch msg.Channel.Type() {
	case bayeux.MetaChannel:
		switch msg.Channel {
		case bayeux.MetaHandshake:
			ext := msg.GetExt(false)
			if ext != nil {
				if isSupported, ok := ext[ExtensionName].(bool); ok && isSupported {
					atomic.CompareAndSwapInt32(e.supportedByServer, unsupported, supported)
				}
			}
		case bayeux.MetaUnsubscribe:
			e.replayStore.Delete(string(msg.Subscription))
		}
	case bayeux.BroadcastChannel:
		e.updateReplayID(msg)
	}
	return true
}

func (e *Extension) updateReplayID(msg *bayeux.Message) {
	var data map[string]any
	if err := json.Unmarshal(msg.Data, &data); err != nil {
		return
	}
	event, ok := data[eventKey]
	if !ok {
		return
	}
	eventMap, ok := event.(map[string]any)
	if !ok {
		return
	}
	replayIDVal, ok := eventMap[replayIDKey]
	if !ok {
		return
	}
	replayID, ok := replayIDVal.(float64)
	if !ok {
		return
	}
	e.replayStore.Set(string(msg.Channel), int(replayID))
}

func (e *Extension) isSupported() bool {
	return atomic.LoadInt32(e.supportedByServer) == supported
}

// MapStorage implements IDStorer over a plain map guarded by a RWMutex.
type MapStorage struct {
	store map[string]int
	lock  sync.RWMutex
}

// NewMapStorage returns an empty MapStorage.
func NewMapStorage() *MapStorage {
	return &MapStorage{store: make(map[string]int)}
}

// Set implements IDStorer.
func (s *MapStorage) Set(channel string, replayID int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.store[channel] = replayID
}

// Get implements IDStorer.
func (s *MapStorage) Get(channel string) (replayID int, ok bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	replayID, ok = s.store[channel]
	return
}

// Delete implements IDStorer.
func (s *MapStorage) Delete(channel string) {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.store, channel)
}

// AsMap implements IDStorer.
func (s *MapStorage) AsMap() map[string]int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make(map[string]int, len(s.store))
	for k, v := range s.store {
		out[k] = v
	}
	return out
}
