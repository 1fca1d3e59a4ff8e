package bayeux

import "sync"

// IncomingHook inspects or mutates a message received from the server.
// Returning false vetoes the message: it is dropped and no further
// extension or listener sees it.
type IncomingHook func(*Message) bool

// OutgoingHook inspects or mutates a message about to be sent. Returning
// false vetoes the message: it is not sent.
type OutgoingHook func(*Message) bool

// Hooks is the capability set a named extension supplies. Either field may
// be nil; a nil hook is skipped silently.
type Hooks struct {
	Incoming IncomingHook
	Outgoing OutgoingHook
}

type registeredExtension struct {
	name  string
	hooks Hooks
}

// ExtensionChain runs a named, ordered list of Hooks over every message
// flowing through a ClientSession, in both directions. Any extension may
// veto a message, short-circuiting the remaining chain for that direction.
type ExtensionChain struct {
	mu   sync.RWMutex
	exts []registeredExtension
}

// NewExtensionChain returns an empty chain.
func NewExtensionChain() *ExtensionChain {
	return &ExtensionChain{}
}

// Register appends hooks under name. It fails if name is already in use.
func (c *ExtensionChain) Register(name string, hooks Hooks) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, e := range c.exts {
		if e.name == name {
			return ErrExtensionRegistered
		}
	}
	c.exts = append(c.exts, registeredExtension{name, hooks})
	return nil
}

// Unregister removes name from the chain, reporting whether it was present.
func (c *ExtensionChain) Unregister(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, e := range c.exts {
		if e.name == name {
			c.exts = append(c.exts[:i:i], c.exts[i+1:]...)
			return true
		}
	}
	return false
}

// RunIncoming runs every registered Incoming hook, in registration order,
// over msg. It returns false as soon as one hook vetoes.
func (c *ExtensionChain) RunIncoming(msg *Message) bool {
	c.mu.RLock()
	exts := c.snapshot()
	c.mu.RUnlock()
	for _, e := range exts {
		if e.hooks.Incoming == nil {
			continue
		}
		if !e.hooks.Incoming(msg) {
			return false
		}
	}
	return true
}

// RunOutgoing runs every registered Outgoing hook, in registration order,
// over msg. It returns false as soon as one hook vetoes.
func (c *ExtensionChain) RunOutgoing(msg *Message) bool {
	c.mu.RLock()
	exts := c.snapshot()
	c.mu.RUnlock()
	for _, e := range exts {
		if e.hooks.Outgoing == nil {
			continue
		}
		if !e.hooks.Outgoing(msg) {
			return false
		}
	}
	return true
}

func (c *ExtensionChain) snapshot() []registeredExtension {
	out := make([]registeredExtension, len(c.exts))
	copy(out, c.exts)
	return out
}
