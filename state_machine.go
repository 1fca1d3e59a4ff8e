package bayeux

import "sync/atomic"

// StateRepresentation is the string form of a ConnectionStateMachine state,
// used in logs and errors.
type StateRepresentation string

const (
	stateUnconnected int32 = iota
	stateHandshaking
	stateConnecting
	stateConnected
	stateDisconnecting
	stateDisconnected
)

const (
	// Unconnected is the state before any handshake attempt.
	Unconnected StateRepresentation = "UNCONNECTED"
	// Handshaking is the state while a /meta/handshake is outstanding.
	Handshaking StateRepresentation = "HANDSHAKING"
	// Connecting is the state between a successful handshake and the first
	// successful /meta/connect reply.
	Connecting StateRepresentation = "CONNECTING"
	// Connected is the state while the meta-connect loop is running.
	Connected StateRepresentation = "CONNECTED"
	// Disconnecting is the state after disconnect() has been called but
	// before the server has acknowledged it.
	Disconnecting StateRepresentation = "DISCONNECTING"
	// Disconnected is the terminal state.
	Disconnected StateRepresentation = "DISCONNECTED"
)

var stateNames = []StateRepresentation{
	Unconnected, Handshaking, Connecting, Connected, Disconnecting, Disconnected,
}

func stateName(s int32) StateRepresentation {
	if s < 0 || int(s) >= len(stateNames) {
		return "UNKNOWN"
	}
	return stateNames[s]
}

// Event is a named transition input to a ConnectionStateMachine.
type Event string

const (
	eventHandshakeSent  Event = "handshake-sent"
	eventHandshakeOK    Event = "handshake-ok"
	eventConnectOK      Event = "connect-ok"
	eventDisconnectSent Event = "disconnect-sent"
	eventDisconnectOK   Event = "disconnect-ok"
	eventTransportLost  Event = "transport-lost"
	eventRehandshake    Event = "rehandshake"
)

// ConnectionStateMachine tracks a ClientSession's position in the Bayeux
// client state table.
//
// See also: https://docs.cometd.org/current/reference/#_client_state_table
type ConnectionStateMachine struct {
	current *int32
}

// NewConnectionStateMachine returns a state machine starting in Unconnected.
func NewConnectionStateMachine() *ConnectionStateMachine {
	s := stateUnconnected
	return &ConnectionStateMachine{&s}
}

// CurrentState returns the current state as a string.
func (csm *ConnectionStateMachine) CurrentState() StateRepresentation {
	return stateName(atomic.LoadInt32(csm.current))
}

// IsConnected reports whether the machine is in the Connected state.
func (csm *ConnectionStateMachine) IsConnected() bool {
	return atomic.LoadInt32(csm.current) == stateConnected
}

// IsTerminal reports whether the machine has reached Disconnected.
func (csm *ConnectionStateMachine) IsTerminal() bool {
	return atomic.LoadInt32(csm.current) == stateDisconnected
}

// ProcessEvent applies e to the machine, returning an error if e is invalid
// for the current state.
func (csm *ConnectionStateMachine) ProcessEvent(e Event) error {
	switch e {
	case eventHandshakeSent:
		if !casAny(csm.current, []int32{stateUnconnected, stateDisconnected, stateConnected, stateConnecting}, stateHandshaking) {
			return &BadStateError{csm.CurrentState(), e}
		}
	case eventHandshakeOK:
		if !atomic.CompareAndSwapInt32(csm.current, stateHandshaking, stateConnecting) {
			return &BadStateError{csm.CurrentState(), e}
		}
	case eventConnectOK:
		cur := atomic.LoadInt32(csm.current)
		if cur != stateConnecting && cur != stateConnected {
			return &BadStateError{csm.CurrentState(), e}
		}
		atomic.StoreInt32(csm.current, stateConnected)
	case eventDisconnectSent:
		atomic.StoreInt32(csm.current, stateDisconnecting)
	case eventDisconnectOK:
		atomic.StoreInt32(csm.current, stateDisconnected)
	case eventTransportLost:
		cur := atomic.LoadInt32(csm.current)
		if cur != stateDisconnecting && cur != stateDisconnected {
			atomic.StoreInt32(csm.current, stateUnconnected)
		}
	case eventRehandshake:
		atomic.StoreInt32(csm.current, stateUnconnected)
	default:
		return &UnknownEventError{e}
	}
	return nil
}

func casAny(addr *int32, from []int32, to int32) bool {
	for _, f := range from {
		if atomic.CompareAndSwapInt32(addr, f, to) {
			return true
		}
	}
	return false
}
