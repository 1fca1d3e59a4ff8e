package bayeux

import "testing"

func TestExtensionChainRegisterDuplicate(t *testing.T) {
	c := NewExtensionChain()
	if err := c.Register("foo", Hooks{}); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if err := c.Register("foo", Hooks{}); err != ErrExtensionRegistered {
		t.Fatalf("expected ErrExtensionRegistered, got %v", err)
	}
}

func TestExtensionChainUnregister(t *testing.T) {
	c := NewExtensionChain()
	_ = c.Register("foo", Hooks{})
	if !c.Unregister("foo") {
		t.Fatal("expected Unregister to report true for a registered name")
	}
	if c.Unregister("foo") {
		t.Fatal("expected a second Unregister to report false")
	}
}

func TestExtensionChainRunsInRegistrationOrder(t *testing.T) {
	c := NewExtensionChain()
	var order []string

	_ = c.Register("first", Hooks{Incoming: func(*Message) bool {
		order = append(order, "first")
		return true
	}})
	_ = c.Register("second", Hooks{Incoming: func(*Message) bool {
		order = append(order, "second")
		return true
	}})

	c.RunIncoming(&Message{})

	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected [first second], got %v", order)
	}
}

func TestExtensionChainVetoShortCircuits(t *testing.T) {
	c := NewExtensionChain()
	var secondRan bool

	_ = c.Register("vetoer", Hooks{Outgoing: func(*Message) bool {
		return false
	}})
	_ = c.Register("second", Hooks{Outgoing: func(*Message) bool {
		secondRan = true
		return true
	}})

	if c.RunOutgoing(&Message{}) {
		t.Fatal("expected RunOutgoing to report veto")
	}
	if secondRan {
		t.Fatal("expected the chain to stop after the first veto")
	}
}

func TestExtensionChainNilHooksAreSkipped(t *testing.T) {
	c := NewExtensionChain()
	_ = c.Register("incoming-only", Hooks{Incoming: func(*Message) bool { return true }})
	if !c.RunOutgoing(&Message{}) {
		t.Fatal("expected RunOutgoing to pass through an extension with no Outgoing hook")
	}
}
