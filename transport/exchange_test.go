package transport

import (
	"testing"
	"time"

	"github.com/chanmux/bayeux/message"
)

func TestExchangeTableRegisterAndComplete(t *testing.T) {
	table := NewExchangeTable()
	ex := &Exchange{ID: "1", Message: &message.Message{ID: "1"}}
	table.Register(ex)

	got, ok := table.Complete("1")
	if !ok {
		t.Fatal("expected Complete to find the registered exchange")
	}
	if got != ex {
		t.Fatal("expected Complete to return the same exchange instance")
	}

	if _, ok := table.Complete("1"); ok {
		t.Fatal("expected a second Complete call to report not found")
	}
}

func TestExchangeTableCompleteMissing(t *testing.T) {
	table := NewExchangeTable()
	if _, ok := table.Complete("missing"); ok {
		t.Fatal("expected Complete on an unregistered id to report not found")
	}
}

func TestExchangeTableRegisterDuplicatePanics(t *testing.T) {
	table := NewExchangeTable()
	table.Register(&Exchange{ID: "1"})

	defer func() {
		if recover() == nil {
			t.Fatal("expected registering a duplicate id to panic")
		}
	}()
	table.Register(&Exchange{ID: "1"})
}

func TestExchangeTableDrain(t *testing.T) {
	table := NewExchangeTable()
	table.Register(&Exchange{ID: "1"})
	table.Register(&Exchange{ID: "2"})

	drained := table.Drain()
	if len(drained) != 2 {
		t.Fatalf("expected 2 exchanges drained, got %d", len(drained))
	}
	if table.Len() != 0 {
		t.Fatalf("expected table to be empty after Drain, got %d", table.Len())
	}
}

func TestRegisterWithDeadlineTimesOut(t *testing.T) {
	sched := NewDefaultScheduler(1)
	defer sched.Shutdown()

	table := NewExchangeTable()
	done := make(chan struct{})
	ex := &Exchange{ID: "1"}
	table.RegisterWithDeadline(ex, sched, 10*time.Millisecond, func(*Exchange) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected the timeout callback to fire")
	}

	if _, ok := table.Complete("1"); ok {
		t.Fatal("expected the exchange to already be removed by the timeout")
	}
}

func TestRegisterWithDeadlineCanceledByReply(t *testing.T) {
	sched := NewDefaultScheduler(1)
	defer sched.Shutdown()

	table := NewExchangeTable()
	var timedOut bool
	ex := &Exchange{ID: "1"}
	table.RegisterWithDeadline(ex, sched, 50*time.Millisecond, func(*Exchange) {
		timedOut = true
	})

	got, ok := table.Complete("1")
	if !ok {
		t.Fatal("expected to complete the exchange via the reply path")
	}
	got.Timer.Cancel()

	time.Sleep(100 * time.Millisecond)
	if timedOut {
		t.Fatal("expected canceling the timer after a reply to suppress the timeout callback")
	}
}
