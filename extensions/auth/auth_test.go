package auth

import "testing"

func TestHeaderWithToken(t *testing.T) {
	s := &StaticToken{Token: "abc123"}
	h, err := s.Header()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := h.Get("Authorization"); got != "Bearer abc123" {
		t.Fatalf("expected Bearer abc123, got %q", got)
	}
}

func TestHeaderWithCustomName(t *testing.T) {
	s := &StaticToken{HeaderName: "X-Auth", Token: "abc123"}
	h, err := s.Header()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := h.Get("X-Auth"); got != "Bearer abc123" {
		t.Fatalf("expected Bearer abc123, got %q", got)
	}
}

func TestHeaderWithoutToken(t *testing.T) {
	s := &StaticToken{}
	if _, err := s.Header(); err != ErrNoToken {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestAllowsHost(t *testing.T) {
	s := &StaticToken{Hosts: []string{"example.com"}}
	if !s.AllowsHost("Example.com") {
		t.Fatal("expected case-insensitive match to allow example.com")
	}
	if s.AllowsHost("other.com") {
		t.Fatal("expected other.com to be disallowed")
	}
}

func TestAllowsHostEmptyList(t *testing.T) {
	s := &StaticToken{}
	if !s.AllowsHost("anything.com") {
		t.Fatal("expected empty Hosts list to allow every host")
	}
}
