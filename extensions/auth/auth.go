// Package auth provides a static bearer token authenticator for the
// WebSocket transport's connect headers.
//
// Grounded on a prior extensions/salesforce.StaticTokenAuthenticator, which
// injected an Authorization header via an http.RoundTripper wrapper.
// A WebSocket connection has no per-request RoundTripper to wrap: the only
// place to attach headers is the single upgrade request made when the
// connection is dialed. StaticToken fills that role instead.
package auth

import (
	"errors"
	"net/http"
	"strings"
)

// ErrNoToken is returned by Header when no token has been configured.
var ErrNoToken = errors.New("bayeux/extensions/auth: no token provided")

// StaticToken carries a bearer token to attach to the WebSocket upgrade
// request's headers.
type StaticToken struct {
	// HeaderName defaults to "Authorization" if empty.
	HeaderName string
	// Token is the bearer token value, without the "Bearer " prefix.
	Token string
	// Hosts, if non-empty, restricts which hosts the header is attached
	// for; an empty list attaches it unconditionally.
	Hosts []string
}

// Header builds the http.Header to pass as bayeux.WithHeader, or
// ErrNoToken if no token is set.
func (s *StaticToken) Header() (http.Header, error) {
	if s.Token == "" {
		return nil, ErrNoToken
	}
	name := s.HeaderName
	if name == "" {
		name = "Authorization"
	}
	h := make(http.Header)
	h.Set(name, "Bearer "+s.Token)
	return h, nil
}

// AllowsHost reports whether host is covered by s.Hosts. An empty Hosts
// list allows every host.
func (s *StaticToken) AllowsHost(host string) bool {
	if len(s.Hosts) == 0 {
		return true
	}
	for _, h := range s.Hosts {
		if strings.EqualFold(h, host) {
			return true
		}
	}
	return false
}
