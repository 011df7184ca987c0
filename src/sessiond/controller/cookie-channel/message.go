// Package cookiechannel backs a synchronous-looking cookie accessor with a session's jar held
// in another context. Requests and responses are correlated by id over a Transport.
package cookiechannel

import (
	"strings"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/cookies"
)

// MethodMessage is the JSON-RPC notification carrying channel messages in both directions.
const MethodMessage = "cookies/message"

// MessageType discriminates channel messages.
type MessageType string

const (
	// TypeGetRequest asks the store for the cookie header visible to a unit's URL.
	TypeGetRequest MessageType = "COOKIE_GET_REQUEST"
	// TypeGetResponse answers a TypeGetRequest with the header in Cookies.
	TypeGetResponse MessageType = "COOKIE_GET_RESPONSE"
	// TypeSetRequest asks the store to apply the Set-Cookie string in Cookie.
	TypeSetRequest MessageType = "COOKIE_SET_REQUEST"
	// TypeSetResponse confirms or rejects a TypeSetRequest.
	TypeSetResponse MessageType = "COOKIE_SET_RESPONSE"
)

// IsResponse reports whether t answers a request.
func (t MessageType) IsResponse() bool {
	return t == TypeGetResponse || t == TypeSetResponse
}

// Message is a single channel frame.
type Message struct {
	Type   MessageType   `json:"type"`
	ID     uint64        `json:"id"`
	UnitID entity.UnitID `json:"unitId"`
	URL    string        `json:"url,omitempty"`
	// Cookies is the rendered Cookie header of a get response.
	Cookies string `json:"cookies,omitempty"`
	// Jar holds the cookies behind Cookies with their domain and path, in header order.
	Jar []entity.Cookie `json:"jar,omitempty"`
	// Cookie is the Set-Cookie string of a set request.
	Cookie string `json:"cookie,omitempty"`
	OK     bool   `json:"ok,omitempty"`
	Error  string `json:"error,omitempty"`
}

// RemoteError is a failure reported by the other end of a channel.
type RemoteError struct {
	ID      uint64
	Message string
}

// Error is an implementation of the error interface.
func (e *RemoteError) Error() string {
	return "cookie store: " + e.Message
}

// baseOf returns the confirmed cookies of a get response. A response that only carries the
// header is taken as host-only cookies on the root path of target.
func baseOf(m *Message, target cookies.Target) []entity.Cookie {
	if m.Jar != nil {
		return append([]entity.Cookie{}, m.Jar...)
	}
	var out []entity.Cookie
	for _, part := range strings.Split(m.Cookies, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		out = append(out, entity.Cookie{Name: name, Value: value, Domain: target.Host, HostOnly: true, Path: "/"})
	}
	return out
}
