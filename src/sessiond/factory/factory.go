package factory

import (
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"go.lsp.dev/jsonrpc2"
)

// UUID is a user-defined factory for a random uuid.UUID.
func UUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}

// JSONRPCRequest is a user-defined factory for a JSON-RPC request containing the specified method and parameters.
func JSONRPCRequest(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewCall(jsonrpc2.NewNumberID(5), method, params)
	return req
}

// JSONRPCNotification is a user-defined factory for a JSON-RPC notification.
func JSONRPCNotification(method string, params interface{}) jsonrpc2.Request {
	req, _ := jsonrpc2.NewNotification(method, params)
	return req
}

// Session returns a dormant session with the given number of persisted units.
func Session(id int, persisted int, at time.Time) *entity.Session {
	s := &entity.Session{
		ID:             entity.SessionID(fmt.Sprintf("session-%d", id)),
		CreatedAt:      at,
		LastAccessed:   at,
		State:          entity.StateDormant,
		MemberUnits:    map[entity.UnitID]struct{}{},
		PersistedUnits: []entity.PersistedUnit{},
		CookieJar:      entity.CookieJar{},
		ColorTag:       entity.Colors[id%len(entity.Colors)],
	}
	for i := 0; i < persisted; i++ {
		s.PersistedUnits = append(s.PersistedUnits, entity.PersistedUnit{
			URL:   fmt.Sprintf("https://example.com/%d/%d", id, i),
			Title: fmt.Sprintf("page %d", i),
		})
	}
	return s
}

// Cookie returns a host-only cookie for the given host.
func Cookie(name, value, host string, at time.Time) entity.Cookie {
	return entity.Cookie{
		Name:      name,
		Value:     value,
		Domain:    host,
		Path:      "/",
		HostOnly:  true,
		CreatedAt: at,
	}
}
