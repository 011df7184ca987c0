// Package sessiond implements the sessiond service's JSON-RPC handlers.
package sessiond

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	controller "github.com/tabvault/sessiond/src/sessiond/controller/sessiond"
	"github.com/tabvault/sessiond/src/sessiond/internal/jsonrpcfx"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
)

// Handler represents the sessiond service's JSON-RPC API.
type Handler interface {
	jsonrpcfx.ConnectionManager
}

// New constructs a new sessiond Handler and registers it with the JSON-RPC module.
func New(ctrl controller.Controller, jsonrpcmod jsonrpcfx.JSONRPCModule, stats tally.Scope) (Handler, error) {
	c := jsonRPCConnectionManager{
		ctrl:  ctrl,
		stats: stats.SubScope("json_rpc"),
	}
	if err := jsonrpcmod.RegisterConnectionManager(&c); err != nil {
		return nil, fmt.Errorf("registering connection manager: %w", err)
	}
	return &c, nil
}

type jsonRPCConnectionManager struct {
	ctrl  controller.Controller
	stats tally.Scope
}

// NewConnection registers a new client connection and returns a router that includes its UUID.
func (c *jsonRPCConnectionManager) NewConnection(ctx context.Context, conn jsonrpc2.Conn) (router jsonrpcfx.Router, err error) {
	id, err := c.ctrl.InitSession(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("error while creating new connection: %w", err)
	}
	c.stats.Counter("connections_opened").Inc(1)

	r := jsonRPCRouter{
		sessiond: c.ctrl,
		uuid:     id,
		stats:    c.stats,
	}
	return &r, nil
}

// RemoveConnection cleans up a closed connection.
func (c *jsonRPCConnectionManager) RemoveConnection(ctx context.Context, id uuid.UUID) {
	ctx = mapper.ConnectionUUIDToContext(ctx, id)
	c.ctrl.EndSession(ctx, id)
	c.stats.Counter("connections_closed").Inc(1)
}
