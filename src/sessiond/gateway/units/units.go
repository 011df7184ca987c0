// Package units sends outbound calls to the tab-management client.
package units

import (
	"context"
	"fmt"
	"sync"

	"github.com/gofrs/uuid"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:generate mockgen -destination=unitsmock/units_mock.go -package=unitsmock . Gateway

// Outbound method names.
const (
	MethodActivate = "units/activate"
	MethodQuery    = "units/query"
	MethodOpen     = "units/open"
)

const _errSendToClient = "sending call/notification to client: %w"

// Module provides the units Gateway.
var Module = fx.Provide(New)

// ActivateParams is sent with units/activate.
type ActivateParams struct {
	UnitID entity.UnitID `json:"unitId"`
}

// QueryResult is returned by units/query.
type QueryResult struct {
	Units []entity.Unit `json:"units"`
}

// OpenParams is sent with units/open.
type OpenParams struct {
	SessionID entity.SessionID       `json:"sessionId"`
	Units     []entity.PersistedUnit `json:"units"`
}

// OpenResult is returned by units/open.
type OpenResult struct {
	UnitIDs []entity.UnitID `json:"unitIds"`
}

// Gateway is used to send outbound notifications and calls to the client.
// Calls are routed to the connection named in the context, or to the most recently
// registered connection when the context names none.
type Gateway interface {
	// RegisterClient registers a new client connection. Should be called each time a client connects.
	RegisterClient(ctx context.Context, id uuid.UUID, conn jsonrpc2.Conn) error
	// DeregisterClient removes a client connection. Should be called each time a connection closes.
	DeregisterClient(ctx context.Context, id uuid.UUID) error
	// WaitForClient blocks until at least one client is registered or ctx is done.
	WaitForClient(ctx context.Context) error

	// Activate brings a unit to the foreground.
	Activate(ctx context.Context, unitID entity.UnitID) error
	// Query lists the units currently open in the client, with any session attribution it kept.
	Query(ctx context.Context) ([]entity.Unit, error)
	// Open opens the given units for a session and returns their new ids in the same order.
	Open(ctx context.Context, sessionID entity.SessionID, units []entity.PersistedUnit) ([]entity.UnitID, error)
	// Notify sends a notification to the client.
	Notify(ctx context.Context, method string, params interface{}) error
}

type gateway struct {
	mu     sync.Mutex
	conns  map[uuid.UUID]jsonrpc2.Conn
	order  []uuid.UUID
	ready  chan struct{}
	logger *zap.SugaredLogger
}

// New returns a Gateway for sending client notifications and calls.
func New(logger *zap.SugaredLogger) Gateway {
	return &gateway{
		conns:  make(map[uuid.UUID]jsonrpc2.Conn),
		ready:  make(chan struct{}),
		logger: logger,
	}
}

func (g *gateway) RegisterClient(ctx context.Context, id uuid.UUID, conn jsonrpc2.Conn) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.conns[id]; ok {
		return fmt.Errorf("client %q already registered", id)
	}
	g.conns[id] = conn
	g.order = append(g.order, id)
	if len(g.conns) == 1 {
		close(g.ready)
	}
	return nil
}

func (g *gateway) DeregisterClient(ctx context.Context, id uuid.UUID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.conns[id]; !ok {
		return nil
	}
	delete(g.conns, id)
	for i, o := range g.order {
		if o == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	if len(g.conns) == 0 {
		g.ready = make(chan struct{})
	}
	return nil
}

func (g *gateway) WaitForClient(ctx context.Context) error {
	g.mu.Lock()
	ready := g.ready
	g.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gateway) Activate(ctx context.Context, unitID entity.UnitID) error {
	conn, err := g.getConn(ctx)
	if err != nil {
		return fmt.Errorf(_errSendToClient, err)
	}
	_, err = conn.Call(ctx, MethodActivate, ActivateParams{UnitID: unitID}, nil)
	return err
}

func (g *gateway) Query(ctx context.Context) ([]entity.Unit, error) {
	conn, err := g.getConn(ctx)
	if err != nil {
		return nil, fmt.Errorf(_errSendToClient, err)
	}
	var result QueryResult
	if _, err := conn.Call(ctx, MethodQuery, struct{}{}, &result); err != nil {
		return nil, err
	}
	return result.Units, nil
}

func (g *gateway) Open(ctx context.Context, sessionID entity.SessionID, units []entity.PersistedUnit) ([]entity.UnitID, error) {
	conn, err := g.getConn(ctx)
	if err != nil {
		return nil, fmt.Errorf(_errSendToClient, err)
	}
	var result OpenResult
	if _, err := conn.Call(ctx, MethodOpen, OpenParams{SessionID: sessionID, Units: units}, &result); err != nil {
		return nil, err
	}
	if len(result.UnitIDs) != len(units) {
		g.logger.Warnw("client opened a different number of units than requested",
			"session", sessionID, "requested", len(units), "opened", len(result.UnitIDs))
	}
	return result.UnitIDs, nil
}

func (g *gateway) Notify(ctx context.Context, method string, params interface{}) error {
	conn, err := g.getConn(ctx)
	if err != nil {
		return fmt.Errorf(_errSendToClient, err)
	}
	return conn.Notify(ctx, method, params)
}

func (g *gateway) getConn(ctx context.Context) (jsonrpc2.Conn, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if id, err := mapper.ContextToConnectionUUID(ctx); err == nil {
		conn, ok := g.conns[id]
		if !ok {
			return nil, fmt.Errorf("client with id %q not found", id)
		}
		return conn, nil
	}
	if len(g.order) == 0 {
		return nil, &errors.NoClientError{}
	}
	return g.conns[g.order[len(g.order)-1]], nil
}
