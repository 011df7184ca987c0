package sessiond

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/zap"
)

// VersionUpdated is sent by the client after an update replaced the running version. It is a
// startup trigger like any other and reports the recovery that ran.
func (c *controller) VersionUpdated(ctx context.Context) (*VersionUpdatedResult, error) {
	if err := c.Ready(ctx); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return &VersionUpdatedResult{OK: true, Recovery: c.lastRecovery}, nil
}

// InitSession registers a new client connection. A client that connects after startup
// finished gets its open units reconciled against the index in the background.
func (c *controller) InitSession(ctx context.Context, conn jsonrpc2.Conn) (uuid.UUID, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, fmt.Errorf("generating connection id: %w", err)
	}
	if err := c.units.RegisterClient(ctx, id, conn); err != nil {
		return uuid.Nil, err
	}
	c.logger.Infow("client connected", "connection", id)

	if c.guard.Done() {
		c.background(func(ctx context.Context) {
			ctx = mapper.ConnectionUUIDToContext(ctx, id)
			n, err := c.manager.Reconcile(ctx)
			if err != nil {
				c.logger.Warnw("reconciling units of new client", "connection", id, zap.Error(err))
				return
			}
			c.logger.Infow("units reconciled", "connection", id, "attached", n)
		})
	}
	return id, nil
}

// EndSession deregisters a client connection.
func (c *controller) EndSession(ctx context.Context, id uuid.UUID) error {
	if err := c.units.DeregisterClient(ctx, id); err != nil {
		return err
	}
	c.logger.Infow("client disconnected", "connection", id)
	return nil
}
