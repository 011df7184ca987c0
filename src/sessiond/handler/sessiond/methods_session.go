package sessiond

import (
	"context"

	controller "github.com/tabvault/sessiond/src/sessiond/controller/sessiond"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"go.lsp.dev/jsonrpc2"
)

// Create starts a new empty session, optionally seeded with a first unit.
func (r *jsonRPCRouter) Create(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.CreateParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.Create(ctx, params)
	return replyResult(ctx, reply, result, err)
}

// ListActive lists the sessions that currently own at least one unit.
func (r *jsonRPCRouter) ListActive(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	result, err := r.sessiond.ListActive(ctx)
	return replyResult(ctx, reply, result, err)
}

// ListDormant lists the sessions with no open unit that can be restored.
func (r *jsonRPCRouter) ListDormant(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	result, err := r.sessiond.ListDormant(ctx)
	return replyResult(ctx, reply, result, err)
}

// ResolveForUnit returns the session owning a unit.
func (r *jsonRPCRouter) ResolveForUnit(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.UnitParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.ResolveForUnit(ctx, params)
	return replyResult(ctx, reply, result, err)
}

// Delete removes a session from the index and every storage layer.
func (r *jsonRPCRouter) Delete(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.SessionParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.Delete(ctx, params)
	return replyResult(ctx, reply, result, err)
}

// Restore reopens the persisted units of a dormant session.
func (r *jsonRPCRouter) Restore(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.SessionParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.Restore(ctx, params)
	return replyResult(ctx, reply, result, err)
}
