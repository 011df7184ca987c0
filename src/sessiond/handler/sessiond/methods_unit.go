package sessiond

import (
	"context"

	controller "github.com/tabvault/sessiond/src/sessiond/controller/sessiond"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"go.lsp.dev/jsonrpc2"
)

// SwitchTo focuses a unit in the client.
func (r *jsonRPCRouter) SwitchTo(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.UnitParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.SwitchTo(ctx, params)
	return replyResult(ctx, reply, result, err)
}

// UnitAttached is sent by the client when a unit is created.
func (r *jsonRPCRouter) UnitAttached(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.UnitEventParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.UnitAttached(ctx, params)
	return replyResult(ctx, reply, result, err)
}

// UnitUpdated is sent by the client when a unit navigates or changes title.
func (r *jsonRPCRouter) UnitUpdated(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.UnitEventParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.UnitUpdated(ctx, params)
	return replyResult(ctx, reply, result, err)
}

// UnitDetached is sent by the client when a unit is closed.
func (r *jsonRPCRouter) UnitDetached(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.UnitParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.UnitDetached(ctx, params)
	return replyResult(ctx, reply, result, err)
}
