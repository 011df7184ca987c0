package sessiond

import (
	"context"

	controller "github.com/tabvault/sessiond/src/sessiond/controller/sessiond"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"go.lsp.dev/jsonrpc2"
)

// CloseDurableHandle releases the durable store handle so whole-store operations can run.
func (r *jsonRPCRouter) CloseDurableHandle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	result, err := r.sessiond.CloseDurableHandle(ctx)
	return replyResult(ctx, reply, result, err)
}

// Stats reports index and storage statistics.
func (r *jsonRPCRouter) Stats(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	result, err := r.sessiond.Stats(ctx)
	return replyResult(ctx, reply, result, err)
}

// Wipe clears every storage layer.
func (r *jsonRPCRouter) Wipe(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	result, err := r.sessiond.Wipe(ctx)
	return replyResult(ctx, reply, result, err)
}

// GetPreferences returns the auto-restore preference.
func (r *jsonRPCRouter) GetPreferences(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	result, err := r.sessiond.GetPreferences(ctx)
	return replyResult(ctx, reply, result, err)
}

// SetPreferences stores the auto-restore preference.
func (r *jsonRPCRouter) SetPreferences(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.PreferencesParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.SetPreferences(ctx, params)
	return replyResult(ctx, reply, result, err)
}
