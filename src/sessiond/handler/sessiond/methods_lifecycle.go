package sessiond

import (
	"context"

	"go.lsp.dev/jsonrpc2"
)

// VersionUpdated is sent by the client after an update. It triggers initialization and
// reports the recovery that ran.
func (r *jsonRPCRouter) VersionUpdated(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	r.stats.Tagged(map[string]string{"method": req.Method()}).Counter("requests").Inc(1)

	result, err := r.sessiond.VersionUpdated(ctx)
	return replyResult(ctx, reply, result, err)
}
