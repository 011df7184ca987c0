package sessiond

import (
	"context"

	cookiechannel "github.com/tabvault/sessiond/src/sessiond/controller/cookie-channel"
	controller "github.com/tabvault/sessiond/src/sessiond/controller/sessiond"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"go.lsp.dev/jsonrpc2"
)

// CookiesRead returns the Cookie header a unit's session produces for a URL.
func (r *jsonRPCRouter) CookiesRead(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.CookieReadParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.CookiesRead(ctx, params)
	return replyResult(ctx, reply, result, err)
}

// CookiesWrite applies a Set-Cookie string to a unit's session jar.
func (r *jsonRPCRouter) CookiesWrite(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	params, err := mapper.RequestToParams[controller.CookieWriteParams](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	result, err := r.sessiond.CookiesWrite(ctx, params)
	return replyResult(ctx, reply, result, err)
}

// CookieMessage passes a cookie channel frame to the controller. It arrives as a notification.
func (r *jsonRPCRouter) CookieMessage(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	msg, err := mapper.RequestToParams[cookiechannel.Message](req)
	if err != nil {
		return replyErr(ctx, reply, err)
	}

	err = r.sessiond.CookieMessage(ctx, msg)
	return replyResult(ctx, reply, nil, err)
}
