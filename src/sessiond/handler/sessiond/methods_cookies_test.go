package sessiond

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	cookiechannel "github.com/tabvault/sessiond/src/sessiond/controller/cookie-channel"
	controller "github.com/tabvault/sessiond/src/sessiond/controller/sessiond"
	"github.com/tabvault/sessiond/src/sessiond/factory"
	sessionerrors "github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"go.lsp.dev/jsonrpc2"
	"go.uber.org/mock/gomock"
)

func TestCookiesRead(t *testing.T) {
	ctx := context.Background()
	params := controller.CookieReadParams{UnitID: 3, URL: "https://example.com/a"}

	tests := []struct {
		name     string
		result   *controller.CookieReadResult
		ctrlErr  error
		wantCode jsonrpc2.Code
	}{
		{
			name:   "header returned",
			result: &controller.CookieReadResult{CookieHeader: "sid=abc"},
		},
		{
			name:     "unit without session",
			ctrlErr:  &sessionerrors.NoSessionError{UnitID: 3},
			wantCode: mapper.CodeNotFound,
		},
		{
			name:     "no url",
			ctrlErr:  &sessionerrors.NoURLError{},
			wantCode: jsonrpc2.InvalidParams,
		},
		{
			name:     "store timeout",
			ctrlErr:  &sessionerrors.RequestTimeoutError{ID: 1},
			wantCode: mapper.CodeRequestTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, c := newTestRouter(t)
			c.EXPECT().CookiesRead(gomock.Any(), &params).Return(tt.result, tt.ctrlErr)

			replier, got := newCapturingReplier()
			err := r.HandleReq(ctx, replier, factory.JSONRPCRequest(MethodCookiesRead, params))
			if tt.ctrlErr == nil {
				require.NoError(t, err)
				assert.Equal(t, tt.result, got.result)
				return
			}
			var rpcErr *jsonrpc2.Error
			require.ErrorAs(t, err, &rpcErr)
			assert.Equal(t, tt.wantCode, rpcErr.Code)
		})
	}
}

func TestCookiesWrite(t *testing.T) {
	ctx := context.Background()
	params := controller.CookieWriteParams{UnitID: 3, URL: "https://example.com", CookieString: "sid=abc; Domain=com"}

	t.Run("invalid domain", func(t *testing.T) {
		r, c := newTestRouter(t)
		c.EXPECT().CookiesWrite(gomock.Any(), &params).Return(nil, &sessionerrors.InvalidDomainError{Domain: "com", Host: "example.com"})

		err := r.HandleReq(ctx, newMockReplier(), factory.JSONRPCRequest(MethodCookiesWrite, params))
		var rpcErr *jsonrpc2.Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, jsonrpc2.InvalidParams, rpcErr.Code)
	})

	t.Run("success", func(t *testing.T) {
		r, c := newTestRouter(t)
		c.EXPECT().CookiesWrite(gomock.Any(), gomock.Any()).Return(&controller.OKResult{OK: true}, nil)

		replier, got := newCapturingReplier()
		require.NoError(t, r.HandleReq(ctx, replier, factory.JSONRPCRequest(MethodCookiesWrite, params)))
		assert.Equal(t, &controller.OKResult{OK: true}, got.result)
	})
}

func TestCookieMessage(t *testing.T) {
	ctx := context.Background()
	msg := cookiechannel.Message{Type: cookiechannel.TypeGetResponse, ID: 7, UnitID: 3, Cookies: "a=b"}

	t.Run("delivered", func(t *testing.T) {
		r, c := newTestRouter(t)
		c.EXPECT().CookieMessage(gomock.Any(), &msg).Return(nil)

		assert.NoError(t, r.HandleReq(ctx, newMockReplier(), factory.JSONRPCNotification(MethodCookiesMessage, msg)))
	})

	t.Run("malformed frame", func(t *testing.T) {
		r, _ := newTestRouter(t)
		err := r.HandleReq(ctx, newMockReplier(), factory.JSONRPCNotification(MethodCookiesMessage, "frame"))
		var rpcErr *jsonrpc2.Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, jsonrpc2.ParseError, rpcErr.Code)
	})
}
