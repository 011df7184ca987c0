package mapper

import (
	"encoding/json"
	stderr "errors"

	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"go.lsp.dev/jsonrpc2"
)

// Application error codes, outside the range reserved by JSON-RPC.
const (
	CodeNotFound       jsonrpc2.Code = -32004
	CodeSessionLimit   jsonrpc2.Code = -32005
	CodeBlocked        jsonrpc2.Code = -32006
	CodeRequestTimeout jsonrpc2.Code = -32007
	CodeNoClient       jsonrpc2.Code = -32008
)

// ErrorData is attached to every error returned to a client so it can branch on the kind
// without parsing the message.
type ErrorData struct {
	Kind string `json:"kind"`
}

// ErrorToRPCError maps a domain error onto a *jsonrpc2.Error with a matching code and kind.
// Errors that already carry a JSON-RPC code keep it.
func ErrorToRPCError(err error) error {
	if err == nil {
		return nil
	}

	code, kind := classify(err)
	rpcErr := jsonrpc2.NewError(code, err.Error())
	if data, mErr := json.Marshal(ErrorData{Kind: kind}); mErr == nil {
		raw := json.RawMessage(data)
		rpcErr.Data = &raw
	}
	return rpcErr
}

func classify(err error) (jsonrpc2.Code, string) {
	var (
		rpcErr             *jsonrpc2.Error
		sessionNotFound    *errors.SessionNotFoundError
		unitNotFound       *errors.UnitNotFoundError
		noSession          *errors.NoSessionError
		invalidDomain      *errors.InvalidDomainError
		noURL              *errors.NoURLError
		sessionLimit       *errors.SessionLimitError
		blocked            *errors.BlockedOperationError
		timeout            *errors.RequestTimeoutError
		noClient           *errors.NoClientError
		indexInconsistency *errors.IndexInconsistencyError
	)

	switch {
	case stderr.As(err, &sessionNotFound):
		return CodeNotFound, "SessionNotFound"
	case stderr.As(err, &unitNotFound):
		return CodeNotFound, "UnitNotFound"
	case stderr.As(err, &noSession):
		return CodeNotFound, "NoSession"
	case stderr.As(err, &invalidDomain):
		return jsonrpc2.InvalidParams, "InvalidDomain"
	case stderr.As(err, &noURL):
		return jsonrpc2.InvalidParams, "NoUrl"
	case stderr.As(err, &sessionLimit):
		return CodeSessionLimit, "SessionLimit"
	case stderr.As(err, &blocked):
		return CodeBlocked, "BlockedOperation"
	case stderr.As(err, &timeout):
		return CodeRequestTimeout, "RequestTimeout"
	case stderr.As(err, &noClient):
		return CodeNoClient, "NoClient"
	case stderr.As(err, &indexInconsistency):
		return jsonrpc2.InternalError, "IndexInconsistency"
	case stderr.As(err, &rpcErr):
		return rpcErr.Code, "Protocol"
	}
	return jsonrpc2.InternalError, "Internal"
}
