package mapper

import (
	"encoding/json"
	"fmt"

	"go.lsp.dev/jsonrpc2"
)

// RequestToParams decodes the parameters of a jsonrpc2.Request into a new T.
// Requests without parameters decode into the zero value.
func RequestToParams[T any](req jsonrpc2.Request) (*T, error) {
	params := new(T)
	raw := req.Params()
	if len(raw) == 0 || string(raw) == "null" {
		return params, nil
	}
	if err := json.Unmarshal(raw, params); err != nil {
		return nil, wrapErrParse(err)
	}
	return params, nil
}

func wrapErrParse(err error) error {
	return fmt.Errorf("%w: %v", jsonrpc2.ErrParse, err)
}
