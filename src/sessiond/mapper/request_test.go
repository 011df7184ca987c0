package mapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabvault/sessiond/src/sessiond/factory"
	"go.lsp.dev/jsonrpc2"
)

type sampleParams struct {
	UnitID int64  `json:"unitId"`
	URL    string `json:"url"`
}

func TestRequestToParams(t *testing.T) {
	t.Run("valid params", func(t *testing.T) {
		req := factory.JSONRPCRequest("cookies/read", sampleParams{UnitID: 4, URL: "https://example.com"})
		result, err := RequestToParams[sampleParams](req)
		require.NoError(t, err)
		assert.Equal(t, int64(4), result.UnitID)
		assert.Equal(t, "https://example.com", result.URL)
	})

	t.Run("no params", func(t *testing.T) {
		req := factory.JSONRPCRequest("storage/stats", nil)
		result, err := RequestToParams[sampleParams](req)
		require.NoError(t, err)
		assert.Equal(t, &sampleParams{}, result)
	})

	t.Run("invalid params", func(t *testing.T) {
		req := factory.JSONRPCRequest("cookies/read", struct {
			UnitID string `json:"unitId"`
		}{UnitID: "four"})
		_, err := RequestToParams[sampleParams](req)
		assert.ErrorIs(t, err, jsonrpc2.ErrParse)
	})
}
