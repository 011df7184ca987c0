package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/config"
)

func TestNewSugaredLogger(t *testing.T) {
	logFile := filepath.Join(t.TempDir(), "sessiond.log")

	tests := []struct {
		name    string
		cfg     map[string]interface{}
		wantErr bool
	}{
		{
			name: "json to file",
			cfg: map[string]interface{}{
				"level":       "info",
				"encoding":    "json",
				"outputPaths": []string{logFile},
			},
		},
		{
			name: "development console",
			cfg: map[string]interface{}{
				"level":       "debug",
				"development": true,
				"encoding":    "console",
			},
		},
		{
			name:    "invalid level",
			cfg:     map[string]interface{}{"level": "loud"},
			wantErr: true,
		},
		{
			name: "unopenable output",
			cfg: map[string]interface{}{
				"level":       "info",
				"outputPaths": []string{filepath.Join(t.TempDir(), "missing", "dir", "x.log")},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := config.NewStaticProvider(map[string]interface{}{"logging": tt.cfg})
			require.NoError(t, err)

			logger, err := NewSugaredLogger(provider)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, NewLogger(logger))
		})
	}

	t.Run("writes to configured file", func(t *testing.T) {
		provider, err := config.NewStaticProvider(map[string]interface{}{
			"logging": map[string]interface{}{"level": "info", "outputPaths": []string{logFile}},
		})
		require.NoError(t, err)
		logger, err := NewSugaredLogger(provider)
		require.NoError(t, err)

		logger.Infow("session created", "session", "s1")
		_ = logger.Sync()

		data, err := os.ReadFile(logFile)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"session":"s1"`)
	})
}
