package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tabvault/sessiond/src/sessiond/gateway/policy"
	"github.com/tabvault/sessiond/src/sessiond/gateway/units"
	"github.com/tabvault/sessiond/src/sessiond/internal/fs"
	"github.com/uber-go/tally"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestModule(t *testing.T) {
	assert.NoError(t, fx.ValidateApp(
		Module,
		fs.Module,
		fx.Provide(func() (config.Provider, error) {
			return config.NewStaticProvider(map[string]interface{}{})
		}),
		fx.Provide(func() *zap.SugaredLogger { return zap.NewNop().Sugar() }),
		fx.Provide(func() tally.Scope { return tally.NoopScope }),
		fx.Invoke(func(units.Gateway, policy.Provider) {}),
	))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
