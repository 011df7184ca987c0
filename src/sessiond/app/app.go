package app

import (
	"context"
	"time"

	"github.com/tabvault/sessiond/src/sessiond/gateway"
	"github.com/tabvault/sessiond/src/sessiond/handler"
	"github.com/tabvault/sessiond/src/sessiond/internal/clock"
	"github.com/tabvault/sessiond/src/sessiond/internal/core"
	"github.com/tabvault/sessiond/src/sessiond/internal/fs"
	"github.com/tabvault/sessiond/src/sessiond/internal/jsonrpcfx"
	"github.com/tabvault/sessiond/src/sessiond/internal/serverinfofile"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage/durable"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage/volatile"
	"github.com/uber-go/tally"
	"go.uber.org/fx"
)

// Module defines the sessiond application module.
var Module = fx.Options(
	gateway.Module, // outbounds
	handler.Module, // inbounds
	jsonrpcfx.Module,
	fs.Module,
	clock.Module,
	serverinfofile.Module,
	volatile.Module,
	durable.Module,
	core.ConfigModule,
	core.LoggerModule,
	fx.Provide(func(lc fx.Lifecycle) tally.Scope {
		rs, closer := tally.NewRootScope(tally.ScopeOptions{
			Tags: map[string]string{
				"service": "sessiond",
			},
		}, 1*time.Second)

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return closer.Close()
			},
		})

		return rs
	}),
	fx.Decorate(decorateEnvContext),
	fx.Decorate(decorateConfigProvider),
	fx.Provide(func() Context {
		return Context{
			Environment:        EnvLocal,
			RuntimeEnvironment: EnvLocal,
		}
	}),
)
