package persistence

import (
	"github.com/tabvault/sessiond/src/sessiond/repository/session"
	"go.uber.org/fx"
)

// Module provides the synchronizer and exposes it as the session index sink.
var Module = fx.Options(
	fx.Provide(New),
	fx.Provide(AsSink),
)

// AsSink exposes the synchronizer as the write target of the session index.
func AsSink(s Synchronizer) session.Sink {
	return s
}
