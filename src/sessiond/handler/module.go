package handler

import (
	controller "github.com/tabvault/sessiond/src/sessiond/controller"
	sessionctrl "github.com/tabvault/sessiond/src/sessiond/controller/sessiond"
	handler "github.com/tabvault/sessiond/src/sessiond/handler/sessiond"
	"github.com/tabvault/sessiond/src/sessiond/repository/session"
	"go.uber.org/fx"
)

// Module provides the sessiond JSON-RPC server into an Fx application.
var Module = fx.Options(
	controller.Module,
	fx.Provide(session.New),
	fx.Provide(handler.New),
	fx.Invoke(func(m handler.Handler) {}),
	fx.Invoke(func(m sessionctrl.Controller) {}),
)
