package controller

import (
	cookiechannel "github.com/tabvault/sessiond/src/sessiond/controller/cookie-channel"
	"github.com/tabvault/sessiond/src/sessiond/controller/lifecycle"
	"github.com/tabvault/sessiond/src/sessiond/controller/persistence"
	"github.com/tabvault/sessiond/src/sessiond/controller/sessiond"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(sessiond.New),
	persistence.Module,
	lifecycle.Module,
	cookiechannel.Module,
)
