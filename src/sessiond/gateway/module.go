// Package gateway wires the outbound dependencies of the service.
package gateway

import (
	"github.com/tabvault/sessiond/src/sessiond/gateway/policy"
	"github.com/tabvault/sessiond/src/sessiond/gateway/units"
	"go.uber.org/fx"
)

// Module provides the client gateway and the tier policy provider.
var Module = fx.Options(
	units.Module,
	policy.Module,
)
