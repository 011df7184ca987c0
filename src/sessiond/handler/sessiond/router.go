package sessiond

import (
	"context"

	"github.com/gofrs/uuid"
	cookiechannel "github.com/tabvault/sessiond/src/sessiond/controller/cookie-channel"
	controller "github.com/tabvault/sessiond/src/sessiond/controller/sessiond"
	"github.com/tabvault/sessiond/src/sessiond/mapper"
	"github.com/uber-go/tally"
	"go.lsp.dev/jsonrpc2"
)

// Methods served by sessiond.
const (
	MethodSessionCreate         = "session/create"
	MethodSessionListActive     = "session/listActive"
	MethodSessionListDormant    = "session/listDormant"
	MethodSessionResolveForUnit = "session/resolveForUnit"
	MethodSessionDelete         = "session/delete"
	MethodSessionRestore        = "session/restore"

	MethodCookiesRead    = "cookies/read"
	MethodCookiesWrite   = "cookies/write"
	MethodCookiesMessage = cookiechannel.MethodMessage

	MethodUnitSwitchTo = "unit/switchTo"
	MethodUnitAttached = "unit/attached"
	MethodUnitUpdated  = "unit/updated"
	MethodUnitDetached = "unit/detached"

	MethodStorageCloseDurableHandle = "storage/closeDurableHandle"
	MethodStorageStats              = "storage/stats"
	MethodStorageWipe               = "storage/wipe"

	MethodPreferencesGet = "preferences/get"
	MethodPreferencesSet = "preferences/set"

	MethodLifecycleVersionUpdated = "lifecycle/versionUpdated"
)

type jsonRPCRouter struct {
	sessiond controller.Controller
	uuid     uuid.UUID
	stats    tally.Scope
}

type methodHandler func(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error

// HandleReq handles routing for a single request.
func (r *jsonRPCRouter) HandleReq(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	ctx = mapper.ConnectionUUIDToContext(ctx, r.uuid)

	var h methodHandler
	switch req.Method() {
	// Lifecycle related methods. versionUpdated triggers initialization itself.
	case MethodLifecycleVersionUpdated:
		return r.VersionUpdated(ctx, reply, req)

	// Session related methods.
	case MethodSessionCreate:
		h = r.Create
	case MethodSessionListActive:
		h = r.ListActive
	case MethodSessionListDormant:
		h = r.ListDormant
	case MethodSessionResolveForUnit:
		h = r.ResolveForUnit
	case MethodSessionDelete:
		h = r.Delete
	case MethodSessionRestore:
		h = r.Restore

	// Cookie related methods.
	case MethodCookiesRead:
		h = r.CookiesRead
	case MethodCookiesWrite:
		h = r.CookiesWrite
	case MethodCookiesMessage:
		h = r.CookieMessage

	// Unit related methods.
	case MethodUnitSwitchTo:
		h = r.SwitchTo
	case MethodUnitAttached:
		h = r.UnitAttached
	case MethodUnitUpdated:
		h = r.UnitUpdated
	case MethodUnitDetached:
		h = r.UnitDetached

	// Storage related methods.
	case MethodStorageCloseDurableHandle:
		h = r.CloseDurableHandle
	case MethodStorageStats:
		h = r.Stats
	case MethodStorageWipe:
		h = r.Wipe
	case MethodPreferencesGet:
		h = r.GetPreferences
	case MethodPreferencesSet:
		h = r.SetPreferences

	default:
		return jsonrpc2.MethodNotFoundHandler(ctx, reply, req)
	}

	r.stats.Tagged(map[string]string{"method": req.Method()}).Counter("requests").Inc(1)

	// Every operation is a startup trigger and waits for initialization to finish.
	if err := r.sessiond.Ready(ctx); err != nil {
		return replyErr(ctx, reply, err)
	}
	return h(ctx, reply, req)
}

// UUID returns the UUID of the connection served by this router.
func (r *jsonRPCRouter) UUID() uuid.UUID {
	return r.uuid
}

func replyErr(ctx context.Context, reply jsonrpc2.Replier, err error) error {
	return reply(ctx, nil, mapper.ErrorToRPCError(err))
}

// replyResult sends result when err is nil, and the mapped error otherwise.
func replyResult(ctx context.Context, reply jsonrpc2.Replier, result interface{}, err error) error {
	if err != nil {
		return replyErr(ctx, reply, err)
	}
	return reply(ctx, result, nil)
}
