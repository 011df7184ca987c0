package cookiechannel

import (
	"context"
	"fmt"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/clock"
	"github.com/tabvault/sessiond/src/sessiond/internal/cookies"
	"github.com/tabvault/sessiond/src/sessiond/repository/session"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
)

// Responder is the store side of a cookie channel. It answers requests against the jar of the
// session the requesting unit belongs to.
type Responder struct {
	sessions session.Repository
	clock    clock.Clock
	logger   *zap.SugaredLogger
	stats    tally.Scope
}

// NewResponder creates a Responder backed by sessions.
func NewResponder(sessions session.Repository, c clock.Clock, logger *zap.SugaredLogger, stats tally.Scope) *Responder {
	return &Responder{
		sessions: sessions,
		clock:    c,
		logger:   logger,
		stats:    stats.SubScope("cookie_responder"),
	}
}

// Serve answers every request arriving on t with a response sent back over t.
func (r *Responder) Serve(t Transport) {
	t.OnMessage(func(ctx context.Context, m *Message) {
		resp := r.Handle(ctx, m)
		if resp == nil {
			return
		}
		if err := t.Send(ctx, resp); err != nil {
			r.logger.Warnw("sending cookie response", "id", m.ID, "unit", m.UnitID, zap.Error(err))
		}
	})
}

// Handle answers a single request. Failures are reported in the response's Error field.
// Messages that are not requests yield nil.
func (r *Responder) Handle(ctx context.Context, m *Message) *Message {
	var (
		resp *Message
		err  error
	)
	switch m.Type {
	case TypeGetRequest:
		resp = &Message{Type: TypeGetResponse, ID: m.ID, UnitID: m.UnitID, URL: m.URL}
		resp.Jar, err = r.read(ctx, m)
		resp.Cookies = cookies.Header(resp.Jar)
	case TypeSetRequest:
		resp = &Message{Type: TypeSetResponse, ID: m.ID, UnitID: m.UnitID, URL: m.URL}
		err = r.write(ctx, m)
	default:
		r.stats.Counter("ignored_messages").Inc(1)
		return nil
	}

	tags := map[string]string{"type": string(m.Type), "result": "ok"}
	if err != nil {
		resp.Error = err.Error()
		tags["result"] = "error"
		r.logger.Debugw("cookie request failed", "id", m.ID, "unit", m.UnitID, zap.Error(err))
	} else {
		resp.OK = true
	}
	r.stats.Tagged(tags).Counter("handled").Inc(1)
	return resp
}

func (r *Responder) read(ctx context.Context, m *Message) ([]entity.Cookie, error) {
	s, err := r.sessions.GetByUnit(ctx, m.UnitID)
	if err != nil {
		return nil, err
	}
	target, err := cookies.ParseURL(m.URL)
	if err != nil {
		return nil, err
	}
	cs, err := r.sessions.CookieRead(ctx, s.ID, target)
	if err != nil {
		return nil, err
	}
	if cs == nil {
		cs = []entity.Cookie{}
	}
	return cs, nil
}

func (r *Responder) write(ctx context.Context, m *Message) error {
	s, err := r.sessions.GetByUnit(ctx, m.UnitID)
	if err != nil {
		return err
	}
	target, err := cookies.ParseURL(m.URL)
	if err != nil {
		return err
	}
	c, err := cookies.Parse(m.Cookie, target, r.clock.Now())
	if err != nil {
		return fmt.Errorf("parsing cookie: %w", err)
	}
	return r.sessions.CookieWrite(ctx, s.ID, target, c)
}
