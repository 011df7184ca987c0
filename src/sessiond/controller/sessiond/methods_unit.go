package sessiond

import (
	"context"
	stderr "errors"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
)

// SwitchTo asks the client to focus a unit owned by a session.
func (c *controller) SwitchTo(ctx context.Context, params *UnitParams) (*OKResult, error) {
	if _, err := c.sessions.Unit(ctx, params.UnitID); err != nil {
		return nil, err
	}
	if err := c.units.Activate(ctx, params.UnitID); err != nil {
		return nil, err
	}
	return &OKResult{OK: true}, nil
}

// UnitAttached maps a unit into a session. A unit that names no session joins the session of
// the unit that opened it; without either it stays unmanaged and an empty id is returned. A
// unit moved out of a session it leaves empty makes that session dormant, or deletes it in
// ephemeral mode.
func (c *controller) UnitAttached(ctx context.Context, params *UnitEventParams) (*SessionResult, error) {
	target := params.SessionID
	if target == "" && params.OpenerUnitID != 0 {
		if s, err := c.sessions.GetByUnit(ctx, params.OpenerUnitID); err == nil {
			target = s.ID
		}
	}
	if target == "" {
		return &SessionResult{}, nil
	}

	out, err := c.manager.Attach(ctx, params.UnitID, target, metaOf(params))
	if err != nil {
		c.checkIndex(ctx, err)
		return nil, err
	}
	if out.Left != nil {
		// The cached cookies belong to the session the unit left.
		c.cookies.Drop(params.UnitID)
	}
	return &SessionResult{SessionID: out.Session.ID}, nil
}

// UnitUpdated refreshes the cached metadata of a unit after navigation or a title change.
// Updates for unmanaged units are acknowledged and ignored.
func (c *controller) UnitUpdated(ctx context.Context, params *UnitEventParams) (*OKResult, error) {
	err := c.sessions.UpdateUnit(ctx, params.UnitID, metaOf(params))
	var notFound *errors.UnitNotFoundError
	switch {
	case stderr.As(err, &notFound):
		return &OKResult{OK: true}, nil
	case err != nil:
		c.checkIndex(ctx, err)
		return nil, err
	}
	return &OKResult{OK: true}, nil
}

// UnitDetached removes a closed unit. When it was the last unit of its session the session
// becomes dormant, or is deleted in ephemeral mode.
func (c *controller) UnitDetached(ctx context.Context, params *UnitParams) (*DetachResult, error) {
	c.cookies.Drop(params.UnitID)

	out, err := c.manager.Detach(ctx, params.UnitID)
	var notFound *errors.UnitNotFoundError
	switch {
	case stderr.As(err, &notFound):
		return &DetachResult{OK: true}, nil
	case err != nil:
		c.checkIndex(ctx, err)
		return nil, err
	}
	return &DetachResult{
		OK:        out.Deleted == nil || out.Deleted.OK(),
		SessionID: out.SessionID,
		Dormant:   out.Dormant,
		Deleted:   out.Deleted,
	}, nil
}

func metaOf(p *UnitEventParams) entity.UnitMeta {
	return entity.UnitMeta{URL: p.URL, Title: p.Title, IconRef: p.IconRef}
}
