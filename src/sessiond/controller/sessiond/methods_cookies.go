package sessiond

import (
	"context"
	"fmt"

	cookiechannel "github.com/tabvault/sessiond/src/sessiond/controller/cookie-channel"
	"github.com/tabvault/sessiond/src/sessiond/internal/cookies"
)

// CookiesRead returns the Cookie header the unit's session jar produces for url. The value
// comes from the unit's channel cache; a cold cache waits for one round trip to the store.
func (c *controller) CookiesRead(ctx context.Context, params *CookieReadParams) (*CookieReadResult, error) {
	if _, err := c.sessions.GetByUnit(ctx, params.UnitID); err != nil {
		return nil, err
	}
	if _, err := cookies.ParseURL(params.URL); err != nil {
		return nil, err
	}

	ch, err := c.cookies.Channel(ctx, params.UnitID, params.URL)
	if err != nil {
		return nil, err
	}
	header, err := ch.CookieFresh(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading cookies: %w", err)
	}
	return &CookieReadResult{CookieHeader: header}, nil
}

// CookiesWrite stores a Set-Cookie string in the unit's session jar. Domain checks run before
// anything is sent so a rejected cookie never reaches the cache.
func (c *controller) CookiesWrite(ctx context.Context, params *CookieWriteParams) (*OKResult, error) {
	if _, err := c.sessions.GetByUnit(ctx, params.UnitID); err != nil {
		return nil, err
	}
	target, err := cookies.ParseURL(params.URL)
	if err != nil {
		return nil, err
	}
	parsed, err := cookies.Parse(params.CookieString, target, c.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("parsing cookie: %w", err)
	}
	if err := cookies.ValidateDomain(parsed.Domain, target.Host); err != nil {
		c.stats.Counter("cookie_rejected").Inc(1)
		return nil, err
	}

	ch, err := c.cookies.Channel(ctx, params.UnitID, params.URL)
	if err != nil {
		return nil, err
	}
	if err := ch.SetCookie(ctx, params.CookieString); err != nil {
		return nil, fmt.Errorf("writing cookie: %w", err)
	}
	return &OKResult{OK: true}, nil
}

// CookieMessage serves a channel message sent by the client. Responses go back as
// cookies/message notifications.
func (c *controller) CookieMessage(ctx context.Context, msg *cookiechannel.Message) error {
	if msg == nil {
		return fmt.Errorf("empty cookie message")
	}
	return c.cookies.Deliver(ctx, msg)
}
