package cookiechannel

import (
	"context"
	stderr "errors"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/clock"
	"github.com/tabvault/sessiond/src/sessiond/internal/cookies"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
)

const (
	_defaultTimeout   = 5 * time.Second
	_defaultFreshness = 500 * time.Millisecond
)

// WriteState tags an optimistic write in the cache.
type WriteState string

const (
	// WriteUnconfirmed is applied locally and awaiting the store's answer.
	WriteUnconfirmed WriteState = "unconfirmed"
	// WriteConfirmed was accepted by the store.
	WriteConfirmed WriteState = "confirmed"
	// WriteFailed was rejected or timed out. It stays visible until the next revalidation.
	WriteFailed WriteState = "failed"
)

// Write describes an optimistic write still overlaid on the cached header.
type Write struct {
	ID     uint64
	Name   string
	Domain string
	Path   string
	State  WriteState
	Err    error
}

// Options tune a Channel. Zero values select the defaults.
type Options struct {
	Timeout   time.Duration
	Freshness time.Duration
	Clock     clock.Clock
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
}

type pending struct {
	id     uint64
	typ    MessageType
	timer  clock.Timer
	done   chan struct{}
	result chan error
	err    error
}

type write struct {
	id     uint64
	cookie entity.Cookie
	state  WriteState
	err    error
	// settledSeq is the last request id issued when the answer arrived. Revalidations with a
	// higher id already reflect the write.
	settledSeq uint64
}

// Channel is the page side of a cookie channel for one unit. Reads are served from a cache
// that is revalidated in the background, so a value written to the store by another unit may
// take up to one revalidation round trip to become visible. Writes are visible immediately.
type Channel struct {
	unitID    entity.UnitID
	url       string
	target    cookies.Target
	transport Transport
	clock     clock.Clock
	timeout   time.Duration
	freshness time.Duration
	logger    *zap.SugaredLogger
	stats     tally.Scope

	wg sync.WaitGroup

	mu          sync.Mutex
	nextID      uint64
	pending     map[uint64]*pending
	inflight    *pending
	base        []entity.Cookie
	haveBase    bool
	confirmedAt time.Time
	overlay     []*write
	closed      bool
}

// New creates the channel for unitID scoped to rawURL and subscribes it to responses on t.
func New(unitID entity.UnitID, rawURL string, t Transport, opts Options) (*Channel, error) {
	target, err := cookies.ParseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if opts.Timeout <= 0 {
		opts.Timeout = _defaultTimeout
	}
	if opts.Freshness <= 0 {
		opts.Freshness = _defaultFreshness
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Stats == nil {
		opts.Stats = tally.NoopScope
	}

	c := &Channel{
		unitID:    unitID,
		url:       rawURL,
		target:    target,
		transport: t,
		clock:     opts.Clock,
		timeout:   opts.Timeout,
		freshness: opts.Freshness,
		logger:    opts.Logger.With("unit", unitID),
		stats:     opts.Stats.SubScope("cookie_channel"),
		pending:   make(map[uint64]*pending),
	}
	t.OnMessage(c.Receive)
	return c, nil
}

// URL returns the page URL the channel is scoped to.
func (c *Channel) URL() string {
	return c.url
}

// Cookie returns the cached header immediately and starts a revalidation when the cache is
// older than the freshness window.
func (c *Channel) Cookie() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.staleLocked() {
		c.revalidateLocked()
	}
	return c.renderLocked()
}

// CookieFresh behaves like Cookie once the cache holds a confirmed value. On a cold cache it
// waits for the first revalidation.
func (c *Channel) CookieFresh(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.haveBase {
		if c.staleLocked() {
			c.revalidateLocked()
		}
		h := c.renderLocked()
		c.mu.Unlock()
		return h, nil
	}
	p := c.inflight
	if p == nil {
		p = c.revalidateLocked()
	}
	c.mu.Unlock()
	if p == nil {
		return "", errors.ErrChannelClosed
	}

	select {
	case <-p.done:
	case <-ctx.Done():
		return "", ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renderLocked(), p.err
}

// Write applies the Set-Cookie string s to the cache and sends it to the store. The returned
// channel receives the store's answer exactly once.
func (c *Channel) Write(s string) (<-chan error, error) {
	now := c.clock.Now()
	ck, err := cookies.Parse(s, c.target, now)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errors.ErrChannelClosed
	}
	p := c.registerLocked(TypeSetRequest)
	p.result = make(chan error, 1)
	c.overlay = append(c.overlay, &write{id: p.id, cookie: ck, state: WriteUnconfirmed})
	c.dispatchLocked(p, &Message{Type: TypeSetRequest, ID: p.id, UnitID: c.unitID, URL: c.url, Cookie: s})
	return p.result, nil
}

// SetCookie writes s and waits for the store's answer. A rejected write stays in the cache,
// flagged failed, until the next revalidation.
func (c *Channel) SetCookie(ctx context.Context, s string) error {
	result, err := c.Write(s)
	if err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Receive completes the pending request a response answers. Responses for unknown ids are
// discarded.
func (c *Channel) Receive(_ context.Context, m *Message) {
	if m == nil || !m.Type.IsResponse() {
		c.stats.Counter("unexpected_messages").Inc(1)
		return
	}
	c.complete(m.ID, m, nil)
}

// Writes returns the optimistic writes still overlaid on the cache, oldest first.
func (c *Channel) Writes() []Write {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Write, 0, len(c.overlay))
	for _, w := range c.overlay {
		out = append(out, Write{
			ID:     w.id,
			Name:   w.cookie.Name,
			Domain: w.cookie.Domain,
			Path:   w.cookie.Path,
			State:  w.state,
			Err:    w.err,
		})
	}
	return out
}

// Pending returns the number of requests awaiting a response.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Close rejects every pending request with ErrChannelClosed and waits for sends in flight.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	for id, p := range c.pending {
		delete(c.pending, id)
		c.finishLocked(p, nil, errors.ErrChannelClosed)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Channel) staleLocked() bool {
	if c.inflight != nil || c.closed {
		return false
	}
	return !c.haveBase || c.clock.Since(c.confirmedAt) >= c.freshness
}

func (c *Channel) revalidateLocked() *pending {
	if c.closed {
		return nil
	}
	p := c.registerLocked(TypeGetRequest)
	c.inflight = p
	c.dispatchLocked(p, &Message{Type: TypeGetRequest, ID: p.id, UnitID: c.unitID, URL: c.url})
	return p
}

func (c *Channel) registerLocked(typ MessageType) *pending {
	c.nextID++
	id := c.nextID
	p := &pending{id: id, typ: typ, done: make(chan struct{})}
	p.timer = c.clock.AfterFunc(c.timeout, func() {
		c.complete(id, nil, &errors.RequestTimeoutError{ID: id, Timeout: c.timeout})
	})
	c.pending[id] = p
	c.stats.Tagged(map[string]string{"type": string(typ)}).Counter("requests").Inc(1)
	return p
}

func (c *Channel) dispatchLocked(p *pending, m *Message) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.transport.Send(context.Background(), m); err != nil {
			c.complete(p.id, nil, err)
		}
	}()
}

func (c *Channel) complete(id uint64, resp *Message, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pending[id]
	if !ok {
		c.stats.Counter("discarded_responses").Inc(1)
		return
	}
	delete(c.pending, id)
	c.finishLocked(p, resp, err)
}

func (c *Channel) finishLocked(p *pending, resp *Message, err error) {
	p.timer.Stop()
	if err == nil && resp != nil && resp.Error != "" {
		err = &RemoteError{ID: p.id, Message: resp.Error}
	}
	var timeout *errors.RequestTimeoutError
	if stderr.As(err, &timeout) {
		c.stats.Counter("timeouts").Inc(1)
		c.logger.Warnw("cookie request timed out", "id", p.id, "type", p.typ, "timeout", c.timeout)
	}
	p.err = err

	switch p.typ {
	case TypeGetRequest:
		if c.inflight == p {
			c.inflight = nil
		}
		if err == nil && resp != nil {
			c.applyBaseLocked(p.id, baseOf(resp, c.target))
		}
	case TypeSetRequest:
		c.settleLocked(p.id, err)
		p.result <- err
	}
	close(p.done)
}

func (c *Channel) applyBaseLocked(getID uint64, base []entity.Cookie) {
	c.base = base
	c.haveBase = true
	c.confirmedAt = c.clock.Now()

	kept := c.overlay[:0]
	for _, w := range c.overlay {
		switch {
		case w.state == WriteUnconfirmed:
			kept = append(kept, w)
		case w.state == WriteConfirmed && w.settledSeq >= getID:
			kept = append(kept, w)
		}
	}
	for i := len(kept); i < len(c.overlay); i++ {
		c.overlay[i] = nil
	}
	c.overlay = kept
}

func (c *Channel) settleLocked(id uint64, err error) {
	for _, w := range c.overlay {
		if w.id != id {
			continue
		}
		w.settledSeq = c.nextID
		if err != nil {
			w.state = WriteFailed
			w.err = err
			c.stats.Counter("failed_writes").Inc(1)
			c.logger.Warnw("optimistic cookie write rejected, cached value kept until next revalidation",
				"cookie", w.cookie.Name, zap.Error(err))
			return
		}
		w.state = WriteConfirmed
		return
	}
}

// renderLocked overlays the writes on the confirmed cookies the way the store upserts them,
// then keeps what the channel's URL would be sent.
func (c *Channel) renderLocked() string {
	now := c.clock.Now()
	out := append([]entity.Cookie{}, c.base...)
	for _, w := range c.overlay {
		ck := w.cookie
		if i := slices.IndexFunc(out, ck.SameKey); i >= 0 {
			ck.CreatedAt = out[i].CreatedAt
			out = slices.Delete(out, i, i+1)
		}
		out = append(out, ck)
	}
	out = slices.DeleteFunc(out, func(ck entity.Cookie) bool {
		return !cookies.Visible(ck, c.target, now)
	})
	sort.SliceStable(out, func(i, j int) bool { return cookies.Before(out[i], out[j]) })
	return cookies.Header(out)
}
