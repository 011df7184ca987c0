package cookiechannel

import (
	"context"
	"sync"

	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
)

// Handler receives messages arriving from the other end of a transport.
type Handler func(ctx context.Context, m *Message)

// Transport carries messages between a Channel and a Responder.
type Transport interface {
	// Send hands m to the other end. It must not wait for a reply.
	Send(ctx context.Context, m *Message) error
	// OnMessage registers the handler for inbound messages, replacing any previous one.
	OnMessage(h Handler)
}

// Notifier publishes a JSON-RPC notification to the connected client.
type Notifier interface {
	Notify(ctx context.Context, method string, params interface{}) error
}

// LocalTransport is one end of an in-process pair. Delivery is asynchronous so a sender
// never runs the receiver's handler on its own stack.
type LocalTransport struct {
	peer *LocalTransport
	wg   *sync.WaitGroup

	mu      sync.RWMutex
	handler Handler
	closed  bool
}

// NewLocalPair returns two connected ends.
func NewLocalPair() (*LocalTransport, *LocalTransport) {
	wg := &sync.WaitGroup{}
	a := &LocalTransport{wg: wg}
	b := &LocalTransport{wg: wg}
	a.peer, b.peer = b, a
	return a, b
}

// Send delivers m to the peer's handler on a new goroutine.
func (t *LocalTransport) Send(ctx context.Context, m *Message) error {
	t.peer.mu.RLock()
	defer t.peer.mu.RUnlock()
	if t.peer.closed || t.closedState() {
		return errors.ErrChannelClosed
	}
	h := t.peer.handler
	if h == nil {
		return errors.New("no handler registered on local peer")
	}

	cp := *m
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		h(context.WithoutCancel(ctx), &cp)
	}()
	return nil
}

// OnMessage implements Transport.
func (t *LocalTransport) OnMessage(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Close stops both ends and waits for in-flight deliveries.
func (t *LocalTransport) Close() {
	for _, end := range []*LocalTransport{t, t.peer} {
		end.mu.Lock()
		end.closed = true
		end.mu.Unlock()
	}
	t.wg.Wait()
}

func (t *LocalTransport) closedState() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.closed
}

// RemoteTransport carries messages to the client as cookies/message notifications. Inbound
// notifications are handed to Deliver by the JSON-RPC router.
type RemoteTransport struct {
	notifier Notifier

	mu      sync.RWMutex
	handler Handler
}

// NewRemoteTransport creates a transport publishing through n.
func NewRemoteTransport(n Notifier) *RemoteTransport {
	return &RemoteTransport{notifier: n}
}

// Send implements Transport.
func (t *RemoteTransport) Send(ctx context.Context, m *Message) error {
	return t.notifier.Notify(ctx, MethodMessage, m)
}

// OnMessage implements Transport.
func (t *RemoteTransport) OnMessage(h Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = h
}

// Deliver passes an inbound message to the registered handler on the caller's goroutine.
func (t *RemoteTransport) Deliver(ctx context.Context, m *Message) error {
	t.mu.RLock()
	h := t.handler
	t.mu.RUnlock()
	if h == nil {
		return errors.New("no cookie message handler registered")
	}
	h(ctx, m)
	return nil
}
