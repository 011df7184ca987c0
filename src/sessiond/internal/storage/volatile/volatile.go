// Package volatile implements the fast in-memory storage layer.
package volatile

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage"
	"github.com/tabvault/sessiond/src/sessiond/model"
	"github.com/uber-go/tally"
	"go.uber.org/fx"
)

const _name = "volatile"

// Module provides the volatile layer into the persistence layer group.
var Module = fx.Provide(
	fx.Annotate(
		New,
		fx.ResultTags(`group:"layers"`),
	),
)

type layer struct {
	mu       sync.Mutex
	memstore map[string][]byte
	stats    tally.Scope
}

// New returns an in-memory key-value layer. Records are stored encoded so callers never share
// memory with the layer.
func New(stats tally.Scope) storage.Layer {
	return &layer{
		memstore: make(map[string][]byte),
		stats:    stats.SubScope(_name),
	}
}

func (l *layer) Name() string { return _name }

func (l *layer) Tier() storage.Tier { return storage.TierVolatile }

// Put stores the record under its id.
func (l *layer) Put(ctx context.Context, r *model.Record) error {
	if r == nil {
		return errors.New("can't save nil record")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", r.ID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.memstore[r.ID] = data
	l.stats.Gauge("records").Update(float64(len(l.memstore)))
	return nil
}

// Get returns the record stored under id.
func (l *layer) Get(ctx context.Context, id string) (*model.Record, error) {
	l.mu.Lock()
	data, ok := l.memstore[id]
	l.mu.Unlock()
	if !ok {
		return nil, errors.ErrRecordNotFound
	}

	var r model.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding record %q: %w", id, err)
	}
	return &r, nil
}

// Delete removes the record. In-memory deletion is committed as soon as it returns.
func (l *layer) Delete(ctx context.Context, id string) (storage.Ack, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.memstore[id]; !ok {
		return storage.AckCommitted, errors.ErrRecordNotFound
	}
	delete(l.memstore, id)
	l.stats.Gauge("records").Update(float64(len(l.memstore)))
	return storage.AckCommitted, nil
}

// List returns every stored record.
func (l *layer) List(ctx context.Context) ([]*model.Record, error) {
	l.mu.Lock()
	encoded := make([][]byte, 0, len(l.memstore))
	for _, data := range l.memstore {
		encoded = append(encoded, data)
	}
	l.mu.Unlock()

	records := make([]*model.Record, 0, len(encoded))
	for _, data := range encoded {
		var r model.Record
		if err := json.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("decoding record: %w", err)
		}
		records = append(records, &r)
	}
	return records, nil
}

// Count returns the number of stored records.
func (l *layer) Count(ctx context.Context) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.memstore), nil
}

// Wipe drops every record.
func (l *layer) Wipe(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.memstore = make(map[string][]byte)
	l.stats.Gauge("records").Update(0)
	return nil
}
