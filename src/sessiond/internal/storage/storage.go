// Package storage defines the contract shared by the persistence backends.
package storage

import (
	"bytes"
	"context"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/model"
)

//go:generate mockgen -destination=storagemock/storage_mock.go -package=storagemock . Layer

// Tier describes the durability class of a layer.
type Tier int

const (
	// TierVolatile layers are fast and lost on process exit.
	TierVolatile Tier = iota
	// TierDurable layers survive process restarts.
	TierDurable
)

// String implements fmt.Stringer.
func (t Tier) String() string {
	if t == TierDurable {
		return "durable"
	}
	return "volatile"
}

// Ack is the acknowledgment level returned by a delete.
type Ack int

const (
	// AckAccepted means the layer accepted the request but has not confirmed durability.
	AckAccepted Ack = iota
	// AckCommitted means the deletion is durable in the layer.
	AckCommitted
)

// Layer is a single persistence backend holding session records keyed by session id.
type Layer interface {
	Name() string
	Tier() Tier
	Put(ctx context.Context, r *model.Record) error
	// Get returns errors.ErrRecordNotFound when the layer holds no record for id.
	Get(ctx context.Context, id string) (*model.Record, error)
	// Delete returns errors.ErrRecordNotFound together with AckCommitted when the record was already absent.
	Delete(ctx context.Context, id string) (Ack, error)
	List(ctx context.Context) ([]*model.Record, error)
	Count(ctx context.Context) (int, error)
}

// Handle is implemented by layers that keep an exclusive handle open against their backing store.
type Handle interface {
	// Close releases the handle. The next access reopens it lazily.
	Close(ctx context.Context) error
	IsOpen() bool
}

// Wiper is implemented by layers that support a whole-store destructive reset.
type Wiper interface {
	Wipe(ctx context.Context) error
}

// PreferenceStore persists optional boolean preferences.
type PreferenceStore interface {
	GetPreference(ctx context.Context, key string) (entity.Preference, error)
	SetPreference(ctx context.Context, key string, p entity.Preference) error
}

var (
	_rawTrue  = []byte("true")
	_rawFalse = []byte("false")
)

// ParsePreference decodes a stored preference. A missing value is unset; anything other
// than a literal boolean is reported as CorruptPreferenceError and resolves to disabled.
func ParsePreference(key string, raw []byte, present bool) (entity.Preference, error) {
	if !present {
		return entity.PreferenceUnset, nil
	}
	switch {
	case bytes.Equal(raw, _rawTrue):
		return entity.PreferenceEnabled, nil
	case bytes.Equal(raw, _rawFalse):
		return entity.PreferenceDisabled, nil
	default:
		return entity.PreferenceDisabled, &errors.CorruptPreferenceError{Key: key, Raw: raw}
	}
}

// EncodePreference encodes a preference for storage. Unset has no encoding and reports false.
func EncodePreference(p entity.Preference) ([]byte, bool) {
	switch p {
	case entity.PreferenceEnabled:
		return _rawTrue, true
	case entity.PreferenceDisabled:
		return _rawFalse, true
	default:
		return nil, false
	}
}
