package mapper

import (
	"context"

	"github.com/gofrs/uuid"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
)

// ContextToConnectionUUID returns the client connection id carried by the context.
func ContextToConnectionUUID(c context.Context) (uuid.UUID, error) {
	id, ok := c.Value(entity.ConnectionContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, &errors.NoClientError{}
	}
	return id, nil
}

// ConnectionUUIDToContext returns a copy of c carrying the client connection id.
func ConnectionUUIDToContext(c context.Context, id uuid.UUID) context.Context {
	return context.WithValue(c, entity.ConnectionContextKey, id)
}
