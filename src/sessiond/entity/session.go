// Package entity contains the domain types for the sessiond service.
package entity

import (
	"sort"
	"time"
)

type keyType string

// ConnectionContextKey indicates the key to be used to identify the client connection UUID in the context.
const ConnectionContextKey keyType = "ConnectionUUID"

// SessionID uniquely and opaquely identifies a session.
type SessionID string

// UnitID identifies a browsing unit (tab) as reported by the tab-management client.
type UnitID int64

// SessionState is the lifecycle state of a session.
type SessionState string

const (
	// StateActive marks a session with at least one attached unit.
	StateActive SessionState = "ACTIVE"
	// StateDormant marks a session with no attached units whose restoration data is kept.
	StateDormant SessionState = "DORMANT"
)

// Colors assigned to sessions in creation order.
var Colors = []string{"blue", "red", "green", "yellow", "purple", "pink", "cyan", "orange"}

// PersistedUnit is the restorable metadata of a unit captured when its session went dormant.
type PersistedUnit struct {
	URL     string `json:"url" zap:"url"`
	Title   string `json:"title,omitempty" zap:"title"`
	IconRef string `json:"iconRef,omitempty" zap:"iconRef"`
}

// UnitMeta is the live metadata of an attached unit.
type UnitMeta struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	IconRef string `json:"iconRef"`
}

// Unit is a browsing unit mapped to a session.
type Unit struct {
	ID        UnitID    `json:"unitId"`
	SessionID SessionID `json:"sessionId"`
	Meta      UnitMeta  `json:"meta"`
}

// Session entity representing an isolated group of browsing units sharing a cookie jar.
type Session struct {
	ID           SessionID           `json:"id" zap:"id"`
	CreatedAt    time.Time           `json:"createdAt" zap:"createdAt"`
	LastAccessed time.Time           `json:"lastAccessed" zap:"lastAccessed"`
	State        SessionState        `json:"state" zap:"state"`
	MemberUnits  map[UnitID]struct{} `json:"-" zap:"-"`
	// PersistedUnits is nil until the session has been marked dormant at least once.
	// A non-nil empty slice marks a session recovered without anything to restore.
	PersistedUnits []PersistedUnit `json:"persistedUnits" zap:"-"`
	CookieJar      CookieJar       `json:"-" zap:"-"`
	ColorTag       string          `json:"color" zap:"color"`
}

// HasMembers reports whether any unit is attached to the session.
func (s *Session) HasMembers() bool {
	return len(s.MemberUnits) > 0
}

// Preserved reports whether the session carries restoration data, which forbids automatic deletion.
func (s *Session) Preserved() bool {
	return len(s.PersistedUnits) > 0
}

// Members returns the attached unit ids in ascending order.
func (s *Session) Members() []UnitID {
	ids := make([]UnitID, 0, len(s.MemberUnits))
	for id := range s.MemberUnits {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Clone returns a deep copy that can be handed out without exposing the index.
func (s *Session) Clone() *Session {
	c := *s
	c.MemberUnits = make(map[UnitID]struct{}, len(s.MemberUnits))
	for id := range s.MemberUnits {
		c.MemberUnits[id] = struct{}{}
	}
	if s.PersistedUnits != nil {
		c.PersistedUnits = append([]PersistedUnit{}, s.PersistedUnits...)
	}
	c.CookieJar = s.CookieJar.Clone()
	return &c
}
