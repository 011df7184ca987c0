package sessiond

import (
	"time"

	"github.com/tabvault/sessiond/src/sessiond/controller/lifecycle"
	"github.com/tabvault/sessiond/src/sessiond/controller/persistence"
	"github.com/tabvault/sessiond/src/sessiond/entity"
)

// CreateParams are the parameters of session/create.
type CreateParams struct {
	SeedURL string `json:"seedUrl,omitempty"`
}

// SessionParams identify a session.
type SessionParams struct {
	SessionID entity.SessionID `json:"sessionId"`
}

// UnitParams identify a unit.
type UnitParams struct {
	UnitID entity.UnitID `json:"unitId"`
}

// SessionResult carries a single session id.
type SessionResult struct {
	SessionID entity.SessionID `json:"sessionId"`
}

// OKResult acknowledges an operation.
type OKResult struct {
	OK bool `json:"ok"`
}

// UnitSummary describes a unit in a session listing. Dormant sessions list their persisted
// units without an id.
type UnitSummary struct {
	UnitID  entity.UnitID `json:"unitId,omitempty"`
	Title   string        `json:"title"`
	Domain  string        `json:"domain"`
	URL     string        `json:"url"`
	IconRef string        `json:"iconRef,omitempty"`
}

// SessionSummary describes a session in a listing.
type SessionSummary struct {
	SessionID    entity.SessionID    `json:"sessionId"`
	Color        string              `json:"color"`
	State        entity.SessionState `json:"state"`
	LastAccessed time.Time           `json:"lastAccessed"`
	Units        []UnitSummary       `json:"units"`
}

// ListResult is the result of the session listings.
type ListResult struct {
	Sessions []SessionSummary `json:"sessions"`
}

// DeleteResult is the result of session/delete.
type DeleteResult struct {
	OK              bool                      `json:"ok"`
	AlreadyAbsent   bool                      `json:"alreadyAbsent,omitempty"`
	PerLayerResults []persistence.LayerResult `json:"perLayerResults"`
	Compaction      *persistence.LayerResult  `json:"compaction,omitempty"`
}

// RestoreResult is the result of session/restore.
type RestoreResult struct {
	OK      bool            `json:"ok"`
	UnitIDs []entity.UnitID `json:"unitIds"`
}

// CookieReadParams are the parameters of cookies/read.
type CookieReadParams struct {
	UnitID entity.UnitID `json:"unitId"`
	URL    string        `json:"url"`
}

// CookieReadResult is the result of cookies/read.
type CookieReadResult struct {
	CookieHeader string `json:"cookieHeader"`
}

// CookieWriteParams are the parameters of cookies/write.
type CookieWriteParams struct {
	UnitID       entity.UnitID `json:"unitId"`
	URL          string        `json:"url"`
	CookieString string        `json:"cookieString"`
}

// UnitEventParams describe a unit reported by the client. On attach, SessionID names the
// target session; when empty the unit joins the session of OpenerUnitID, if any.
type UnitEventParams struct {
	UnitID       entity.UnitID    `json:"unitId"`
	SessionID    entity.SessionID `json:"sessionId,omitempty"`
	OpenerUnitID entity.UnitID    `json:"openerUnitId,omitempty"`
	URL          string           `json:"url,omitempty"`
	Title        string           `json:"title,omitempty"`
	IconRef      string           `json:"iconRef,omitempty"`
}

// DetachResult is the result of unit/detached.
type DetachResult struct {
	OK        bool                      `json:"ok"`
	SessionID entity.SessionID          `json:"sessionId,omitempty"`
	Dormant   bool                      `json:"dormant,omitempty"`
	Deleted   *persistence.DeleteReport `json:"deleted,omitempty"`
}

// StatsResult is the result of storage/stats.
type StatsResult struct {
	SessionCount   int                       `json:"sessionCount"`
	PerLayerCounts []persistence.LayerCount  `json:"perLayerCounts"`
	SessionList    []SessionSummary          `json:"sessionList"`
	Consistent     bool                      `json:"consistent"`
	Initialized    bool                      `json:"initialized"`
	LastRecovery   *lifecycle.RecoveryReport `json:"lastRecovery,omitempty"`
}

// WipeResult is the result of storage/wipe.
type WipeResult struct {
	OK              bool                      `json:"ok"`
	PerLayerResults []persistence.LayerResult `json:"perLayerResults"`
	Removed         int                       `json:"removed"`
}

// PreferencesParams are the parameters of preferences/set.
type PreferencesParams struct {
	AutoRestore bool `json:"autoRestore"`
}

// PreferencesResult is the result of the preference methods. AutoRestore is null when
// nothing has been stored.
type PreferencesResult struct {
	AutoRestore *bool `json:"autoRestore"`
	Effective   bool  `json:"effective"`
}

// VersionUpdatedResult is the result of lifecycle/versionUpdated.
type VersionUpdatedResult struct {
	OK       bool                      `json:"ok"`
	Recovery *lifecycle.RecoveryReport `json:"recovery,omitempty"`
}
