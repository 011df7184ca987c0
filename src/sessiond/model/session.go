// Package model holds the repository layer representation of persisted sessions.
package model

import "time"

// Record is the persisted layout of a single session, shared by every storage layer.
type Record struct {
	ID             string              `json:"id"`
	CreatedAt      time.Time           `json:"createdAt"`
	LastAccessed   time.Time           `json:"lastAccessed"`
	State          string              `json:"state"`
	PersistedUnits []PersistedUnit     `json:"persistedUnits"`
	CookieJar      map[string][]Cookie `json:"cookieJar"`
	Color          string              `json:"color,omitempty"`
}

// PersistedUnit is the stored form of a dormant unit.
type PersistedUnit struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	IconRef string `json:"iconRef,omitempty"`
}

// Cookie is the stored form of a cookie.
type Cookie struct {
	Name      string     `json:"name"`
	Value     string     `json:"value"`
	Domain    string     `json:"domain"`
	Path      string     `json:"path"`
	HostOnly  bool       `json:"hostOnly,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Secure    bool       `json:"secure,omitempty"`
	HTTPOnly  bool       `json:"httpOnly,omitempty"`
	SameSite  string     `json:"sameSite,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}
