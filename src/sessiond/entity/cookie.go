package entity

import "time"

// Cookie is a single cookie stored in a session's jar.
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

// Expired reports whether the cookie has an expiry at or before now.
func (c Cookie) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && !c.ExpiresAt.After(now)
}

// SameKey reports whether two cookies share the (name, domain, path) identity.
func (c Cookie) SameKey(o Cookie) bool {
	return c.Name == o.Name && c.Domain == o.Domain && c.Path == o.Path
}

// CookieJar maps a cookie domain to its cookies in insertion order.
// A jar is owned by exactly one session.
type CookieJar map[string][]Cookie

// Clone returns a deep copy of the jar.
func (j CookieJar) Clone() CookieJar {
	if j == nil {
		return nil
	}
	c := make(CookieJar, len(j))
	for domain, cookies := range j {
		cp := make([]Cookie, len(cookies))
		copy(cp, cookies)
		for i := range cp {
			if cookies[i].ExpiresAt != nil {
				exp := *cookies[i].ExpiresAt
				cp[i].ExpiresAt = &exp
			}
		}
		c[domain] = cp
	}
	return c
}

// Len returns the total number of cookies across all domains.
func (j CookieJar) Len() int {
	n := 0
	for _, cookies := range j {
		n += len(cookies)
	}
	return n
}
