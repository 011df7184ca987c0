package mapper

import (
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/model"
)

// SessionToRecord maps a Session entity to its persisted record. Member units are not persisted.
func SessionToRecord(s *entity.Session) *model.Record {
	r := &model.Record{
		ID:           string(s.ID),
		CreatedAt:    s.CreatedAt,
		LastAccessed: s.LastAccessed,
		State:        string(s.State),
		CookieJar:    make(map[string][]model.Cookie, len(s.CookieJar)),
		Color:        s.ColorTag,
	}
	if s.PersistedUnits != nil {
		r.PersistedUnits = make([]model.PersistedUnit, 0, len(s.PersistedUnits))
		for _, u := range s.PersistedUnits {
			r.PersistedUnits = append(r.PersistedUnits, model.PersistedUnit(u))
		}
	}
	for domain, cookies := range s.CookieJar {
		out := make([]model.Cookie, 0, len(cookies))
		for _, c := range cookies {
			out = append(out, cookieToModel(c))
		}
		r.CookieJar[domain] = out
	}
	return r
}

// RecordToSession maps a persisted record to a Session entity with no attached units.
// Records persisted while active come back dormant until reconciliation attaches units.
func RecordToSession(r *model.Record) *entity.Session {
	s := &entity.Session{
		ID:           entity.SessionID(r.ID),
		CreatedAt:    r.CreatedAt,
		LastAccessed: r.LastAccessed,
		State:        entity.StateDormant,
		MemberUnits:  make(map[entity.UnitID]struct{}),
		CookieJar:    make(entity.CookieJar, len(r.CookieJar)),
		ColorTag:     r.Color,
	}
	if r.PersistedUnits != nil {
		s.PersistedUnits = make([]entity.PersistedUnit, 0, len(r.PersistedUnits))
		for _, u := range r.PersistedUnits {
			s.PersistedUnits = append(s.PersistedUnits, entity.PersistedUnit(u))
		}
	}
	for domain, cookies := range r.CookieJar {
		out := make([]entity.Cookie, 0, len(cookies))
		for _, c := range cookies {
			out = append(out, modelToCookie(c))
		}
		s.CookieJar[domain] = out
	}
	return s
}

func cookieToModel(c entity.Cookie) model.Cookie {
	return model.Cookie{
		Name:      c.Name,
		Value:     c.Value,
		Domain:    c.Domain,
		Path:      c.Path,
		HostOnly:  c.HostOnly,
		ExpiresAt: c.ExpiresAt,
		Secure:    c.Secure,
		HTTPOnly:  c.HTTPOnly,
		SameSite:  c.SameSite,
		CreatedAt: c.CreatedAt,
	}
}

func modelToCookie(c model.Cookie) entity.Cookie {
	return entity.Cookie{
		Name:      c.Name,
		Value:     c.Value,
		Domain:    c.Domain,
		Path:      c.Path,
		HostOnly:  c.HostOnly,
		ExpiresAt: c.ExpiresAt,
		Secure:    c.Secure,
		HTTPOnly:  c.HTTPOnly,
		SameSite:  c.SameSite,
		CreatedAt: c.CreatedAt,
	}
}
