// Package cookies implements the RFC 6265 matching rules used by session cookie jars.
package cookies

import (
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"golang.org/x/net/publicsuffix"
)

// Target is the request context a cookie operation is evaluated against.
type Target struct {
	Host   string
	Path   string
	Secure bool
}

// ParseURL extracts the cookie target from a page URL.
func ParseURL(rawURL string) (Target, error) {
	if rawURL == "" {
		return Target{}, &errors.NoURLError{}
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return Target{}, &errors.NoURLError{URL: rawURL}
	}
	p := u.EscapedPath()
	if p == "" {
		p = "/"
	}
	return Target{
		Host:   strings.ToLower(u.Hostname()),
		Path:   p,
		Secure: u.Scheme == "https" || u.Scheme == "wss",
	}, nil
}

// Parse converts a Set-Cookie style string written by a page at target into a jar cookie.
// The returned cookie has its domain and path resolved; ValidateDomain should be applied
// before it is stored.
func Parse(s string, target Target, now time.Time) (entity.Cookie, error) {
	hc, err := http.ParseSetCookie(s)
	if err != nil {
		return entity.Cookie{}, err
	}

	c := entity.Cookie{
		Name:      hc.Name,
		Value:     hc.Value,
		Domain:    strings.ToLower(strings.TrimPrefix(hc.Domain, ".")),
		Path:      hc.Path,
		Secure:    hc.Secure,
		HTTPOnly:  hc.HttpOnly,
		SameSite:  sameSite(hc.SameSite),
		CreatedAt: now,
	}
	if c.Domain == "" {
		c.Domain = target.Host
		c.HostOnly = true
	}
	if c.Path == "" || !strings.HasPrefix(c.Path, "/") {
		c.Path = DefaultPath(target.Path)
	}

	switch {
	case hc.MaxAge < 0:
		expired := time.Unix(0, 0).UTC()
		c.ExpiresAt = &expired
	case hc.MaxAge > 0:
		exp := now.Add(time.Duration(hc.MaxAge) * time.Second)
		c.ExpiresAt = &exp
	case !hc.Expires.IsZero():
		exp := hc.Expires.UTC()
		c.ExpiresAt = &exp
	}
	return c, nil
}

// ValidateDomain rejects a cookie domain that the requesting host may not set: the domain
// must be the host itself or a parent domain of it, and must not be a public suffix.
func ValidateDomain(domain, host string) error {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	host = strings.ToLower(host)
	if domain == "" || host == "" {
		return &errors.InvalidDomainError{Domain: domain, Host: host}
	}
	if domain == host {
		return nil
	}
	if net.ParseIP(host) != nil {
		return &errors.InvalidDomainError{Domain: domain, Host: host}
	}
	if !strings.HasSuffix(host, "."+domain) {
		return &errors.InvalidDomainError{Domain: domain, Host: host}
	}
	if suffix, _ := publicsuffix.PublicSuffix(domain); suffix == domain {
		return &errors.InvalidDomainError{Domain: domain, Host: host}
	}
	return nil
}

// DomainMatch reports whether the cookie is sent to host.
func DomainMatch(c entity.Cookie, host string) bool {
	if c.HostOnly {
		return host == c.Domain
	}
	if host == c.Domain {
		return true
	}
	return net.ParseIP(host) == nil && strings.HasSuffix(host, "."+c.Domain)
}

// PathMatch reports whether a request path falls under the cookie path.
func PathMatch(requestPath, cookiePath string) bool {
	if requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

// DefaultPath computes the default cookie path for a request path.
func DefaultPath(requestPath string) string {
	if requestPath == "" || requestPath[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(requestPath, "/")
	if i == 0 {
		return "/"
	}
	return requestPath[:i]
}

// Visible reports whether c is sent with a request to target at now.
func Visible(c entity.Cookie, target Target, now time.Time) bool {
	if c.Expired(now) || (c.Secure && !target.Secure) {
		return false
	}
	return DomainMatch(c, target.Host) && PathMatch(target.Path, c.Path)
}

// Before orders cookies for a Cookie header: longest path first, then longest domain, then
// earliest creation.
func Before(a, b entity.Cookie) bool {
	if len(a.Path) != len(b.Path) {
		return len(a.Path) > len(b.Path)
	}
	if len(a.Domain) != len(b.Domain) {
		return len(a.Domain) > len(b.Domain)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

// Select returns the cookies of jar visible at target in header order. Ties are broken by
// name so the result is deterministic.
func Select(jar entity.CookieJar, target Target, now time.Time) []entity.Cookie {
	var out []entity.Cookie
	for _, list := range jar {
		for _, c := range list {
			if Visible(c, target, now) {
				out = append(out, c)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if Before(out[i], out[j]) || Before(out[j], out[i]) {
			return Before(out[i], out[j])
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Upsert stores c in jar keyed by (name, domain, path). An expired cookie removes the
// existing entry instead. The creation time of a replaced cookie is kept.
func Upsert(jar entity.CookieJar, c entity.Cookie, now time.Time) entity.CookieJar {
	if jar == nil {
		jar = make(entity.CookieJar)
	}
	list := jar[c.Domain]
	for i, existing := range list {
		if !existing.SameKey(c) {
			continue
		}
		if c.Expired(now) {
			list = append(list[:i], list[i+1:]...)
			if len(list) == 0 {
				delete(jar, c.Domain)
			} else {
				jar[c.Domain] = list
			}
			return jar
		}
		c.CreatedAt = existing.CreatedAt
		list[i] = c
		return jar
	}
	if c.Expired(now) {
		return jar
	}
	jar[c.Domain] = append(list, c)
	return jar
}

// Header renders cookies as a Cookie request header value.
func Header(cs []entity.Cookie) string {
	var b strings.Builder
	for i, c := range cs {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(c.Value)
	}
	return b.String()
}

func sameSite(s http.SameSite) string {
	switch s {
	case http.SameSiteLaxMode:
		return "Lax"
	case http.SameSiteStrictMode:
		return "Strict"
	case http.SameSiteNoneMode:
		return "None"
	default:
		return ""
	}
}
