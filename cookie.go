package edgesession

import (
	"math"
	"net/http"
	"time"
)

// SessionCookieName is the cookie the signed session id lives in.
//
// Browsers only accept a "__Host-" cookie when it is Secure, has Path=/ and
// no Domain, so the cookie cannot be planted from a sibling subdomain.
// https://developer.mozilla.org/en-US/docs/Web/HTTP/Cookies#cookie_prefixes
const SessionCookieName = "__Host-session"

// CookieReader is the read side of a cookie jar.
type CookieReader interface {
	Get(name string) (value string, ok bool)
}

// CookieJar is a cookie jar that can also write cookies.
type CookieJar interface {
	CookieReader
	Set(cookie *http.Cookie)
	Delete(name string)
}

// newSessionCookie returns the session cookie carrying a signed id.
// Max-Age is derived from expires for clients that prefer it; Expires is
// still set for those that only understand Expires.
// https://github.com/golang/go/issues/52989#issuecomment-1131176565
func newSessionCookie(value string, expires, now time.Time) *http.Cookie {
	maxAge := int(math.Ceil(expires.Sub(now).Seconds()))
	if maxAge < 1 {
		// MaxAge=0 would mean "no Max-Age" to net/http, keep the cookie
		// alive for the shortest representable time instead.
		maxAge = 1
	}
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		MaxAge:   maxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// expiredSessionCookie returns a cookie that makes the client drop the
// session cookie.
func expiredSessionCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(1, 0),
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	}
}

// HTTPCookies is a CookieJar over one net/http request/response pair.
//
// Cookies set or deleted through the jar are visible to later Get calls on
// the same jar, so a handler that commits and then reads within one request
// sees its own session.
type HTTPCookies struct {
	w       http.ResponseWriter
	r       *http.Request
	pending map[string]*http.Cookie
}

// NewHTTPCookies returns a jar reading from r and writing Set-Cookie headers to w.
func NewHTTPCookies(w http.ResponseWriter, r *http.Request) *HTTPCookies {
	return &HTTPCookies{w: w, r: r, pending: make(map[string]*http.Cookie)}
}

// Get returns the value of the named cookie.
func (c *HTTPCookies) Get(name string) (string, bool) {
	if p, ok := c.pending[name]; ok {
		if p.MaxAge < 0 {
			return "", false
		}
		return p.Value, true
	}
	if c.r == nil {
		return "", false
	}
	ck, err := c.r.Cookie(name)
	if err != nil {
		return "", false
	}
	return ck.Value, true
}

// Set writes cookie to the response.
func (c *HTTPCookies) Set(cookie *http.Cookie) {
	c.pending[cookie.Name] = cookie
	http.SetCookie(c.w, cookie)
}

// Delete expires the named cookie on the client.
func (c *HTTPCookies) Delete(name string) {
	var cookie *http.Cookie
	if name == SessionCookieName {
		cookie = expiredSessionCookie()
	} else {
		cookie = &http.Cookie{Name: name, Path: "/", Expires: time.Unix(1, 0), MaxAge: -1}
	}
	c.pending[name] = cookie
	http.SetCookie(c.w, cookie)
}
