package edgesession

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionCookie_MaxAge(t *testing.T) {
	c := newSessionCookie("v", fixedNow.Add(1500*time.Millisecond), fixedNow)
	assert.Equal(t, 2, c.MaxAge)

	c = newSessionCookie("v", fixedNow.Add(-time.Minute), fixedNow)
	assert.Equal(t, 1, c.MaxAge)
}

func TestHTTPCookies_GetFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "https://localhost/", nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	jar := NewHTTPCookies(httptest.NewRecorder(), req)

	v, ok := jar.Get("theme")
	assert.True(t, ok)
	assert.Equal(t, "dark", v)
	_, ok = jar.Get("missing")
	assert.False(t, ok)
}

func TestHTTPCookies_SetThenDelete(t *testing.T) {
	req := httptest.NewRequest("GET", "https://localhost/", nil)
	req.AddCookie(&http.Cookie{Name: "theme", Value: "dark"})
	rsp := httptest.NewRecorder()
	jar := NewHTTPCookies(rsp, req)

	jar.Set(&http.Cookie{Name: "theme", Value: "light", Path: "/"})
	v, ok := jar.Get("theme")
	require.True(t, ok)
	assert.Equal(t, "light", v)

	jar.Delete("theme")
	_, ok = jar.Get("theme")
	assert.False(t, ok)

	cookies := rsp.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, -1, cookies[1].MaxAge)
}

func TestHTTPCookies_DeleteSessionKeepsAttributes(t *testing.T) {
	rsp := httptest.NewRecorder()
	jar := NewHTTPCookies(rsp, nil)
	jar.Delete(SessionCookieName)

	cookies := rsp.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, SessionCookieName, c.Name)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.Equal(t, "/", c.Path)
}
