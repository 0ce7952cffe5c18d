package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldUseCookies(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	require.False(t, ShouldUseCookies(req))

	req.Header.Set("X-Use-Cookies", "true")
	require.True(t, ShouldUseCookies(req))

	browser := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	browser.Header.Set("Accept", "text/html,application/xhtml+xml")
	require.True(t, ShouldUseCookies(browser))
}

func TestSetAuthCookies(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	SetAuthCookies(rec, "access", "refresh", true, 15*time.Minute, 7*24*time.Hour)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)

	byName := make(map[string]*http.Cookie)
	for _, c := range cookies {
		byName[c.Name] = c
	}

	access := byName["access_token"]
	require.NotNil(t, access)
	require.Equal(t, "access", access.Value)
	require.Equal(t, "/", access.Path)
	require.True(t, access.HttpOnly)
	require.True(t, access.Secure)

	refresh := byName["refresh_token"]
	require.NotNil(t, refresh)
	require.Equal(t, "refresh", refresh.Value)
	// Refresh cookie only travels to the auth endpoints
	require.Equal(t, "/auth", refresh.Path)
	require.True(t, refresh.HttpOnly)
}

func TestClearAuthCookies(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	ClearAuthCookies(rec)

	for _, c := range rec.Result().Cookies() {
		require.Negative(t, c.MaxAge)
		require.Empty(t, c.Value)
	}
}
