package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/warbler/internal/models"
	"github.com/anonto42/warbler/internal/testutils"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthEcho(t *testing.T) (*echo.Echo, *Authenticator, *models.User) {
	t.Helper()
	store := testutils.NewStore()
	user := store.MustSignup("alice")
	auth := NewAuthenticator(store.Users, "test-secret", nil)

	e := echo.New()
	e.Use(session.Middleware(sessions.NewCookieStore([]byte("session-secret"))))
	e.Use(auth.LoadUser())
	e.GET("/whoami", func(c echo.Context) error {
		if u := CurrentUser(c); u != nil {
			return c.String(http.StatusOK, u.Username)
		}
		return c.String(http.StatusOK, "anonymous")
	})
	e.GET("/private", func(c echo.Context) error { return c.NoContent(http.StatusOK) }, RequireUser())
	e.POST("/login", func(c echo.Context) error {
		if err := Login(c, user); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	})
	e.POST("/logout", func(c echo.Context) error {
		if err := Logout(c); err != nil {
			return err
		}
		return c.NoContent(http.StatusOK)
	})
	return e, auth, user
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoadUser_Bearer(t *testing.T) {
	e, auth, user := newAuthEcho(t)

	token, err := auth.IssueToken(user)
	require.NoError(t, err)

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "alice"},
		{"lower case scheme", "bearer " + token, http.StatusOK, "alice"},
		{"no header", "", http.StatusOK, "anonymous"},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized, ""},
		{"missing token", "Bearer", http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := serve(e, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestLoadUser_TokenFromOtherSecret(t *testing.T) {
	e, _, user := newAuthEcho(t)
	other := NewAuthenticator(nil, "another-secret", nil)
	token, err := other.IssueToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, serve(e, req).Code)
}

func TestLoadUser_Session(t *testing.T) {
	e, _, _ := newAuthEcho(t)

	rec := serve(e, httptest.NewRequest(http.MethodPost, "/login", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	assert.Equal(t, "alice", serve(e, req).Body.String())

	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec = serve(e, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	assert.Equal(t, "anonymous", serve(e, req).Body.String())
}

func TestRequireUser(t *testing.T) {
	e, auth, user := newAuthEcho(t)

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.IssueToken(user)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, http.StatusOK, serve(e, req).Code)
}

func TestNoStore(t *testing.T) {
	e := echo.New()
	e.Use(NoStore())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
