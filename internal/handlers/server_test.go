package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/internal/middleware"
	"github.com/anonto42/warbler/internal/router"
	"github.com/anonto42/warbler/internal/testutils"
	"github.com/anonto42/warbler/pkg/config"
	"github.com/anonto42/warbler/pkg/liketoggle"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// testServer is the full middleware chain and router over in-memory
// repositories, with a cookie jar of one browser.
type testServer struct {
	t       *testing.T
	e       *echo.Echo
	store   *testutils.Store
	cookies map[string]*http.Cookie
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Env:           "development",
		SessionSecret: "test-session-secret",
		JWTSecret:     "test-jwt-secret",
	}
	log := logger.Nop()
	store := testutils.NewStore()

	e := echo.New()
	config.SetupMiddleware(e, cfg, log)
	router.SetupRoutes(e, &router.Repositories{
		Users:         store.Users,
		Messages:      store.Messages,
		Likes:         store.Likes,
		Follows:       store.Follows,
		Notifications: store.Notifications,
	}, nil, cfg.JWTSecret, log)

	return &testServer{t: t, e: e, store: store, cookies: map[string]*http.Cookie{}}
}

func (s *testServer) do(method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(s.cookies, c.Name)
			continue
		}
		s.cookies[c.Name] = c
	}
	return rec
}

func (s *testServer) postJSON(path string, v interface{}, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	b, err := json.Marshal(v)
	require.NoError(s.t, err)
	h := map[string]string{echo.HeaderContentType: echo.MIMEApplicationJSON}
	for k, val := range headers {
		h[k] = val
	}
	return s.do(http.MethodPost, path, bytes.NewReader(b), h)
}

// login signs in through the API; the session cookie lands in the jar.
func (s *testServer) login(username string) string {
	s.t.Helper()
	rec := s.postJSON("/api/v1/auth/login", map[string]string{"username": username, "password": "password"}, nil)
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(s.t, resp.Token)
	return resp.Token
}

// csrf loads a page so the CSRF middleware hands out its cookie.
func (s *testServer) csrf() string {
	s.t.Helper()
	rec := s.do(http.MethodGet, "/", nil, nil)
	require.Equal(s.t, http.StatusOK, rec.Code)
	c, ok := s.cookies[middleware.CSRFCookieName]
	require.True(s.t, ok, "csrf cookie not set")
	return c.Value
}

func (s *testServer) toggle(messageID, csrf string) *httptest.ResponseRecorder {
	s.t.Helper()
	return s.do(http.MethodPost, "/api/messages/"+messageID+"/like", nil, map[string]string{
		echo.HeaderAccept:     echo.MIMEApplicationJSON,
		liketoggle.CSRFHeader: csrf,
	})
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func (s *testServer) putJSON(path string, v interface{}, headers map[string]string) *httptest.ResponseRecorder {
	s.t.Helper()
	b, err := json.Marshal(v)
	require.NoError(s.t, err)
	h := map[string]string{echo.HeaderContentType: echo.MIMEApplicationJSON}
	for k, val := range headers {
		h[k] = val
	}
	return s.do(http.MethodPut, path, bytes.NewReader(b), h)
}
