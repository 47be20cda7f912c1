package router_test

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/anonto42/warbler/internal/logger"
	"github.com/anonto42/warbler/internal/middleware"
	"github.com/anonto42/warbler/internal/router"
	"github.com/anonto42/warbler/internal/testutils"
	"github.com/anonto42/warbler/pkg/config"
	"github.com/anonto42/warbler/pkg/liketoggle"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T) (*httptest.Server, *testutils.Store) {
	t.Helper()
	cfg := &config.Config{Env: "development", SessionSecret: "s", JWTSecret: "j"}
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

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv, store
}

type click struct{ prevented bool }

func (c *click) PreventDefault() { c.prevented = true }

func TestLikeControl_BearerToken(t *testing.T) {
	srv, store := startServer(t)
	store.MustSignup("alice")
	bob := store.MustSignup("bob")
	id := store.MustPost(bob, "hello").ID.Hex()

	ctx := context.Background()
	token, err := liketoggle.NewClient(srv.URL).SignIn(ctx, "alice", "password")
	require.NoError(t, err)

	client := liketoggle.NewClient(srv.URL, liketoggle.WithBearerToken(token))
	ctl := liketoggle.NewControl(client, "", nil)
	form := liketoggle.LikeForm{DataMessageID: id}

	evt := &click{}
	require.NoError(t, ctl.Handle(ctx, evt, form))
	assert.True(t, evt.prevented)
	assert.ElementsMatch(t, []string{liketoggle.ClassStarFill, liketoggle.ClassHighlight}, ctl.IconClasses())

	require.NoError(t, ctl.Handle(ctx, &click{}, form))
	assert.Equal(t, []string{liketoggle.ClassStar}, ctl.IconClasses())
}

func TestLikeControl_SessionAndCSRF(t *testing.T) {
	srv, store := startServer(t)
	alice := store.MustSignup("alice")
	id := store.MustPost(alice, "hello").ID.Hex()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := liketoggle.NewClient(srv.URL, liketoggle.WithCookieJar(jar))

	ctx := context.Background()
	_, err = client.SignIn(ctx, "alice", "password")
	require.NoError(t, err)

	// Loading a page hands out the CSRF cookie the page markup embeds.
	resp, err := (&http.Client{Jar: jar}).Get(srv.URL + "/")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	base, err := url.Parse(srv.URL)
	require.NoError(t, err)
	var csrf string
	for _, c := range jar.Cookies(base) {
		if c.Name == middleware.CSRFCookieName {
			csrf = c.Value
		}
	}
	require.NotEmpty(t, csrf)

	t.Run("wrong token fails and leaves the icon alone", func(t *testing.T) {
		var failures int
		ctl := liketoggle.NewControl(client, "forged", nil, liketoggle.OnFailure(func(liketoggle.Request, error) { failures++ }))
		err := ctl.Handle(ctx, &click{}, liketoggle.LikeForm{DataMessageID: id})

		var statusErr *liketoggle.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
		assert.Equal(t, 1, failures)
		assert.Equal(t, []string{liketoggle.ClassStar}, ctl.IconClasses())
	})

	t.Run("page token toggles", func(t *testing.T) {
		ctl := liketoggle.NewControl(client, csrf, nil)
		require.NoError(t, ctl.Handle(ctx, &click{}, liketoggle.LikeForm{DataMessageID: id}))
		assert.Contains(t, ctl.IconClasses(), liketoggle.ClassStarFill)

		liked, err := store.Likes.HasUserLikedMessage(ctx, id, alice.ID)
		require.NoError(t, err)
		assert.True(t, liked)
	})
}
