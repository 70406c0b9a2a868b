package gate

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuth struct {
	state AuthState
	err   error
	calls int
}

func (s *stubAuth) CurrentAuthState(_ context.Context) (AuthState, error) {
	s.calls++
	return s.state, s.err
}

func testPatterns(t *testing.T) *PatternSet {
	t.Helper()
	ps, err := NewPatternSet(
		[]string{"/riddles/create", "/admin/*", "/mixed/landing"},
		[]string{"/riddles", "/riddles/:id", "/mixed/*"},
	)
	require.NoError(t, err)
	return ps
}

func TestGate_Decide(t *testing.T) {
	g := New(testPatterns(t), "/login")

	tests := []struct {
		name       string
		path       string
		userAgent  string
		auth       *stubAuth
		wantKind   DecisionKind
		wantReturn string
	}{
		{
			name:     "Protected without session redirects",
			path:     "/riddles/create",
			auth:     &stubAuth{},
			wantKind: RedirectToSignIn, wantReturn: "/login",
		},
		{
			name:     "Protected with session allows",
			path:     "/riddles/create",
			auth:     &stubAuth{state: AuthState{UserID: 7, Authenticated: true}},
			wantKind: Allow,
		},
		{
			name:      "Bot on public route allowed without session",
			path:      "/riddles",
			userAgent: "Mozilla/5.0 Googlebot",
			auth:      &stubAuth{},
			wantKind:  AllowAsBot,
		},
		{
			name:      "Bot on protected route still redirects",
			path:      "/riddles/create",
			userAgent: "Googlebot/2.1",
			auth:      &stubAuth{},
			wantKind:  RedirectToSignIn, wantReturn: "/login",
		},
		{
			name:      "Pattern collision keeps protected precedence for bots",
			path:      "/mixed/landing",
			userAgent: "somebot",
			auth:      &stubAuth{},
			wantKind:  RedirectToSignIn, wantReturn: "/login",
		},
		{
			name:     "Identity provider failure fails closed",
			path:     "/admin/users",
			auth:     &stubAuth{err: errors.New("identity service timeout")},
			wantKind: RedirectToSignIn, wantReturn: "/login",
		},
		{
			name:     "Unclassified path allows anonymously",
			path:     "/nowhere",
			auth:     &stubAuth{},
			wantKind: Allow,
		},
		{
			name:     "Public path allows anonymously without bot agent",
			path:     "/riddles/42",
			auth:     &stubAuth{},
			wantKind: Allow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := g.Decide(context.Background(), Request{Path: tt.path, UserAgent: tt.userAgent}, tt.auth)
			assert.Equal(t, tt.wantKind, d.Kind)
			assert.Equal(t, tt.wantReturn, d.ReturnPath)
		})
	}
}

func TestGate_Decide_SkipsIdentityLookupWhenNotNeeded(t *testing.T) {
	g := New(testPatterns(t), "/login")
	auth := &stubAuth{}

	g.Decide(context.Background(), Request{Path: "/riddles"}, auth)
	assert.Zero(t, auth.calls, "public route must not consult the identity provider")

	g.Decide(context.Background(), Request{Path: "/riddles/create"}, auth)
	assert.Equal(t, 1, auth.calls)
}

func TestGate_DecideWithAuth(t *testing.T) {
	g := New(testPatterns(t), "/login")

	d := g.DecideWithAuth(Request{Path: "/riddles/create"}, false)
	assert.Equal(t, RedirectToSignIn, d.Kind)

	d = g.DecideWithAuth(Request{Path: "/riddles/create"}, true)
	assert.Equal(t, Allow, d.Kind)

	d = g.DecideWithAuth(Request{Path: "/riddles", UserAgent: "a bot"}, false)
	assert.Equal(t, AllowAsBot, d.Kind)
}

func TestMiddleware(t *testing.T) {
	g := New(testPatterns(t), "/login")

	newApp := func(resolve SessionResolver) *fiber.App {
		app := fiber.New()
		app.Use(Middleware(g, resolve))
		app.All("/*", func(c *fiber.Ctx) error {
			return c.SendStatus(fiber.StatusOK)
		})
		return app
	}

	anonymous := func(c *fiber.Ctx) (AuthState, error) { return AuthState{}, nil }
	authed := func(c *fiber.Ctx) (AuthState, error) {
		return AuthState{UserID: 3, Authenticated: true}, nil
	}

	t.Run("Protected route redirects anonymous browser", func(t *testing.T) {
		app := newApp(anonymous)
		req := httptest.NewRequest("GET", "/riddles/create", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "/login", resp.Header.Get("Location"))
	})

	t.Run("Protected route passes with session", func(t *testing.T) {
		app := newApp(authed)
		req := httptest.NewRequest("GET", "/riddles/create", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("Bot passes public route", func(t *testing.T) {
		app := newApp(anonymous)
		req := httptest.NewRequest("GET", "/riddles", nil)
		req.Header.Set("User-Agent", "Mozilla/5.0 Googlebot")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("Static assets bypass the gate", func(t *testing.T) {
		called := false
		app := fiber.New()
		app.Use(Middleware(g, func(c *fiber.Ctx) (AuthState, error) {
			called = true
			return AuthState{}, nil
		}))
		app.All("/*", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

		req := httptest.NewRequest("GET", "/assets/app.css", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.False(t, called)
	})

	t.Run("Resolver error fails closed", func(t *testing.T) {
		app := newApp(func(c *fiber.Ctx) (AuthState, error) {
			return AuthState{}, errors.New("upstream identity outage")
		})
		req := httptest.NewRequest("GET", "/admin/pending", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	})
}
