package gate

import (
	"context"
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// staticAssetExtensions is the fixed allow-list of extensions that bypass the
// gate entirely. API paths never carry these.
var staticAssetExtensions = map[string]struct{}{
	".css":   {},
	".js":    {},
	".map":   {},
	".ico":   {},
	".png":   {},
	".jpg":   {},
	".jpeg":  {},
	".gif":   {},
	".svg":   {},
	".txt":   {},
	".woff":  {},
	".woff2": {},
	".ttf":   {},
}

// SessionResolver resolves the current session from the request. Errors are
// treated as unauthenticated by the gate.
type SessionResolver func(c *fiber.Ctx) (AuthState, error)

type resolverProvider struct {
	c       *fiber.Ctx
	resolve SessionResolver
}

func (p resolverProvider) CurrentAuthState(_ context.Context) (AuthState, error) {
	return p.resolve(p.c)
}

// Middleware returns a Fiber handler applying the gate before any route
// handler runs. Static-asset requests bypass the gate; everything else is
// classified and decided.
func Middleware(g *Gate, resolve SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqPath := c.Path()
		if isStaticAsset(reqPath) {
			return c.Next()
		}

		// Memoize the session lookup: the gate consults it at most once and
		// downstream reuse must not trigger a second lookup.
		var (
			state    AuthState
			stateErr error
			resolved bool
		)
		memoized := func(c *fiber.Ctx) (AuthState, error) {
			if !resolved {
				state, stateErr = resolve(c)
				resolved = true
			}
			return state, stateErr
		}

		provider := resolverProvider{c: c, resolve: memoized}
		decision := g.Decide(c.UserContext(), Request{
			Path:      reqPath,
			UserAgent: c.Get(fiber.HeaderUserAgent),
		}, provider)

		switch decision.Kind {
		case RedirectToSignIn:
			return c.Redirect(decision.ReturnPath, fiber.StatusFound)
		case AllowAsBot:
			c.Locals("gateDecision", "allow_as_bot")
			return c.Next()
		default:
			return c.Next()
		}
	}
}

func isStaticAsset(reqPath string) bool {
	ext := strings.ToLower(path.Ext(reqPath))
	if ext == "" {
		return false
	}
	_, ok := staticAssetExtensions[ext]
	return ok
}
