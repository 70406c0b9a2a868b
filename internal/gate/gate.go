package gate

import (
	"context"

	"riddlery/internal/observability"
)

// DecisionKind enumerates the three-way outcome of request admission control.
type DecisionKind int

const (
	// Allow lets the request through to the route handler.
	Allow DecisionKind = iota
	// RedirectToSignIn sends an unauthenticated browser to the sign-in page.
	RedirectToSignIn
	// AllowAsBot lets a recognized crawler through on a public route without
	// a session.
	AllowAsBot
)

// String returns the metric label for the decision kind.
func (k DecisionKind) String() string {
	switch k {
	case RedirectToSignIn:
		return "redirect_to_sign_in"
	case AllowAsBot:
		return "allow_as_bot"
	default:
		return "allow"
	}
}

// Decision is the outcome of the gate for one request. ReturnPath is only
// set for RedirectToSignIn.
type Decision struct {
	Kind       DecisionKind
	ReturnPath string
}

// Request describes one inbound request to the gate. UserAgent is the raw
// client-supplied header and is untrusted.
type Request struct {
	Path      string
	UserAgent string
}

// AuthState is the identity provider's answer for the current session.
type AuthState struct {
	UserID        uint
	Authenticated bool
}

// AuthProvider is the identity capability consumed by the gate. Lookups may
// block on network I/O; implementations must honor the context.
type AuthProvider interface {
	CurrentAuthState(ctx context.Context) (AuthState, error)
}

// Gate decides per-request admission using the route pattern set, the
// crawler sniffer and the identity provider. It holds no mutable state and
// is safe for concurrent use.
type Gate struct {
	patterns   *PatternSet
	signInPath string
}

// New returns a Gate over the given pattern set. signInPath is the literal
// sign-in landing path used as the redirect target.
func New(patterns *PatternSet, signInPath string) *Gate {
	if signInPath == "" {
		signInPath = "/login"
	}
	return &Gate{patterns: patterns, signInPath: signInPath}
}

// Decide resolves the admission decision for the request. The identity
// provider is only consulted when the route requires it; a provider error is
// treated as unauthenticated so protected routes fail closed.
func (g *Gate) Decide(ctx context.Context, req Request, auth AuthProvider) Decision {
	c := g.patterns.Classify(req.Path)
	bot := IsAutomatedClient(req.UserAgent)
	if bot {
		observability.BotHits.Inc()
	}

	// Crawler exemption applies to public routes only. Protected wins over
	// public on a pattern collision: failing open is unacceptable.
	if bot && c.Public && !c.Protected {
		return g.record(Decision{Kind: AllowAsBot})
	}

	if c.Protected {
		state, err := auth.CurrentAuthState(ctx)
		if err != nil || !state.Authenticated {
			return g.record(Decision{Kind: RedirectToSignIn, ReturnPath: g.signInPath})
		}
	}

	return g.record(Decision{Kind: Allow})
}

// DecideWithAuth is the pure form of Decide for callers that already resolved
// the session.
func (g *Gate) DecideWithAuth(req Request, isAuthenticated bool) Decision {
	c := g.patterns.Classify(req.Path)

	if IsAutomatedClient(req.UserAgent) && c.Public && !c.Protected {
		return Decision{Kind: AllowAsBot}
	}
	if !isAuthenticated && c.Protected {
		return Decision{Kind: RedirectToSignIn, ReturnPath: g.signInPath}
	}
	return Decision{Kind: Allow}
}

func (g *Gate) record(d Decision) Decision {
	observability.RecordGateDecision(d.Kind.String())
	return d
}
