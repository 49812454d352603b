// Package usecase contains application business logic.
package usecase

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/frickd/internal/domain"
)

// AuthGate caches the one-time platform permission grant. Request is made
// once at startup; a denial can be retried on explicit user action, but a
// grant is final.
type AuthGate struct {
	mu         sync.Mutex
	state      domain.AuthorizationState
	reason     string
	authorizer domain.Authorizer
	logger     *zap.Logger
}

// NewAuthGate creates a gate in the Unrequested state.
func NewAuthGate(authorizer domain.Authorizer, logger *zap.Logger) *AuthGate {
	return &AuthGate{authorizer: authorizer, logger: logger}
}

// Request asks the platform for permission and caches the outcome.
// Calling it again after a grant is a no-op; after a denial it retries.
func (g *AuthGate) Request(ctx context.Context) domain.AuthorizationState {
	g.mu.Lock()
	if g.state == domain.AuthGranted {
		g.mu.Unlock()
		return domain.AuthGranted
	}
	g.mu.Unlock()

	// The platform call suspends; it must not run under the lock.
	granted, err := g.authorizer.RequestPermission(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == domain.AuthGranted {
		return domain.AuthGranted
	}
	if err != nil {
		g.state = domain.AuthDenied
		g.reason = err.Error()
		g.logger.Warn("authorization request failed", zap.Error(err))
	} else if !granted {
		g.state = domain.AuthDenied
		g.reason = "permission denied by platform; grant frickd shield access and retry"
		g.logger.Warn("authorization denied")
	} else {
		g.state = domain.AuthGranted
		g.reason = ""
		g.logger.Info("authorization granted")
	}
	return g.state
}

// IsAuthorized is a fast, non-blocking query.
func (g *AuthGate) IsAuthorized() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state == domain.AuthGranted
}

// State returns the current authorization state and, when denied, a
// human-readable reason.
func (g *AuthGate) State() (domain.AuthorizationState, string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.reason
}
