package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/eliteGoblin/frickd/internal/domain"
)

func TestAuthGate_StartsUnrequested(t *testing.T) {
	g := NewAuthGate(&mockAuthorizer{granted: true}, zap.NewNop())

	state, reason := g.State()
	assert.Equal(t, domain.AuthUnrequested, state)
	assert.Empty(t, reason)
	assert.False(t, g.IsAuthorized())
}

func TestAuthGate_Grant(t *testing.T) {
	g := NewAuthGate(&mockAuthorizer{granted: true}, zap.NewNop())

	assert.Equal(t, domain.AuthGranted, g.Request(context.Background()))
	assert.True(t, g.IsAuthorized())
}

func TestAuthGate_DenialRecordsReason(t *testing.T) {
	g := NewAuthGate(&mockAuthorizer{granted: false}, zap.NewNop())

	assert.Equal(t, domain.AuthDenied, g.Request(context.Background()))
	state, reason := g.State()
	assert.Equal(t, domain.AuthDenied, state)
	assert.NotEmpty(t, reason)
	assert.False(t, g.IsAuthorized())
}

func TestAuthGate_ErrorIsDenial(t *testing.T) {
	g := NewAuthGate(&mockAuthorizer{err: errors.New("platform unavailable")}, zap.NewNop())

	assert.Equal(t, domain.AuthDenied, g.Request(context.Background()))
	_, reason := g.State()
	assert.Equal(t, "platform unavailable", reason)
}

func TestAuthGate_GrantNeverRegresses(t *testing.T) {
	auth := &mockAuthorizer{granted: true}
	g := NewAuthGate(auth, zap.NewNop())
	g.Request(context.Background())

	// Platform starts denying: a re-request must not regress the grant,
	// and must not even reach the platform again.
	auth.granted = false
	assert.Equal(t, domain.AuthGranted, g.Request(context.Background()))
	assert.Equal(t, 1, auth.requests)
}

func TestAuthGate_DenialIsRetryable(t *testing.T) {
	auth := &mockAuthorizer{granted: false}
	g := NewAuthGate(auth, zap.NewNop())

	assert.Equal(t, domain.AuthDenied, g.Request(context.Background()))

	auth.granted = true
	assert.Equal(t, domain.AuthGranted, g.Request(context.Background()))
	assert.True(t, g.IsAuthorized())
	_, reason := g.State()
	assert.Empty(t, reason)
}
