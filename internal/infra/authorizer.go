package infra

import (
	"context"
	"os"
	"syscall"

	"go.uber.org/zap"

	"github.com/eliteGoblin/frickd/internal/domain"
)

// UnixAuthorizer implements domain.Authorizer. Shielding means signalling
// other processes, so the permission probe checks that the process can
// deliver signals at all: signal 0 to itself, the same liveness trick the
// enforcement side uses. Root gets a system-wide grant, a plain user a
// per-user one; both count as granted.
type UnixAuthorizer struct {
	logger *zap.Logger
}

// NewUnixAuthorizer creates the platform authorizer.
func NewUnixAuthorizer(logger *zap.Logger) *UnixAuthorizer {
	return &UnixAuthorizer{logger: logger}
}

// RequestPermission probes signal delivery once and reports the result.
func (a *UnixAuthorizer) RequestPermission(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	proc, err := os.FindProcess(os.Getpid())
	if err != nil {
		return false, err
	}
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return false, err
	}

	scope := "user"
	if os.Geteuid() == 0 {
		scope = "system"
	}
	a.logger.Info("shield permission granted", zap.String("scope", scope))
	return true, nil
}

// Ensure UnixAuthorizer implements domain.Authorizer.
var _ domain.Authorizer = (*UnixAuthorizer)(nil)
