// Package daemon runs the scan-and-enforce loop around the engine.
package daemon

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/eliteGoblin/frickd/internal/domain"
	"github.com/eliteGoblin/frickd/internal/usecase"
)

// Config holds runner configuration.
type Config struct {
	// EnforcementInterval is how often the shield is re-applied while
	// blocked. A process shield only kills what is running at apply
	// time, so newly launched targets are caught on the next tick.
	EnforcementInterval time.Duration

	// RetryMaxElapsed bounds the backoff retry after a failed apply.
	RetryMaxElapsed time.Duration
}

// DefaultConfig returns default runner configuration.
func DefaultConfig() Config {
	return Config{
		EnforcementInterval: 30 * time.Second,
		RetryMaxElapsed:     2 * time.Minute,
	}
}

type scanResult struct {
	payload string
	err     error
}

// Runner owns the daemon loop: one goroutine blocks on the tag reader,
// the main loop serializes everything onto the engine.
type Runner struct {
	config Config
	engine *usecase.Engine
	tags   domain.TagAuthenticator
	logger *zap.Logger
}

// NewRunner creates a daemon runner.
func NewRunner(config Config, engine *usecase.Engine, tags domain.TagAuthenticator, logger *zap.Logger) *Runner {
	return &Runner{config: config, engine: engine, tags: tags, logger: logger}
}

// Run starts the loop and blocks until ctx is cancelled. Cancellation
// abandons any pending scan without touching engine state.
func (r *Runner) Run(ctx context.Context) error {
	// One-time permission request; the gate caches the outcome.
	if state := r.engine.RequestAuthorization(ctx); state != domain.AuthGranted {
		_, reason := r.engine.Authorization()
		r.logger.Warn("starting without authorization; blocking will be refused",
			zap.String("state", state.String()),
			zap.String("reason", reason))
	}

	// A restored blocking session needs its shield back up.
	if r.engine.IsBlocking() {
		if err := r.engine.Reapply(); err != nil {
			r.logger.Warn("startup shield apply failed, retrying", zap.Error(err))
			go r.retryApply(ctx)
		}
	}

	scans := make(chan scanResult)
	go r.scanLoop(ctx, scans)

	ticker := time.NewTicker(r.config.EnforcementInterval)
	defer ticker.Stop()

	r.logger.Info("daemon started",
		zap.Bool("blocking", r.engine.IsBlocking()),
		zap.Duration("enforce_interval", r.config.EnforcementInterval))

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("daemon stopping")
			return nil

		case res := <-scans:
			if res.err != nil {
				// Hardware failure: no state change, distinct from a
				// wrong tag or a permission problem.
				r.logger.Error("tag scan failed", zap.Error(res.err))
				continue
			}
			r.handlePayload(ctx, res.payload)

		case <-ticker.C:
			if !r.engine.IsBlocking() {
				continue
			}
			if err := r.engine.Reapply(); err != nil {
				r.logger.Warn("re-enforcement failed", zap.Error(err))
			}
		}
	}
}

func (r *Runner) scanLoop(ctx context.Context, scans chan<- scanResult) {
	for {
		payload, err := r.tags.Scan(ctx)
		if err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
			return
		}
		select {
		case scans <- scanResult{payload: payload, err: err}:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Runner) handlePayload(ctx context.Context, payload string) {
	res, err := r.engine.HandleTag(time.Now(), payload)
	switch {
	case err == nil:
		if res.Blocking {
			r.logger.Info("session started")
		} else {
			r.logger.Info("session ended", zap.Duration("duration", res.Session))
		}

	case errors.Is(err, domain.ErrWrongTag):
		r.logger.Warn("wrong tag, no state change")

	case errors.Is(err, domain.ErrUnauthorized):
		_, reason := r.engine.Authorization()
		r.logger.Warn("block refused: not authorized", zap.String("reason", reason))

	case errors.Is(err, domain.ErrShieldApply):
		// Toggle intent already recorded; only the apply step failed.
		r.logger.Error("toggle recorded but shield apply failed, retrying",
			zap.Bool("blocking", res.Blocking),
			zap.Error(err))
		go r.retryApply(ctx)

	default:
		r.logger.Error("toggle failed", zap.Error(err))
	}
}

// retryApply re-invokes the shield with the engine's current state under
// exponential backoff. The engine state is already authoritative; this
// only chases the platform until it accepts the apply.
func (r *Runner) retryApply(ctx context.Context) {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = r.config.RetryMaxElapsed

	err := backoff.Retry(func() error {
		return r.engine.Reapply()
	}, backoff.WithContext(bo, ctx))

	if err != nil {
		r.logger.Error("shield apply retries exhausted", zap.Error(err))
		return
	}
	r.logger.Info("shield apply succeeded after retry")
}
