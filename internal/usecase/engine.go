package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/frickd/internal/domain"
	"github.com/eliteGoblin/frickd/internal/profile"
)

// DefaultTagPhrase is the secret payload a tag must carry, byte for byte,
// to toggle blocking.
const DefaultTagPhrase = "FRICK!!"

// Persisted layout keys.
const (
	blockingKey     = "isBlocking"
	sessionStartKey = "sessionStartTime"
)

// Engine is the blocking session state machine. It owns the blocking flag
// and the session, and is the single serialized entry point for every
// state mutation: tag toggles, profile CRUD and selection. At most one
// transition is in flight at a time; a second request waits behind the
// first, never interleaves with it.
type Engine struct {
	mu sync.Mutex

	state    domain.StateStore
	profiles *profile.Store
	tracker  *Tracker
	gate     *AuthGate
	shield   domain.ShieldApplicator
	tags     domain.TagAuthenticator
	phrase   string
	blocking bool
	logger   *zap.Logger
}

// EngineDeps wires the engine's collaborators.
type EngineDeps struct {
	State     domain.StateStore
	Profiles  *profile.Store
	Tracker   *Tracker
	Gate      *AuthGate
	Shield    domain.ShieldApplicator
	Tags      domain.TagAuthenticator
	TagPhrase string // DefaultTagPhrase if empty
	Logger    *zap.Logger
}

// ToggleResult reports the outcome of a verified tag event.
type ToggleResult struct {
	Blocking bool          // state after the event
	Session  time.Duration // committed session length; set on unblock only
}

// NewEngine restores the persisted blocking state. now is the restore
// reference time: if the engine was blocking but the session start time
// is missing or corrupt, the session resumes from now rather than failing.
func NewEngine(deps EngineDeps, now time.Time) (*Engine, error) {
	e := &Engine{
		state:    deps.State,
		profiles: deps.Profiles,
		tracker:  deps.Tracker,
		gate:     deps.Gate,
		shield:   deps.Shield,
		tags:     deps.Tags,
		phrase:   deps.TagPhrase,
		logger:   deps.Logger,
	}
	if e.phrase == "" {
		e.phrase = DefaultTagPhrase
	}
	if err := e.restore(now); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) restore(now time.Time) error {
	raw, ok, err := e.state.Get(blockingKey)
	if err != nil {
		return fmt.Errorf("failed to load blocking state: %w", err)
	}
	e.blocking = ok && raw == "true"
	if !e.blocking {
		return nil
	}

	start := now
	if raw, ok, err := e.state.Get(sessionStartKey); err != nil {
		return fmt.Errorf("failed to load session start: %w", err)
	} else if ok {
		if t, perr := time.Parse(time.RFC3339Nano, raw); perr == nil {
			start = t
		} else {
			e.logger.Warn("corrupt session start time, resuming from now",
				zap.String("value", raw))
		}
	} else {
		e.logger.Warn("blocking without a session start time, resuming from now")
	}

	e.tracker.Start(start)
	if err := e.state.Set(sessionStartKey, start.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to persist session start: %w", err)
	}
	e.logger.Info("resumed blocking session", zap.Time("started_at", start))
	return nil
}

// HandleTag processes a scanned payload at the given time. Only an exact,
// case-sensitive match of the tag phrase toggles the state; anything else
// returns ErrWrongTag with no state change.
func (e *Engine) HandleTag(now time.Time, payload string) (ToggleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if payload != e.phrase {
		e.logger.Warn("wrong tag scanned", zap.String("payload", payload))
		return ToggleResult{Blocking: e.blocking}, domain.ErrWrongTag
	}

	if e.blocking {
		return e.unblockLocked(now)
	}
	return e.blockLocked(now)
}

func (e *Engine) blockLocked(now time.Time) (ToggleResult, error) {
	if !e.gate.IsAuthorized() {
		e.logger.Warn("block refused: not authorized")
		return ToggleResult{Blocking: false}, domain.ErrUnauthorized
	}

	if err := e.state.Set(blockingKey, "true"); err != nil {
		return ToggleResult{Blocking: false}, fmt.Errorf("failed to persist blocking state: %w", err)
	}
	if err := e.state.Set(sessionStartKey, now.Format(time.RFC3339Nano)); err != nil {
		// Roll the flag back so persisted state stays consistent.
		_ = e.state.Set(blockingKey, "false")
		return ToggleResult{Blocking: false}, fmt.Errorf("failed to persist session start: %w", err)
	}

	e.tracker.Start(now)
	e.blocking = true

	p := e.profiles.Current()
	e.logger.Info("blocking started",
		zap.String("profile", p.Name),
		zap.Int("apps", len(p.BlockedApps)),
		zap.Int("categories", len(p.BlockedCategories)))

	// The toggle is authoritative: a failed apply does not roll it back.
	if err := e.shield.Apply(p.BlockedApps, p.BlockedCategories, true); err != nil {
		e.logger.Error("shield apply failed", zap.Error(err))
		return ToggleResult{Blocking: true}, shieldErr(err)
	}
	return ToggleResult{Blocking: true}, nil
}

func (e *Engine) unblockLocked(now time.Time) (ToggleResult, error) {
	// Clearing never requires an authorization re-check: it must always
	// be possible to unblock, even with a stale grant.
	applyErr := e.shield.Apply(nil, nil, false)
	if applyErr != nil {
		e.logger.Error("shield clear failed", zap.Error(applyErr))
		applyErr = shieldErr(applyErr)
	}

	// The ledger commit lands before the transition is reported complete,
	// so a crash right after unblocking cannot lose the session's time.
	elapsed, commitErr := e.tracker.Commit(now)

	e.blocking = false
	if err := e.state.Set(blockingKey, "false"); err != nil {
		commitErr = errors.Join(commitErr, fmt.Errorf("failed to persist blocking state: %w", err))
	}
	if err := e.state.Delete(sessionStartKey); err != nil {
		commitErr = errors.Join(commitErr, fmt.Errorf("failed to clear session start: %w", err))
	}

	e.logger.Info("blocking stopped", zap.Duration("session", elapsed))
	return ToggleResult{Blocking: false, Session: elapsed}, errors.Join(commitErr, applyErr)
}

// Reapply re-invokes the shield with the current state. Used on startup
// after restoring a blocking session, on the re-enforcement tick, and as
// the retry path after a failed apply.
func (e *Engine) Reapply() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.blocking {
		if err := e.shield.Apply(nil, nil, false); err != nil {
			return shieldErr(err)
		}
		return nil
	}
	p := e.profiles.Current()
	if err := e.shield.Apply(p.BlockedApps, p.BlockedCategories, true); err != nil {
		return shieldErr(err)
	}
	return nil
}

// SelectProfile makes id the active profile. Selecting a different
// profile while blocked immediately re-applies the shield with the new
// profile's targets without toggling; re-selecting the active profile is
// a no-op.
func (e *Engine) SelectProfile(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	changed, err := e.profiles.SetCurrent(id)
	if err != nil {
		return err
	}
	if !changed || !e.blocking {
		return nil
	}
	return e.reapplyCurrentLocked()
}

// AddProfile appends a new profile without changing the selection.
func (e *Engine) AddProfile(name, icon string, apps []domain.AppID, categories []domain.CategoryID) (domain.Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.profiles.Add(name, icon, apps, categories)
}

// UpdateProfile edits a profile. Editing the active profile's target sets
// while blocked re-applies the shield so it tracks the stored targets.
func (e *Engine) UpdateProfile(id string, upd profile.Update) (domain.Profile, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, err := e.profiles.Update(id, upd)
	if err != nil {
		return domain.Profile{}, err
	}
	targetsChanged := upd.BlockedApps != nil || upd.BlockedCategories != nil
	if e.blocking && targetsChanged && id == e.profiles.CurrentID() {
		if err := e.reapplyCurrentLocked(); err != nil {
			return p, err
		}
	}
	return p, nil
}

// DeleteProfile removes a profile. If the deletion reassigns the active
// profile while blocked, the shield is re-applied with the new targets.
func (e *Engine) DeleteProfile(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	before := e.profiles.CurrentID()
	if err := e.profiles.Delete(id); err != nil {
		return err
	}
	if e.blocking && e.profiles.CurrentID() != before {
		return e.reapplyCurrentLocked()
	}
	return nil
}

func (e *Engine) reapplyCurrentLocked() error {
	p := e.profiles.Current()
	e.logger.Info("re-applying shield",
		zap.String("profile", p.Name),
		zap.Int("apps", len(p.BlockedApps)),
		zap.Int("categories", len(p.BlockedCategories)))
	if err := e.shield.Apply(p.BlockedApps, p.BlockedCategories, true); err != nil {
		return shieldErr(err)
	}
	return nil
}

// IsBlocking reports the current state.
func (e *Engine) IsBlocking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.blocking
}

// Session returns the current session state.
func (e *Engine) Session() domain.Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.Session()
}

// ElapsedSession returns the active session's elapsed time, 0 if idle.
// Pure and idempotent; safe to call on every display tick.
func (e *Engine) ElapsedSession(now time.Time) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.ElapsedSession(now)
}

// TodayTotal returns today's accumulated blocked time including the
// uncommitted active session.
func (e *Engine) TodayTotal(now time.Time) (time.Duration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracker.TodayTotal(now)
}

// CurrentProfile returns the active profile.
func (e *Engine) CurrentProfile() domain.Profile {
	return e.profiles.Current()
}

// Profiles returns all profiles in insertion order.
func (e *Engine) Profiles() []domain.Profile {
	return e.profiles.List()
}

// RequestAuthorization performs (or retries) the platform permission
// request. The result is cached by the gate; a grant is final.
func (e *Engine) RequestAuthorization(ctx context.Context) domain.AuthorizationState {
	// Suspends on the platform; deliberately not under the engine lock.
	return e.gate.Request(ctx)
}

// Authorization returns the cached authorization state and denial reason.
func (e *Engine) Authorization() (domain.AuthorizationState, string) {
	return e.gate.State()
}

// WriteTag provisions a physical tag with the secret phrase.
func (e *Engine) WriteTag(ctx context.Context) error {
	if err := e.tags.Write(ctx, e.phrase); err != nil {
		if errors.Is(err, domain.ErrWriteFailed) {
			return err
		}
		return fmt.Errorf("%s: %w", err, domain.ErrWriteFailed)
	}
	return nil
}

func shieldErr(err error) error {
	if errors.Is(err, domain.ErrShieldApply) {
		return err
	}
	return fmt.Errorf("%s: %w", err, domain.ErrShieldApply)
}
