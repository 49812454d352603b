package usecase

import (
	"fmt"
	"time"

	"github.com/eliteGoblin/frickd/internal/domain"
	"github.com/eliteGoblin/frickd/internal/ledger"
)

// Tracker derives session elapsed time and the running daily total from
// the session start time and the ledger. Queries are pure: the caller
// (nominally a once-per-second display tick) passes now explicitly and
// may call them arbitrarily often.
//
// Tracker is not goroutine safe; the engine serializes access.
type Tracker struct {
	ledger  *ledger.Ledger
	session domain.Session
}

// NewTracker creates an idle tracker over the given ledger.
func NewTracker(l *ledger.Ledger) *Tracker {
	return &Tracker{ledger: l}
}

// Start begins a new session at now.
func (t *Tracker) Start(now time.Time) {
	t.session = domain.NewActiveSession(now)
}

// Session returns the current session state.
func (t *Tracker) Session() domain.Session {
	return t.session
}

// ElapsedSession returns how long the current session has run, 0 if idle.
func (t *Tracker) ElapsedSession(now time.Time) time.Duration {
	if !t.session.Active() {
		return 0
	}
	elapsed := now.Sub(t.session.StartedAt())
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// TodayTotal returns the ledger total for now's calendar day plus the
// not-yet-committed elapsed time of the active session, if any.
func (t *Tracker) TodayTotal(now time.Time) (time.Duration, error) {
	seconds, err := t.ledger.Get(ledger.DayKey(now))
	if err != nil {
		return 0, err
	}
	total := time.Duration(seconds * float64(time.Second))
	return total + t.ElapsedSession(now), nil
}

// Commit ends the session at now and credits the elapsed time to now's
// day (a session that crosses midnight is credited whole to the day it
// ended). The session always goes idle: a failed ledger write is
// surfaced but must not leave an active session behind an unblocked
// engine. Returns the committed duration.
func (t *Tracker) Commit(now time.Time) (time.Duration, error) {
	if !t.session.Active() {
		return 0, domain.ErrInvalidState
	}
	elapsed := t.ElapsedSession(now)
	t.session = domain.Session{}

	if err := t.ledger.Add(ledger.DayKey(now), elapsed.Seconds()); err != nil {
		return elapsed, fmt.Errorf("failed to commit session time: %w", err)
	}
	return elapsed, nil
}
