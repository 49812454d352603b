// Package ledger accumulates blocked seconds per calendar day.
package ledger

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/eliteGoblin/frickd/internal/domain"
)

// keyPrefix matches the persisted layout: one dailyBlocked_<YYYY-MM-DD>
// key per day.
const keyPrefix = "dailyBlocked_"

// DayKey returns the ledger bucket for now's local calendar date.
func DayKey(now time.Time) string {
	return now.Format("2006-01-02")
}

// Ledger persists accumulated blocked seconds keyed by calendar date.
// Keys are append-only and values only grow; an absent day reads as zero.
type Ledger struct {
	mu    sync.Mutex
	state domain.StateStore
}

// New creates a ledger over the given state store.
func New(state domain.StateStore) *Ledger {
	return &Ledger{state: state}
}

// Get returns the accumulated seconds for dayKey, 0 if absent.
func (l *Ledger) Get(dayKey string) (float64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.getLocked(dayKey)
}

func (l *Ledger) getLocked(dayKey string) (float64, error) {
	raw, ok, err := l.state.Get(keyPrefix + dayKey)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("corrupt ledger value for %s: %w", dayKey, err)
	}
	return seconds, nil
}

// Add durably increments dayKey by seconds, creating the entry if absent.
// Negative increments are rejected; nothing in this core ever decrements
// or deletes a day.
func (l *Ledger) Add(dayKey string, seconds float64) error {
	if seconds < 0 {
		return fmt.Errorf("negative seconds %f: %w", seconds, domain.ErrInvalidInput)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	current, err := l.getLocked(dayKey)
	if err != nil {
		return err
	}
	value := strconv.FormatFloat(current+seconds, 'f', -1, 64)
	return l.state.Set(keyPrefix+dayKey, value)
}
