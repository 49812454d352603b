// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// AppID is an opaque, platform-issued application identifier.
// The core never inspects its structure; it is only compared for equality.
type AppID string

// CategoryID is an opaque application-category identifier.
type CategoryID string

// DefaultProfileIcon is the placeholder glyph assigned when a profile is
// created without one.
const DefaultProfileIcon = "🔒"

// Profile is a named blocking configuration: which apps and categories get
// shielded while a session is active.
type Profile struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	Icon              string       `json:"icon"`
	BlockedApps       []AppID      `json:"blocked_apps"`
	BlockedCategories []CategoryID `json:"blocked_categories"`
}

// BlocksNothing reports whether the profile has no targets at all.
// Such a profile is legal (it blocks nothing) but remains distinct from
// "no profile selected".
func (p Profile) BlocksNothing() bool {
	return len(p.BlockedApps) == 0 && len(p.BlockedCategories) == 0
}

// Session is the tagged state of a blocking session. The zero value is
// idle; a session constructed with NewActiveSession is active. Coupling
// the start time to activity this way makes "active without a start time"
// unrepresentable.
type Session struct {
	startedAt time.Time
}

// NewActiveSession returns an active session that started at the given time.
func NewActiveSession(startedAt time.Time) Session {
	return Session{startedAt: startedAt}
}

// Active reports whether a session is in progress.
func (s Session) Active() bool {
	return !s.startedAt.IsZero()
}

// StartedAt returns the session start time. Zero when idle.
func (s Session) StartedAt() time.Time {
	return s.startedAt
}

// AuthorizationState tracks the one-time platform permission grant.
type AuthorizationState int

const (
	// AuthUnrequested means the permission request has not completed yet.
	AuthUnrequested AuthorizationState = iota
	// AuthGranted is terminal: the state never regresses from it.
	AuthGranted
	// AuthDenied may be retried on explicit user action.
	AuthDenied
)

func (s AuthorizationState) String() string {
	switch s {
	case AuthGranted:
		return "granted"
	case AuthDenied:
		return "denied"
	default:
		return "unrequested"
	}
}
