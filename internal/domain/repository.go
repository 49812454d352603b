package domain

import "context"

// StateStore is the process-local durable key/value store backing all
// persisted state: the blocking flag, the session start time, the profile
// collection and the per-day time ledger.
// Implementation: SQLCipher-encrypted SQLite database.
type StateStore interface {
	// Get returns the value for key. The second result is false if the
	// key is absent.
	Get(key string) (string, bool, error)

	// Set durably writes key=value before returning.
	Set(key, value string) error

	// Delete removes a key. Deleting an absent key is not an error.
	Delete(key string) error

	// Close releases the underlying database connection.
	Close() error
}

// TagAuthenticator is the physical tag reader/writer. Scan and Write are
// the only operations in the system that suspend on external hardware.
type TagAuthenticator interface {
	// Scan blocks until a tag is presented or ctx is cancelled, and
	// returns the tag payload verbatim.
	Scan(ctx context.Context) (string, error)

	// Write provisions a tag with the given payload.
	Write(ctx context.Context, payload string) error
}

// ShieldApplicator applies or clears the platform block for the given
// target sets. When blocking is false both target sets are ignored and
// all shields are cleared.
type ShieldApplicator interface {
	Apply(apps []AppID, categories []CategoryID, blocking bool) error
}

// Authorizer performs the single opaque platform permission request made
// at startup.
type Authorizer interface {
	RequestPermission(ctx context.Context) (bool, error)
}
