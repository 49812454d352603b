package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/frickd/internal/domain"
)

// memStore implements domain.StateStore in memory for testing.
type memStore struct {
	data map[string]string
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string]string)}
}

func (m *memStore) Get(key string) (string, bool, error) {
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memStore) Set(key, value string) error {
	m.data[key] = value
	return nil
}

func (m *memStore) Delete(key string) error {
	delete(m.data, key)
	return nil
}

func (m *memStore) Close() error { return nil }

func TestDayKey_Format(t *testing.T) {
	now := time.Date(2025, 3, 7, 23, 59, 59, 0, time.Local)
	assert.Equal(t, "2025-03-07", DayKey(now))
}

func TestGet_AbsentDayIsZero(t *testing.T) {
	l := New(newMemStore())

	got, err := l.Get("2025-01-01")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestAdd_Accumulates(t *testing.T) {
	l := New(newMemStore())

	require.NoError(t, l.Add("2025-01-01", 120))
	require.NoError(t, l.Add("2025-01-01", 240.5))

	got, err := l.Get("2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, 360.5, got)
}

func TestAdd_RejectsNegative(t *testing.T) {
	store := newMemStore()
	l := New(store)
	require.NoError(t, l.Add("2025-01-01", 60))

	err := l.Add("2025-01-01", -1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	// Value unchanged.
	got, err := l.Get("2025-01-01")
	require.NoError(t, err)
	assert.Equal(t, 60.0, got)
}

func TestAdd_ZeroIsAllowed(t *testing.T) {
	l := New(newMemStore())

	require.NoError(t, l.Add("2025-01-01", 0))
	got, err := l.Get("2025-01-01")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestLedger_PersistsAcrossInstances(t *testing.T) {
	store := newMemStore()
	require.NoError(t, New(store).Add("2025-06-15", 3600))

	got, err := New(store).Get("2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, 3600.0, got)

	// Persisted under the documented key layout.
	_, ok := store.data["dailyBlocked_2025-06-15"]
	assert.True(t, ok)
}

func TestLedger_DaysAreIndependent(t *testing.T) {
	l := New(newMemStore())
	require.NoError(t, l.Add("2025-01-01", 100))
	require.NoError(t, l.Add("2025-01-02", 200))

	d1, err := l.Get("2025-01-01")
	require.NoError(t, err)
	d2, err := l.Get("2025-01-02")
	require.NoError(t, err)
	assert.Equal(t, 100.0, d1)
	assert.Equal(t, 200.0, d2)
}
