// Package profile implements the named blocking-configuration store.
package profile

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/frickd/internal/domain"
)

// Persisted layout keys.
const (
	profilesKey = "profiles"
	currentKey  = "currentProfileId"
)

// DefaultProfileName is the name of the profile seeded on first run.
const DefaultProfileName = "Default"

// Store owns the profile collection and the active selection. Profiles
// keep insertion order, ids are unique and never reused, and every
// mutation is durably persisted before it becomes visible to readers.
// The collection is never empty after construction.
type Store struct {
	mu       sync.Mutex
	state    domain.StateStore
	profiles []domain.Profile
	current  string
	logger   *zap.Logger
}

// Update carries the optional fields of an update operation. Nil fields
// leave the profile's value untouched; set fields are applied atomically.
type Update struct {
	Name              *string
	Icon              *string
	BlockedApps       *[]domain.AppID
	BlockedCategories *[]domain.CategoryID
}

// NewStore loads the persisted collection, seeding a single default
// profile on first run.
func NewStore(state domain.StateStore, logger *zap.Logger) (*Store, error) {
	s := &Store{state: state, logger: logger}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	raw, ok, err := s.state.Get(profilesKey)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &s.profiles); err != nil {
			return fmt.Errorf("corrupt profile collection: %w", err)
		}
	}
	if cur, ok, err := s.state.Get(currentKey); err != nil {
		return fmt.Errorf("failed to load current profile id: %w", err)
	} else if ok {
		s.current = cur
	}

	if len(s.profiles) == 0 {
		seed := domain.Profile{
			ID:   uuid.NewString(),
			Name: DefaultProfileName,
			Icon: domain.DefaultProfileIcon,
		}
		s.profiles = []domain.Profile{seed}
		s.current = seed.ID
		s.logger.Info("seeded default profile", zap.String("id", seed.ID))
		return s.persist(s.profiles, s.current)
	}

	// Repair a dangling selection from corrupted state.
	if s.indexOf(s.current) < 0 {
		s.current = s.profiles[0].ID
		s.logger.Warn("current profile id was dangling, reset to first",
			zap.String("id", s.current))
		return s.persist(s.profiles, s.current)
	}
	return nil
}

// Add validates and appends a new profile without changing the selection.
// The assigned id is fresh and never reused.
func (s *Store) Add(name, icon string, apps []domain.AppID, categories []domain.CategoryID) (domain.Profile, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Profile{}, fmt.Errorf("empty profile name: %w", domain.ErrInvalidInput)
	}
	if icon == "" {
		icon = domain.DefaultProfileIcon
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p := domain.Profile{
		ID:                uuid.NewString(),
		Name:              name,
		Icon:              icon,
		BlockedApps:       dedupeApps(apps),
		BlockedCategories: dedupeCategories(categories),
	}

	next := append(cloneProfiles(s.profiles), p)
	if err := s.persist(next, s.current); err != nil {
		return domain.Profile{}, err
	}
	s.profiles = next
	s.logger.Info("profile added", zap.String("id", p.ID), zap.String("name", p.Name))
	return cloneProfile(p), nil
}

// Update applies the set fields of upd to the profile with the
// given id, all-or-nothing.
func (s *Store) Update(id string, upd Update) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return domain.Profile{}, fmt.Errorf("empty profile name: %w", domain.ErrInvalidInput)
	}

	next := cloneProfiles(s.profiles)
	p := &next[idx]
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Icon != nil {
		p.Icon = *upd.Icon
	}
	if upd.BlockedApps != nil {
		p.BlockedApps = dedupeApps(*upd.BlockedApps)
	}
	if upd.BlockedCategories != nil {
		p.BlockedCategories = dedupeCategories(*upd.BlockedCategories)
	}

	if err := s.persist(next, s.current); err != nil {
		return domain.Profile{}, err
	}
	s.profiles = next
	return cloneProfile(next[idx]), nil
}

// Delete removes a profile. The last remaining profile cannot be deleted.
// Deleting the active profile atomically reassigns the selection to the
// first remaining one.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.profiles) == 1 {
		return domain.ErrLastProfile
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}

	next := cloneProfiles(s.profiles)
	next = append(next[:idx], next[idx+1:]...)
	current := s.current
	if current == id {
		current = next[0].ID
	}

	if err := s.persist(next, current); err != nil {
		return err
	}
	s.profiles = next
	s.current = current
	s.logger.Info("profile deleted", zap.String("id", id))
	return nil
}

// SetCurrent makes id the active profile. It reports whether the
// selection actually changed so the engine can skip a redundant shield
// re-application when the already-active profile is re-selected.
func (s *Store) SetCurrent(id string) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return false, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	if s.current == id {
		return false, nil
	}
	if err := s.persist(s.profiles, id); err != nil {
		return false, err
	}
	s.current = id
	return true, nil
}

// Current returns a copy of the active profile. Given the store's
// invariants there is always one.
func (s *Store) Current() domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProfile(s.profiles[s.indexOf(s.current)])
}

// CurrentID returns the active profile's id.
func (s *Store) CurrentID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Get returns a copy of the profile with the given id.
func (s *Store) Get(id string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.indexOf(id)
	if idx < 0 {
		return domain.Profile{}, fmt.Errorf("profile %s: %w", id, domain.ErrNotFound)
	}
	return cloneProfile(s.profiles[idx]), nil
}

// List returns copies of all profiles in insertion order.
func (s *Store) List() []domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneProfiles(s.profiles)
}

func (s *Store) indexOf(id string) int {
	for i, p := range s.profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// persist writes the collection and selection. Profiles go first so a
// crash between the two writes leaves at worst a dangling selection,
// which load repairs.
func (s *Store) persist(profiles []domain.Profile, current string) error {
	data, err := json.Marshal(profiles)
	if err != nil {
		return err
	}
	if err := s.state.Set(profilesKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist profiles: %w", err)
	}
	if err := s.state.Set(currentKey, current); err != nil {
		return fmt.Errorf("failed to persist current profile id: %w", err)
	}
	return nil
}

func cloneProfile(p domain.Profile) domain.Profile {
	c := p
	c.BlockedApps = append([]domain.AppID(nil), p.BlockedApps...)
	c.BlockedCategories = append([]domain.CategoryID(nil), p.BlockedCategories...)
	return c
}

func cloneProfiles(profiles []domain.Profile) []domain.Profile {
	out := make([]domain.Profile, len(profiles))
	for i, p := range profiles {
		out[i] = cloneProfile(p)
	}
	return out
}

// dedupeApps keeps the first occurrence of each id, preserving order.
func dedupeApps(apps []domain.AppID) []domain.AppID {
	seen := make(map[domain.AppID]struct{}, len(apps))
	out := make([]domain.AppID, 0, len(apps))
	for _, a := range apps {
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func dedupeCategories(categories []domain.CategoryID) []domain.CategoryID {
	seen := make(map[domain.CategoryID]struct{}, len(categories))
	out := make([]domain.CategoryID, 0, len(categories))
	for _, c := range categories {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}
