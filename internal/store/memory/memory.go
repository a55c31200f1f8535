// Package memory implementa repository.Store y repository.SessionRepository en
// memoria. Pensado para dev, tests y nodos sin persistencia.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/dropDatabas3/olympus/internal/domain/repository"
	"github.com/dropDatabas3/olympus/internal/domain/types"
)

type userRecord struct {
	passwordHash string
	attrs        map[string]types.Attribute
	mfa          map[string]types.MFAInformation
}

type throttleKey struct {
	username string
	kind     types.AttemptKind
}

// Store guarda todo bajo un único mutex: cada operación es atómica.
type Store struct {
	mu       sync.Mutex
	users    map[string]*userRecord
	throttle map[throttleKey]types.ThrottleCounter
	now      func() time.Time
}

var _ repository.Store = (*Store)(nil)

// New crea un Store vacío.
func New() *Store {
	return &Store{
		users:    make(map[string]*userRecord),
		throttle: make(map[throttleKey]types.ThrottleCounter),
		now:      time.Now,
	}
}

func (s *Store) Close() error { return nil }

// ─── Users ───

func (s *Store) HasUser(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.users[username]
	return ok, nil
}

func (s *Store) AddUser(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; ok {
		return repository.ErrConflict
	}
	s.users[username] = &userRecord{
		passwordHash: passwordHash,
		attrs:        make(map[string]types.Attribute),
		mfa:          make(map[string]types.MFAInformation),
	}
	return nil
}

func (s *Store) GetPasswordHash(_ context.Context, username string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return "", repository.ErrNotFound
	}
	return u.passwordHash, nil
}

func (s *Store) SetPasswordHash(_ context.Context, username, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	u.passwordHash = passwordHash
	return nil
}

func (s *Store) DeleteUser(_ context.Context, username string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[username]; !ok {
		return false, nil
	}
	delete(s.users, username)
	delete(s.throttle, throttleKey{username, types.AttemptMFA})
	delete(s.throttle, throttleKey{username, types.AttemptAuth})
	return true, nil
}

// ─── Attributes ───

func (s *Store) GetAttributes(_ context.Context, username string) (map[string]types.Attribute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return map[string]types.Attribute{}, nil
	}
	out := make(map[string]types.Attribute, len(u.attrs))
	for k, v := range u.attrs {
		out[k] = v
	}
	return out, nil
}

func (s *Store) AddAttributes(_ context.Context, username string, attrs map[string]types.Attribute) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	for k, v := range attrs {
		u.attrs[types.NormalizeKey(k)] = v
	}
	return nil
}

func (s *Store) DeleteAttribute(_ context.Context, username, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return false, nil
	}
	key = types.NormalizeKey(key)
	if _, ok := u.attrs[key]; !ok {
		return false, nil
	}
	delete(u.attrs, key)
	return true, nil
}

// ─── MFA ───

func (s *Store) GetMFAInformation(_ context.Context, username string) (map[string]types.MFAInformation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]types.MFAInformation{}
	if u, ok := s.users[username]; ok {
		for k, v := range u.mfa {
			out[k] = v
		}
	}
	return out, nil
}

func (s *Store) AssignMFASecret(_ context.Context, username, mfaType, secret string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	u.mfa[mfaType] = types.MFAInformation{Type: mfaType, Secret: secret, CreatedAt: s.now()}
	return nil
}

func (s *Store) ActivateMFA(_ context.Context, username, mfaType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[username]
	if !ok {
		return repository.ErrNotFound
	}
	rec, ok := u.mfa[mfaType]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Activated = true
	u.mfa[mfaType] = rec
	return nil
}

func (s *Store) DeleteMFA(_ context.Context, username, mfaType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[username]; ok {
		delete(u.mfa, mfaType)
	}
	return nil
}

// ─── Throttle ───

func (s *Store) FailedAttempt(_ context.Context, username string, kind types.AttemptKind, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := throttleKey{username, kind}
	c := s.throttle[k]
	c.FailedAttempts++
	c.LastAttempt = at
	s.throttle[k] = c
	return nil
}

func (s *Store) ClearFailedAttempts(_ context.Context, username string, kind types.AttemptKind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.throttle, throttleKey{username, kind})
	return nil
}

func (s *Store) GetThrottle(_ context.Context, username string, kind types.AttemptKind) (types.ThrottleCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.throttle[throttleKey{username, kind}], nil
}
