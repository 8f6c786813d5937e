// Package auth resolves the current authenticated principal and exposes the
// visibility predicate used to scope the expense collection to its owner.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"spendlog/internal/core"
	"spendlog/internal/session"
)

const (
	// UsersKey is the fixed store key holding the JSON array of all users.
	UsersKey = "expense-tracker-users"
	// CurrentUserKey is the fixed store key holding the active user's id.
	CurrentUserKey = "expense-tracker-current-user"
)

type State int

const (
	StateUnresolved State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unresolved"
	}
}

// Service is the identity gate. It starts Unresolved and settles to
// Authenticated or Anonymous after Restore; explicit login/signup/logout
// drive the remaining transitions.
type Service struct {
	mu      sync.RWMutex
	store   session.Store
	markers *session.Markers
	state   State
	current core.User
}

func NewService(store session.Store, markers *session.Markers) *Service {
	return &Service{store: store, markers: markers, state: StateUnresolved}
}

type authMarkerValue struct {
	UserID string `json:"userId"`
}

// Restore resolves the session at startup. An absent auth marker settles to
// Anonymous without consulting the user store at all.
func (s *Service) Restore(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.markers.Get(session.AuthMarker); !ok {
		s.state = StateAnonymous
		return
	}

	currentID, ok, err := s.store.Get(CurrentUserKey)
	if err != nil || !ok || currentID == "" {
		s.state = StateAnonymous
		return
	}

	users, err := s.loadUsers()
	if err != nil {
		slog.WarnContext(ctx, "Could not load users during session restore", "error", err)
		s.state = StateAnonymous
		return
	}
	for _, u := range users {
		if u.ID == currentID {
			s.current = u.Sanitized()
			s.state = StateAuthenticated
			slog.InfoContext(ctx, "Session restored", "user_id", u.ID)
			return
		}
	}
	s.state = StateAnonymous
}

// Login matches email exactly and verifies the password against the stored
// bcrypt digest. A miss is (false, nil), never an error.
func (s *Service) Login(ctx context.Context, email, password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return false, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if u.Email != email {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
			return false, nil
		}
		if err := s.establish(u); err != nil {
			return false, err
		}
		slog.InfoContext(ctx, "User logged in", "user_id", u.ID)
		return true, nil
	}
	return false, nil
}

// Signup creates a new user unless the email is already taken (case-sensitive
// exact match). A conflict is (false, nil) with no partial record written.
func (s *Service) Signup(ctx context.Context, email, password, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers()
	if err != nil {
		return false, fmt.Errorf("load users: %w", err)
	}
	for _, u := range users {
		if u.Email == email {
			return false, nil
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hash password: %w", err)
	}
	user := core.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
	}
	if err := user.Validate(); err != nil {
		return false, err
	}

	if err := s.saveUsers(append(users, user)); err != nil {
		return false, fmt.Errorf("save users: %w", err)
	}
	if err := s.establish(user); err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "User signed up", "user_id", user.ID)
	return true, nil
}

// Logout settles to Anonymous, forgets the current-user pointer, and expires
// the auth marker.
func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateAnonymous
	s.current = core.User{}
	s.store.Delete(CurrentUserKey)
	s.markers.Clear(session.AuthMarker)
}

// Current returns the authenticated user, if any.
func (s *Service) Current() (core.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.state == StateAuthenticated
}

func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Visible reports whether e belongs in the current principal's view. The
// anonymous view is the whole collection; that is documented demo behavior,
// not a security boundary.
func (s *Service) Visible(e core.Expense) bool {
	user, ok := s.Current()
	if !ok {
		return true
	}
	return e.UserID == user.ID
}

// Filter returns the visible subset of expenses in input order.
func (s *Service) Filter(expenses []core.Expense) []core.Expense {
	user, ok := s.Current()
	if !ok {
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.UserID == user.ID {
			out = append(out, e)
		}
	}
	return out
}

// establish records u as the active session. Callers hold the write lock.
func (s *Service) establish(u core.User) error {
	if err := s.store.Set(CurrentUserKey, u.ID); err != nil {
		return fmt.Errorf("persist current user: %w", err)
	}
	marker, err := json.Marshal(authMarkerValue{UserID: u.ID})
	if err != nil {
		return fmt.Errorf("encode auth marker: %w", err)
	}
	if err := s.markers.Set(session.AuthMarker, string(marker), session.AuthTTLDays); err != nil {
		return fmt.Errorf("set auth marker: %w", err)
	}
	s.current = u.Sanitized()
	s.state = StateAuthenticated
	return nil
}

func (s *Service) loadUsers() ([]core.User, error) {
	raw, ok, err := s.store.Get(UsersKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	var users []core.User
	if err := json.Unmarshal([]byte(raw), &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (s *Service) saveUsers(users []core.User) error {
	b, err := json.Marshal(users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return s.store.Set(UsersKey, string(b))
}
