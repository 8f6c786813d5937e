package auth

import (
	"context"
	"testing"

	"spendlog/internal/core"
	"spendlog/internal/kv"
	"spendlog/internal/session"
)

func newTestService(t *testing.T) (*Service, *kv.Store) {
	t.Helper()
	store, err := kv.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return NewService(store, session.New(store)), store
}

func TestSignupAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	ok, err := svc.Signup(ctx, "ada@example.com", "hunter22", "Ada")
	if err != nil || !ok {
		t.Fatalf("Signup = %v, %v", ok, err)
	}
	if svc.State() != StateAuthenticated {
		t.Fatalf("state after signup = %v", svc.State())
	}
	user, ok := svc.Current()
	if !ok || user.Email != "ada@example.com" {
		t.Fatalf("Current = %+v, %v", user, ok)
	}
	if user.PasswordHash != "" {
		t.Fatal("current user must not carry the password hash")
	}

	svc.Logout()
	if svc.State() != StateAnonymous {
		t.Fatalf("state after logout = %v", svc.State())
	}

	ok, err = svc.Login(ctx, "ada@example.com", "hunter22")
	if err != nil || !ok {
		t.Fatalf("Login = %v, %v", ok, err)
	}
	if svc.State() != StateAuthenticated {
		t.Fatalf("state after login = %v", svc.State())
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if ok, err := svc.Signup(ctx, "ada@example.com", "hunter22", "Ada"); err != nil || !ok {
		t.Fatalf("Signup = %v, %v", ok, err)
	}
	svc.Logout()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "grace@example.com", "hunter22"},
		{"wrong password", "ada@example.com", "wrong"},
		{"case-sensitive email", "ADA@example.com", "hunter22"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := svc.Login(ctx, tt.email, tt.password)
			if err != nil {
				t.Fatalf("Login returned error: %v", err)
			}
			if ok {
				t.Fatal("Login should have been rejected")
			}
			if svc.State() != StateAnonymous {
				t.Fatalf("failed login must not change state, got %v", svc.State())
			}
		})
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if ok, err := svc.Signup(ctx, "ada@example.com", "first", "Ada"); err != nil || !ok {
		t.Fatalf("Signup = %v, %v", ok, err)
	}
	ok, err := svc.Signup(ctx, "ada@example.com", "second", "Imposter")
	if err != nil {
		t.Fatalf("duplicate Signup returned error: %v", err)
	}
	if ok {
		t.Fatal("duplicate email must be rejected")
	}

	// Differently-cased email is a distinct account.
	ok, err = svc.Signup(ctx, "Ada@example.com", "third", "Other Ada")
	if err != nil || !ok {
		t.Fatalf("differently-cased Signup = %v, %v", ok, err)
	}
}

func TestRestore(t *testing.T) {
	store, err := kv.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	ctx := context.Background()

	first := NewService(store, session.New(store))
	if ok, err := first.Signup(ctx, "ada@example.com", "hunter22", "Ada"); err != nil || !ok {
		t.Fatalf("Signup = %v, %v", ok, err)
	}
	want, _ := first.Current()

	// A fresh service over the same store resolves the saved session.
	second := NewService(store, session.New(store))
	if second.State() != StateUnresolved {
		t.Fatalf("state before restore = %v", second.State())
	}
	second.Restore(ctx)
	got, ok := second.Current()
	if !ok || got.ID != want.ID {
		t.Fatalf("restored user = %+v, %v, want id %s", got, ok, want.ID)
	}
}

func TestRestoreWithoutMarker(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	// A stale current-user pointer without an auth marker must not resurrect
	// the session.
	if err := store.Set(CurrentUserKey, "ghost"); err != nil {
		t.Fatalf("seed pointer: %v", err)
	}
	svc.Restore(ctx)
	if svc.State() != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", svc.State())
	}
}

func TestRestoreUnknownUser(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if ok, err := svc.Signup(ctx, "ada@example.com", "hunter22", "Ada"); err != nil || !ok {
		t.Fatalf("Signup = %v, %v", ok, err)
	}
	// Point the session at a user id that no longer exists.
	svc.store.Set(CurrentUserKey, "deleted-user")

	fresh := NewService(svc.store, svc.markers)
	fresh.Restore(ctx)
	if fresh.State() != StateAnonymous {
		t.Fatalf("state = %v, want anonymous", fresh.State())
	}
}

func TestVisibility(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if ok, err := svc.Signup(ctx, "ada@example.com", "hunter22", "Ada"); err != nil || !ok {
		t.Fatalf("Signup = %v, %v", ok, err)
	}
	user, _ := svc.Current()

	mine := core.Expense{ID: "1", UserID: user.ID}
	theirs := core.Expense{ID: "2", UserID: "someone-else"}
	unowned := core.Expense{ID: "3"}

	if !svc.Visible(mine) {
		t.Fatal("own expense must be visible")
	}
	if svc.Visible(theirs) || svc.Visible(unowned) {
		t.Fatal("foreign and unowned expenses must be hidden while authenticated")
	}

	got := svc.Filter([]core.Expense{mine, theirs, unowned})
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("Filter = %+v", got)
	}

	// Anonymous sees everything.
	svc.Logout()
	got = svc.Filter([]core.Expense{mine, theirs, unowned})
	if len(got) != 3 {
		t.Fatalf("anonymous Filter = %+v", got)
	}
}
