package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-testutil"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpenEmptyPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected an error for a blank path")
	}
}

func TestCreateAccount(t *testing.T) {
	tests := map[string]struct {
		username string
		password string
		setup    func(ctx context.Context, s *Store)
		expErr   error
	}{
		"happy path": {username: "alice", password: "hunter2"},
		"duplicate username": {
			username: "alice", password: "hunter2",
			setup: func(ctx context.Context, s *Store) {
				if _, err := s.CreateAccount(ctx, "alice", "other"); err != nil {
					panic(err)
				}
			},
			expErr: ErrUsernameTaken,
		},
		"duplicate case-insensitive": {
			username: "ALICE", password: "hunter2",
			setup: func(ctx context.Context, s *Store) {
				if _, err := s.CreateAccount(ctx, "alice", "other"); err != nil {
					panic(err)
				}
			},
			expErr: ErrUsernameTaken,
		},
		"blank username": {username: " ", password: "hunter2", expErr: errors.New("")},
		"blank password": {username: "alice", password: "", expErr: errors.New("")},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()
			if tt.setup != nil {
				tt.setup(ctx, s)
			}

			id, err := s.CreateAccount(ctx, tt.username, tt.password)
			if tt.expErr != nil {
				if err == nil {
					t.Fatal("expected an error")
				}
				if tt.expErr.Error() != "" && !errors.Is(err, tt.expErr) {
					t.Fatalf("err = %v, want %v", err, tt.expErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id == 0 {
				t.Error("expected a non-zero account id")
			}
		})
	}
}

func TestAuthenticate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateAccount(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("create: %v", err)
	}

	tests := map[string]struct {
		username string
		password string
		expErr   error
	}{
		"correct":            {username: "alice", password: "hunter2"},
		"case folded login":  {username: "ALICE", password: "hunter2"},
		"wrong password":     {username: "alice", password: "wrong", expErr: ErrBadCredentials},
		"unknown user":       {username: "mallory", password: "hunter2", expErr: ErrBadCredentials},
		"padding is trimmed": {username: " alice ", password: "hunter2"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			acct, err := s.Authenticate(ctx, tt.username, tt.password)
			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Fatalf("err = %v, want %v", err, tt.expErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "username", acct.Username, "alice")
		})
	}
}

func TestHasAccount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.CreateAccount(ctx, "alice", "hunter2"); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.HasAccount(ctx, "Alice")
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	testutil.AssertEqual(t, "existing", got, true)

	got, err = s.HasAccount(ctx, "bob")
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	testutil.AssertEqual(t, "missing", got, false)
}

func TestCharacterLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	acctId, err := s.CreateAccount(ctx, "alice", "hunter2")
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	charId, err := s.CreateCharacter(ctx, acctId, "Thorin", "warrior", "dwarf", 135, 100, 13)
	if err != nil {
		t.Fatalf("create character: %v", err)
	}

	// duplicate names are refused, regardless of case
	if _, err := s.CreateCharacter(ctx, acctId, "thorin", "mage", "elf", 85, 140, 13); err != ErrNameTaken {
		t.Fatalf("duplicate err = %v, want ErrNameTaken", err)
	}

	rec, err := s.GetCharacter(ctx, charId)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	testutil.AssertEqual(t, "name", rec.Name, "Thorin")
	testutil.AssertEqual(t, "class", rec.Class, "warrior")
	testutil.AssertEqual(t, "race", rec.Race, "dwarf")
	testutil.AssertEqual(t, "health", rec.Health, 135)
	testutil.AssertEqual(t, "char id", rec.CharId(), "1")

	list, err := s.CharactersFor(ctx, acctId)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	testutil.AssertEqual(t, "character count", len(list), 1)

	if err := s.SaveCharacterStats(rec.CharId(), 40, 77); err != nil {
		t.Fatalf("save stats: %v", err)
	}
	rec, err = s.GetCharacter(ctx, charId)
	if err != nil {
		t.Fatalf("get after save: %v", err)
	}
	testutil.AssertEqual(t, "saved health", rec.Health, 40)
	testutil.AssertEqual(t, "saved stamina", rec.Stamina, 77)
}

func TestGetCharacterMissing(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetCharacter(context.Background(), 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSaveCharacterStatsBadId(t *testing.T) {
	s := newTestStore(t)
	if err := s.SaveCharacterStats("npc:abc", 10, 10); err == nil {
		t.Fatal("expected an error for a non-numeric id")
	}
}
