// Package storage persists accounts and characters in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

var (
	ErrUsernameTaken  = errors.New("username already taken")
	ErrNameTaken      = errors.New("character name already taken")
	ErrBadCredentials = errors.New("invalid username or password")
	ErrNotFound       = errors.New("not found")
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    username      TEXT    NOT NULL UNIQUE COLLATE NOCASE,
    password_hash TEXT    NOT NULL,
    created_at    TEXT    NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS characters (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    account_id      INTEGER NOT NULL REFERENCES accounts(id),
    name            TEXT    NOT NULL COLLATE NOCASE,
    character_class TEXT    NOT NULL,
    character_race  TEXT    NOT NULL DEFAULT 'human',
    hp              INTEGER NOT NULL DEFAULT 100,
    stamina         INTEGER NOT NULL DEFAULT 100,
    base_attack     INTEGER NOT NULL DEFAULT 10,
    created_at      TEXT    NOT NULL DEFAULT (datetime('now')),
    UNIQUE(name)
);
`

// Account is one login identity. An account may own several characters.
type Account struct {
	Id       int64
	Username string
}

// CharacterRecord is the persisted shape of a character.
type CharacterRecord struct {
	Id         int64
	AccountId  int64
	Name       string
	Class      string
	Race       string
	Health     int
	Stamina    int
	BaseAttack int
}

// CharId returns the character's id in the form the session registry keys on.
func (r *CharacterRecord) CharId() string {
	return strconv.FormatInt(r.Id, 10)
}

// Store persists game state in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CreateAccount registers a new login. The password is stored as a bcrypt
// hash. Returns ErrUsernameTaken when the name is in use.
func (s *Store) CreateAccount(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return 0, fmt.Errorf("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hashing password: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO accounts (username, password_hash) VALUES (?, ?)`,
		username, string(hash))
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("inserting account: %w", err)
	}
	return res.LastInsertId()
}

// HasAccount reports whether a username is registered.
func (s *Store) HasAccount(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM accounts WHERE username = ?`,
		strings.TrimSpace(username)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("querying account: %w", err)
	}
	return n > 0, nil
}

// Authenticate checks a username/password pair. Returns ErrBadCredentials
// for an unknown user or a wrong password, without distinguishing the two.
func (s *Store) Authenticate(ctx context.Context, username, password string) (*Account, error) {
	var (
		acct Account
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash FROM accounts WHERE username = ?`,
		strings.TrimSpace(username)).Scan(&acct.Id, &acct.Username, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("querying account: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return &acct, nil
}

// CreateCharacter inserts a new character owned by the account. Returns
// ErrNameTaken when the name is already used.
func (s *Store) CreateCharacter(ctx context.Context, accountId int64, name, class, race string, health, stamina, baseAttack int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO characters (account_id, name, character_class, character_race, hp, stamina, base_attack)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		accountId, name, class, race, health, stamina, baseAttack)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrNameTaken
		}
		return 0, fmt.Errorf("inserting character: %w", err)
	}
	return res.LastInsertId()
}

// CharactersFor returns the account's characters, oldest first.
func (s *Store) CharactersFor(ctx context.Context, accountId int64) ([]CharacterRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, account_id, name, character_class, character_race, hp, stamina, base_attack
		 FROM characters WHERE account_id = ? ORDER BY created_at`, accountId)
	if err != nil {
		return nil, fmt.Errorf("querying characters: %w", err)
	}
	defer rows.Close()

	var out []CharacterRecord
	for rows.Next() {
		var r CharacterRecord
		if err := rows.Scan(&r.Id, &r.AccountId, &r.Name, &r.Class, &r.Race, &r.Health, &r.Stamina, &r.BaseAttack); err != nil {
			return nil, fmt.Errorf("scanning character: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetCharacter fetches one character by id. Returns ErrNotFound.
func (s *Store) GetCharacter(ctx context.Context, id int64) (*CharacterRecord, error) {
	var r CharacterRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, account_id, name, character_class, character_race, hp, stamina, base_attack
		 FROM characters WHERE id = ?`, id).
		Scan(&r.Id, &r.AccountId, &r.Name, &r.Class, &r.Race, &r.Health, &r.Stamina, &r.BaseAttack)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying character: %w", err)
	}
	return &r, nil
}

// SaveCharacterStats persists mutable stats on disconnect. Satisfies the
// session registry's stats saver, which keys characters by string id.
func (s *Store) SaveCharacterStats(charId string, health, stamina int) error {
	id, err := strconv.ParseInt(charId, 10, 64)
	if err != nil {
		return fmt.Errorf("parsing character id %q: %w", charId, err)
	}
	_, err = s.db.Exec(`UPDATE characters SET hp = ?, stamina = ? WHERE id = ?`, health, stamina, id)
	if err != nil {
		return fmt.Errorf("saving character stats: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
