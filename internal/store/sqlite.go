package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrUserNotFound  = errors.New("user not found")
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        username TEXT PRIMARY KEY COLLATE NOCASE,
        full_name TEXT NOT NULL,
        phone TEXT,
        credential TEXT NOT NULL,
        gender TEXT,
        dob TEXT,
        address TEXT,
        district TEXT,
        state TEXT,
        country TEXT,
        pincode TEXT,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS chat_sessions (
        username TEXT NOT NULL COLLATE NOCASE,
        id TEXT NOT NULL, -- UUID
        title TEXT NOT NULL,
        timestamp INTEGER NOT NULL, -- unix millis of last mutation
        messages_json TEXT NOT NULL,
        PRIMARY KEY (username, id)
    );
    CREATE INDEX IF NOT EXISTS idx_chat_sessions_user_ts
        ON chat_sessions (username, timestamp DESC);

    CREATE TABLE IF NOT EXISTS products (
        id TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        category TEXT NOT NULL,
        price INTEGER NOT NULL,
        image TEXT,
        keywords_json TEXT NOT NULL
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) CreateUser(user *User) error {
	user.CreatedAt = time.Now()
	_, err := s.db.Exec(
		`INSERT INTO users (username, full_name, phone, credential, gender, dob, address, district, state, country, pincode, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.Username, user.FullName, user.Phone, user.Credential, user.Gender, user.DOB,
		user.Address, user.District, user.State, user.Country, user.Pincode, user.CreatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUser looks a user up by username. The lookup is case-insensitive.
func (s *SQLiteStore) GetUser(username string) (*User, error) {
	return s.queryUser("username = ?", username)
}

// GetUserByLogin accepts either a username or a registered phone number,
// matching the dual-identifier login the app has always offered.
func (s *SQLiteStore) GetUserByLogin(identifier string) (*User, error) {
	return s.queryUser("username = ? OR phone = ?", identifier, identifier)
}

func (s *SQLiteStore) queryUser(where string, args ...interface{}) (*User, error) {
	var u User
	row := s.db.QueryRow(
		`SELECT username, full_name, phone, credential, gender, dob, address, district, state, country, pincode, created_at
         FROM users WHERE `+where, args...)
	err := row.Scan(&u.Username, &u.FullName, &u.Phone, &u.Credential, &u.Gender, &u.DOB,
		&u.Address, &u.District, &u.State, &u.Country, &u.Pincode, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

// UpdateUser replaces the stored record for user.Username. It never changes
// the username itself; renames go through RenameUser.
func (s *SQLiteStore) UpdateUser(user *User) error {
	res, err := s.db.Exec(
		`UPDATE users SET full_name = ?, phone = ?, credential = ?, gender = ?, dob = ?,
             address = ?, district = ?, state = ?, country = ?, pincode = ?
         WHERE username = ?`,
		user.FullName, user.Phone, user.Credential, user.Gender, user.DOB,
		user.Address, user.District, user.State, user.Country, user.Pincode, user.Username,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// RenameUser moves a user and their chat sessions to a new username in one
// transaction. A collision with an existing username rejects the whole
// rename; nothing is written.
func (s *SQLiteStore) RenameUser(oldUsername, newUsername string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rename: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec("UPDATE users SET username = ? WHERE username = ?", newUsername, oldUsername)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUsernameTaken
		}
		return fmt.Errorf("failed to rename user: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrUserNotFound
	}

	if _, err := tx.Exec("UPDATE chat_sessions SET username = ? WHERE username = ?", newUsername, oldUsername); err != nil {
		return fmt.Errorf("failed to move chat sessions: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteUser(username string) error {
	res, err := s.db.Exec("DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLiteStore) ListUsers() ([]User, error) {
	rows, err := s.db.Query(
		`SELECT username, full_name, phone, credential, gender, dob, address, district, state, country, pincode, created_at
         FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.Username, &u.FullName, &u.Phone, &u.Credential, &u.Gender, &u.DOB,
			&u.Address, &u.District, &u.State, &u.Country, &u.Pincode, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Product methods

// SeedProducts loads the catalog once; an already-populated table is left alone.
func (s *SQLiteStore) SeedProducts(products []Product) error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM products").Scan(&count); err != nil {
		return fmt.Errorf("failed to count products: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin product seed: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT INTO products (id, name, category, price, image, keywords_json) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare product insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range products {
		keywords, err := json.Marshal(p.Keywords)
		if err != nil {
			return fmt.Errorf("failed to marshal keywords for %s: %w", p.ID, err)
		}
		if _, err := stmt.Exec(p.ID, p.Name, p.Category, p.Price, p.Image, string(keywords)); err != nil {
			return fmt.Errorf("failed to insert product %s: %w", p.ID, err)
		}
	}
	return tx.Commit()
}

// SearchProducts filters by a case-insensitive term over name and keywords,
// and optionally by category. Empty arguments match everything.
func (s *SQLiteStore) SearchProducts(term, category string) ([]Product, error) {
	query := "SELECT id, name, category, price, image, keywords_json FROM products"
	var args []interface{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	term = strings.ToLower(strings.TrimSpace(term))

	var products []Product
	for rows.Next() {
		var p Product
		var keywordsJSON string
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Price, &p.Image, &keywordsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		if err := json.Unmarshal([]byte(keywordsJSON), &p.Keywords); err != nil {
			return nil, fmt.Errorf("failed to unmarshal keywords for %s: %w", p.ID, err)
		}
		if term != "" && !productMatches(p, term) {
			continue
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func productMatches(p Product, term string) bool {
	if strings.Contains(strings.ToLower(p.Name), term) {
		return true
	}
	for _, kw := range p.Keywords {
		if strings.Contains(strings.ToLower(kw), term) {
			return true
		}
	}
	return false
}
