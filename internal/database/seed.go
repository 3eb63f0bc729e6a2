package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultCategories is the reference data shipped with a fresh database.
var DefaultCategories = []struct {
	Name string
	Type string
}{
	{"Salary", "income"},
	{"Investment", "income"},
	{"Food", "expense"},
	{"Transport", "expense"},
	{"Shopping", "expense"},
	{"Bills", "expense"},
	{"Other", "both"},
}

// DemoUser is an account created by SeedDemoUsers.
type DemoUser struct {
	Email    string
	Username string
	Role     string
}

// DemoUsers share the password "password123".
var DemoUsers = []DemoUser{
	{Email: "admin@test.com", Username: "Admin User", Role: "admin"},
	{Email: "user@test.com", Username: "Regular User", Role: "user"},
	{Email: "readonly@test.com", Username: "Read Only User", Role: "read-only"},
}

// DemoPassword is the password of every demo user.
const DemoPassword = "password123"

// SeedCategories inserts the default categories, leaving existing names untouched.
func SeedCategories(ctx context.Context, db *sql.DB) error {
	for _, c := range DefaultCategories {
		_, err := db.ExecContext(ctx,
			"INSERT INTO categories (name, type) VALUES (?, ?) ON CONFLICT (name) DO NOTHING",
			c.Name, c.Type)
		if err != nil {
			return fmt.Errorf("seed category %s: %w", c.Name, err)
		}
	}
	return nil
}

// SeedDemoUsers creates the demo accounts with an already hashed password.
// Returns the number of accounts actually inserted.
func SeedDemoUsers(ctx context.Context, db *sql.DB, passwordHash string) (int, error) {
	inserted := 0
	for _, u := range DemoUsers {
		res, err := db.ExecContext(ctx,
			"INSERT INTO users (id, email, username, password_hash, role, created_at) VALUES (?, ?, ?, ?, ?, ?) ON CONFLICT (email) DO NOTHING",
			uuid.New().String(), strings.ToLower(u.Email), u.Username, passwordHash, u.Role, time.Now().UTC())
		if err != nil {
			return inserted, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}
