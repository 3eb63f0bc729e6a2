package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder(t *testing.T) {
	t.Run("empty builder renders no clause", func(t *testing.T) {
		var b Builder
		assert.Equal(t, "", b.Clause())
		assert.Empty(t, b.Args())
		assert.Equal(t, []any{20, 0}, b.Args(20, 0))
	})

	t.Run("predicates are joined with AND in order", func(t *testing.T) {
		var b Builder
		b.Where("user_id = ?", "u1").
			WhereIf(false, "category = ?", "Food").
			WhereIf(true, "date >= ?", "2024-01-01")

		assert.Equal(t, " WHERE user_id = ? AND date >= ?", b.Clause())
		assert.Equal(t, []any{"u1", "2024-01-01"}, b.Args())
		assert.Equal(t, 2, b.Len())
	})

	t.Run("Args does not alias internal storage", func(t *testing.T) {
		var b Builder
		b.Where("a = ?", 1)
		first := b.Args(10)
		second := b.Args(20)
		assert.Equal(t, []any{1, 10}, first)
		assert.Equal(t, []any{1, 20}, second)
	})
}

func TestContains(t *testing.T) {
	assert.Equal(t, "%coffee%", Contains("coffee"))
	assert.Equal(t, `%50\% off\_sale%`, Contains("50% off_sale"))
	assert.Equal(t, `%a\\b%`, Contains(`a\b`))
}

func TestDSN(t *testing.T) {
	const all = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_time_format=sqlite"

	tests := []struct {
		name string
		path string
		want string
	}{
		{"plain path", "./finance.db", "file:./finance.db?" + all},
		{"bare file uri", "file:finance.db", "file:finance.db?" + all},
		{"file uri with options", "file:finance.db?mode=rwc", "file:finance.db?mode=rwc&" + all},
		{
			"explicit settings are kept",
			"file:finance.db?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(100)",
			"file:finance.db?_pragma=journal_mode(DELETE)&_pragma=busy_timeout(100)&_pragma=foreign_keys(1)&_time_format=sqlite",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DSN(tt.path))
		})
	}
}

func TestFileURIEnforcesForeignKeys(t *testing.T) {
	path := "file:" + filepath.Join(t.TempDir(), "finance.db")
	require.NoError(t, Migrate(path))

	db, err := New(path, Options{MaxOpenConns: 1})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`INSERT INTO transactions (id, user_id, amount, type, category, date, created_at, updated_at)
		VALUES ('t1', 'nobody', 1, 'expense', 'Food', '2024-01-01', '2024-01-01 00:00:00', '2024-01-01 00:00:00')`)
	assert.Error(t, err, "user_id must reference an existing user")
}

func TestUnicodeFold(t *testing.T) {
	db, err := New(filepath.Join(t.TempDir(), "finance.db"), Options{MaxOpenConns: 1})
	require.NoError(t, err)
	defer db.Close()

	var folded string
	require.NoError(t, db.QueryRow("SELECT "+FoldFunc+"(?)", "CAFÉ Ünïcode").Scan(&folded))
	assert.Equal(t, "café ünïcode", folded)

	var matches bool
	require.NoError(t, db.QueryRow("SELECT "+FoldFunc+"(?) LIKE "+FoldFunc+"(?)", "Café au lait", Contains("CAFÉ")).Scan(&matches))
	assert.True(t, matches)
}

func TestMigrateAndSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finance.db")
	require.NoError(t, Migrate(path))
	// Running again is a no-op.
	require.NoError(t, Migrate(path))

	db, err := New(path, Options{MaxOpenConns: 4})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, SeedCategories(ctx, db))
	require.NoError(t, SeedCategories(ctx, db))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM categories").Scan(&count))
	assert.Equal(t, len(DefaultCategories), count)

	inserted, err := SeedDemoUsers(ctx, db, "hash")
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	inserted, err = SeedDemoUsers(ctx, db, "hash")
	require.NoError(t, err)
	assert.Equal(t, 0, inserted, "demo users are only created once")
}

func TestSchemaRejectsInvalidRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finance.db")
	require.NoError(t, Migrate(path))
	db, err := New(path, Options{})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("INSERT INTO users (id, email, username, password_hash, role) VALUES ('u1', 'a@x.com', 'alice', 'h', 'superuser')")
	assert.Error(t, err, "unknown role must violate the CHECK constraint")

	_, err = db.Exec("INSERT INTO users (id, email, username, password_hash, role) VALUES ('u1', 'a@x.com', 'alice', 'h', 'user')")
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO transactions (id, user_id, amount, type, category, date) VALUES ('t1', 'u1', 0, 'expense', 'Food', '2024-01-01')")
	assert.Error(t, err, "non-positive amount must violate the CHECK constraint")

	_, err = db.Exec("INSERT INTO transactions (id, user_id, amount, type, category, date) VALUES ('t1', 'u1', 5, 'transfer', 'Food', '2024-01-01')")
	assert.Error(t, err, "unknown type must violate the CHECK constraint")

	_, err = db.Exec("INSERT INTO transactions (id, user_id, amount, type, category, date) VALUES ('t1', 'missing', 5, 'expense', 'Food', '2024-01-01')")
	assert.Error(t, err, "foreign keys are enforced")
}

func TestIsUniqueViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "finance.db")
	require.NoError(t, Migrate(path))
	db, err := New(path, Options{})
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("INSERT INTO categories (name, type) VALUES ('Food', 'expense')")
	require.NoError(t, err)

	_, err = db.Exec("INSERT INTO categories (name, type) VALUES ('Food', 'expense')")
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))

	_, err = db.Exec("INSERT INTO categories (name, type) VALUES ('Gifts', 'nope')")
	require.Error(t, err)
	assert.False(t, IsUniqueViolation(err), "CHECK failures are not unique violations")
	assert.False(t, IsUniqueViolation(nil))
}
