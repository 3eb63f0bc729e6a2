package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/isdelr/finance-tracker-be/internal/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type streams struct {
	stdin  *bytes.Buffer
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newStreams(input string) streams {
	return streams{
		stdin:  bytes.NewBufferString(input),
		stdout: new(bytes.Buffer),
		stderr: new(bytes.Buffer),
	}
}

func (s streams) run(args ...string) error {
	return run(args, s.stdin, s.stdout, s.stderr)
}

func testDBPath(t *testing.T) string {
	t.Helper()
	t.Setenv("BCRYPT_COST", "4")
	return filepath.Join(t.TempDir(), "finance.db")
}

func queryInt(t *testing.T, path, query string, args ...interface{}) int {
	t.Helper()
	db, err := database.New(path, database.Options{MaxOpenConns: 1})
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestRun_NoCommand(t *testing.T) {
	s := newStreams("")
	err := s.run()
	require.Error(t, err)
	assert.Contains(t, s.stdout.String(), "Usage:")
}

func TestRun_UnknownCommand(t *testing.T) {
	s := newStreams("")
	err := s.run("frobnicate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown command "frobnicate"`)
}

func TestRun_Migrate(t *testing.T) {
	path := testDBPath(t)
	s := newStreams("")

	require.NoError(t, s.run("migrate", "-db", path))
	assert.Contains(t, s.stdout.String(), "is up to date")
	assert.FileExists(t, path)

	// Applying again is a no-op.
	require.NoError(t, s.run("migrate", "-db", path))
}

func TestRun_MigrateUsesDatabasePathEnv(t *testing.T) {
	path := testDBPath(t)
	t.Setenv("DATABASE_PATH", path)

	require.NoError(t, newStreams("").run("migrate"))
	assert.FileExists(t, path)
}

func TestRun_Seed(t *testing.T) {
	path := testDBPath(t)
	s := newStreams("")

	require.NoError(t, s.run("seed", "-db", path))
	assert.Contains(t, s.stdout.String(), "Seeded")
	assert.Equal(t, len(database.DefaultCategories), queryInt(t, path, "SELECT COUNT(*) FROM categories"))
	assert.Zero(t, queryInt(t, path, "SELECT COUNT(*) FROM users"))
}

func TestRun_SeedDemoIsIdempotent(t *testing.T) {
	path := testDBPath(t)

	require.NoError(t, newStreams("").run("seed", "-demo", "-db", path))
	require.NoError(t, newStreams("").run("seed", "-demo", "-db", path))

	assert.Equal(t, len(database.DemoUsers), queryInt(t, path, "SELECT COUNT(*) FROM users"))
	assert.Equal(t, 1, queryInt(t, path, "SELECT COUNT(*) FROM users WHERE role = ?", "read-only"))
}

func TestRun_AddUser(t *testing.T) {
	path := testDBPath(t)
	s := newStreams("")

	err := s.run("adduser", "-email", "Boss@Example.com", "-username", "boss", "-role", "admin", "-password", "password123", "-db", path)
	require.NoError(t, err)
	assert.Contains(t, s.stdout.String(), "User boss@example.com created successfully")
	assert.Contains(t, s.stdout.String(), "role admin")
	assert.Equal(t, 1, queryInt(t, path, "SELECT COUNT(*) FROM users WHERE email = ? AND role = ?", "boss@example.com", "admin"))
	assert.Equal(t, 1, queryInt(t, path, "SELECT COUNT(*) FROM events WHERE type = ?", "user.registered"))
}

func TestRun_AddUserDuplicate(t *testing.T) {
	path := testDBPath(t)
	args := []string{"adduser", "-email", "a@x.com", "-username", "alice", "-password", "password123", "-db", path}

	require.NoError(t, newStreams("").run(args...))

	err := newStreams("").run(args...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRun_AddUserInteractivePassword(t *testing.T) {
	path := testDBPath(t)
	s := newStreams("interactive_secret\n")

	require.NoError(t, s.run("adduser", "-email", "i@x.com", "-username", "inter", "-db", path))
	assert.Contains(t, s.stdout.String(), "Password: ")
	assert.Contains(t, s.stdout.String(), "created successfully")
}

func TestRun_AddUserRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		args  []string
		want  string
	}{
		{
			name: "missing email",
			args: []string{"-username", "x", "-password", "password123"},
			want: "missing required flags",
		},
		{
			name: "unknown role",
			args: []string{"-email", "a@x.com", "-username", "alice", "-role", "root", "-password", "password123"},
			want: `invalid role "root"`,
		},
		{
			name:  "empty password",
			input: "\n",
			args:  []string{"-email", "a@x.com", "-username", "alice"},
			want:  "password cannot be empty",
		},
		{
			name: "short password",
			args: []string{"-email", "a@x.com", "-username", "alice", "-password", "short"},
			want: "password must be at least 8 characters",
		},
		{
			name: "undefined flag",
			args: []string{"-nope"},
			want: "flag provided but not defined",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testDBPath(t)
			args := append([]string{"adduser", "-db", path}, tt.args...)
			err := newStreams(tt.input).run(args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRun_InvalidDBPath(t *testing.T) {
	t.Setenv("BCRYPT_COST", "4")
	err := newStreams("").run("migrate", "-db", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}
