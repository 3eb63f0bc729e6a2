// Command financectl administers a finance tracker database without going through the HTTP API.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/isdelr/finance-tracker-be/internal/auth"
	"github.com/isdelr/finance-tracker-be/internal/config"
	"github.com/isdelr/finance-tracker-be/internal/database"
	"github.com/isdelr/finance-tracker-be/internal/models"
	"github.com/isdelr/finance-tracker-be/internal/services"
	"github.com/joho/godotenv"
	"golang.org/x/term"
)

const usage = `Usage: financectl <command> [flags]

Commands:
  migrate   apply pending database migrations
  seed      insert the default categories (-demo also creates the demo users)
  adduser   create a user account
`

func main() {
	_ = godotenv.Load()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	switch args[0] {
	case "migrate":
		return runMigrate(cfg, args[1:], stdout, stderr)
	case "seed":
		return runSeed(cfg, args[1:], stdout, stderr)
	case "adduser":
		return runAddUser(cfg, args[1:], stdin, stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stdout, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runMigrate(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", cfg.DatabasePath, "Path to database file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintf(stdout, "Database %s is up to date\n", *dbPath)
	return nil
}

func runSeed(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("seed", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", cfg.DatabasePath, "Path to database file")
	demo := fs.Bool("demo", false, "Also create the demo admin, user and read-only accounts")
	if err := fs.Parse(args); err != nil {
		return err
	}

	db, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	if err := database.SeedCategories(ctx, db); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Seeded %d categories\n", len(database.DefaultCategories))

	if !*demo {
		return nil
	}
	hash, err := auth.HashPassword(database.DemoPassword, cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	n, err := database.SeedDemoUsers(ctx, db, hash)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Created %d demo users (password %q)\n", n, database.DemoPassword)
	return nil
}

func runAddUser(cfg *config.Config, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(stderr)
	dbPath := fs.String("db", cfg.DatabasePath, "Path to database file")
	email := fs.String("email", "", "Email address")
	username := fs.String("username", "", "Display name")
	role := fs.String("role", string(models.RoleUser), "One of admin, user, read-only")
	passwordFlag := fs.String("password", "", "Password (optional, will prompt if omitted)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *email == "" || *username == "" {
		fmt.Fprintln(stdout, "Usage: financectl adduser -email <email> -username <name> [-role <role>] [-password <password>] [-db <db_path>]")
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email, username")
	}
	// Unknown roles are rejected rather than defaulted to user.
	if _, ok := models.ParseRole(*role); !ok {
		return fmt.Errorf("invalid role %q", *role)
	}

	password := *passwordFlag
	if password == "" {
		fmt.Fprint(stdout, "Password: ")
		var err error
		password, err = readPassword(stdin)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(stdout)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password cannot be empty")
	}

	db, err := openDB(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	users := services.NewUserService(db, cfg.BcryptCost, services.NewEventService(db))
	user, err := users.CreateUser(context.Background(), services.RegisterInput{
		Email:    *email,
		Username: *username,
		Password: password,
		Role:     *role,
	})
	if errors.Is(err, services.ErrAlreadyRegistered) {
		return fmt.Errorf("user %s already exists", *email)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Fprintf(stdout, "User %s created successfully with ID %s and role %s\n", user.Email, user.ID, user.Role)
	return nil
}

// openDB migrates the database at path and opens it.
func openDB(path string) (*sql.DB, error) {
	if err := database.Migrate(path); err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db, err := database.New(path, database.Options{MaxOpenConns: 1})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func readPassword(stdin io.Reader) (string, error) {
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	// Pipes and tests
	scanner := bufio.NewScanner(stdin)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}
