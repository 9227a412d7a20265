// Package main seeds the default dashboard accounts. Safe to run repeatedly;
// existing accounts are updated in place.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Nooor786/SJCET-Smart-Attendance-System/config"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/domain/user"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/internal/infrastructure/persistence/postgres"
	"github.com/Nooor786/SJCET-Smart-Attendance-System/pkg/logger"
)

// seedAccount is one default account with its initial password.
type seedAccount struct {
	Username string
	Password string
	Role     user.Role
}

func defaultAccounts() []seedAccount {
	return []seedAccount{
		{Username: "fac1", Password: "pass123", Role: user.RoleFaculty},
		{Username: "fac2", Password: "pass123", Role: user.RoleFaculty},
		{Username: "fac3", Password: "pass123", Role: user.RoleFaculty},
		{Username: "hod", Password: "hodpass", Role: user.RoleHOD},
		{Username: "admin", Password: "adminpass", Role: user.RoleAdmin},
		{Username: "coord", Password: "coordpass", Role: user.RoleCoordinator},
	}
}

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	dryRun := flag.Bool("dry-run", false, "print accounts without writing")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.Default()

	accounts := defaultAccounts()
	if *dryRun {
		for _, a := range accounts {
			log.Info("would seed account",
				logger.Username(a.Username),
				logger.String("role", string(a.Role)),
			)
		}
		return nil
	}

	conn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	migrator := postgres.NewMigrator(conn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	users := postgres.NewUserRepository(conn)
	for _, a := range accounts {
		hash, err := user.HashPassword(a.Password)
		if err != nil {
			return fmt.Errorf("hash password for %s: %w", a.Username, err)
		}
		u := user.User{Username: a.Username, PasswordHash: hash, Role: a.Role}
		if err := users.Upsert(ctx, u); err != nil {
			return fmt.Errorf("upsert %s: %w", a.Username, err)
		}
		log.Info("account seeded",
			logger.Username(a.Username),
			logger.String("role", string(a.Role)),
		)
	}

	log.Info("seeding complete", logger.Int("accounts", len(accounts)))
	return nil
}
