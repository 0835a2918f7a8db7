// Package migration creates the core revenue tables on startup so the
// service is usable out of the box for local and self-hosted environments.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"

	automationdomain "github.com/jarvis360/revenuecore/internal/automation/domain"
	customerdomain "github.com/jarvis360/revenuecore/internal/customer/domain"
	organizationdomain "github.com/jarvis360/revenuecore/internal/organization/domain"
	subscriptiondomain "github.com/jarvis360/revenuecore/internal/subscription/domain"
	uploaddomain "github.com/jarvis360/revenuecore/internal/upload/domain"
)

const migrationsDir = "migrations"

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// RunMigrations applies the embedded postgres migrations.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate builds the schema from the models directly. Used for sqlite and
// mysql, where the embedded SQL is postgres-specific.
func AutoMigrate(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}
	return conn.AutoMigrate(
		&organizationdomain.Organization{},
		&customerdomain.Customer{},
		&subscriptiondomain.Subscription{},
		&uploaddomain.CSVUpload{},
		&automationdomain.Automation{},
		&automationdomain.Execution{},
	)
}
