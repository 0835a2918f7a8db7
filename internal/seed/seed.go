package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	organizationdomain "github.com/jarvis360/revenuecore/internal/organization/domain"
	"gorm.io/gorm"
)

const defaultOrgName = "Main"

// EnsureMainOrg seeds the default organization for startup bootstrap.
func EnsureMainOrg(db *gorm.DB) error {
	return EnsureOrg(db, defaultOrgName, 0)
}

// EnsureMainOrgWithID seeds the default organization with a fixed ID so
// deployments can pin DEFAULT_ORG across environments.
func EnsureMainOrgWithID(db *gorm.DB, id int64) error {
	return EnsureOrg(db, defaultOrgName, snowflake.ID(id))
}

// EnsureOrg creates an organization by name when its slug is absent.
func EnsureOrg(db *gorm.DB, name string, id snowflake.ID) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return organizationdomain.ErrInvalidOrganization
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orgSlug := slug.Make(name)

		var existing organizationdomain.Organization
		err := tx.WithContext(ctx).Raw(
			`SELECT id, name, slug, created_at FROM organizations WHERE slug = ?`,
			orgSlug,
		).Scan(&existing).Error
		if err != nil {
			return err
		}
		if existing.ID != 0 {
			return nil
		}

		if id == 0 {
			id = node.Generate()
		}
		return tx.WithContext(ctx).Exec(
			`INSERT INTO organizations (id, name, slug, created_at) VALUES (?, ?, ?, ?)`,
			id,
			name,
			orgSlug,
			time.Now().UTC(),
		).Error
	})
}
