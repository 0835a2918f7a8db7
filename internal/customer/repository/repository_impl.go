package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/jarvis360/revenuecore/internal/customer/domain"
	"github.com/jarvis360/revenuecore/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindByExternalID(ctx context.Context, conn *gorm.DB, orgID snowflake.ID, externalID string) (*domain.Customer, error) {
	var customer domain.Customer
	err := conn.WithContext(ctx).Raw(
		`SELECT id, org_id, external_id, name, created_at
		 FROM customers WHERE org_id = ? AND external_id = ?`,
		orgID,
		externalID,
	).Scan(&customer).Error
	if err != nil {
		return nil, err
	}
	if customer.ID == 0 {
		return nil, nil
	}
	return &customer, nil
}

func (r *repo) GetOrCreate(ctx context.Context, conn *gorm.DB, customer *domain.Customer) (*domain.Customer, bool, error) {
	if customer == nil || customer.OrgID == 0 {
		return nil, false, domain.ErrInvalidOrganization
	}

	existing, err := r.FindByExternalID(ctx, conn, customer.OrgID, customer.ExternalID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	err = conn.WithContext(ctx).Exec(
		`INSERT INTO customers (id, org_id, external_id, name, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		customer.ID,
		customer.OrgID,
		customer.ExternalID,
		customer.Name,
		customer.CreatedAt,
	).Error
	if err != nil {
		// lost a racing insert for the same key; the winner's row is the one
		if db.IsDuplicateKeyErr(err) {
			winner, findErr := r.FindByExternalID(ctx, conn, customer.OrgID, customer.ExternalID)
			if findErr != nil {
				return nil, false, findErr
			}
			if winner != nil {
				return winner, false, nil
			}
		}
		return nil, false, err
	}

	return customer, true, nil
}
