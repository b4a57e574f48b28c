package repository

import (
	"context"

	"github.com/smallbiznis/atelier/internal/organization/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) FindByUserID(ctx context.Context, userID string) (*domain.Organization, error) {
	var org domain.Organization
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, user_id, name, slug, email, cnpj, plan, created_at, updated_at
		 FROM organizations WHERE user_id = ?`,
		userID,
	).Scan(&org).Error
	if err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, nil
	}
	return &org, nil
}

func (r *repository) Insert(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO organizations (id, user_id, name, slug, email, cnpj, plan, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		org.ID,
		org.UserID,
		org.Name,
		org.Slug,
		org.Email,
		org.CNPJ,
		org.Plan,
		org.CreatedAt,
		org.UpdatedAt,
	).Error
}

func (r *repository) Update(ctx context.Context, org domain.Organization) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE organizations SET name = ?, slug = ?, email = ?, cnpj = ?, plan = ?, updated_at = ?
		 WHERE id = ?`,
		org.Name,
		org.Slug,
		org.Email,
		org.CNPJ,
		org.Plan,
		org.UpdatedAt,
		org.ID,
	).Error
}

func (r *repository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`SELECT COUNT(1) FROM organizations WHERE slug = ?`, slug).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
