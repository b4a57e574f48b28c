package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/servicetype/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, serviceType *domain.ServiceType) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO service_types (id, org_id, name, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		serviceType.ID,
		serviceType.OrgID,
		serviceType.Name,
		serviceType.CreatedAt,
		serviceType.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.ServiceType, error) {
	var serviceType domain.ServiceType
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, name, created_at, updated_at
		 FROM service_types WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&serviceType).Error
	if err != nil {
		return nil, err
	}
	if serviceType.ID == 0 {
		return nil, nil
	}
	return &serviceType, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*domain.ServiceType, error) {
	var items []*domain.ServiceType
	err := db.WithContext(ctx).
		Model(&domain.ServiceType{}).
		Where("org_id = ?", orgID).
		Order("name asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, serviceType *domain.ServiceType) error {
	return db.WithContext(ctx).Exec(
		`UPDATE service_types SET name = ?, updated_at = ? WHERE org_id = ? AND id = ?`,
		serviceType.Name,
		serviceType.UpdatedAt,
		serviceType.OrgID,
		serviceType.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM service_types WHERE org_id = ? AND id = ?`, orgID, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
