package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/lot/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, lot *domain.Lot) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO lots (id, org_id, number, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		lot.ID,
		lot.OrgID,
		lot.Number,
		lot.CreatedAt,
		lot.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.Lot, error) {
	var lot domain.Lot
	err := db.WithContext(ctx).Raw(
		`SELECT id, org_id, number, created_at, updated_at FROM lots WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&lot).Error
	if err != nil {
		return nil, err
	}
	if lot.ID == 0 {
		return nil, nil
	}
	return &lot, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*domain.Lot, error) {
	var lots []*domain.Lot
	err := db.WithContext(ctx).
		Model(&domain.Lot{}).
		Where("org_id = ?", orgID).
		Order("created_at desc, id desc").
		Find(&lots).Error
	if err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, lot *domain.Lot) error {
	return db.WithContext(ctx).Exec(
		`UPDATE lots SET number = ?, updated_at = ? WHERE org_id = ? AND id = ?`,
		lot.Number,
		lot.UpdatedAt,
		lot.OrgID,
		lot.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM lots WHERE org_id = ? AND id = ?`, orgID, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
