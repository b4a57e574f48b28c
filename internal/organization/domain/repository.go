package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByUserID(ctx context.Context, userID string) (*Organization, error)
	Insert(ctx context.Context, org Organization) error
	Update(ctx context.Context, org Organization) error
	SlugTaken(ctx context.Context, slug string) (bool, error)
}
