package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, serviceType *ServiceType) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*ServiceType, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*ServiceType, error)
	Update(ctx context.Context, db *gorm.DB, serviceType *ServiceType) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (bool, error)
}
