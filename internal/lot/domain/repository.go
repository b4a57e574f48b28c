package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, lot *Lot) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*Lot, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]*Lot, error)
	Update(ctx context.Context, db *gorm.DB, lot *Lot) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (bool, error)
}
