package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	"github.com/smallbiznis/atelier/pkg/db/pagination"
	"gorm.io/gorm"
)

// Relation names a table a reference may point to.
type Relation string

const (
	RelationCustomer    Relation = "customers"
	RelationServiceType Relation = "service_types"
	RelationLot         Relation = "lots"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, ref *Reference) error
	FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*ReferenceView, error)
	List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter ListReferenceFilter, page pagination.Pagination) ([]*ReferenceView, error)
	Update(ctx context.Context, db *gorm.DB, ref *Reference) error
	Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (bool, error)
	RelationExists(ctx context.Context, db *gorm.DB, relation Relation, orgID, id snowflake.ID) (bool, error)
	ListForDashboard(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]closingperiod.Reference, error)
}
