package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	"github.com/smallbiznis/atelier/internal/reference/domain"
	"github.com/smallbiznis/atelier/pkg/db/option"
	"github.com/smallbiznis/atelier/pkg/db/pagination"
	"gorm.io/gorm"
)

const viewColumns = `r.id, r.org_id, r.code, r.name, r.color, r.size, r.amount, r.unit_value,
	r.estimated_date, r.status, r.service_type_id, r.lot_id, r.customer_id, r.created_at, r.updated_at,
	COALESCE(c.name, '') AS customer_name,
	COALESCE(st.name, '') AS service_type_name,
	COALESCE(l.number, '') AS lot_number`

const viewJoins = `LEFT JOIN customers c ON c.id = r.customer_id AND c.org_id = r.org_id
	LEFT JOIN service_types st ON st.id = r.service_type_id AND st.org_id = r.org_id
	LEFT JOIN lots l ON l.id = r.lot_id AND l.org_id = r.org_id`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, ref *domain.Reference) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO production_references (id, org_id, code, name, color, size, amount, unit_value,
		 estimated_date, status, service_type_id, lot_id, customer_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ref.ID,
		ref.OrgID,
		ref.Code,
		ref.Name,
		ref.Color,
		ref.Size,
		ref.Amount,
		ref.UnitValue,
		ref.EstimatedDate,
		ref.Status,
		ref.ServiceTypeID,
		ref.LotID,
		ref.CustomerID,
		ref.CreatedAt,
		ref.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (*domain.ReferenceView, error) {
	var view domain.ReferenceView
	err := db.WithContext(ctx).Raw(
		`SELECT `+viewColumns+`
		 FROM production_references r
		 `+viewJoins+`
		 WHERE r.org_id = ? AND r.id = ?`,
		orgID,
		id,
	).Scan(&view).Error
	if err != nil {
		return nil, err
	}
	if view.ID == 0 {
		return nil, nil
	}
	return &view, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, orgID snowflake.ID, filter domain.ListReferenceFilter, page pagination.Pagination) ([]*domain.ReferenceView, error) {
	var views []*domain.ReferenceView
	stmt := db.WithContext(ctx).
		Table("production_references AS r").
		Select(viewColumns).
		Joins(viewJoins).
		Where("r.org_id = ?", orgID)
	if filter.Status != "" {
		stmt = stmt.Where("r.status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		stmt = stmt.Where("r.customer_id = ?", *filter.CustomerID)
	}
	stmt = option.ApplyPaginationOn("r", page).Apply(stmt)
	if err := stmt.Scan(&views).Error; err != nil {
		return nil, err
	}
	return views, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, ref *domain.Reference) error {
	return db.WithContext(ctx).Exec(
		`UPDATE production_references
		 SET code = ?, name = ?, color = ?, size = ?, amount = ?, unit_value = ?, estimated_date = ?,
		     status = ?, service_type_id = ?, lot_id = ?, customer_id = ?, updated_at = ?
		 WHERE org_id = ? AND id = ?`,
		ref.Code,
		ref.Name,
		ref.Color,
		ref.Size,
		ref.Amount,
		ref.UnitValue,
		ref.EstimatedDate,
		ref.Status,
		ref.ServiceTypeID,
		ref.LotID,
		ref.CustomerID,
		ref.UpdatedAt,
		ref.OrgID,
		ref.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, orgID, id snowflake.ID) (bool, error) {
	res := db.WithContext(ctx).Exec(`DELETE FROM production_references WHERE org_id = ? AND id = ?`, orgID, id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) RelationExists(ctx context.Context, db *gorm.DB, relation domain.Relation, orgID, id snowflake.ID) (bool, error) {
	switch relation {
	case domain.RelationCustomer, domain.RelationServiceType, domain.RelationLot:
	default:
		return false, fmt.Errorf("unknown relation %q", relation)
	}

	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM `+string(relation)+` WHERE org_id = ? AND id = ?`,
		orgID,
		id,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

type dashboardRow struct {
	Status          string          `gorm:"column:status"`
	Amount          decimal.Decimal `gorm:"column:amount"`
	UnitValue       decimal.Decimal `gorm:"column:unit_value"`
	EstimatedDate   sql.NullTime    `gorm:"column:estimated_date"`
	CreatedAt       time.Time       `gorm:"column:created_at"`
	CustomerID      sql.NullInt64   `gorm:"column:customer_id"`
	CustomerName    sql.NullString  `gorm:"column:customer_name"`
	ClosingStartDay sql.NullString  `gorm:"column:closing_start_day"`
	ClosingEndDay   sql.NullString  `gorm:"column:closing_end_day"`
	ServiceTypeName sql.NullString  `gorm:"column:service_type_name"`
}

// ListForDashboard loads every reference of the organization, newest first,
// with the customer's closing days and the service type name attached.
func (r *repo) ListForDashboard(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]closingperiod.Reference, error) {
	var rows []dashboardRow
	err := db.WithContext(ctx).Raw(
		`SELECT r.status, r.amount, r.unit_value, r.estimated_date, r.created_at,
		        c.id AS customer_id,
		        c.name AS customer_name,
		        c.closing_start_day,
		        c.closing_end_day,
		        st.name AS service_type_name
		 FROM production_references r
		 LEFT JOIN customers c ON c.id = r.customer_id AND c.org_id = r.org_id
		 LEFT JOIN service_types st ON st.id = r.service_type_id AND st.org_id = r.org_id
		 WHERE r.org_id = ?
		 ORDER BY r.created_at DESC, r.id DESC`,
		orgID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	refs := make([]closingperiod.Reference, 0, len(rows))
	for _, row := range rows {
		ref := closingperiod.Reference{
			Status:    row.Status,
			Amount:    row.Amount,
			UnitValue: row.UnitValue,
			CreatedAt: row.CreatedAt,
		}
		if row.EstimatedDate.Valid {
			ref.EstimatedCompletionDate = row.EstimatedDate.Time
		}
		if row.CustomerID.Valid {
			ref.Customer = &closingperiod.Customer{
				Name:            row.CustomerName.String,
				ClosingStartDay: row.ClosingStartDay.String,
				ClosingEndDay:   row.ClosingEndDay.String,
			}
		}
		if row.ServiceTypeName.Valid {
			ref.ServiceType = &closingperiod.ServiceType{Name: row.ServiceTypeName.String}
		}
		refs = append(refs, ref)
	}

	return refs, nil
}
