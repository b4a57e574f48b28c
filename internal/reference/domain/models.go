package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Reference is a production order: a quantity of pieces of one model, priced
// per unit, optionally tied to a customer, service type and lot.
type Reference struct {
	ID            snowflake.ID    `gorm:"primaryKey" json:"id"`
	OrgID         snowflake.ID    `gorm:"not null;index" json:"organization_id"`
	Code          string          `gorm:"not null" json:"code"`
	Name          string          `gorm:"not null" json:"name"`
	Color         string          `json:"color"`
	Size          string          `json:"size"`
	Amount        decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"amount"`
	UnitValue     decimal.Decimal `gorm:"column:unit_value;type:numeric(14,2);not null;default:0" json:"unit_value"`
	EstimatedDate *datatypes.Date `gorm:"column:estimated_date" json:"estimated_date,omitempty"`
	Status        string          `gorm:"not null;index" json:"status"`
	ServiceTypeID *snowflake.ID   `gorm:"column:service_type_id" json:"service_type_id,omitempty"`
	LotID         *snowflake.ID   `gorm:"column:lot_id" json:"lot_id,omitempty"`
	CustomerID    *snowflake.ID   `gorm:"column:customer_id" json:"customer_id,omitempty"`
	CreatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Reference) TableName() string { return "production_references" }

// ReferenceView is a reference with the names of its related records.
type ReferenceView struct {
	Reference
	CustomerName    string `gorm:"column:customer_name" json:"customer_name,omitempty"`
	ServiceTypeName string `gorm:"column:service_type_name" json:"service_type_name,omitempty"`
	LotNumber       string `gorm:"column:lot_number" json:"lot_number,omitempty"`
}
