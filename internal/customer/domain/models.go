package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Customer owns the closing days that delimit its billing cycle. The days are
// stored as text; rows written before validation existed may hold anything.
type Customer struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID           snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Name            string       `gorm:"not null" json:"name"`
	ClosingStartDay *string      `gorm:"column:closing_start_day" json:"closing_start_day"`
	ClosingEndDay   *string      `gorm:"column:closing_end_day" json:"closing_end_day"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (Customer) TableName() string { return "customers" }
