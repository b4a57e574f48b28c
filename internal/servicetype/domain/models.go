package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// ServiceType is a kind of production work, e.g. embroidery or sewing.
type ServiceType struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	OrgID     snowflake.ID `gorm:"not null;index" json:"organization_id"`
	Name      string       `gorm:"not null" json:"name"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (ServiceType) TableName() string { return "service_types" }
