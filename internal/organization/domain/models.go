// Package domain contains persistence models for the org service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Organization is the tenant. Each authenticated user owns exactly one.
type Organization struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    string       `gorm:"type:text;not null;uniqueIndex:ux_organizations_user" json:"user_id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex:ux_organizations_slug" json:"slug"`
	Email     string       `gorm:"type:text" json:"email"`
	CNPJ      string       `gorm:"type:text;column:cnpj" json:"cnpj"`
	Plan      string       `gorm:"type:text;not null;default:'free'" json:"plan"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Organization) TableName() string { return "organizations" }
