package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// DefaultName names organizations provisioned without one.
const DefaultName = "My workshop"

type Service interface {
	GetByUser(ctx context.Context, userID string) (*Organization, error)
	Update(ctx context.Context, userID string, req UpdateOrganizationRequest) (*Organization, error)
	EnsureForUser(ctx context.Context, req EnsureOrganizationRequest) (*Organization, error)
	ResolveOrgID(ctx context.Context, userID string) (snowflake.ID, error)
}

// EnsureOrganizationRequest describes the owner of an organization provisioned
// on first access.
type EnsureOrganizationRequest struct {
	UserID string
	Email  string
}

type UpdateOrganizationRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	CNPJ  *string `json:"cnpj"`
	Plan  *string `json:"plan"`
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidCNPJ  = errors.New("invalid_cnpj")
	ErrInvalidPlan  = errors.New("invalid_plan")
	ErrInvalidUser  = errors.New("invalid_user")
	ErrNotFound     = errors.New("not_found")
)
