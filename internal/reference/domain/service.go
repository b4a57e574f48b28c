package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/atelier/pkg/db/pagination"
)

type ListReferenceRequest struct {
	PageToken  string
	PageSize   int32
	Status     string
	CustomerID string
}

type ListReferenceFilter struct {
	Status     string
	CustomerID *int64
}

type ListReferenceResponse struct {
	pagination.PageInfo
	References []ReferenceView `json:"references"`
}

// CreateReferenceRequest carries related ids as strings; an empty id leaves
// the relation unset. EstimatedDate is YYYY-MM-DD.
type CreateReferenceRequest struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Color         string          `json:"color"`
	Size          string          `json:"size"`
	Amount        decimal.Decimal `json:"amount"`
	UnitValue     decimal.Decimal `json:"unit_value"`
	EstimatedDate string          `json:"estimated_date"`
	Status        string          `json:"status"`
	ServiceTypeID string          `json:"service_type_id"`
	LotID         string          `json:"lot_id"`
	CustomerID    string          `json:"customer_id"`
}

// UpdateReferenceRequest applies only the fields that are set.
type UpdateReferenceRequest struct {
	ID            string           `json:"-"`
	Code          *string          `json:"code"`
	Name          *string          `json:"name"`
	Color         *string          `json:"color"`
	Size          *string          `json:"size"`
	Amount        *decimal.Decimal `json:"amount"`
	UnitValue     *decimal.Decimal `json:"unit_value"`
	EstimatedDate *string          `json:"estimated_date"`
	Status        *string          `json:"status"`
	ServiceTypeID *string          `json:"service_type_id"`
	LotID         *string          `json:"lot_id"`
	CustomerID    *string          `json:"customer_id"`
}

type GetReferenceRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateReferenceRequest) (ReferenceView, error)
	List(context.Context, ListReferenceRequest) (ListReferenceResponse, error)
	GetByID(context.Context, GetReferenceRequest) (ReferenceView, error)
	Update(context.Context, UpdateReferenceRequest) (ReferenceView, error)
	Delete(context.Context, GetReferenceRequest) error
}

var (
	ErrInvalidOrganization  = errors.New("invalid_organization")
	ErrInvalidCode          = errors.New("invalid_code")
	ErrInvalidName          = errors.New("invalid_name")
	ErrInvalidAmount        = errors.New("invalid_amount")
	ErrInvalidUnitValue     = errors.New("invalid_unit_value")
	ErrInvalidEstimatedDate = errors.New("invalid_estimated_date")
	ErrInvalidCustomer      = errors.New("invalid_customer")
	ErrInvalidServiceType   = errors.New("invalid_service_type")
	ErrInvalidLot           = errors.New("invalid_lot")
	ErrInvalidID            = errors.New("invalid_id")
	ErrNotFound             = errors.New("not_found")
)
