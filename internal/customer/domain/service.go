package domain

import (
	"context"
	"errors"
)

type ListCustomerRequest struct {
	Name string
}

type ListCustomerFilter struct {
	Name string
}

type ListCustomerResponse struct {
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name            string `json:"name"`
	ClosingStartDay string `json:"closing_start_day"`
	ClosingEndDay   string `json:"closing_end_day"`
}

// UpdateCustomerRequest applies only the fields that are set. An empty
// closing day clears it.
type UpdateCustomerRequest struct {
	ID              string  `json:"-"`
	Name            *string `json:"name"`
	ClosingStartDay *string `json:"closing_start_day"`
	ClosingEndDay   *string `json:"closing_end_day"`
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
	Update(context.Context, UpdateCustomerRequest) (Customer, error)
	Delete(context.Context, GetCustomerRequest) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidClosingDay   = errors.New("invalid_closing_day")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
