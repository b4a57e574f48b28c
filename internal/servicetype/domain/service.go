package domain

import (
	"context"
	"errors"
)

type CreateServiceTypeRequest struct {
	Name string `json:"name"`
}

type UpdateServiceTypeRequest struct {
	ID   string `json:"-"`
	Name string `json:"name"`
}

type ListServiceTypeResponse struct {
	ServiceTypes []ServiceType `json:"service_types"`
}

type Service interface {
	Create(context.Context, CreateServiceTypeRequest) (ServiceType, error)
	List(context.Context) (ListServiceTypeResponse, error)
	Update(context.Context, UpdateServiceTypeRequest) (ServiceType, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
