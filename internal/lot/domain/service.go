package domain

import (
	"context"
	"errors"
)

type CreateLotRequest struct {
	Number string `json:"number"`
}

type UpdateLotRequest struct {
	ID     string `json:"-"`
	Number string `json:"number"`
}

type ListLotResponse struct {
	Lots []Lot `json:"lots"`
}

type Service interface {
	Create(context.Context, CreateLotRequest) (Lot, error)
	List(context.Context) (ListLotResponse, error)
	Update(context.Context, UpdateLotRequest) (Lot, error)
	Delete(ctx context.Context, id string) error
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidNumber       = errors.New("invalid_number")
	ErrInvalidID           = errors.New("invalid_id")
	ErrNotFound            = errors.New("not_found")
)
