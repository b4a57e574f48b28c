package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/closingperiod"
)

// ReferenceSource loads every reference of an organization with its customer
// and service type attached.
type ReferenceSource interface {
	ListForDashboard(ctx context.Context, orgID snowflake.ID) ([]closingperiod.Reference, error)
}

// CacheInvalidator is implemented by the dashboard service and called by the
// record store whenever data feeding the metrics changes.
type CacheInvalidator interface {
	InvalidateCache(ctx context.Context, orgID snowflake.ID) error
}

type Service interface {
	CacheInvalidator
	GetMetrics(ctx context.Context) (*closingperiod.Metrics, error)
}

var ErrInvalidOrganization = errors.New("invalid_organization")

// UpstreamFetchError reports that the reference collection could not be
// loaded. Its message is the store's error, unchanged. No partial metrics
// accompany it.
type UpstreamFetchError struct {
	Err error
}

func (e *UpstreamFetchError) Error() string {
	if e.Err == nil {
		return "reference fetch failed"
	}
	return e.Err.Error()
}

func (e *UpstreamFetchError) Unwrap() error {
	return e.Err
}
