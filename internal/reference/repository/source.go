package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	dashboarddomain "github.com/smallbiznis/atelier/internal/productiondashboard/domain"
	"github.com/smallbiznis/atelier/internal/reference/domain"
	"gorm.io/gorm"
)

type dashboardSource struct {
	db   *gorm.DB
	repo domain.Repository
}

// NewDashboardSource exposes the reference repository as the dashboard's
// record source.
func NewDashboardSource(db *gorm.DB, repo domain.Repository) dashboarddomain.ReferenceSource {
	return &dashboardSource{db: db, repo: repo}
}

func (s *dashboardSource) ListForDashboard(ctx context.Context, orgID snowflake.ID) ([]closingperiod.Reference, error) {
	return s.repo.ListForDashboard(ctx, s.db, orgID)
}
