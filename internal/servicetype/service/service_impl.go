package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/clock"
	"github.com/smallbiznis/atelier/internal/orgcontext"
	dashboarddomain "github.com/smallbiznis/atelier/internal/productiondashboard/domain"
	"github.com/smallbiznis/atelier/internal/servicetype/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	Clock       clock.Clock                      `optional:"true"`
	Invalidator dashboarddomain.CacheInvalidator `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	clock       clock.Clock
	invalidator dashboarddomain.CacheInvalidator
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("servicetype.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		clock:       clk,
		invalidator: p.Invalidator,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateServiceTypeRequest) (domain.ServiceType, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ServiceType{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ServiceType{}, domain.ErrInvalidName
	}

	now := s.clock.Now().UTC()
	item := domain.ServiceType{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &item); err != nil {
		return domain.ServiceType{}, err
	}
	return item, nil
}

func (s *Service) List(ctx context.Context) (domain.ListServiceTypeResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListServiceTypeResponse{}, domain.ErrInvalidOrganization
	}

	items, err := s.repo.List(ctx, s.db, orgID)
	if err != nil {
		return domain.ListServiceTypeResponse{}, err
	}

	out := make([]domain.ServiceType, 0, len(items))
	for _, item := range items {
		out = append(out, *item)
	}
	return domain.ListServiceTypeResponse{ServiceTypes: out}, nil
}

// Update renames a service type. Dashboard series are keyed by name, so the
// cached metrics are dropped.
func (s *Service) Update(ctx context.Context, req domain.UpdateServiceTypeRequest) (domain.ServiceType, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ServiceType{}, domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.ServiceType{}, domain.ErrInvalidID
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.ServiceType{}, domain.ErrInvalidName
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.ServiceType{}, err
	}
	if item == nil {
		return domain.ServiceType{}, domain.ErrNotFound
	}

	item.Name = name
	item.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.ServiceType{}, err
	}

	s.invalidate(ctx, orgID)
	return *item, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOrganization
	}

	id, err := snowflake.ParseString(strings.TrimSpace(rawID))
	if err != nil || id == 0 {
		return domain.ErrInvalidID
	}

	deleted, err := s.repo.Delete(ctx, s.db, orgID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}

	s.invalidate(ctx, orgID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, orgID snowflake.ID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateCache(ctx, orgID); err != nil {
		s.log.Warn("failed to invalidate dashboard cache", zap.String("org_id", orgID.String()), zap.Error(err))
	}
}
