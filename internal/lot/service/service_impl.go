package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/clock"
	"github.com/smallbiznis/atelier/internal/lot/domain"
	"github.com/smallbiznis/atelier/internal/orgcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
	Clock clock.Clock `optional:"true"`
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
	clock clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("lot.service"),
		genID: p.GenID,
		repo:  p.Repo,
		clock: clk,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLotRequest) (domain.Lot, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Lot{}, domain.ErrInvalidOrganization
	}

	number := strings.TrimSpace(req.Number)
	if number == "" {
		return domain.Lot{}, domain.ErrInvalidNumber
	}

	now := s.clock.Now().UTC()
	lot := domain.Lot{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Number:    number,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Insert(ctx, s.db, &lot); err != nil {
		return domain.Lot{}, err
	}
	return lot, nil
}

func (s *Service) List(ctx context.Context) (domain.ListLotResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListLotResponse{}, domain.ErrInvalidOrganization
	}

	items, err := s.repo.List(ctx, s.db, orgID)
	if err != nil {
		return domain.ListLotResponse{}, err
	}

	lots := make([]domain.Lot, 0, len(items))
	for _, item := range items {
		lots = append(lots, *item)
	}
	return domain.ListLotResponse{Lots: lots}, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateLotRequest) (domain.Lot, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.Lot{}, domain.ErrInvalidOrganization
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.Lot{}, err
	}

	number := strings.TrimSpace(req.Number)
	if number == "" {
		return domain.Lot{}, domain.ErrInvalidNumber
	}

	lot, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Lot{}, err
	}
	if lot == nil {
		return domain.Lot{}, domain.ErrNotFound
	}

	lot.Number = number
	lot.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, lot); err != nil {
		return domain.Lot{}, err
	}
	return *lot, nil
}

func (s *Service) Delete(ctx context.Context, rawID string) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOrganization
	}

	id, err := parseID(rawID)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, s.db, orgID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
