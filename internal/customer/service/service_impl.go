package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/clock"
	"github.com/smallbiznis/atelier/internal/customer/domain"
	"github.com/smallbiznis/atelier/internal/orgcontext"
	dashboarddomain "github.com/smallbiznis/atelier/internal/productiondashboard/domain"
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
		log:         p.Log.Named("customer.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		clock:       clk,
		invalidator: p.Invalidator,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateCustomerRequest) (domain.Customer, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Customer{}, domain.ErrInvalidOrganization
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	startDay, err := normalizeClosingDay(req.ClosingStartDay)
	if err != nil {
		return domain.Customer{}, err
	}
	endDay, err := normalizeClosingDay(req.ClosingEndDay)
	if err != nil {
		return domain.Customer{}, err
	}

	now := s.clock.Now().UTC()
	customer := domain.Customer{
		ID:              s.genID.Generate(),
		OrgID:           orgID,
		Name:            name,
		ClosingStartDay: startDay,
		ClosingEndDay:   endDay,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		return domain.Customer{}, err
	}

	return customer, nil
}

func (s *Service) List(ctx context.Context, req domain.ListCustomerRequest) (domain.ListCustomerResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ListCustomerResponse{}, domain.ErrInvalidOrganization
	}

	items, err := s.repo.List(ctx, s.db, orgID, domain.ListCustomerFilter{
		Name: strings.ToLower(strings.TrimSpace(req.Name)),
	})
	if err != nil {
		return domain.ListCustomerResponse{}, err
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	return domain.ListCustomerResponse{Customers: customers}, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Customer{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateCustomerRequest) (domain.Customer, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.Customer{}, domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Customer{}, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.ClosingStartDay != nil {
		if item.ClosingStartDay, err = normalizeClosingDay(*req.ClosingStartDay); err != nil {
			return domain.Customer{}, err
		}
	}
	if req.ClosingEndDay != nil {
		if item.ClosingEndDay, err = normalizeClosingDay(*req.ClosingEndDay); err != nil {
			return domain.Customer{}, err
		}
	}
	item.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return domain.Customer{}, err
	}

	s.invalidate(ctx, orgID)
	return *item, nil
}

func (s *Service) Delete(ctx context.Context, req domain.GetCustomerRequest) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok || orgID == 0 {
		return domain.ErrInvalidOrganization
	}

	id, err := s.parseID(req.ID)
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

	s.invalidate(ctx, orgID)
	return nil
}

// invalidate drops cached dashboard metrics; a failure only costs freshness.
func (s *Service) invalidate(ctx context.Context, orgID snowflake.ID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateCache(ctx, orgID); err != nil {
		s.log.Warn("failed to invalidate dashboard cache", zap.String("org_id", orgID.String()), zap.Error(err))
	}
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

// normalizeClosingDay accepts an empty value (no closing day) or a day of
// month between 1 and 31.
func normalizeClosingDay(value string) (*string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	day, err := strconv.Atoi(value)
	if err != nil || day < 1 || day > 31 {
		return nil, domain.ErrInvalidClosingDay
	}
	normalized := strconv.Itoa(day)
	return &normalized, nil
}
