package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/clock"
	"github.com/smallbiznis/atelier/internal/config"
	"github.com/smallbiznis/atelier/internal/orgcontext"
	dashboarddomain "github.com/smallbiznis/atelier/internal/productiondashboard/domain"
	"github.com/smallbiznis/atelier/internal/reference/domain"
	"github.com/smallbiznis/atelier/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        domain.Repository
	Clock       clock.Clock                      `optional:"true"`
	Dashboard   *config.DashboardConfigHolder    `optional:"true"`
	Invalidator dashboarddomain.CacheInvalidator `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        domain.Repository
	clock       clock.Clock
	dashboard   *config.DashboardConfigHolder
	invalidator dashboarddomain.CacheInvalidator
}

func New(p Params) domain.Service {
	dashboard := p.Dashboard
	if dashboard == nil {
		dashboard = config.NewStaticDashboardConfigHolder(config.DefaultDashboardConfig())
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("reference.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		clock:       clk,
		dashboard:   dashboard,
		invalidator: p.Invalidator,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateReferenceRequest) (domain.ReferenceView, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ReferenceView{}, domain.ErrInvalidOrganization
	}

	now := s.clock.Now().UTC()
	ref := domain.Reference{
		ID:        s.genID.Generate(),
		OrgID:     orgID,
		Code:      strings.TrimSpace(req.Code),
		Name:      strings.TrimSpace(req.Name),
		Color:     strings.TrimSpace(req.Color),
		Size:      strings.TrimSpace(req.Size),
		Amount:    req.Amount,
		UnitValue: req.UnitValue,
		Status:    strings.TrimSpace(req.Status),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ref.Status == "" {
		ref.Status = s.dashboard.Get().InProgressStatus
	}

	var err error
	if ref.EstimatedDate, err = parseDate(req.EstimatedDate); err != nil {
		return domain.ReferenceView{}, err
	}
	if ref.CustomerID, err = s.resolveRelation(ctx, orgID, domain.RelationCustomer, req.CustomerID); err != nil {
		return domain.ReferenceView{}, err
	}
	if ref.ServiceTypeID, err = s.resolveRelation(ctx, orgID, domain.RelationServiceType, req.ServiceTypeID); err != nil {
		return domain.ReferenceView{}, err
	}
	if ref.LotID, err = s.resolveRelation(ctx, orgID, domain.RelationLot, req.LotID); err != nil {
		return domain.ReferenceView{}, err
	}
	if err := validate(ref); err != nil {
		return domain.ReferenceView{}, err
	}

	if err := s.repo.Insert(ctx, s.db, &ref); err != nil {
		return domain.ReferenceView{}, err
	}

	s.invalidate(ctx, orgID)
	return s.load(ctx, orgID, ref.ID)
}

func (s *Service) List(ctx context.Context, req domain.ListReferenceRequest) (domain.ListReferenceResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ListReferenceResponse{}, domain.ErrInvalidOrganization
	}

	filter := domain.ListReferenceFilter{
		Status: strings.TrimSpace(req.Status),
	}
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		id, err := snowflake.ParseString(raw)
		if err != nil || id == 0 {
			return domain.ListReferenceResponse{}, domain.ErrInvalidCustomer
		}
		value := id.Int64()
		filter.CustomerID = &value
	}

	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  int(req.PageSize),
	}.Normalize()

	items, err := s.repo.List(ctx, s.db, orgID, filter, page)
	if err != nil {
		return domain.ListReferenceResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, page.PageSize, func(ref *domain.ReferenceView) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        ref.ID.String(),
			CreatedAt: ref.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if pageInfo != nil && pageInfo.HasMore && len(items) > page.PageSize {
		items = items[:page.PageSize]
	}

	refs := make([]domain.ReferenceView, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		refs = append(refs, *item)
	}

	resp := domain.ListReferenceResponse{References: refs}
	if pageInfo != nil {
		resp.PageInfo = *pageInfo
	}
	return resp, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetReferenceRequest) (domain.ReferenceView, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ReferenceView{}, domain.ErrInvalidOrganization
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.ReferenceView{}, err
	}
	return s.load(ctx, orgID, id)
}

func (s *Service) Update(ctx context.Context, req domain.UpdateReferenceRequest) (domain.ReferenceView, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ReferenceView{}, domain.ErrInvalidOrganization
	}

	id, err := parseID(req.ID)
	if err != nil {
		return domain.ReferenceView{}, err
	}

	current, err := s.load(ctx, orgID, id)
	if err != nil {
		return domain.ReferenceView{}, err
	}
	ref := current.Reference

	if req.Code != nil {
		ref.Code = strings.TrimSpace(*req.Code)
	}
	if req.Name != nil {
		ref.Name = strings.TrimSpace(*req.Name)
	}
	if req.Color != nil {
		ref.Color = strings.TrimSpace(*req.Color)
	}
	if req.Size != nil {
		ref.Size = strings.TrimSpace(*req.Size)
	}
	if req.Amount != nil {
		ref.Amount = *req.Amount
	}
	if req.UnitValue != nil {
		ref.UnitValue = *req.UnitValue
	}
	if req.Status != nil {
		ref.Status = strings.TrimSpace(*req.Status)
		if ref.Status == "" {
			ref.Status = s.dashboard.Get().InProgressStatus
		}
	}
	if req.EstimatedDate != nil {
		if ref.EstimatedDate, err = parseDate(*req.EstimatedDate); err != nil {
			return domain.ReferenceView{}, err
		}
	}
	if req.CustomerID != nil {
		if ref.CustomerID, err = s.resolveRelation(ctx, orgID, domain.RelationCustomer, *req.CustomerID); err != nil {
			return domain.ReferenceView{}, err
		}
	}
	if req.ServiceTypeID != nil {
		if ref.ServiceTypeID, err = s.resolveRelation(ctx, orgID, domain.RelationServiceType, *req.ServiceTypeID); err != nil {
			return domain.ReferenceView{}, err
		}
	}
	if req.LotID != nil {
		if ref.LotID, err = s.resolveRelation(ctx, orgID, domain.RelationLot, *req.LotID); err != nil {
			return domain.ReferenceView{}, err
		}
	}
	if err := validate(ref); err != nil {
		return domain.ReferenceView{}, err
	}

	ref.UpdatedAt = s.clock.Now().UTC()
	if err := s.repo.Update(ctx, s.db, &ref); err != nil {
		return domain.ReferenceView{}, err
	}

	s.invalidate(ctx, orgID)
	return s.load(ctx, orgID, id)
}

func (s *Service) Delete(ctx context.Context, req domain.GetReferenceRequest) error {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return domain.ErrInvalidOrganization
	}

	id, err := parseID(req.ID)
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

func (s *Service) load(ctx context.Context, orgID, id snowflake.ID) (domain.ReferenceView, error) {
	view, err := s.repo.FindByID(ctx, s.db, orgID, id)
	if err != nil {
		return domain.ReferenceView{}, err
	}
	if view == nil {
		return domain.ReferenceView{}, domain.ErrNotFound
	}
	return *view, nil
}

// resolveRelation parses a related id and checks it belongs to the same
// organization. An empty value clears the relation.
func (s *Service) resolveRelation(ctx context.Context, orgID snowflake.ID, relation domain.Relation, raw string) (*snowflake.ID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	invalid := relationError(relation)
	id, err := snowflake.ParseString(raw)
	if err != nil || id == 0 {
		return nil, invalid
	}

	exists, err := s.repo.RelationExists(ctx, s.db, relation, orgID, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, invalid
	}
	return &id, nil
}

func (s *Service) invalidate(ctx context.Context, orgID snowflake.ID) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.InvalidateCache(ctx, orgID); err != nil {
		s.log.Warn("failed to invalidate dashboard cache", zap.String("org_id", orgID.String()), zap.Error(err))
	}
}

func relationError(relation domain.Relation) error {
	switch relation {
	case domain.RelationCustomer:
		return domain.ErrInvalidCustomer
	case domain.RelationServiceType:
		return domain.ErrInvalidServiceType
	default:
		return domain.ErrInvalidLot
	}
}

func validate(ref domain.Reference) error {
	if ref.Code == "" {
		return domain.ErrInvalidCode
	}
	if ref.Name == "" {
		return domain.ErrInvalidName
	}
	if ref.Amount.IsNegative() {
		return domain.ErrInvalidAmount
	}
	if ref.UnitValue.IsNegative() {
		return domain.ErrInvalidUnitValue
	}
	return nil
}

func parseDate(raw string) (*datatypes.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, domain.ErrInvalidEstimatedDate
	}
	date := datatypes.Date(t)
	return &date, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
