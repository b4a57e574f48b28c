package service

import (
	"context"
	"strings"
	"unicode"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/atelier/internal/clock"
	"github.com/smallbiznis/atelier/internal/organization/domain"
	"github.com/smallbiznis/atelier/pkg/db"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

// NewService builds the organization service. A nil clk falls back to the
// system clock.
func NewService(db *gorm.DB, log *zap.Logger, repo domain.Repository, genID *snowflake.Node, clk clock.Clock) domain.Service {
	if clk == nil {
		clk = clock.New()
	}
	return &service{
		db:    db,
		log:   log.Named("organization.service"),
		repo:  repo,
		genID: genID,
		clock: clk,
	}
}

func (s *service) GetByUser(ctx context.Context, userID string) (*domain.Organization, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}

	org, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, domain.ErrNotFound
	}
	return org, nil
}

// ResolveOrgID returns the id of the organization owned by userID.
func (s *service) ResolveOrgID(ctx context.Context, userID string) (snowflake.ID, error) {
	org, err := s.GetByUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	return org.ID, nil
}

// EnsureForUser returns the user's organization, provisioning an empty one on
// first access. Concurrent first requests converge on the same row.
func (s *service) EnsureForUser(ctx context.Context, req domain.EnsureOrganizationRequest) (*domain.Organization, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, domain.ErrInvalidUser
	}

	existing, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.clock.Now().UTC()
	org := domain.Organization{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Name:      domain.DefaultName,
		Email:     strings.TrimSpace(req.Email),
		Plan:      domain.PlanFree,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		orgSlug, err := uniqueSlug(ctx, repo, org.Name, org.ID)
		if err != nil {
			return err
		}
		org.Slug = orgSlug
		return repo.Insert(ctx, org)
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return s.GetByUser(ctx, userID)
		}
		return nil, err
	}

	s.log.Info("provisioned organization",
		zap.String("org_id", org.ID.String()),
		zap.String("user_id", userID),
	)
	return &org, nil
}

func (s *service) Update(ctx context.Context, userID string, req domain.UpdateOrganizationRequest) (*domain.Organization, error) {
	org, err := s.GetByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		if name != org.Name {
			if org.Slug, err = uniqueSlug(ctx, s.repo, name, org.ID); err != nil {
				return nil, err
			}
		}
		org.Name = name
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if email != "" && !strings.Contains(email, "@") {
			return nil, domain.ErrInvalidEmail
		}
		org.Email = email
	}
	if req.CNPJ != nil {
		cnpj, err := normalizeCNPJ(*req.CNPJ)
		if err != nil {
			return nil, err
		}
		org.CNPJ = cnpj
	}
	if req.Plan != nil {
		plan := strings.ToLower(strings.TrimSpace(*req.Plan))
		switch plan {
		case domain.PlanFree, domain.PlanPro:
		default:
			return nil, domain.ErrInvalidPlan
		}
		org.Plan = plan
	}
	org.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Update(ctx, *org); err != nil {
		return nil, err
	}
	return org, nil
}

// uniqueSlug derives a slug from name, suffixing the organization id when the
// plain slug belongs to someone else.
func uniqueSlug(ctx context.Context, repo domain.Repository, name string, id snowflake.ID) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "org"
	}

	taken, err := repo.SlugTaken(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	return base + "-" + id.String(), nil
}

// normalizeCNPJ keeps the digits of a Brazilian company registration number.
// An empty value clears it.
func normalizeCNPJ(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	digits := make([]rune, 0, 14)
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			digits = append(digits, r)
		case r == '.' || r == '/' || r == '-' || r == ' ':
		default:
			return "", domain.ErrInvalidCNPJ
		}
	}
	if len(digits) != 14 {
		return "", domain.ErrInvalidCNPJ
	}
	return string(digits), nil
}
