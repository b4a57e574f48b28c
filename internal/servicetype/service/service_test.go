package service

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/orgcontext"
	"github.com/smallbiznis/atelier/internal/servicetype/domain"
	"github.com/smallbiznis/atelier/internal/servicetype/repository"
	"github.com/smallbiznis/atelier/pkg/db"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()

	dbConn, err := db.NewTest()
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := dbConn.AutoMigrate(&domain.ServiceType{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("failed to create snowflake node: %v", err)
	}

	return New(Params{DB: dbConn, Log: zap.NewNop(), GenID: node, Repo: repository.Provide()})
}

func TestServiceTypeLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(7))

	if _, err := svc.Create(ctx, domain.CreateServiceTypeRequest{Name: ""}); !errors.Is(err, domain.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	sewing, err := svc.Create(ctx, domain.CreateServiceTypeRequest{Name: "Sewing"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, domain.CreateServiceTypeRequest{Name: "Embroidery"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	renamed, err := svc.Update(ctx, domain.UpdateServiceTypeRequest{ID: sewing.ID.String(), Name: "Assembly"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if renamed.Name != "Assembly" {
		t.Fatalf("expected renamed service type, got %q", renamed.Name)
	}

	resp, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.ServiceTypes) != 2 || resp.ServiceTypes[0].Name != "Assembly" {
		t.Fatalf("unexpected list: %+v", resp.ServiceTypes)
	}

	if err := svc.Delete(ctx, sewing.ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Delete(ctx, sewing.ID.String()); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestServiceTypeRequiresOrganization(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.List(context.Background()); !errors.Is(err, domain.ErrInvalidOrganization) {
		t.Fatalf("expected ErrInvalidOrganization, got %v", err)
	}
}
