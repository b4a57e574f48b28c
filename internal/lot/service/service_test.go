package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/atelier/internal/clock"
	"github.com/smallbiznis/atelier/internal/lot/domain"
	"github.com/smallbiznis/atelier/internal/lot/repository"
	"github.com/smallbiznis/atelier/internal/orgcontext"
	"github.com/smallbiznis/atelier/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) domain.Service {
	t.Helper()
	return newTestServiceWithClock(t, nil)
}

func newTestServiceWithClock(t *testing.T, clk clock.Clock) domain.Service {
	t.Helper()

	dbConn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, dbConn.AutoMigrate(&domain.Lot{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return New(Params{DB: dbConn, Log: zap.NewNop(), GenID: node, Repo: repository.Provide(), Clock: clk})
}

func TestLotListNewestFirst(t *testing.T) {
	clk := clock.NewFakeClock(time.Date(2024, 12, 2, 9, 0, 0, 0, time.UTC))
	svc := newTestServiceWithClock(t, clk)
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(3))

	first, err := svc.Create(ctx, domain.CreateLotRequest{Number: "L-001"})
	require.NoError(t, err)
	require.True(t, first.CreatedAt.Equal(clk.Now()), "created_at %s", first.CreatedAt)
	clk.Advance(time.Minute)
	second, err := svc.Create(ctx, domain.CreateLotRequest{Number: "L-002"})
	require.NoError(t, err)

	resp, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, resp.Lots, 2)
	require.Equal(t, second.ID, resp.Lots[0].ID)
	require.Equal(t, first.ID, resp.Lots[1].ID)
}

func TestLotUpdateAndDelete(t *testing.T) {
	svc := newTestService(t)
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(3))

	_, err := svc.Create(ctx, domain.CreateLotRequest{Number: " "})
	require.True(t, errors.Is(err, domain.ErrInvalidNumber))

	lot, err := svc.Create(ctx, domain.CreateLotRequest{Number: "L-001"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, domain.UpdateLotRequest{ID: lot.ID.String(), Number: "L-001-A"})
	require.NoError(t, err)
	require.Equal(t, "L-001-A", updated.Number)

	other := orgcontext.WithOrgID(context.Background(), snowflake.ID(4))
	_, err = svc.Update(other, domain.UpdateLotRequest{ID: lot.ID.String(), Number: "x"})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, lot.ID.String()))
	require.ErrorIs(t, svc.Delete(ctx, lot.ID.String()), domain.ErrNotFound)
}
