package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/atelier/internal/closingperiod"
	organizationdomain "github.com/smallbiznis/atelier/internal/organization/domain"
	dashboarddomain "github.com/smallbiznis/atelier/internal/productiondashboard/domain"
	"github.com/smallbiznis/atelier/internal/providers/pdf"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GetDashboardMetrics answers with the result envelope. A failed reference
// fetch is reported inside the envelope, never as partial metrics.
func (s *Server) GetDashboardMetrics(c *gin.Context) {
	metrics, err := s.dashboardSvc.GetMetrics(c.Request.Context())
	if err != nil {
		var fetchErr *dashboarddomain.UpstreamFetchError
		if errors.As(err, &fetchErr) {
			_ = c.Error(err)
			c.JSON(http.StatusBadGateway, dashboarddomain.NewResult(nil, err))
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboarddomain.NewResult(metrics, nil))
}

func (s *Server) GetDashboardReport(c *gin.Context) {
	ctx := c.Request.Context()
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var (
		metrics *closingperiod.Metrics
		org     *organizationdomain.Organization
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metrics, err = s.dashboardSvc.GetMetrics(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		org, err = s.organizationSvc.GetByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		AbortWithError(c, err)
		return
	}

	generatedAt := s.clock.Now()
	doc, err := s.reports.GenerateDashboardReport(ctx, pdf.DashboardReport{
		OrgName:     org.Name,
		GeneratedAt: generatedAt,
		Metrics:     *metrics,
	})
	if err != nil {
		s.log.Error("failed to render dashboard report", zap.String("org_id", org.ID.String()), zap.Error(err))
		AbortWithError(c, err)
		return
	}
	if doc == nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	filename := fmt.Sprintf("dashboard-%s.pdf", generatedAt.Format(dateOnlyLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	c.Header("Content-Type", "application/pdf")
	if _, err := io.Copy(c.Writer, doc); err != nil {
		s.log.Warn("failed to stream dashboard report", zap.Error(err))
	}
}
