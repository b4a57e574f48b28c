package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/atelier/internal/auth"
	authdomain "github.com/smallbiznis/atelier/internal/auth/domain"
	"github.com/smallbiznis/atelier/internal/auth/session"
	"github.com/smallbiznis/atelier/internal/cache"
	"github.com/smallbiznis/atelier/internal/clock"
	"github.com/smallbiznis/atelier/internal/config"
	"github.com/smallbiznis/atelier/internal/customer"
	customerdomain "github.com/smallbiznis/atelier/internal/customer/domain"
	"github.com/smallbiznis/atelier/internal/lot"
	lotdomain "github.com/smallbiznis/atelier/internal/lot/domain"
	"github.com/smallbiznis/atelier/internal/observability"
	obsmiddleware "github.com/smallbiznis/atelier/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/atelier/internal/observability/metrics"
	obstracing "github.com/smallbiznis/atelier/internal/observability/tracing"
	"github.com/smallbiznis/atelier/internal/organization"
	organizationdomain "github.com/smallbiznis/atelier/internal/organization/domain"
	"github.com/smallbiznis/atelier/internal/productiondashboard"
	dashboarddomain "github.com/smallbiznis/atelier/internal/productiondashboard/domain"
	"github.com/smallbiznis/atelier/internal/providers/pdf"
	"github.com/smallbiznis/atelier/internal/ratelimit"
	"github.com/smallbiznis/atelier/internal/reference"
	referencedomain "github.com/smallbiznis/atelier/internal/reference/domain"
	"github.com/smallbiznis/atelier/internal/servicetype"
	servicetypedomain "github.com/smallbiznis/atelier/internal/servicetype/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	cache.Module,
	clock.Module,
	auth.Module,
	organization.Module,
	customer.Module,
	servicetype.Module,
	lot.Module,
	reference.Module,
	productiondashboard.Module,
	pdf.Module,
	fx.Provide(
		ratelimit.NewOrgLimiter,
		NewEngine,
		NewServer,
	),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(httpMetrics.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine          *gin.Engine
	cfg             config.Config
	log             *zap.Logger
	verifier        authdomain.Verifier
	sessions        *session.Manager
	organizationSvc organizationdomain.Service
	customerSvc     customerdomain.Service
	serviceTypeSvc  servicetypedomain.Service
	lotSvc          lotdomain.Service
	referenceSvc    referencedomain.Service
	dashboardSvc    dashboarddomain.Service
	reports         pdf.Provider
	orgLimiter      *ratelimit.OrgLimiter
	obsMetrics      *obsmetrics.Metrics
	clock           clock.Clock
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	Log             *zap.Logger
	Verifier        authdomain.Verifier
	Sessions        *session.Manager
	OrganizationSvc organizationdomain.Service
	CustomerSvc     customerdomain.Service
	ServiceTypeSvc  servicetypedomain.Service
	LotSvc          lotdomain.Service
	ReferenceSvc    referencedomain.Service
	DashboardSvc    dashboarddomain.Service
	Reports         pdf.Provider
	Clock           clock.Clock
	OrgLimiter      *ratelimit.OrgLimiter `optional:"true"`
	ObsMetrics      *obsmetrics.Metrics   `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	sessions := p.Sessions
	if sessions == nil {
		sessions = session.NewManager()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		log:             p.Log.Named("http.server"),
		verifier:        p.Verifier,
		sessions:        sessions,
		organizationSvc: p.OrganizationSvc,
		customerSvc:     p.CustomerSvc,
		serviceTypeSvc:  p.ServiceTypeSvc,
		lotSvc:          p.LotSvc,
		referenceSvc:    p.ReferenceSvc,
		dashboardSvc:    p.DashboardSvc,
		reports:         p.Reports,
		orgLimiter:      p.OrgLimiter,
		obsMetrics:      p.ObsMetrics,
		clock:           clk,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
	s.RegisterFallback()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api")
	api.Use(s.AuthRequired())
	api.Use(s.OrgContext())
	api.Use(s.OrgRateLimit())

	// -------- Organization --------
	api.GET("/organization", s.GetOrganization)
	api.PATCH("/organization", s.UpdateOrganization)

	// -------- Customers --------
	api.GET("/customers", s.ListCustomers)
	api.POST("/customers", s.CreateCustomer)
	api.GET("/customers/:id", s.GetCustomerByID)
	api.PATCH("/customers/:id", s.UpdateCustomer)
	api.DELETE("/customers/:id", s.DeleteCustomer)

	// -------- Service types --------
	api.GET("/service-types", s.ListServiceTypes)
	api.POST("/service-types", s.CreateServiceType)
	api.PATCH("/service-types/:id", s.UpdateServiceType)
	api.DELETE("/service-types/:id", s.DeleteServiceType)

	// -------- Lots --------
	api.GET("/lots", s.ListLots)
	api.POST("/lots", s.CreateLot)
	api.PATCH("/lots/:id", s.UpdateLot)
	api.DELETE("/lots/:id", s.DeleteLot)

	// -------- References --------
	api.GET("/references", s.ListReferences)
	api.POST("/references", s.CreateReference)
	api.GET("/references/:id", s.GetReferenceByID)
	api.PATCH("/references/:id", s.UpdateReference)
	api.DELETE("/references/:id", s.DeleteReference)

	// -------- Dashboard --------
	api.GET("/dashboard/metrics", s.GetDashboardMetrics)
	api.GET("/dashboard/report.pdf", s.GetDashboardReport)
}

func (s *Server) RegisterFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
