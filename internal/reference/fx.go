package reference

import (
	"github.com/smallbiznis/atelier/internal/reference/repository"
	"github.com/smallbiznis/atelier/internal/reference/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reference.service",
	fx.Provide(repository.Provide),
	fx.Provide(repository.NewDashboardSource),
	fx.Provide(service.New),
)
