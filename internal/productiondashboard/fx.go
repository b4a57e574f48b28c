package productiondashboard

import (
	"github.com/smallbiznis/atelier/internal/productiondashboard/domain"
	"github.com/smallbiznis/atelier/internal/productiondashboard/service"
	"go.uber.org/fx"
)

var Module = fx.Module("productiondashboard.service",
	fx.Provide(service.New),
	fx.Provide(provideCacheInvalidator),
)

func provideCacheInvalidator(svc domain.Service) domain.CacheInvalidator {
	return svc
}
