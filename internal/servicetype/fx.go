package servicetype

import (
	"github.com/smallbiznis/atelier/internal/servicetype/repository"
	"github.com/smallbiznis/atelier/internal/servicetype/service"
	"go.uber.org/fx"
)

var Module = fx.Module("servicetype.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
