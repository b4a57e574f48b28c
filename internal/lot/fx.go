package lot

import (
	"github.com/smallbiznis/atelier/internal/lot/repository"
	"github.com/smallbiznis/atelier/internal/lot/service"
	"go.uber.org/fx"
)

var Module = fx.Module("lot.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
