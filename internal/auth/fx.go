package auth

import (
	"github.com/smallbiznis/atelier/internal/auth/service"
	"github.com/smallbiznis/atelier/internal/auth/session"
	"go.uber.org/fx"
)

// Module provides the bearer token verifier and the cookie session reader.
var Module = fx.Module("auth",
	fx.Provide(
		service.New,
		session.NewManager,
	),
)
