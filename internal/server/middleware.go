package server

import (
	"errors"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/atelier/internal/observability/context"
	"github.com/smallbiznis/atelier/internal/observability/logger"
	organizationdomain "github.com/smallbiznis/atelier/internal/organization/domain"
	"github.com/smallbiznis/atelier/internal/orgcontext"
	"go.uber.org/zap"
)

const (
	contextUserIDKey = "user_id"
	contextEmailKey  = "user_email"
)

// AuthRequired verifies the bearer token and stores the caller's user id.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		claims, err := s.verifier.Verify(token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx := orgcontext.WithUserID(c.Request.Context(), claims.Subject)
		ctx = obscontext.WithActor(ctx, "user", claims.Subject)
		c.Request = c.Request.WithContext(ctx)
		c.Set(contextUserIDKey, claims.Subject)
		c.Set(contextEmailKey, claims.Email)
		c.Next()
	}
}

// OrgContext resolves the caller's organization, provisioning one on first
// access, and scopes the request to it.
func (s *Server) OrgContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		userID, ok := orgcontext.UserIDFromContext(ctx)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		orgID, err := s.organizationSvc.ResolveOrgID(ctx, userID)
		if errors.Is(err, organizationdomain.ErrNotFound) {
			org, ensureErr := s.organizationSvc.EnsureForUser(ctx, organizationdomain.EnsureOrganizationRequest{
				UserID: userID,
				Email:  c.GetString(contextEmailKey),
			})
			if ensureErr != nil {
				AbortWithError(c, ensureErr)
				return
			}
			logger.FromContext(ctx).Info("organization provisioned", zap.String("org_id", org.ID.String()))
			orgID, err = org.ID, nil
		}
		if err != nil {
			AbortWithError(c, err)
			return
		}

		ctx = orgcontext.WithOrgID(ctx, orgID)
		ctx = obscontext.WithOrgID(ctx, orgID.String())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
