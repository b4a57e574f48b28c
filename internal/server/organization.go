package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	organizationdomain "github.com/smallbiznis/atelier/internal/organization/domain"
)

type updateOrganizationRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	CNPJ  *string `json:"cnpj"`
	Plan  *string `json:"plan"`
}

func (s *Server) GetOrganization(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	org, err := s.organizationSvc.GetByUser(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": org})
}

func (s *Server) UpdateOrganization(c *gin.Context) {
	userID, ok := s.userIDFromSession(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req updateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	org, err := s.organizationSvc.Update(c.Request.Context(), userID, organizationdomain.UpdateOrganizationRequest{
		Name:  trimOptional(req.Name),
		Email: trimOptional(req.Email),
		CNPJ:  trimOptional(req.CNPJ),
		Plan:  trimOptional(req.Plan),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": org})
}

func (s *Server) userIDFromSession(c *gin.Context) (string, bool) {
	userID := c.GetString(contextUserIDKey)
	if userID == "" {
		return "", false
	}
	return userID, true
}
