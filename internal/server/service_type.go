package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	servicetypedomain "github.com/smallbiznis/atelier/internal/servicetype/domain"
)

type serviceTypeRequest struct {
	Name string `json:"name"`
}

func (s *Server) ListServiceTypes(c *gin.Context) {
	resp, err := s.serviceTypeSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.ServiceTypes})
}

func (s *Server) CreateServiceType(c *gin.Context) {
	var req serviceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.serviceTypeSvc.Create(c.Request.Context(), servicetypedomain.CreateServiceTypeRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateServiceType(c *gin.Context) {
	var req serviceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.serviceTypeSvc.Update(c.Request.Context(), servicetypedomain.UpdateServiceTypeRequest{
		ID:   strings.TrimSpace(c.Param("id")),
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteServiceType(c *gin.Context) {
	if err := s.serviceTypeSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
