package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	lotdomain "github.com/smallbiznis/atelier/internal/lot/domain"
)

type lotRequest struct {
	Number string `json:"number"`
}

func (s *Server) ListLots(c *gin.Context) {
	resp, err := s.lotSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Lots})
}

func (s *Server) CreateLot(c *gin.Context) {
	var req lotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.lotSvc.Create(c.Request.Context(), lotdomain.CreateLotRequest{
		Number: strings.TrimSpace(req.Number),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) UpdateLot(c *gin.Context) {
	var req lotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.lotSvc.Update(c.Request.Context(), lotdomain.UpdateLotRequest{
		ID:     strings.TrimSpace(c.Param("id")),
		Number: strings.TrimSpace(req.Number),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteLot(c *gin.Context) {
	if err := s.lotSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
