package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	referencedomain "github.com/smallbiznis/atelier/internal/reference/domain"
	"github.com/smallbiznis/atelier/pkg/db/pagination"
)

type createReferenceRequest struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Color         string          `json:"color"`
	Size          string          `json:"size"`
	Amount        decimal.Decimal `json:"amount"`
	UnitValue     decimal.Decimal `json:"unit_value"`
	EstimatedDate string          `json:"estimated_date"`
	Status        string          `json:"status"`
	ServiceTypeID string          `json:"service_type_id"`
	LotID         string          `json:"lot_id"`
	CustomerID    string          `json:"customer_id"`
}

type updateReferenceRequest struct {
	Code          *string          `json:"code"`
	Name          *string          `json:"name"`
	Color         *string          `json:"color"`
	Size          *string          `json:"size"`
	Amount        *decimal.Decimal `json:"amount"`
	UnitValue     *decimal.Decimal `json:"unit_value"`
	EstimatedDate *string          `json:"estimated_date"`
	Status        *string          `json:"status"`
	ServiceTypeID *string          `json:"service_type_id"`
	LotID         *string          `json:"lot_id"`
	CustomerID    *string          `json:"customer_id"`
}

func (s *Server) CreateReference(c *gin.Context) {
	var req createReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.referenceSvc.Create(c.Request.Context(), referencedomain.CreateReferenceRequest{
		Code:          strings.TrimSpace(req.Code),
		Name:          strings.TrimSpace(req.Name),
		Color:         strings.TrimSpace(req.Color),
		Size:          strings.TrimSpace(req.Size),
		Amount:        req.Amount,
		UnitValue:     req.UnitValue,
		EstimatedDate: strings.TrimSpace(req.EstimatedDate),
		Status:        strings.TrimSpace(req.Status),
		ServiceTypeID: strings.TrimSpace(req.ServiceTypeID),
		LotID:         strings.TrimSpace(req.LotID),
		CustomerID:    strings.TrimSpace(req.CustomerID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListReferences(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status     string `form:"status"`
		CustomerID string `form:"customer_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.referenceSvc.List(c.Request.Context(), referencedomain.ListReferenceRequest{
		PageToken:  query.PageToken,
		PageSize:   int32(query.PageSize),
		Status:     strings.TrimSpace(query.Status),
		CustomerID: strings.TrimSpace(query.CustomerID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      resp.References,
		"page_info": resp.PageInfo,
	})
}

func (s *Server) GetReferenceByID(c *gin.Context) {
	resp, err := s.referenceSvc.GetByID(c.Request.Context(), referencedomain.GetReferenceRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateReference(c *gin.Context) {
	var req updateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.referenceSvc.Update(c.Request.Context(), referencedomain.UpdateReferenceRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		Code:          trimOptional(req.Code),
		Name:          trimOptional(req.Name),
		Color:         trimOptional(req.Color),
		Size:          trimOptional(req.Size),
		Amount:        req.Amount,
		UnitValue:     req.UnitValue,
		EstimatedDate: trimOptional(req.EstimatedDate),
		Status:        trimOptional(req.Status),
		ServiceTypeID: trimOptional(req.ServiceTypeID),
		LotID:         trimOptional(req.LotID),
		CustomerID:    trimOptional(req.CustomerID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteReference(c *gin.Context) {
	err := s.referenceSvc.Delete(c.Request.Context(), referencedomain.GetReferenceRequest{
		ID: strings.TrimSpace(c.Param("id")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
