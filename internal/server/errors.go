package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/atelier/internal/auth/domain"
	customerdomain "github.com/smallbiznis/atelier/internal/customer/domain"
	lotdomain "github.com/smallbiznis/atelier/internal/lot/domain"
	organizationdomain "github.com/smallbiznis/atelier/internal/organization/domain"
	dashboarddomain "github.com/smallbiznis/atelier/internal/productiondashboard/domain"
	referencedomain "github.com/smallbiznis/atelier/internal/reference/domain"
	servicetypedomain "github.com/smallbiznis/atelier/internal/servicetype/domain"
	"github.com/smallbiznis/atelier/pkg/db"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrRateLimited        = errors.New("rate_limited")
	ErrOrgRequired        = errors.New("organization_required")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	var fetchErr *dashboarddomain.UpstreamFetchError

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrMissingToken),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrTokenExpired),
		errors.Is(err, authdomain.ErrMissingSubject):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrOrgRequired):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.As(err, &fetchErr):
		return http.StatusBadGateway, errorPayload{
			Type:    "upstream_error",
			Message: fetchErr.Error(),
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, authdomain.ErrNotConfigured):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog reports the error type and code the client will see.
func classifyErrorForLog(err error) (string, string) {
	_, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return true
	case isOrganizationValidationError(err),
		isCustomerValidationError(err),
		isServiceTypeValidationError(err),
		isLotValidationError(err),
		isReferenceValidationError(err),
		errors.Is(err, dashboarddomain.ErrInvalidOrganization):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, organizationdomain.ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, servicetypedomain.ErrNotFound),
		errors.Is(err, lotdomain.ErrNotFound),
		errors.Is(err, referencedomain.ErrNotFound),
		db.IsNotFoundErr(err):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	default:
		return err.Error()
	}
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

func isOrganizationValidationError(err error) bool {
	switch err {
	case organizationdomain.ErrInvalidName,
		organizationdomain.ErrInvalidEmail,
		organizationdomain.ErrInvalidCNPJ,
		organizationdomain.ErrInvalidPlan,
		organizationdomain.ErrInvalidUser:
		return true
	default:
		return false
	}
}

func isCustomerValidationError(err error) bool {
	switch err {
	case customerdomain.ErrInvalidOrganization,
		customerdomain.ErrInvalidName,
		customerdomain.ErrInvalidClosingDay,
		customerdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isServiceTypeValidationError(err error) bool {
	switch err {
	case servicetypedomain.ErrInvalidOrganization,
		servicetypedomain.ErrInvalidName,
		servicetypedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isLotValidationError(err error) bool {
	switch err {
	case lotdomain.ErrInvalidOrganization,
		lotdomain.ErrInvalidNumber,
		lotdomain.ErrInvalidID:
		return true
	default:
		return false
	}
}

func isReferenceValidationError(err error) bool {
	switch err {
	case referencedomain.ErrInvalidOrganization,
		referencedomain.ErrInvalidCode,
		referencedomain.ErrInvalidName,
		referencedomain.ErrInvalidAmount,
		referencedomain.ErrInvalidUnitValue,
		referencedomain.ErrInvalidEstimatedDate,
		referencedomain.ErrInvalidCustomer,
		referencedomain.ErrInvalidServiceType,
		referencedomain.ErrInvalidLot,
		referencedomain.ErrInvalidID:
		return true
	default:
		return false
	}
}
