package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	offerdomain "github.com/smallbiznis/offerdesk/internal/offer/domain"
	pricingdomain "github.com/smallbiznis/offerdesk/internal/pricing/domain"
	sequencedomain "github.com/smallbiznis/offerdesk/internal/sequence/domain"
	taxdomain "github.com/smallbiznis/offerdesk/internal/tax/domain"
	"github.com/smallbiznis/offerdesk/pkg/db"
	"github.com/smallbiznis/offerdesk/pkg/db/pagination"
	"gorm.io/gorm"
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
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

// validationSentinels are matched in order; the first hit names the code.
var validationSentinels = []error{
	ErrInvalidRequest,
	pagination.ErrInvalidPageToken,
	offerdomain.ErrInvalidID,
	offerdomain.ErrInvalidStatus,
	offerdomain.ErrInvalidClient,
	offerdomain.ErrInvalidLine,
	offerdomain.ErrInvalidShipping,
	pricingdomain.ErrInvalidInput,
	taxdomain.ErrInvalidID,
	taxdomain.ErrInvalidTaxCode,
	taxdomain.ErrInvalidTaxRate,
}

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

	if sentinel := validationSentinel(err); sentinel != nil {
		code := sentinel.Error()
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

	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, taxdomain.ErrDuplicateCode),
		errors.Is(err, offerdomain.ErrDuplicateRef),
		db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrServiceUnavailable),
		errors.Is(err, pricingdomain.ErrPricingLookupFailed),
		errors.Is(err, sequencedomain.ErrSequenceServiceFailed):
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

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationSentinel(err error) error {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, offerdomain.ErrNotFound),
		errors.Is(err, taxdomain.ErrNotFound):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	switch code {
	case "invalid_page_token":
		return "page_token"
	case "invalid_id":
		return "id"
	case "invalid_status":
		return "status"
	case "invalid_client":
		return "client_id"
	case "invalid_line", "invalid_input":
		return "lines"
	case "invalid_shipping":
		return "shipping"
	case "invalid_tax_code":
		return "code"
	case "invalid_tax_rate":
		return "rate"
	default:
		return "request"
	}
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_page_token":
		return "page_token is invalid"
	case "invalid_id":
		return "id is invalid"
	case "invalid_status":
		return "status is not a known offer status"
	case "invalid_client":
		return "client_id is required"
	case "invalid_line":
		return "lines contain an invalid value"
	case "invalid_input":
		return "quantities, prices and rates must be finite and not negative"
	case "invalid_shipping":
		return "shipping is invalid"
	case "invalid_tax_code":
		return "code is required"
	case "invalid_tax_rate":
		return "rate must not be negative"
	default:
		return strings.ReplaceAll(code, "_", " ")
	}
}
