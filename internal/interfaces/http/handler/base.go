package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	appintegration "github.com/storebridge/backend/internal/application/integration"
	"github.com/storebridge/backend/internal/domain/integration"
	"github.com/storebridge/backend/internal/interfaces/http/dto"
	"github.com/storebridge/backend/internal/interfaces/http/middleware"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// BindError answers a failed ShouldBind call. Validator failures become a
// field-level validation response, anything else is malformed input.
func (h *BaseHandler) BindError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		middleware.HandleValidationError(c, validationErrs)
		return
	}
	h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "Request body could not be parsed")
}

// HandleError converts workflow and service errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	h.respondError(c, err, nil)
}

// HandleRunFailure answers a run that ended ERRORED. Status and error code
// follow HandleError; the partial result travels as data so the caller keeps
// the run id and any product left in the catalog.
func (h *BaseHandler) HandleRunFailure(c *gin.Context, err error, result any) {
	h.respondError(c, err, result)
}

func (h *BaseHandler) respondError(c *gin.Context, err error, data any) {
	if err == nil {
		return
	}
	status, resp := errorResponse(err, middleware.GetRequestID(c))
	resp.Data = data
	c.JSON(status, resp)
}

func errorResponse(err error, requestID string) (int, dto.Response) {
	withCode := func(code, message string) (int, dto.Response) {
		return dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, requestID)
	}

	var fetchErr *integration.ExternalFetchError
	var transportErr *integration.TransportError
	var validationErr *integration.CatalogValidationError
	var commandErrs validator.ValidationErrors

	switch {
	case errors.As(err, &fetchErr) && errors.Is(err, integration.ErrInvalidProductID):
		// the id is outside the source's range: the caller's input, not the source
		return withCode(dto.ErrCodeValidationRange, integration.ExternalFetchFailedMessage)
	case errors.As(err, &fetchErr):
		return withCode(dto.ErrCodeExternalFetch, integration.ExternalFetchFailedMessage)
	case errors.As(err, &transportErr):
		return withCode(dto.ErrCodeCatalogTransport, "Catalog request failed")
	case errors.As(err, &validationErr):
		details := make([]dto.ValidationDetail, 0, len(validationErr.UserErrors))
		for _, ue := range validationErr.UserErrors {
			details = append(details, dto.ValidationDetail{Field: ue.FieldPath(), Message: ue.Message})
		}
		return dto.GetHTTPStatus(dto.ErrCodeCatalogValidation), dto.NewErrorResponseWithDetails(
			dto.ErrCodeCatalogValidation,
			"Catalog rejected the product",
			requestID,
			details,
		)
	case errors.Is(err, integration.ErrImportInFlight):
		return withCode(dto.ErrCodeConflict, "An import for this product is already running")
	case errors.Is(err, integration.ErrInvalidProductID):
		return withCode(dto.ErrCodeValidationRange, "productToFetchId must be a positive integer")
	case errors.Is(err, integration.ErrRunNotFound):
		return withCode(dto.ErrCodeNotFound, "Import run not found")
	case errors.Is(err, appintegration.ErrServiceClosed):
		return withCode(dto.ErrCodeServiceUnavailable, "Import service is shutting down")
	case errors.As(err, &commandErrs):
		return http.StatusBadRequest, middleware.FormatValidationErrors(commandErrs, requestID)
	default:
		return withCode(dto.ErrCodeInternal, "An unexpected error occurred")
	}
}
