package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wildoasis/booking/internal/services"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`    // machine-readable error code
	Details any    `json:"details,omitempty"` // field errors on validation failures
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// PaginatedResponse wraps paginated data with metadata.
type PaginatedResponse struct {
	Data       any   `json:"data"`
	Total      int64 `json:"total"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
	HasMore    bool  `json:"has_more"`
	TotalPages int   `json:"total_pages,omitempty"`
}

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message})
}

// respondNotFound sends a 404 Not Found response.
func respondNotFound(c *gin.Context, resource string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Error: resource + " not found"})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Printf("Internal error (%s): %v", context, err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondError sends an error response with the given status code.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondValidation sends 422 with per-field messages.
func respondValidation(c *gin.Context, ve *services.ValidationError) {
	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Code:    "validation_failed",
		Details: ve.Fields,
	})
}

// errorStatus maps service errors to HTTP status codes and user-facing text.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrCabinNotFound):
		return http.StatusNotFound, "Cabin not found"
	case errors.Is(err, services.ErrBookingNotFound):
		return http.StatusNotFound, "Reservation not found"
	case errors.Is(err, services.ErrGuestNotFound):
		return http.StatusNotFound, "Guest not found"
	case errors.Is(err, services.ErrNotAuthorized):
		return http.StatusForbidden, "You are not allowed to change this reservation"
	case errors.Is(err, services.ErrBookingLocked):
		return http.StatusConflict, "This reservation can no longer be changed"
	case errors.Is(err, services.ErrInvalidTransition):
		return http.StatusConflict, "That status change is not allowed"
	case errors.Is(err, services.ErrInvalidImage):
		return http.StatusUnprocessableEntity, services.ErrInvalidImage.Error()
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

// respondServiceError answers a JSON request with the status matching err.
func respondServiceError(c *gin.Context, err error, context string) {
	if ve, ok := services.AsValidationError(err); ok {
		respondValidation(c, ve)
		return
	}
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		respondInternalError(c, err, context)
		return
	}
	respondError(c, status, msg)
}

// --- Success Response Helpers ---

// respondSuccess sends a 200 OK response with a message.
func respondSuccess(c *gin.Context, message string) {
	c.JSON(http.StatusOK, SuccessResponse{Message: message})
}

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	idStr := c.Param(paramName)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// optionalQueryID parses an ID query parameter, returning 0 when absent or malformed.
func optionalQueryID(c *gin.Context, paramName string) uint {
	id, err := strconv.ParseUint(c.Query(paramName), 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// pageParams reads page and limit query parameters.
func pageParams(c *gin.Context, defaultLimit int) (page, limit, offset int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = defaultLimit
	}
	return page, limit, (page - 1) * limit
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func totalPages(total int64, limit int) int {
	pages := (int(total) + limit - 1) / limit
	if pages < 1 {
		pages = 1
	}
	return pages
}

// wantsJSON reports whether the client asked for JSON instead of a page.
func wantsJSON(c *gin.Context) bool {
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json") ||
		strings.HasPrefix(c.ContentType(), "application/json")
}
