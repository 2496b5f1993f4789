package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/finrate/models"
)

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error, timing models.TimingInfo) {
	scrapeErr, ok := models.AsScrapeError(err)
	if !ok {
		scrapeErr = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
	}

	c.JSON(mapErrorToStatus(scrapeErr), models.ErrorResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
		Timing:  &timing,
	})
}

// badRequest writes a 400 for a payload that failed binding or validation.
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, models.NewErrorResponse(models.ErrCodeInvalidInput, msg))
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeNetwork, models.ErrCodeHTTPStatus:
		return http.StatusBadGateway // 502
	case models.ErrCodeNoTables, models.ErrCodeTableNotFound:
		return http.StatusUnprocessableEntity // 422
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}
