package rest

import (
	"errors"
	"net/http"

	"bitbucket.org/auricsoft/atelier_backend/models"
	"bitbucket.org/auricsoft/atelier_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// statusForError maps domain sentinel errors to HTTP statuses. Everything
// else is treated as a bad request; handlers never leak stack traces.
func statusForError(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrInsufficientStock),
		errors.Is(err, models.ErrInvalidJobState),
		errors.Is(err, models.ErrDuplicateBarcode):
		return http.StatusConflict
	case errors.Is(err, models.ErrOverConsumption),
		errors.Is(err, models.ErrUnreconciledClose):
		return http.StatusUnprocessableEntity
	}
	return http.StatusBadRequest
}

func abortWithError(c *gin.Context, err error) {
	cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
	c.JSON(statusForError(err), gin.H{"error": err.Error(), "correlation_id": cid})
}

func abortWithBindingError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": utils.ProcessValidationErrors(err)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
}
