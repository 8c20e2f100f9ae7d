package api

import (
	"errors"
	"log/slog"
	"net/http"

	"alcyxob/todo-app/internal/service"

	"github.com/gin-gonic/gin"
)

// respondWithError maps a service error to a status code and aborts.
// Unexpected errors are logged and reported without detail.
func respondWithError(c *gin.Context, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrValidationFailed):
		abortWithError(c, http.StatusBadRequest, err.Error())
	default:
		logger.Error("request failed",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"error", err,
		)
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}
