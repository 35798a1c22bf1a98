package response

import (
	"errors"
	"log/slog"
	"net/http"

	"ctchen222/tictactoe/internal/api/service"
	"ctchen222/tictactoe/internal/repository"

	"github.com/gin-gonic/gin"
)

// StatusOf maps domain errors to HTTP status codes.
func StatusOf(err error) int {
	switch {
	case errors.Is(err, repository.ErrGameNotFound), errors.Is(err, repository.ErrAccountNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// ErrorFrom writes an error response for err. Internal errors are logged
// and hidden from the client.
func ErrorFrom(c *gin.Context, err error) {
	code := StatusOf(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		message = http.StatusText(code)
	}
	ErrorResponse(c, code, message)
}
