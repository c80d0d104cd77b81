package api

import (
	"errors"
	"net/http"

	"alcyxob/movement-program/internal/corpus"
	"alcyxob/movement-program/internal/domain"
	"alcyxob/movement-program/internal/logger"

	"github.com/gin-gonic/gin"
)

// abortWithServiceError maps service errors onto HTTP status codes.
func abortWithServiceError(c *gin.Context, log *logger.Logger, err error, fallbackMsg string) {
	switch {
	case errors.Is(err, domain.ErrInvalidProfile):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, corpus.ErrCorpusUnavailable):
		log.Warn("Corpus unavailable", "path", c.FullPath(), "error", err.Error())
		abortWithError(c, http.StatusServiceUnavailable, "Exercise corpus is unavailable.")
	default:
		log.Error("Request failed", "path", c.FullPath(), "error", err.Error())
		abortWithError(c, http.StatusInternalServerError, fallbackMsg)
	}
}
