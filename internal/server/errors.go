package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/MarcoPoloResearchLab/clipstore/internal/catalog"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// statusForError maps catalog sentinels to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrConflict), errors.Is(err, catalog.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError renders a catalog failure as {"error": reason, "code": code}.
// Anything else is logged and reported as an internal error.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	var serviceErr *catalog.ServiceError
	if errors.As(err, &serviceErr) {
		status := statusForError(err)
		if status != http.StatusInternalServerError {
			h.metrics.RecordCatalogError(operationOf(serviceErr), serviceErr.Reason())
			c.JSON(status, gin.H{"error": serviceErr.Reason(), "code": serviceErr.Code()})
			return
		}
	}
	h.logger.Error("request failed",
		zap.String("request_id", requestIDFrom(c)),
		zap.String("path", c.FullPath()),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
}

// operationOf strips the package prefix and the reason suffix from the code.
func operationOf(serviceErr *catalog.ServiceError) string {
	operation := strings.TrimSuffix(serviceErr.Code(), "."+serviceErr.Reason())
	return strings.TrimPrefix(operation, "catalog.")
}

func respondForbidden(c *gin.Context) {
	c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
}

func respondNotFound(c *gin.Context, reason string) {
	c.JSON(http.StatusNotFound, gin.H{"error": reason})
}
