package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "balanceboard/internal/errors"
	"balanceboard/internal/logger"
)

// getUserID extracts the authenticated user's id set by the auth middleware.
// Responds 401 and returns false when it is absent.
func getUserID(c *gin.Context) (string, bool) {
	userID := c.GetString("userID")
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": gin.H{
				"code":    apperrors.ErrUnauthorized.Code,
				"message": apperrors.ErrUnauthorized.Message,
			},
		})
		return "", false
	}
	return userID, true
}

// respondWithError writes a consistent JSON error response. AppErrors map to
// their status and code; anything else becomes a generic 500 after logging.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("request failed",
				"code", appErr.Code,
				"path", c.Request.URL.Path,
				"internal", appErr.Internal.Error(),
			)
		}
		c.JSON(appErr.StatusCode, gin.H{
			"error": gin.H{
				"code":    appErr.Code,
				"message": appErr.Message,
			},
		})
		return
	}

	logger.Get().Errorw("request failed",
		"path", c.Request.URL.Path,
		"error", err.Error(),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"error": gin.H{
			"code":    apperrors.ErrInternalServer.Code,
			"message": apperrors.ErrInternalServer.Message,
		},
	})
}

// dateLayouts accepted in query parameters.
var queryDateLayouts = []string{"2006-01-02", time.RFC3339}

// parseFlexibleTime parses a query date in either date-only or RFC 3339 form.
func parseFlexibleTime(s string) (time.Time, error) {
	for _, layout := range queryDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.ErrInvalidDate
}
