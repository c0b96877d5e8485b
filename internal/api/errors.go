package api

import (
	"errors"                      // Error inspection
	"net/http"                    // HTTP status codes
	"nanogallery/internal/domain" // Error taxonomy

	"github.com/gin-gonic/gin" // Gin web framework
)

// respondError maps a core workflow error onto an HTTP response. Only short
// human-readable messages go out; internals stay in the logs.
func respondError(c *gin.Context, err error) {
	var insufficient *domain.InsufficientCreditsError
	switch {
	case errors.As(err, &insufficient):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":     "Insufficient credits",
			"needed":    insufficient.Needed,    // Credits the request would cost
			"available": insufficient.Available, // Credits on the account
		})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Invalid moderation transition"})
	case errors.Is(err, domain.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Image model unavailable"})
	case errors.Is(err, domain.ErrGenerationFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Image generation failed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
