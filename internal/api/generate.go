package api

import (
	"net/http"                        // HTTP status codes
	"nanogallery/internal/domain"     // Importing domain models
	"nanogallery/internal/generation" // Generation orchestrator

	"github.com/gin-gonic/gin" // Gin web framework
)

// GenerateRequest carries one image generation request
type GenerateRequest struct {
	Prompt          string   `json:"prompt" binding:"required"` // Text prompt must be provided
	AspectRatio     string   `json:"aspect_ratio"`              // One of the fixed aspect ratios, defaults to 1:1
	Quality         string   `json:"quality"`                   // Quality tier, defaults to standard
	ImageCount      int      `json:"image_count"`               // Requested images, clamped to [1,3]
	ReferenceImages []string `json:"reference_images"`          // Optional base64 data URLs
}

// GenerateHandler runs the credit-metered generation workflow for the
// authenticated account
func GenerateHandler(orch *generation.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get account ID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req GenerateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Decode reference images; a malformed data URL is a validation error
		refs := make([]domain.ReferenceImage, 0, len(req.ReferenceImages))
		for _, raw := range req.ReferenceImages {
			ref, err := domain.ParseDataURL(raw)
			if err != nil {
				respondError(c, err)
				return
			}
			refs = append(refs, ref)
		}
		result, err := orch.Generate(c.Request.Context(), generation.Request{
			AccountID:   userID.(uint),           // Authenticated caller
			AccountName: c.GetString("userName"), // For lazy ledger provisioning
			Prompt:      req.Prompt,              // Text prompt
			AspectRatio: req.AspectRatio,         // Aspect ratio
			Quality:     req.Quality,             // Quality tier
			ImageCount:  req.ImageCount,          // Requested count
			References:  refs,                    // Decoded reference images
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result) // Return delivered artifacts and new balance
	}
}
