package api

import (
	"context"                         // Context for Redis operations
	"net/http"                        // HTTP status codes
	"strconv"                         // String conversion
	"time"                            // Time durations
	"nanogallery/internal/catalog"    // Template catalog views
	"nanogallery/internal/domain"     // Importing domain models
	"nanogallery/internal/moderation" // Moderation state machine
	"nanogallery/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// publicCachePrefix keys every cached page of the public gallery view
const publicCachePrefix = "catalog:public:"

// catalogQuery reads the shared search and pagination query parameters
func catalogQuery(c *gin.Context) catalog.Query {
	q := catalog.Query{Search: c.Query("q"), Page: 1, PageSize: catalog.DefaultPageSize}
	// If page exists in query
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			q.Page = v // Set page if valid
		}
	}
	// If page_size exists in query
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= catalog.MaxPageSize {
			q.PageSize = v // Set page size if valid
		}
	}
	return q
}

// invalidatePublicCache drops every cached public gallery page. Called after
// any write that can change public visibility.
func invalidatePublicCache(rdb *redis.Client) {
	if rdb != nil {
		_ = utils.DeleteCacheByPrefix(context.Background(), rdb, publicCachePrefix)
	}
}

// ListTemplatesHandler returns the public gallery view, cached per page
func ListTemplatesHandler(cat *catalog.Catalog, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := catalogQuery(c)
		ctx := context.Background() // Context for Redis operations
		cacheKey := publicCachePrefix + "q=" + q.Search + ":page=" + strconv.Itoa(q.Page) + ":size=" + strconv.Itoa(q.PageSize)
		var cached catalog.Page
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{"templates": cached.Templates, "page": cached.Page, "page_size": cached.PageSize, "has_more": cached.HasMore, "cached": true})
			return
		}
		page, err := cat.Public(q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates"})
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, page, 60*time.Second) // Cache the page for 60 seconds
		c.JSON(http.StatusOK, gin.H{"templates": page.Templates, "page": page.Page, "page_size": page.PageSize, "has_more": page.HasMore, "cached": false})
	}
}

// MyTemplatesHandler returns the personal library view for the caller
func MyTemplatesHandler(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get account ID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		page, err := cat.Personal(userID.(uint), catalogQuery(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch templates"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"templates": page.Templates, "page": page.Page, "page_size": page.PageSize, "has_more": page.HasMore})
	}
}

// CreateTemplateRequest carries a save of a generation result as a template
type CreateTemplateRequest struct {
	Title           string   `json:"title" binding:"required"`     // Display title must be provided
	Prompt          string   `json:"prompt" binding:"required"`    // Prompt must be provided
	AspectRatio     string   `json:"aspect_ratio"`                 // One of the fixed aspect ratios
	ImageURL        string   `json:"image_url" binding:"required"` // Durable URL of the generated image
	ReferenceImages []string `json:"reference_images"`             // Optional reference image data URLs
	IsPublished     bool     `json:"is_published"`                 // Publication intent
}

// CreateTemplateHandler saves a generation result as a template and enters it
// into the moderation machine
func CreateTemplateHandler(db *gorm.DB, mod *moderation.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get account ID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req CreateTemplateRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.AspectRatio != "" && !domain.ValidAspectRatio(req.AspectRatio) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown aspect ratio"})
			return
		}
		// Validate malformed reference encodings before persisting anything
		for _, raw := range req.ReferenceImages {
			if _, err := domain.ParseDataURL(raw); err != nil {
				respondError(c, err)
				return
			}
		}
		var account domain.Account // The creating account decides the initial status
		if err := db.First(&account, userID).Error; err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		t := domain.Template{
			Title:           req.Title,           // Display title
			Prompt:          req.Prompt,          // Generation prompt
			AspectRatio:     req.AspectRatio,     // Aspect ratio
			ImageURL:        req.ImageURL,        // Primary image URL
			ReferenceImages: req.ReferenceImages, // Reference images
			IsPublished:     req.IsPublished,     // Publication intent
		}
		if err := mod.Create(&account, &t); err != nil {
			respondError(c, err)
			return
		}
		// An admin-created public template is immediately visible
		invalidatePublicCache(rdb)
		c.JSON(http.StatusCreated, gin.H{"template": t})
	}
}
