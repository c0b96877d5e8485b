package api

import (
	"context"                         // Context for Redis operations
	"net/http"                        // HTTP status codes
	"strconv"                         // String conversion
	"strings"                         // String manipulation
	"time"                            // Time durations
	"nanogallery/internal/catalog"    // Template catalog views
	"nanogallery/internal/domain"     // Importing domain models
	"nanogallery/internal/ledger"     // Credit ledger
	"nanogallery/internal/moderation" // Moderation state machine
	"nanogallery/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// actingAccount returns the admin account cached by AdminOnlyMiddleware
func actingAccount(c *gin.Context) *domain.Account {
	if v, ok := c.Get("account"); ok {
		if account, ok := v.(*domain.Account); ok {
			return account
		}
	}
	return nil
}

// ReviewQueueHandler returns the pending review queue for admins
func ReviewQueueHandler(cat *catalog.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := cat.Review(actingAccount(c), catalogQuery(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch review queue"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"templates": page.Templates, "page": page.Page, "page_size": page.PageSize, "has_more": page.HasMore})
	}
}

// ApproveTemplateHandler transitions a pending template to approved
func ApproveTemplateHandler(mod *moderation.Service, rdb *redis.Client) gin.HandlerFunc {
	return moderateHandler(mod.Approve, rdb)
}

// RejectTemplateHandler transitions a pending template to rejected
func RejectTemplateHandler(mod *moderation.Service, rdb *redis.Client) gin.HandlerFunc {
	return moderateHandler(mod.Reject, rdb)
}

// moderateHandler runs one moderation transition and invalidates the public cache
func moderateHandler(transition func(uint, *domain.Account) (*domain.Template, error), rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 64) // Parse template ID from path
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid template id"})
			return
		}
		t, err := transition(uint(id), actingAccount(c))
		if err != nil {
			respondError(c, err)
			return
		}
		// Visibility may have changed; drop cached public pages
		invalidatePublicCache(rdb)
		c.JSON(http.StatusOK, gin.H{"template": t})
	}
}

// ListAccountsHandler returns all accounts with their credit balances
func ListAccountsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Use background context for Redis
		// Create a cache key based on pagination parameters
		cacheKey := "admin:accounts:page=" + c.DefaultQuery("page", "1") + ":size=" + c.DefaultQuery("page_size", "20")
		var cached struct {
			Accounts   []AccountView `json:"accounts"`    // List of accounts
			Page       int           `json:"page"`        // Current page
			PageSize   int           `json:"page_size"`   // Page size
			Total      int64         `json:"total"`       // Total number of accounts
			TotalPages int           `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"accounts":    cached.Accounts,   // List of accounts
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total number of accounts
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		page := 1      // Default page number
		pageSize := 20 // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		// Check and set page size within limits
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size
			}
		}
		offset := (page - 1) * pageSize // Calculate offset for pagination
		var total int64                 // Total account count
		if err := db.Model(&domain.Account{}).Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count accounts"})
			return
		}
		var accounts []domain.Account // Slice to hold accounts
		if err := db.Offset(offset).Limit(pageSize).Find(&accounts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch accounts"})
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // Calculate total pages
		// Map accounts to the caller-facing view
		resp := make([]AccountView, len(accounts))
		for i := range accounts {
			resp[i] = viewOf(&accounts[i])
		}
		respData := gin.H{
			"accounts":    resp,       // List of accounts
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of accounts
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Indicate response is not from cache
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, 60*time.Second)
		c.JSON(http.StatusOK, respData) // Return the response
	}
}

// GrantCreditsRequest carries an administrative credit grant
type GrantCreditsRequest struct {
	AccountID uint `json:"account_id" binding:"required"`  // Receiving account
	Amount    int  `json:"amount" binding:"required,gt=0"` // Credits to grant
}

// GrantCreditsHandler adds credits to an account and records the grant
func GrantCreditsHandler(lgr *ledger.Service, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actingAccount(c)
		if actor == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req GrantCreditsRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || req.Amount <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		newBalance, err := lgr.Grant(req.AccountID, req.Amount, actor.ID)
		if err != nil {
			respondError(c, err)
			return
		}
		// Invalidate cached admin listings that embed balances
		if rdb != nil {
			ctx := context.Background()
			_ = utils.DeleteCacheByPrefix(ctx, rdb, "admin:accounts:")
			_ = utils.DeleteCacheByPrefix(ctx, rdb, "admin:grants:")
		}
		c.JSON(http.StatusOK, gin.H{"account_id": req.AccountID, "credits": newBalance})
	}
}

// ListGrantsHandler returns credit grants, optionally filtered by account
func ListGrantsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background()
		// Build cache key from all query params
		var keyParts []string // Parts of the cache key
		for _, k := range []string{"account_id", "page", "page_size"} {
			keyParts = append(keyParts, k+"="+c.DefaultQuery(k, "")) // Append key-value pair
		}
		cacheKey := "admin:grants:" + strings.Join(keyParts, ":")
		var cached struct {
			Grants     []domain.CreditGrant `json:"grants"`      // List of grants
			Page       int                  `json:"page"`        // Current page
			PageSize   int                  `json:"page_size"`   // Page size
			Total      int64                `json:"total"`       // Total number of grants
			TotalPages int                  `json:"total_pages"` // Total pages
		}
		// If cached data found, return it
		found, err := utils.GetCache(ctx, rdb, cacheKey, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, gin.H{
				"grants":      cached.Grants,     // List of grants
				"page":        cached.Page,       // Current page
				"page_size":   cached.PageSize,   // Page size
				"total":       cached.Total,      // Total number of grants
				"total_pages": cached.TotalPages, // Total pages
				"cached":      true,              // Indicate response is from cache
			})
			return
		}
		page := 1      // Default page number
		pageSize := 20 // Default page size
		if p := c.Query("page"); p != "" {
			if v, err := strconv.Atoi(p); err == nil && v > 0 {
				page = v // Set page if valid
			}
		}
		if ps := c.Query("page_size"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
				pageSize = v // Set page size
			}
		}
		offset := (page - 1) * pageSize          // Calculate offset for pagination
		query := db.Model(&domain.CreditGrant{}) // Start building the query
		if accountID := c.Query("account_id"); accountID != "" {
			query = query.Where("account_id = ?", accountID) // Filter by receiving account
		}
		var total int64 // Total grant count
		if err := query.Count(&total).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count grants"})
			return
		}
		var grants []domain.CreditGrant // Slice to hold grants
		if err := query.Order("created_at desc").Offset(offset).Limit(pageSize).Find(&grants).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch grants"})
			return
		}
		totalPages := (int(total) + pageSize - 1) / pageSize // The total number of pages
		respData := gin.H{
			"grants":      grants,     // List of grants
			"page":        page,       // Current page
			"page_size":   pageSize,   // Page size
			"total":       total,      // Total number of grants
			"total_pages": totalPages, // Total pages
			"cached":      false,      // Indicate response is not from cache
		}
		// Cache the response for future requests
		_ = utils.SetCache(ctx, rdb, cacheKey, respData, 60*time.Second)
		c.JSON(http.StatusOK, respData) // Return the response
	}
}
