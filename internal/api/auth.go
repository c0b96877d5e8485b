package api

import (
	"errors"                      // Error inspection
	"net/http"                    // HTTP status codes
	"regexp"                      // Regular expressions
	"nanogallery/internal/config" // Application configuration
	"nanogallery/internal/domain" // Importing domain models
	"nanogallery/internal/ledger" // Credit ledger
	"nanogallery/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterRequest carries a sign-up
type RegisterRequest struct {
	Name       string `json:"name" binding:"required"`     // Display name must be provided
	Password   string `json:"password" binding:"required"` // Password must be provided
	AccessCode string `json:"access_code"`                 // Optional elevated access code
}

// LoginRequest carries a sign-in
type LoginRequest struct {
	Name     string `json:"name" binding:"required"`     // Display name must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// AccountView is the caller-facing shape of an account
type AccountView struct {
	ID      uint   `json:"id"`      // Account ID
	Name    string `json:"name"`    // Display name
	Role    string `json:"role"`    // Role: user or admin
	Credits int    `json:"credits"` // Credit balance
	Avatar  string `json:"avatar"`  // Generated avatar URL
}

// viewOf builds the caller-facing view of an account
func viewOf(a *domain.Account) AccountView {
	return AccountView{
		ID:      a.ID,
		Name:    a.Name,
		Role:    a.Role,
		Credits: a.Credits,
		Avatar:  "https://api.dicebear.com/7.x/avataaars/svg?seed=" + a.Name,
	}
}

// isValidName checks that the name is 3-32 letters, digits or spaces
func isValidName(name string) bool {
	matched, _ := regexp.MatchString(`^[A-Za-z0-9 ]{3,32}$`, name)
	return matched
}

// isValidPassword checks that the password length is between 8 and 72 characters
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 72
}

// RegisterHandler creates a new account. A matching access code grants the
// admin role and the elevated starting balance; everyone else starts as a
// regular user with the default credits.
func RegisterHandler(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate name and password
		if !isValidName(req.Name) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name must be 3-32 letters, digits or spaces"})
			return
		}
		if !isValidPassword(req.Password) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-72 characters"})
			return
		}
		// Hash the password
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		// Role and starting balance depend on the access code
		role := domain.RoleUser
		credits := cfg.DefaultCredits
		if cfg.AdminAccessCode != "" && req.AccessCode == cfg.AdminAccessCode {
			role = domain.RoleAdmin
			credits = cfg.AdminCredits
		}
		account := domain.Account{
			Name:     req.Name,     // Display name
			Password: string(hash), // Hashed password
			Role:     role,         // Resolved role
			Credits:  credits,      // Starting balance
		}
		// Attempt to create the account; duplicate names fail the unique index
		if err := db.Create(&account).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name already taken"})
			return
		}
		token, err := utils.GenerateJWT(account.ID, account.Name, cfg.JWTSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return token and account view
		c.JSON(http.StatusCreated, gin.H{"token": token, "account": viewOf(&account)})
	}
}

// LoginHandler authenticates an account and returns a JWT token
func LoginHandler(db *gorm.DB, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var account domain.Account // Fetch account from database
		if err := db.Where("name = ?", req.Name).First(&account).Error; err != nil {
			// Account not found: indistinguishable from a bad password
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		token, err := utils.GenerateJWT(account.ID, account.Name, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Return token and account view
		c.JSON(http.StatusOK, gin.H{"token": token, "account": viewOf(&account)})
	}
}

// SessionHandler returns the current account. If the ledger row vanished for
// an otherwise valid session, it is re-provisioned with defaults so repeated
// logins stay idempotent.
func SessionHandler(db *gorm.DB, lgr *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("userID") // Get account ID from context
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var account domain.Account
		err := db.First(&account, userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Self-heal the missing ledger row
			name := c.GetString("userName")
			provisioned, provErr := lgr.Provision(userID.(uint), name)
			if provErr != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to provision account"})
				return
			}
			account = *provisioned
		} else if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load account"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"account": viewOf(&account)})
	}
}
