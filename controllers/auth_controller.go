package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quickprint/quickprint-api/middleware"
	"github.com/quickprint/quickprint-api/services"
)

// AuthController handles signup, login and identity resolution through the
// external identity provider
type AuthController struct {
	identity services.IdentityInterface
}

// NewAuthController creates a new auth controller
func NewAuthController(identity services.IdentityInterface) *AuthController {
	return &AuthController{identity: identity}
}

// SignupRequest represents the request body for creating an identity
type SignupRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the request body for obtaining a bearer token
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signup handles POST /api/auth/signup - registers a new identity with the provider
func (ctrl *AuthController) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	session, err := ctrl.identity.SignUp(req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "VALIDATION_ERROR",
					"message": "Failed to sign up",
				},
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH_PROVIDER_ERROR",
				"message": "Failed to sign up",
			},
		})
		return
	}

	if session.ConfirmationRequired {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"user":                 session.Identity,
				"confirmationRequired": true,
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"token":                session.Token,
			"user":                 session.Identity,
			"confirmationRequired": false,
		},
	})
}

// Login handles POST /api/auth/login - exchanges credentials for a bearer token
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid request data",
				"details": err.Error(),
			},
		})
		return
	}

	session, err := ctrl.identity.SignIn(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			// Generic message: do not reveal which part of the credentials failed.
			c.JSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "UNAUTHORIZED",
					"message": "Invalid email or password",
				},
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH_PROVIDER_ERROR",
				"message": "Failed to log in",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"token": session.Token,
			"user":  session.Identity,
		},
	})
}

// Me handles GET /api/auth/me - returns the caller's resolved identity
func (ctrl *AuthController) Me(c *gin.Context) {
	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    identity,
	})
}
