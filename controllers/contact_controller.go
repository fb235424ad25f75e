package controllers

import (
	"fmt"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quickprint/quickprint-api/middleware"
	"github.com/quickprint/quickprint-api/models"
	"github.com/quickprint/quickprint-api/realtime"
)

// NewMessageEvent is the realtime event name emitted for every persisted message
const NewMessageEvent = "newMessage"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactController handles contact-form messages. They are stored without
// an order association and are only readable by administrators.
type ContactController struct {
	db          *gorm.DB
	broadcaster realtime.Broadcaster
}

// NewContactController creates a new contact controller
func NewContactController(db *gorm.DB, broadcaster realtime.Broadcaster) *ContactController {
	return &ContactController{db: db, broadcaster: broadcaster}
}

// ContactRequest represents a contact form submission
type ContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required"`
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required"`
}

// SubmitContact handles POST /api/contact - stores a contact message.
// Authentication is optional: without a valid token the sender is recorded
// as anonymous.
func (ctrl *ContactController) SubmitContact(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "All fields are required",
			},
		})
		return
	}

	if !emailPattern.MatchString(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid email format",
			},
		})
		return
	}

	sender := models.AnonymousSender
	if identity, err := middleware.CurrentIdentity(c); err == nil {
		sender = identity.ID
	}

	message := models.Message{
		Sender: sender,
		Content: fmt.Sprintf("Contact Form - Name: %s, Email: %s, Subject: %s, Message: %s",
			req.Name, req.Email, req.Subject, req.Message),
	}

	if err := ctrl.db.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to send message",
			},
		})
		return
	}

	// Broadcast only after the write is acknowledged so listeners never see
	// a message that was not persisted.
	ctrl.broadcaster.Broadcast(NewMessageEvent, message)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// ListContactMessages handles GET /api/contact - lists contact messages
// (those with no order association), newest first. Admin only.
func (ctrl *ContactController) ListContactMessages(c *gin.Context) {
	var messages []models.Message
	if err := ctrl.db.Where("order_id IS NULL").
		Order("created_at DESC").
		Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch messages",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}
