package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quickprint/quickprint-api/middleware"
	"github.com/quickprint/quickprint-api/models"
	"github.com/quickprint/quickprint-api/realtime"
)

// MessageController handles order-scoped messages between an order's owner
// and administrators
type MessageController struct {
	db          *gorm.DB
	broadcaster realtime.Broadcaster
}

// NewMessageController creates a new message controller
func NewMessageController(db *gorm.DB, broadcaster realtime.Broadcaster) *MessageController {
	return &MessageController{db: db, broadcaster: broadcaster}
}

// SendMessageRequest represents the request body for sending an order message
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	OrderID uint   `json:"orderId" binding:"required"`
}

// loadAuthorizedOrder fetches the referenced order and verifies the caller
// is its owner or an admin. Writes the error response itself on failure.
func (ctrl *MessageController) loadAuthorizedOrder(c *gin.Context, orderID interface{}) (*models.Order, bool) {
	identity, err := middleware.CurrentIdentity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNAUTHORIZED",
				"message": "Could not extract user information",
			},
		})
		return nil, false
	}

	var order models.Order
	if err := ctrl.db.First(&order, "id = ?", orderID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return nil, false
	}

	if order.UserID != identity.ID && !identity.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You do not have access to this order",
			},
		})
		return nil, false
	}

	return &order, true
}

// SendMessage handles POST /api/messages - creates an order-scoped message.
// The caller must own the referenced order or be an admin.
func (ctrl *MessageController) SendMessage(c *gin.Context) {
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

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Content and orderId are required",
			},
		})
		return
	}

	order, ok := ctrl.loadAuthorizedOrder(c, req.OrderID)
	if !ok {
		return
	}

	message := models.Message{
		Sender:  identity.ID,
		Content: req.Content,
		OrderID: &order.ID,
	}

	if err := ctrl.db.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create message",
			},
		})
		return
	}

	// Happens-after persistence: the event carries the durably stored record.
	ctrl.broadcaster.Broadcast(NewMessageEvent, message)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    message,
	})
}

// ListMessages handles GET /api/messages/:orderId - lists an order's
// messages oldest first. Owner or admin only. Contact messages (no order
// association) are never returned here.
func (ctrl *MessageController) ListMessages(c *gin.Context) {
	order, ok := ctrl.loadAuthorizedOrder(c, c.Param("orderId"))
	if !ok {
		return
	}

	var messages []models.Message
	if err := ctrl.db.Where("order_id = ?", order.ID).
		Order("created_at ASC").
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
