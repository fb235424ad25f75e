package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quickprint/quickprint-api/models"
	"github.com/quickprint/quickprint-api/services"
)

// AdminController handles administrative order and user management.
// Every route using it is guarded by middleware.RequireAdmin.
type AdminController struct {
	db       *gorm.DB
	storage  services.StorageInterface
	identity services.IdentityInterface
}

// NewAdminController creates a new admin controller
func NewAdminController(db *gorm.DB, storage services.StorageInterface, identity services.IdentityInterface) *AdminController {
	return &AdminController{db: db, storage: storage, identity: identity}
}

// UpdateOrderStatusRequest represents the request body for setting an order status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ListAllOrders handles GET /api/admin/orders - lists every order, newest first
func (ctrl *AdminController) ListAllOrders(c *gin.Context) {
	var orders []models.Order
	if err := ctrl.db.Order("created_at DESC").Find(&orders).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to fetch orders",
			},
		})
		return
	}

	for i := range orders {
		url, err := ctrl.storage.SignedURL(orders[i].FileKey)
		if err != nil {
			log.Printf("failed to sign URL for key %s: %v", orders[i].FileKey, err)
			continue
		}
		orders[i].FileURL = url
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// UpdateOrderStatus handles PUT /api/admin/orders/:id - sets the order status
// to any of the four enumerated values
func (ctrl *AdminController) UpdateOrderStatus(c *gin.Context) {
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil || !models.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Invalid status",
			},
		})
		return
	}

	var order models.Order
	if err := ctrl.db.First(&order, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	if err := ctrl.db.Model(&order).Update("status", req.Status).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to update order status",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DeleteOrder handles DELETE /api/admin/orders/:id - removes a terminal order
// regardless of owner. Same two-phase ordering as the owner path: stored
// file first, record second.
func (ctrl *AdminController) DeleteOrder(c *gin.Context) {
	var order models.Order
	if err := ctrl.db.First(&order, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "ORDER_NOT_FOUND",
				"message": "Order not found",
			},
		})
		return
	}

	if !order.IsTerminal() {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": "You can only delete orders that are Completed or Cancelled",
			},
		})
		return
	}

	if err := ctrl.storage.Delete(order.FileKey); err != nil {
		log.Printf("failed to delete stored file %s: %v", order.FileKey, err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "Failed to delete stored file",
			},
		})
		return
	}

	if err := ctrl.db.Delete(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to delete order",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "Order deleted successfully",
		},
	})
}

// ListUsers handles GET /api/admin/users - lists all identities from the provider
func (ctrl *AdminController) ListUsers(c *gin.Context) {
	identities, err := ctrl.identity.ListUsers()
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH_PROVIDER_ERROR",
				"message": "Failed to fetch users",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    identities,
	})
}

// DeleteUser handles DELETE /api/admin/users/:id - removes a non-admin identity.
// Admin identities are protected from deletion.
func (ctrl *AdminController) DeleteUser(c *gin.Context) {
	id := c.Param("id")

	target, err := ctrl.identity.GetUserByID(id)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "USER_NOT_FOUND",
					"message": "User not found",
				},
			})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH_PROVIDER_ERROR",
				"message": "Failed to fetch user",
			},
		})
		return
	}

	if target.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "Cannot delete admin users",
			},
		})
		return
	}

	if err := ctrl.identity.DeleteUser(id); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "AUTH_PROVIDER_ERROR",
				"message": "Failed to delete user",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"message": "User deleted successfully",
		},
	})
}
