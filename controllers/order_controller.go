package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/quickprint/quickprint-api/middleware"
	"github.com/quickprint/quickprint-api/models"
	"github.com/quickprint/quickprint-api/services"
	"github.com/quickprint/quickprint-api/utils"
)

// OrderController handles the order lifecycle for authenticated owners
type OrderController struct {
	db      *gorm.DB
	storage services.StorageInterface
}

// NewOrderController creates a new order controller
func NewOrderController(db *gorm.DB, storage services.StorageInterface) *OrderController {
	return &OrderController{db: db, storage: storage}
}

// CreateOrder handles POST /api/orders - submits a new print request.
// The request is multipart: a "file" part plus the print option fields.
// Fields are validated before the upload so a rejected submission never
// leaves an orphaned object in storage.
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
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

	copiesValue := c.PostForm("copies")
	paperSize := c.PostForm("paperSize")
	printType := c.PostForm("printType")
	paymentMethod := c.PostForm("paymentMethod")
	instructions := c.PostForm("instructions")

	if copiesValue == "" || paperSize == "" || printType == "" || paymentMethod == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Missing required fields",
			},
		})
		return
	}

	copies, err := strconv.Atoi(copiesValue)
	if err != nil || copies < 1 {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "Copies must be a positive integer",
			},
		})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "VALIDATION_ERROR",
				"message": "No file uploaded",
			},
		})
		return
	}

	if err := utils.ValidatePrintFile(fileHeader); err != nil {
		var uploadErr *utils.FileUploadError
		code := "VALIDATION_ERROR"
		if errors.As(err, &uploadErr) {
			code = uploadErr.Code
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	fileKey, err := ctrl.storage.Upload(fileHeader)
	if err != nil {
		log.Printf("failed to upload print file: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "STORAGE_ERROR",
				"message": "Failed to store uploaded file",
			},
		})
		return
	}

	order := models.Order{
		UserID:        identity.ID,
		FileKey:       fileKey,
		FileName:      utils.SanitizeFileName(fileHeader.Filename),
		FileSize:      fileHeader.Size,
		PaperSize:     paperSize,
		PrintType:     printType,
		Copies:        copies,
		PaymentMethod: paymentMethod,
		Instructions:  instructions,
		Status:        models.StatusPending,
	}

	if err := ctrl.db.Create(&order).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to create order",
			},
		})
		return
	}

	ctrl.attachFileURL(&order)

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    order,
	})
}

// ListOrders handles GET /api/orders - lists the caller's orders, newest first
func (ctrl *OrderController) ListOrders(c *gin.Context) {
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

	var orders []models.Order
	if err := ctrl.db.Where("user_id = ?", identity.ID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
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
		ctrl.attachFileURL(&orders[i])
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orders,
	})
}

// CancelOrder handles PUT /api/orders/:id/cancel - Pending/Processing to Cancelled.
// Only the owner may cancel; the ownership check runs before any state checks.
func (ctrl *OrderController) CancelOrder(c *gin.Context) {
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

	if order.UserID != identity.ID {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You can only cancel your own orders",
			},
		})
		return
	}

	if !order.CanCancel() {
		c.JSON(http.StatusConflict, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_TRANSITION",
				"message": "You can only cancel orders that are Pending or Processing",
			},
		})
		return
	}

	if err := ctrl.db.Model(&order).Update("status", models.StatusCancelled).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to cancel order",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    order,
	})
}

// DeleteOrder handles DELETE /api/orders/:id - removes a terminal order.
// Deletion is two-phase: the stored file is removed first, then the record.
// If the file deletion fails the record is kept so the delete can be retried.
func (ctrl *OrderController) DeleteOrder(c *gin.Context) {
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

	if order.UserID != identity.ID && !identity.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FORBIDDEN",
				"message": "You can only delete your own orders",
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
		// Keep the record: the file reference stays valid and the delete
		// can be retried.
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

// attachFileURL fills the computed FileURL field with a fresh signed URL
func (ctrl *OrderController) attachFileURL(order *models.Order) {
	url, err := ctrl.storage.SignedURL(order.FileKey)
	if err != nil {
		log.Printf("failed to sign URL for key %s: %v", order.FileKey, err)
		return
	}
	order.FileURL = url
}
