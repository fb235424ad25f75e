package models

import (
	"time"
)

// Order statuses. These are the exact strings stored in the database and
// exchanged with clients.
const (
	StatusPending    = "Pending"
	StatusProcessing = "Processing"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

// OrderStatuses lists every legal order status.
var OrderStatuses = []string{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}

// Order represents a print job submitted by a user
type Order struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"not null;index" json:"user_id"` // identity-provider user id, immutable after creation
	FileKey       string    `gorm:"not null" json:"file_key"`      // object-store key for the uploaded document
	FileName      string    `gorm:"not null" json:"file_name"`     // sanitized original file name
	FileSize      int64     `gorm:"not null" json:"file_size"`     // bytes
	PaperSize     string    `gorm:"not null" json:"paper_size"`
	PrintType     string    `gorm:"not null" json:"print_type"` // Monochrome or Color
	Copies        int       `gorm:"not null;check:copies >= 1" json:"copies"`
	PaymentMethod string    `gorm:"not null" json:"payment_method"`
	Instructions  string    `json:"instructions"`
	Status        string    `gorm:"not null;default:'Pending'" json:"status"`
	FileURL       string    `gorm:"-" json:"file_url,omitempty"` // computed field, presigned URL for the stored file
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// ValidStatus reports whether s is one of the four enumerated order statuses.
func ValidStatus(s string) bool {
	for _, status := range OrderStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order is in a terminal state.
// Terminal orders permit no further transition except deletion.
func (o *Order) IsTerminal() bool {
	return o.Status == StatusCompleted || o.Status == StatusCancelled
}

// CanCancel reports whether the owner may still cancel the order.
func (o *Order) CanCancel() bool {
	return o.Status == StatusPending || o.Status == StatusProcessing
}
