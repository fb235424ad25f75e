package models

import (
	"time"
)

// AnonymousSender is the sender recorded for contact messages submitted
// without a valid bearer token.
const AnonymousSender = "anonymous"

// Message represents a contact-form or order-scoped message.
// Messages with a nil OrderID are general contact messages and are only
// visible to administrators. Messages are append-only: never updated,
// never deleted by this API.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Sender    string    `gorm:"not null" json:"sender"` // identity-provider user id or "anonymous"
	Content   string    `gorm:"type:text;not null" json:"content"`
	OrderID   *uint     `gorm:"index" json:"order_id,omitempty"` // nil => contact/general message
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for the Message model
func (Message) TableName() string {
	return "messages"
}
