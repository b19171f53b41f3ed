package models

import (
	"github.com/google/uuid"
)

// Delivery statuses
const (
	DeliveryStatusSent   = "SENT"
	DeliveryStatusFailed = "FAILED"
)

// BroadcastMessage is one outbound campaign over a single channel.
type BroadcastMessage struct {
	BaseModel
	Channel    string            `json:"channel"`
	Title      string            `json:"title"`
	Body       string            `json:"body"`
	Sent       int               `json:"sent"`
	Failed     int               `json:"failed"`
	Skipped    int               `json:"skipped"`
	Deliveries []MessageDelivery `gorm:"foreignKey:MessageID" json:"deliveries,omitempty"`
}

// MessageDelivery records the outcome of one recipient of a broadcast.
type MessageDelivery struct {
	BaseModel
	MessageID  uuid.UUID `gorm:"type:uuid;index" json:"message_id"`
	CustomerID uuid.UUID `gorm:"type:uuid;index" json:"customer_id"`
	Recipient  string    `json:"recipient"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
}

// MessageSubscription opts a customer into broadcasts on one channel.
// Rows are created when consent is stamped on full verification.
type MessageSubscription struct {
	BaseModel
	CustomerID uuid.UUID `gorm:"type:uuid;index:idx_subscription,unique" json:"customer_id"`
	Channel    string    `gorm:"index:idx_subscription,unique" json:"channel"`
}
