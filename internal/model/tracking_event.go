package model

import "time"

// TrackingKind is the type of a notification receipt.
type TrackingKind string

const (
	TrackingDelivered TrackingKind = "delivered"
	TrackingClicked   TrackingKind = "clicked"
)

// TrackingEvent is a delivery or click receipt. At most one is kept per
// notification, customer and kind.
type TrackingEvent struct {
	ID             int64        `gorm:"primaryKey;autoIncrement"`
	NotificationID string       `gorm:"size:36;not null;uniqueIndex:idx_tracking_once"`
	CustomerID     string       `gorm:"size:36;not null;uniqueIndex:idx_tracking_once"`
	Kind           TrackingKind `gorm:"size:16;not null;uniqueIndex:idx_tracking_once"`
	CreatedAt      time.Time    `gorm:"not null"`
}
