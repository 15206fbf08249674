package model

import "time"

// PushSubscription holds the information for a browser push subscription.
// One endpoint belongs to exactly one customer.
type PushSubscription struct {
	Endpoint       string `gorm:"primaryKey"`
	P256DH         string `gorm:"column:p256dh;not null"`
	Auth           string `gorm:"not null"`
	ExpirationTime *int64
	CustomerID     string    `gorm:"index;size:36;not null"`
	OptInLinkID    string    `gorm:"index;size:36;not null"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}
