package model

import "time"

// Customer is a contact registered through an opt-in link.
type Customer struct {
	ID          string         `gorm:"primaryKey;size:36"`
	OptInLinkID string         `gorm:"index;size:36;not null"`
	Name        string         `gorm:"size:256"`
	Email       string         `gorm:"index;size:256"`
	Phone       string         `gorm:"size:64"`
	Platform    string         `gorm:"size:16;not null"`
	Browser     string         `gorm:"size:16;not null"`
	CustomData  map[string]any `gorm:"serializer:json"`
	CreatedAt   time.Time      `gorm:"not null"`
	UpdatedAt   time.Time      `gorm:"not null"`
}
