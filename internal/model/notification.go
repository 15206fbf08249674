package model

import "time"

// Notification is a message sent to every subscriber of an opt-in link.
type Notification struct {
	ID                 string `gorm:"primaryKey;size:36"`
	OptInLinkID        string `gorm:"index;size:36;not null"`
	Title              string `gorm:"size:256;not null"`
	Body               string `gorm:"size:2048"`
	Icon               string `gorm:"size:512"`
	Badge              string `gorm:"size:512"`
	Image              string `gorm:"size:512"`
	URL                string `gorm:"size:1024"`
	Tag                string `gorm:"size:64"`
	RequireInteraction bool
	CreatedAt          time.Time `gorm:"not null"`
	SentAt             *time.Time
}
