package model

import "time"

// Customization is the look of an opt-in page.
type Customization struct {
	CompanyName     string `gorm:"size:128"`
	LogoURL         string `gorm:"size:512"`
	Title           string `gorm:"size:256"`
	Description     string `gorm:"size:1024"`
	ButtonText      string `gorm:"size:64"`
	BackgroundColor string `gorm:"size:16"`
	TextColor       string `gorm:"size:16"`
	PrimaryColor    string `gorm:"size:16"`
	SecondaryColor  string `gorm:"size:16"`
	ButtonTextColor string `gorm:"size:16"`
}

// OptInLink is a tokenized page through which customers subscribe.
type OptInLink struct {
	ID           string `gorm:"primaryKey;size:36"`
	Token        string `gorm:"uniqueIndex;size:64;not null"`
	Name         string `gorm:"size:128;not null"`
	Active       bool   `gorm:"not null;default:true"`
	ExpiresAt    *time.Time
	RequireName  bool `gorm:"not null;default:false"`
	RequireEmail bool `gorm:"not null;default:false"`
	RequirePhone bool `gorm:"not null;default:false"`

	Customization Customization `gorm:"embedded;embeddedPrefix:custom_"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// Usable reports whether the link still accepts subscriptions.
func (l *OptInLink) Usable(now time.Time) bool {
	if !l.Active {
		return false
	}
	return l.ExpiresAt == nil || now.Before(*l.ExpiresAt)
}
